package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/shelfgate/shelfgate/internal/session"
)

// OperationsHandler turns HTTP triggers into orchestrator submissions.
// Triggers return immediately; the workflow runs asynchronously and
// publishes its progress through the status endpoint.
type OperationsHandler struct {
	orchestrator *session.Orchestrator
}

// NewOperationsHandler creates a new operations handler.
func NewOperationsHandler(orch *session.Orchestrator) *OperationsHandler {
	return &OperationsHandler{orchestrator: orch}
}

func (h *OperationsHandler) submit(w http.ResponseWriter, req session.Request) {
	id, err := h.orchestrator.Submit(req)
	if err != nil {
		if errors.Is(err, session.ErrBusy) {
			respondError(w, http.StatusConflict, "A session is already in progress")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"session": id,
	})
}

// RegisterAsset handles POST /api/v1/operations/register-asset.
func (h *OperationsHandler) RegisterAsset(w http.ResponseWriter, r *http.Request) {
	var form session.AssetForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if form.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	log.Printf("Trigger register-asset: %s", sanitizeForLog(form.Title))
	h.submit(w, session.Request{Op: session.OpRegisterAsset, Asset: form})
}

// RegisterIdentity handles POST /api/v1/operations/register-identity.
func (h *OperationsHandler) RegisterIdentity(w http.ResponseWriter, r *http.Request) {
	var form session.IdentityForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if form.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	log.Printf("Trigger register-identity: %s", sanitizeForLog(form.Name))
	h.submit(w, session.Request{Op: session.OpRegisterIdentity, Identity: form})
}

// Issue handles POST /api/v1/operations/issue. The tag read and the
// face match supply all inputs, so the trigger carries no body.
func (h *OperationsHandler) Issue(w http.ResponseWriter, r *http.Request) {
	log.Println("Trigger issue")
	h.submit(w, session.Request{Op: session.OpIssue})
}

// Return handles POST /api/v1/operations/return.
func (h *OperationsHandler) Return(w http.ResponseWriter, r *http.Request) {
	log.Println("Trigger return")
	h.submit(w, session.Request{Op: session.OpReturn})
}
