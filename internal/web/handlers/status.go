package handlers

import (
	"net/http"

	"github.com/shelfgate/shelfgate/internal/session"
)

// StatusHandler serves the station's current-operation snapshot. The
// console polls this endpoint; it never blocks on a running session.
type StatusHandler struct {
	status       *session.StatusCell
	orchestrator *session.Orchestrator
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(status *session.StatusCell, orch *session.Orchestrator) *StatusHandler {
	return &StatusHandler{status: status, orchestrator: orch}
}

// StatusResponse is the status poll payload.
type StatusResponse struct {
	Phase   session.Phase `json:"phase"`
	Message string        `json:"message"`
	Busy    bool          `json:"busy"`
}

// Get handles GET /api/v1/status.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	current := h.status.Get()
	respondJSON(w, http.StatusOK, StatusResponse{
		Phase:   current.Phase,
		Message: current.Message,
		Busy:    h.orchestrator.Busy(),
	})
}
