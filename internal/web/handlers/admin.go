package handlers

import (
	"log"
	"net/http"

	"github.com/shelfgate/shelfgate/internal/session"
	"github.com/shelfgate/shelfgate/internal/store"
)

// AdminHandler serves destructive maintenance operations.
type AdminHandler struct {
	store        store.Store
	orchestrator *session.Orchestrator
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(st store.Store, orch *session.Orchestrator) *AdminHandler {
	return &AdminHandler{store: st, orchestrator: orch}
}

// Purge handles POST /api/v1/admin/purge. It wipes all circulation
// data. Refused while a session is running so a commit cannot race
// the wipe.
func (h *AdminHandler) Purge(w http.ResponseWriter, r *http.Request) {
	if h.orchestrator.Busy() {
		respondError(w, http.StatusConflict, "A session is already in progress")
		return
	}

	if err := h.store.PurgeAll(r.Context()); err != nil {
		log.Printf("Failed to purge store: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to purge")
		return
	}
	log.Println("Store purged")
	respondJSON(w, http.StatusOK, map[string]string{"status": "purged"})
}
