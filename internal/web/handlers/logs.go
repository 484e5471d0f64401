package handlers

import (
	"log"
	"net/http"

	"github.com/shelfgate/shelfgate/internal/store"
)

// LogsHandler serves the circulation activity log.
type LogsHandler struct {
	store store.Store
}

// NewLogsHandler creates a new logs handler.
func NewLogsHandler(st store.Store) *LogsHandler {
	return &LogsHandler{store: st}
}

// List handles GET /api/v1/logs, newest first.
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.ListActivityLog(r.Context())
	if err != nil {
		log.Printf("Failed to list activity log: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list activity log")
		return
	}
	if entries == nil {
		entries = []store.ActivityEntry{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"logs":  entries,
		"count": len(entries),
	})
}
