package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shelfgate/shelfgate/internal/store"
)

// IdentitiesHandler serves the enrolled-identity roster. Embeddings
// never leave the store through this surface.
type IdentitiesHandler struct {
	store store.Store
}

// NewIdentitiesHandler creates a new identities handler.
func NewIdentitiesHandler(st store.Store) *IdentitiesHandler {
	return &IdentitiesHandler{store: st}
}

// List handles GET /api/v1/identities.
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	identities, err := h.store.ListIdentities(r.Context())
	if err != nil {
		log.Printf("Failed to list identities: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list identities")
		return
	}
	if identities == nil {
		identities = []store.Identity{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"identities": identities,
		"count":      len(identities),
	})
}

// Delete handles DELETE /api/v1/identities/{id}. The delete is soft:
// the identity leaves the matching gallery but its transaction history
// stays intact. An identity holding an open loan cannot be removed.
func (h *IdentitiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid identity id")
		return
	}

	if err := h.store.SoftDeleteIdentity(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, store.ErrIdentityHasOpenLoan):
			respondError(w, http.StatusConflict, "Identity has an open loan")
		case errors.Is(err, store.ErrNotFound):
			respondError(w, http.StatusNotFound, "Identity not found")
		default:
			log.Printf("Failed to delete identity %d: %v", id, err)
			respondError(w, http.StatusInternalServerError, "Failed to delete identity")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
