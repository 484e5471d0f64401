package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shelfgate/shelfgate/internal/store"
)

// AssetsHandler serves the asset catalog.
type AssetsHandler struct {
	store store.Store
}

// NewAssetsHandler creates a new assets handler.
func NewAssetsHandler(st store.Store) *AssetsHandler {
	return &AssetsHandler{store: st}
}

// List handles GET /api/v1/assets.
func (h *AssetsHandler) List(w http.ResponseWriter, r *http.Request) {
	assets, err := h.store.ListAssets(r.Context())
	if err != nil {
		log.Printf("Failed to list assets: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list assets")
		return
	}
	if assets == nil {
		assets = []store.Asset{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"assets": assets,
		"count":  len(assets),
	})
}

// Delete handles DELETE /api/v1/assets/{id}. Issued assets cannot be
// deleted until they come back.
func (h *AssetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	if err := h.store.DeleteAsset(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, store.ErrAssetIssued):
			respondError(w, http.StatusConflict, "Asset is currently issued")
		case errors.Is(err, store.ErrNotFound):
			respondError(w, http.StatusNotFound, "Asset not found")
		default:
			log.Printf("Failed to delete asset %d: %v", id, err)
			respondError(w, http.StatusInternalServerError, "Failed to delete asset")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
