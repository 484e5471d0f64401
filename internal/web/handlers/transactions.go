package handlers

import (
	"log"
	"net/http"

	"github.com/shelfgate/shelfgate/internal/store"
)

// TransactionsHandler serves circulation transaction listings.
type TransactionsHandler struct {
	store store.Store
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(st store.Store) *TransactionsHandler {
	return &TransactionsHandler{store: st}
}

func (h *TransactionsHandler) respond(w http.ResponseWriter, records []store.TransactionRecord, err error) {
	if err != nil {
		log.Printf("Failed to list transactions: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}
	if records == nil {
		records = []store.TransactionRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"transactions": records,
		"count":        len(records),
	})
}

// List handles GET /api/v1/transactions, newest first.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListTransactions(r.Context())
	h.respond(w, records, err)
}

// ListActive handles GET /api/v1/transactions/active.
func (h *TransactionsHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListActiveTransactions(r.Context())
	h.respond(w, records, err)
}
