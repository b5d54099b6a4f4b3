package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"zenbudget/internal/analytics"
	"zenbudget/internal/core"
)

// handleListTransactions returns one page of the filtered list, newest
// first.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := ParseFilter(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap := sessionFrom(r.Context()).State().Snapshot()
	filtered := analytics.Apply(snap.Transactions, f, s.deps.Location)
	writeJSON(w, http.StatusOK, analytics.Paginate(filtered, ParsePage(q)))
}

func (s *Server) handleTransactionMonths(w http.ResponseWriter, r *http.Request) {
	snap := sessionFrom(r.Context()).State().Snapshot()
	writeJSON(w, http.StatusOK, analytics.AvailableMonths(snap.Transactions, s.deps.Location))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := decodeJSON(w, r, &tx); err != nil {
		writeError(w, r, err)
		return
	}
	tx.ID = ""
	tx.RecurrenceOf = ""
	out, err := sessionFrom(r.Context()).AddTransaction(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := decodeJSON(w, r, &tx); err != nil {
		writeError(w, r, err)
		return
	}
	tx.ID = chi.URLParam(r, "id")
	if err := sessionFrom(r.Context()).UpdateTransaction(r.Context(), tx); err != nil {
		writeError(w, r, err)
		return
	}
	tx.Normalize()
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r.Context()).DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
