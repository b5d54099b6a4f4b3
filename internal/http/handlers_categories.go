package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"zenbudget/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).State().Snapshot().Categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	c.ID = ""
	out, err := sessionFrom(r.Context()).AddCategory(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	c.ID = chi.URLParam(r, "id")
	if err := sessionFrom(r.Context()).UpdateCategory(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	c.Normalize()
	writeJSON(w, http.StatusOK, c)
}

// handleDeleteCategory removes the category. Transactions that reference it
// are left unchanged.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r.Context()).DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
