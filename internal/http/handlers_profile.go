package http

import (
	"net/http"

	"zenbudget/internal/prefs"
)

type profileResponse struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	DataLoading bool   `json:"dataLoading"`
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	snap := sessionFrom(r.Context()).State().Snapshot()
	resp := profileResponse{DataLoading: snap.DataLoading}
	if snap.User != nil {
		resp.UID = snap.User.UID
		resp.DisplayName = snap.User.DisplayName
		resp.Email = snap.User.Email
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"displayName"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess := sessionFrom(r.Context())
	if err := sess.UpdateDisplayName(r.Context(), req.DisplayName); err != nil {
		writeError(w, r, err)
		return
	}
	s.handleGetMe(w, r)
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).State().Preferences())
}

// handleUpdatePreferences applies the fields present in the body.
func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme       *string `json:"theme"`
		SidebarOpen *bool   `json:"sidebarOpen"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	state := sessionFrom(r.Context()).State()
	if req.Theme != nil {
		t, err := prefs.ParseTheme(*req.Theme)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := state.SetTheme(t); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.SidebarOpen != nil {
		if err := state.SetSidebarOpen(*req.SidebarOpen); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, state.Preferences())
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	state := sessionFrom(r.Context()).State()
	if _, err := state.ToggleTheme(); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state.Preferences())
}
