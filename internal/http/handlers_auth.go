package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"zenbudget/internal/auth"
	"zenbudget/internal/core"
	"zenbudget/internal/log"
)

const oauthStateCookie = "zenbudget_oauth_state"

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

type authResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      *core.User `json:"user"`
}

// signIn opens the user's session and issues a token for it.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, id auth.Identity, status int) {
	sess, err := s.deps.Sessions.Open(r.Context(), core.User{
		UID:         id.UID,
		DisplayName: id.DisplayName,
		Email:       id.Email,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	user := sess.State().Snapshot().User
	if user != nil {
		id.DisplayName = user.DisplayName
	}
	token, exp, err := s.deps.Tokens.Issue(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "User signed in",
		log.FieldOperation, log.OpLogin, log.FieldUserID, id.UID, log.FieldClientIP, s.deps.IPs.ClientIP(r))
	writeJSON(w, status, authResponse{Token: token, ExpiresAt: exp, User: user})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.deps.Passwords.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	s.signIn(w, r, id, http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.deps.Passwords.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	s.signIn(w, r, id, http.StatusOK)
}

// handleGoogleStart redirects to Google's consent screen. The state value
// is kept in a short-lived cookie and checked on callback.
func (s *Server) handleGoogleStart(w http.ResponseWriter, r *http.Request) {
	if s.deps.Google == nil {
		writeMessage(w, http.StatusNotFound, "Google sign-in is not enabled")
		return
	}
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/google",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.deps.Google.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.deps.Google == nil {
		writeMessage(w, http.StatusNotFound, "Google sign-in is not enabled")
		return
	}
	c, err := r.Cookie(oauthStateCookie)
	if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error: auth.Message(&auth.Error{Code: auth.CodeInvalidCredential}),
			Code:  string(auth.CodeInvalidCredential),
		})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/api/auth/google", MaxAge: -1})

	id, err := s.deps.Google.Callback(r.Context(), r.URL.Query())
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	s.signIn(w, r, id, http.StatusOK)
}

// handleLogout closes the session. Preferences survive; cached dashboards
// are dropped.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	s.deps.Sessions.Close(sess.UID())
	s.deps.Dashboards.Forget(sess.UID())
	log.FromContext(r.Context()).InfoContext(r.Context(), "User signed out", log.FieldOperation, log.OpLogout)
	w.WriteHeader(http.StatusNoContent)
}
