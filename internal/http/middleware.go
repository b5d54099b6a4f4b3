package http

import (
	"context"
	"net/http"

	"zenbudget/internal/core"
	"zenbudget/internal/log"
	"zenbudget/internal/session"
)

type contextKey string

const sessionKey contextKey = "session"

// requireSession authenticates the bearer token and attaches the user's
// session, opening it on first use.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeMessage(w, http.StatusUnauthorized, "missing token")
			return
		}
		id, err := s.deps.Tokens.Parse(raw)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid token")
			return
		}
		sess, err := s.deps.Sessions.Open(r.Context(), core.User{
			UID:         id.UID,
			DisplayName: id.DisplayName,
			Email:       id.Email,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, id.UID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom returns the session attached by requireSession.
func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey).(*session.Session)
	return sess
}
