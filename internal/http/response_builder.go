// Package http provides HTTP server and handler implementations.
//
// This file holds the JSON response helpers shared by all handlers and the
// mapping from domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"zenbudget/internal/analytics"
	"zenbudget/internal/auth"
	"zenbudget/internal/core"
	"zenbudget/internal/export"
	"zenbudget/internal/log"
	"zenbudget/internal/prefs"
	"zenbudget/internal/session"
	"zenbudget/internal/store"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// requestError marks a malformed request.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &requestError{err: err}
}

// validationErrors are reported to the client as 400 with their message.
var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidDate,
	core.ErrInvalidType,
	core.ErrInvalidFrequency,
	core.ErrEmptyDescription,
	core.ErrDescriptionTooLong,
	core.ErrEmptyCategory,
	core.ErrEmptyCategoryName,
	core.ErrCategoryNameTooLong,
	core.ErrInvalidBudgetLimit,
	core.ErrCategoryTypeMismatch,
	session.ErrUnknownCategory,
	session.ErrMissingID,
	session.ErrEmptyName,
	prefs.ErrInvalidTheme,
	analytics.ErrIncompleteRange,
	export.ErrUnknownFormat,
}

// statusFor maps err to an HTTP status and reports whether its message is
// safe to show.
func statusFor(err error) (int, bool) {
	var re *requestError
	if errors.As(err, &re) {
		return http.StatusBadRequest, true
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, true
		}
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, store.ErrAlreadyExists):
		return http.StatusConflict, true
	case errors.Is(err, session.ErrClosed):
		return http.StatusConflict, true
	}
	return http.StatusInternalServerError, false
}

// authStatus maps an auth failure code to an HTTP status.
func authStatus(code auth.Code) int {
	switch code {
	case auth.CodeUserNotFound, auth.CodeWrongPassword, auth.CodeInvalidCredential:
		return http.StatusUnauthorized
	case auth.CodeEmailAlreadyInUse:
		return http.StatusConflict
	case auth.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case auth.CodeNetworkRequestFail:
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", log.FieldError, err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError reports err to the client. Unexpected errors are logged with
// the request logger and replaced by a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, public := statusFor(err)
	msg := err.Error()
	if !public {
		fields := log.NewFields().WithError(err).ToSlice()
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", fields...)
		msg = auth.GenericMessage
	}
	writeMessage(w, status, msg)
}

// writeAuthError reports a sign-in failure with its user-facing message.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	code := auth.CodeOf(err)
	if code == "" {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Authentication failed", log.FieldError, err)
		writeMessage(w, http.StatusInternalServerError, auth.GenericMessage)
		return
	}
	log.FromContext(r.Context()).WarnContext(r.Context(), "Authentication rejected", "code", string(code))
	writeJSON(w, authStatus(code), errorBody{Error: auth.Message(err), Code: string(code)})
}
