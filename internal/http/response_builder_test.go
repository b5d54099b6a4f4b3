package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"zenbudget/internal/auth"
	"zenbudget/internal/core"
	"zenbudget/internal/session"
	"zenbudget/internal/store"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		public bool
	}{
		{"validation", core.ErrInvalidAmount, http.StatusBadRequest, true},
		{"wrapped validation", fmt.Errorf("%w: recurring", core.ErrInvalidFrequency), http.StatusBadRequest, true},
		{"unknown category", fmt.Errorf("%w: x", session.ErrUnknownCategory), http.StatusBadRequest, true},
		{"request", badRequest(errors.New("bad query")), http.StatusBadRequest, true},
		{"not found", fmt.Errorf("update transaction: %w", store.ErrNotFound), http.StatusNotFound, true},
		{"conflict", store.ErrAlreadyExists, http.StatusConflict, true},
		{"closed", session.ErrClosed, http.StatusConflict, true},
		{"internal", errors.New("disk full"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, public := statusFor(tt.err)
			if status != tt.status || public != tt.public {
				t.Fatalf("statusFor = %d, %v; want %d, %v", status, public, tt.status, tt.public)
			}
		})
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	writeError(w, r, errors.New("pq: connection reset"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != auth.GenericMessage {
		t.Fatalf("error = %q, want generic message", body.Error)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestWriteAuthError(t *testing.T) {
	tests := []struct {
		code   auth.Code
		status int
	}{
		{auth.CodeUserNotFound, http.StatusUnauthorized},
		{auth.CodeWrongPassword, http.StatusUnauthorized},
		{auth.CodeInvalidCredential, http.StatusUnauthorized},
		{auth.CodeEmailAlreadyInUse, http.StatusConflict},
		{auth.CodeWeakPassword, http.StatusBadRequest},
		{auth.CodeInvalidEmail, http.StatusBadRequest},
		{auth.CodeTooManyRequests, http.StatusTooManyRequests},
		{auth.CodePopupClosedByUser, http.StatusBadRequest},
		{auth.CodeNetworkRequestFail, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			w := httptest.NewRecorder()
			err := &auth.Error{Code: tt.code}
			writeAuthError(w, httptest.NewRequest(http.MethodPost, "/", nil), err)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			var body errorBody
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body.Code != string(tt.code) || body.Error != auth.Message(err) {
				t.Fatalf("body = %+v", body)
			}
		})
	}

	w := httptest.NewRecorder()
	writeAuthError(w, httptest.NewRequest(http.MethodPost, "/", nil), errors.New("boom"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("uncoded error status = %d", w.Code)
	}
}

func TestPusherCoalesces(t *testing.T) {
	p := newPusher()
	_ = p.put(pushTransactions, []int{1})
	_ = p.put(pushCategories, []int{2})
	_ = p.put(pushTransactions, []int{3})

	select {
	case <-p.wake:
	default:
		t.Fatal("pusher did not signal")
	}
	msgs := p.take()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	var first pushMessage
	_ = json.Unmarshal(msgs[0], &first)
	if first.Type != pushTransactions || fmt.Sprint(first.Payload) != "[3]" {
		t.Fatalf("first message = %+v, want latest transactions", first)
	}
	if len(p.take()) != 0 {
		t.Fatalf("take should clear pending messages")
	}
}
