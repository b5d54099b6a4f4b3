// Package trace tags every request with an ID that follows it through logs
// and responses.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"sync/atomic"
	"time"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

type contextKey struct{}

var validID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// Metrics counts traced requests.
type Metrics struct {
	TotalRequests int64
	InFlight      int64
}

// Tracer assigns request IDs and counts requests.
type Tracer struct {
	total    atomic.Int64
	inFlight atomic.Int64
}

func New() *Tracer { return &Tracer{} }

// Middleware reuses a well-formed incoming X-Request-ID or generates one,
// stores it in the request context and echoes it on the response.
func (t *Tracer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if !validID.MatchString(id) {
			id = GenerateRequestID()
		}
		t.total.Add(1)
		t.inFlight.Add(1)
		defer t.inFlight.Add(-1)

		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}

// Metrics returns the current counters.
func (t *Tracer) Metrics() Metrics {
	return Metrics{TotalRequests: t.total.Load(), InFlight: t.inFlight.Load()}
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// RequestID extracts the request ID from context
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// FromRequest is RequestID for an *http.Request.
func FromRequest(r *http.Request) string {
	return RequestID(r.Context())
}
