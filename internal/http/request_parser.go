// Package http provides HTTP server and handler implementations.
//
// This file implements the parsing of JSON bodies and query parameters into
// domain values. Parse failures are returned as request errors, which the
// response helpers report as 400.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"zenbudget/internal/analytics"
	"zenbudget/internal/core"
	"zenbudget/internal/export"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON value from the body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest(errors.New("request body is empty"))
		}
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return badRequest(errors.New("request body too large"))
		}
		if errors.Is(err, core.ErrInvalidAmount) {
			return badRequest(core.ErrInvalidAmount)
		}
		return badRequest(fmt.Errorf("invalid JSON: %w", err))
	}
	if dec.More() {
		return badRequest(errors.New("request body must hold a single JSON value"))
	}
	return nil
}

// ParseFilter reads the transaction list filter from query parameters:
// search, type, category, month (2006-01), start and end (2006-01-02).
func ParseFilter(q url.Values) (analytics.Filter, error) {
	f := analytics.Filter{
		Search:     strings.TrimSpace(q.Get("search")),
		CategoryID: strings.TrimSpace(q.Get("category")),
		Month:      strings.TrimSpace(q.Get("month")),
	}
	if v := strings.TrimSpace(q.Get("type")); v != "" && v != "all" {
		t := core.TransactionType(v)
		if !t.Valid() {
			return analytics.Filter{}, badRequest(fmt.Errorf("%w: %q", core.ErrInvalidType, v))
		}
		f.Type = t
	}
	if f.CategoryID == "all" {
		f.CategoryID = ""
	}
	if f.Month == "all" {
		f.Month = ""
	}
	for _, p := range []struct {
		key string
		dst **core.Date
	}{{"start", &f.Start}, {"end", &f.End}} {
		v := strings.TrimSpace(q.Get(p.key))
		if v == "" {
			continue
		}
		d, err := core.ParseDate(v)
		if err != nil {
			return analytics.Filter{}, badRequest(fmt.Errorf("invalid %s date: %w", p.key, err))
		}
		*p.dst = &d
	}
	return f, nil
}

// ParsePage reads the 1-based page number; absent or invalid values mean 1.
func ParsePage(q url.Values) int {
	n, err := strconv.Atoi(strings.TrimSpace(q.Get("page")))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParseView reads the dashboard chart view.
func ParseView(q url.Values) (analytics.View, error) {
	v, err := analytics.ParseView(strings.TrimSpace(q.Get("view")))
	if err != nil {
		return "", badRequest(err)
	}
	return v, nil
}

// ParseExport reads the export format and range. The format is ignored
// when formatRequired is false.
func ParseExport(q url.Values, formatRequired bool) (export.Format, analytics.ExportRange, error) {
	var f export.Format
	if formatRequired {
		var err error
		if f, err = export.ParseFormat(strings.TrimSpace(q.Get("format"))); err != nil {
			return "", analytics.ExportRange{}, badRequest(err)
		}
	}
	rng, err := analytics.ParseExportRange(
		strings.TrimSpace(q.Get("range")),
		strings.TrimSpace(q.Get("start")),
		strings.TrimSpace(q.Get("end")),
	)
	if err != nil {
		return "", analytics.ExportRange{}, badRequest(err)
	}
	return f, rng, nil
}

// bearerToken extracts the token from the Authorization header, or from the
// token query parameter for clients that cannot set headers (WebSocket).
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
