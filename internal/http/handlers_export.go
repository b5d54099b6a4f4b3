package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"zenbudget/internal/export"
	"zenbudget/internal/log"
)

type noticeResponse struct {
	Notice string `json:"notice"`
}

// buildReport selects the transactions of the requested range. ok is false
// when a response has already been written.
func (s *Server) buildReport(w http.ResponseWriter, r *http.Request, formatRequired bool) (export.Format, export.Report, bool) {
	format, rng, err := ParseExport(r.URL.Query(), formatRequired)
	if err != nil {
		writeError(w, r, err)
		return "", export.Report{}, false
	}
	snap := sessionFrom(r.Context()).State().Snapshot()
	report, err := export.NewReport(snap.Transactions, snap.Categories, rng, s.now(), s.deps.Currency)
	if errors.Is(err, export.ErrNothingToExport) {
		writeJSON(w, http.StatusOK, noticeResponse{Notice: export.EmptyNotice})
		return "", export.Report{}, false
	}
	if err != nil {
		writeError(w, r, err)
		return "", export.Report{}, false
	}
	return format, report, true
}

// handleExport streams the report as a CSV, PDF or XLSX attachment. An empty
// selection yields a JSON notice instead of a file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, report, ok := s.buildReport(w, r, true)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, format, report); err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentExport).InfoContext(r.Context(), "Report exported",
		log.FieldOperation, log.OpExport,
		"format", string(format), log.FieldCount, len(report.Rows))

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(format)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to send export", log.FieldError, err)
	}
}

// handleExportSheets writes the report into a new tab of the configured
// spreadsheet.
func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sheets == nil {
		writeMessage(w, http.StatusServiceUnavailable, "Google Sheets export is not configured")
		return
	}
	_, report, ok := s.buildReport(w, r, false)
	if !ok {
		return
	}
	rng, err := s.deps.Sheets.Export(r.Context(), report)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentExport).InfoContext(r.Context(), "Report exported to Google Sheets",
		log.FieldOperation, log.OpExport,
		"range", rng, log.FieldCount, len(report.Rows))
	writeJSON(w, http.StatusOK, map[string]any{"range": rng, "rows": len(report.Rows)})
}
