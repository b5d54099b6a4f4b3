// Package export renders transaction reports as CSV, PDF and XLSX files.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"zenbudget/internal/analytics"
	"zenbudget/internal/core"
)

// EmptyNotice is shown instead of a file when nothing matches the range.
const EmptyNotice = "No transactions found for the selected range."

var (
	ErrNothingToExport = errors.New("nothing to export")
	ErrUnknownFormat   = errors.New("unknown export format")
)

// Format is an output file type.
type Format string

const (
	CSV  Format = "csv"
	PDF  Format = "pdf"
	XLSX Format = "xlsx"
)

// ParseFormat accepts csv, pdf and xlsx; empty means csv.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", CSV:
		return CSV, nil
	case PDF:
		return PDF, nil
	case XLSX:
		return XLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case PDF:
		return "application/pdf"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Row is one exported transaction with its category resolved.
type Row struct {
	Date        time.Time
	Description string
	Amount      core.Money
	Type        core.TransactionType
	Category    string
}

// Report is a titled selection of rows.
type Report struct {
	Range       analytics.ExportRange
	GeneratedAt time.Time
	Currency    string
	Rows        []Row
}

// Title is the report heading, e.g. "Transaction Report (THIS MONTH)".
func (r Report) Title() string {
	return fmt.Sprintf("Transaction Report (%s)", r.Range.Title())
}

// Filename is the download name for f.
func (r Report) Filename(f Format) string {
	return fmt.Sprintf("transactions_%s.%s", r.Range.Slug(), f)
}

// NewReport selects the transactions in rng and resolves their categories.
// It returns ErrNothingToExport when the selection is empty.
func NewReport(txs []core.Transaction, cats []core.Category, rng analytics.ExportRange, now time.Time, currency string) (Report, error) {
	selected := analytics.SelectForExport(txs, rng, now)
	if len(selected) == 0 {
		return Report{}, ErrNothingToExport
	}
	names := analytics.CategoryNames(cats)
	rows := make([]Row, 0, len(selected))
	for _, tx := range selected {
		rows = append(rows, Row{
			Date:        tx.Date.In(now.Location()),
			Description: tx.Description,
			Amount:      tx.Amount,
			Type:        tx.Type,
			Category:    analytics.CategoryName(names, tx.CategoryID),
		})
	}
	return Report{Range: rng, GeneratedAt: now, Currency: currency, Rows: rows}, nil
}

// Write renders r in format f.
func Write(w io.Writer, f Format, r Report) error {
	switch f {
	case CSV:
		return WriteCSV(w, r.Rows)
	case PDF:
		return WritePDF(w, r)
	case XLSX:
		return WriteXLSX(w, r.Rows)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Header is the column order of tabular exports.
var Header = []string{"Date", "Description", "Amount", "Type", "Category"}

// Record returns the tabular cells of row.
func (row Row) Record() []string {
	return []string{
		row.Date.Format(time.DateOnly),
		row.Description,
		row.Amount.String(),
		string(row.Type),
		row.Category,
	}
}
