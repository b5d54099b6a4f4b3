package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"zenbudget/internal/core"
)

// RangeKind names the export period options.
type RangeKind string

const (
	AllTime   RangeKind = "all"
	ThisMonth RangeKind = "this-month"
	LastMonth RangeKind = "last-month"
	Custom    RangeKind = "custom"
)

var ErrIncompleteRange = errors.New("custom range needs both start and end")

// ExportRange selects the transactions of a report.
type ExportRange struct {
	Kind  RangeKind
	Start core.Date
	End   core.Date
}

// ParseExportRange builds a range from request values. Custom ranges need
// both bounds, in order.
func ParseExportRange(kind, start, end string) (ExportRange, error) {
	switch RangeKind(kind) {
	case "", AllTime:
		return ExportRange{Kind: AllTime}, nil
	case ThisMonth, LastMonth:
		return ExportRange{Kind: RangeKind(kind)}, nil
	case Custom:
		if start == "" || end == "" {
			return ExportRange{}, ErrIncompleteRange
		}
		s, err := core.ParseDate(start)
		if err != nil {
			return ExportRange{}, err
		}
		e, err := core.ParseDate(end)
		if err != nil {
			return ExportRange{}, err
		}
		if e.Before(s.Time) {
			return ExportRange{}, fmt.Errorf("custom range ends before it starts")
		}
		return ExportRange{Kind: Custom, Start: s, End: e}, nil
	}
	return ExportRange{}, fmt.Errorf("unknown export range %q", kind)
}

// Title is the human label used in report titles and file names.
func (r ExportRange) Title() string {
	if r.Kind == Custom {
		return r.Start.String() + " to " + r.End.String()
	}
	return strings.ToUpper(strings.ReplaceAll(string(r.Kind), "-", " "))
}

// Slug is the file-name form of the range.
func (r ExportRange) Slug() string {
	if r.Kind == Custom {
		return r.Start.String() + "_to_" + r.End.String()
	}
	if r.Kind == "" {
		return string(AllTime)
	}
	return string(r.Kind)
}

// SelectForExport returns the transactions inside r, newest first.
func SelectForExport(txs []core.Transaction, r ExportRange, now time.Time) []core.Transaction {
	loc := now.Location()
	var f Filter
	switch r.Kind {
	case ThisMonth:
		f.Month = now.Format("2006-01")
	case LastMonth:
		y, m, _ := now.Date()
		f.Month = time.Date(y, m-1, 1, 0, 0, 0, 0, loc).Format("2006-01")
	case Custom:
		start, end := r.Start, r.End
		f.Start, f.End = &start, &end
	}
	return Apply(txs, f, loc)
}
