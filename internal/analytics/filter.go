package analytics

import (
	"sort"
	"strings"
	"time"

	"zenbudget/internal/core"
)

// PageSize is the number of transactions per list page.
const PageSize = 10

// Filter narrows the transaction list. Zero values match everything.
// A complete date range (Start and End) takes precedence over Month; a
// single bound is ignored.
type Filter struct {
	Search     string
	Type       core.TransactionType
	CategoryID string
	Month      string // 2006-01
	Start      *core.Date
	End        *core.Date
}

// HasRange reports whether both range bounds are set.
func (f Filter) HasRange() bool {
	return f.Start != nil && f.End != nil
}

// Apply filters txs and returns them sorted by date, newest first.
// Calendar comparisons use loc.
func Apply(txs []core.Transaction, f Filter, loc *time.Location) []core.Transaction {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	var (
		from, to dayKey
		month    monthKey
	)
	if f.HasRange() {
		from, to = dateKey(*f.Start), dateKey(*f.End)
	}
	useMonth := !f.HasRange() && f.Month != ""
	if useMonth {
		m, err := time.Parse("2006-01", f.Month)
		if err != nil {
			return []core.Transaction{}
		}
		month = monthKey(m.Year()*100 + int(m.Month()))
	}

	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if search != "" && !strings.Contains(strings.ToLower(tx.Description), search) {
			continue
		}
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if f.CategoryID != "" && tx.CategoryID != f.CategoryID {
			continue
		}
		if f.HasRange() {
			if d := dayOf(tx.Date, loc); d < from || d > to {
				continue
			}
		} else if useMonth && monthOf(tx.Date, loc) != month {
			continue
		}
		out = append(out, tx)
	}
	SortNewestFirst(out)
	return out
}

func dateKey(d core.Date) dayKey {
	y, m, day := d.Date()
	return dayKey(y*10000 + int(m)*100 + day)
}

// SortNewestFirst sorts txs by date descending, keeping the input order of
// equal dates.
func SortNewestFirst(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date)
	})
}

// Recent returns the n newest transactions.
func Recent(txs []core.Transaction, n int) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	SortNewestFirst(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// AvailableMonths lists the distinct months that have transactions, newest
// first.
func AvailableMonths(txs []core.Transaction, loc *time.Location) []core.MonthOption {
	seen := make(map[monthKey]time.Time)
	for _, tx := range txs {
		k := monthOf(tx.Date, loc)
		if _, ok := seen[k]; !ok {
			t := tx.Date.In(loc)
			seen[k] = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
		}
	}
	keys := make([]monthKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] > keys[j] })

	out := make([]core.MonthOption, 0, len(keys))
	for _, k := range keys {
		t := seen[k]
		out = append(out, core.MonthOption{Value: t.Format("2006-01"), Label: t.Format("January 2006")})
	}
	return out
}

// Page is one slice of a paginated list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	TotalItems int `json:"totalItems"`
}

// Paginate returns page (1-based) of items, clamping page to [1, TotalPages].
func Paginate[T any](items []T, page int) Page[T] {
	total := len(items)
	pages := (total + PageSize - 1) / PageSize
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * PageSize
	end := start + PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page[T]{
		Items:      append(make([]T, 0, end-start), items[start:end]...),
		Page:       page,
		TotalPages: pages,
		TotalItems: total,
	}
}
