// Package analytics derives dashboard, budget, list and export views from a
// snapshot of transactions and categories. Every function is pure: the
// reference instant is passed in and calendar math uses its location.
package analytics

import (
	"fmt"
	"time"

	"zenbudget/internal/core"
)

// View selects the granularity of the chart series.
type View string

const (
	Week  View = "week"
	Month View = "month"
)

const (
	weekBuckets  = 7
	monthBuckets = 6
)

// ParseView accepts "week" and "month"; an empty value means month.
func ParseView(s string) (View, error) {
	switch View(s) {
	case "", Month:
		return Month, nil
	case Week:
		return Week, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

type dayKey int

type monthKey int

func dayOf(t time.Time, loc *time.Location) dayKey {
	y, m, d := t.In(loc).Date()
	return dayKey(y*10000 + int(m)*100 + d)
}

func monthOf(t time.Time, loc *time.Location) monthKey {
	y, m, _ := t.In(loc).Date()
	return monthKey(y*100 + int(m))
}

// Series groups transactions into the last 7 calendar days (Week) or the
// last 6 calendar months (Month) ending at now, oldest bucket first.
// An empty transaction list yields an empty series.
func Series(txs []core.Transaction, view View, now time.Time) []core.Bucket {
	if len(txs) == 0 {
		return []core.Bucket{}
	}
	if view == Week {
		return weekSeries(txs, now)
	}
	return monthSeries(txs, now)
}

func weekSeries(txs []core.Transaction, now time.Time) []core.Bucket {
	loc := now.Location()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)

	buckets := make([]core.Bucket, weekBuckets)
	index := make(map[dayKey]int, weekBuckets)
	for i := 0; i < weekBuckets; i++ {
		day := today.AddDate(0, 0, i-(weekBuckets-1))
		buckets[i].Label = day.Format("Mon")
		index[dayOf(day, loc)] = i
	}
	for _, tx := range txs {
		if i, ok := index[dayOf(tx.Date, loc)]; ok {
			addTo(&buckets[i], tx)
		}
	}
	return buckets
}

func monthSeries(txs []core.Transaction, now time.Time) []core.Bucket {
	loc := now.Location()
	y, m, _ := now.Date()

	buckets := make([]core.Bucket, monthBuckets)
	index := make(map[monthKey]int, monthBuckets)
	for i := 0; i < monthBuckets; i++ {
		first := time.Date(y, m-time.Month(monthBuckets-1-i), 1, 0, 0, 0, 0, loc)
		buckets[i].Label = first.Format("Jan")
		index[monthOf(first, loc)] = i
	}
	for _, tx := range txs {
		if i, ok := index[monthOf(tx.Date, loc)]; ok {
			addTo(&buckets[i], tx)
		}
	}
	return buckets
}

func addTo(b *core.Bucket, tx core.Transaction) {
	switch tx.Type {
	case core.Income:
		b.Income = b.Income.Add(tx.Amount)
	case core.Expense:
		b.Expense = b.Expense.Add(tx.Amount)
	}
}

// MonthlyMetrics sums income and expense of the calendar month containing now.
func MonthlyMetrics(txs []core.Transaction, now time.Time) core.Metrics {
	loc := now.Location()
	current := monthOf(now, loc)
	var b core.Bucket
	for _, tx := range txs {
		if monthOf(tx.Date, loc) == current {
			addTo(&b, tx)
		}
	}
	return core.Metrics{
		Income:  b.Income,
		Expense: b.Expense,
		Balance: b.Income.Sub(b.Expense),
	}
}
