package recurring

import (
	"context"
	"fmt"
	"time"

	"zenbudget/internal/core"
	"zenbudget/internal/log"
	"zenbudget/internal/store"
)

// Repository is what the materializer reads and writes.
type Repository interface {
	store.Users
	store.Reader
	AddTransaction(ctx context.Context, uid string, tx core.Transaction) (core.Transaction, error)
}

// Materializer creates the missing occurrences of every user's recurring
// transactions.
type Materializer struct {
	repo   Repository
	logger *log.Logger
}

func NewMaterializer(repo Repository, logger *log.Logger) *Materializer {
	if logger == nil {
		logger = log.Default(log.ComponentRecurring)
	}
	return &Materializer{repo: repo, logger: logger.WithComponent(log.ComponentRecurring)}
}

// Occurrence is the one-time transaction generated from template on date.
func Occurrence(template core.Transaction, date time.Time) core.Transaction {
	occ := template
	occ.ID = ""
	occ.Date = date
	occ.IsRecurring = false
	occ.Frequency = core.OneTime
	occ.RecurrenceOf = template.ID
	return occ
}

// Plan returns the occurrences missing from txs as of now.
func Plan(txs []core.Transaction, now time.Time) []core.Transaction {
	latest := make(map[string]time.Time)
	for _, tx := range txs {
		if tx.RecurrenceOf != "" && tx.Date.After(latest[tx.RecurrenceOf]) {
			latest[tx.RecurrenceOf] = tx.Date
		}
	}
	var out []core.Transaction
	for _, tx := range txs {
		if !tx.IsRecurring {
			continue
		}
		s, err := StepperFor(tx.Frequency)
		if err != nil {
			continue
		}
		for _, d := range DueDates(s, tx.Date, latest[tx.ID], now) {
			out = append(out, Occurrence(tx, d))
		}
	}
	return out
}

// Run materializes due occurrences for every user and returns how many were
// created. A failing user is logged and skipped.
func (m *Materializer) Run(ctx context.Context, now time.Time) (int, error) {
	uids, err := m.repo.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	created := 0
	for _, uid := range uids {
		n, err := m.runUser(ctx, uid, now)
		created += n
		if err != nil {
			m.logger.ErrorContext(ctx, "Failed to materialize recurring transactions",
				log.FieldUserID, uid, log.FieldError, err)
		}
		if ctx.Err() != nil {
			return created, ctx.Err()
		}
	}
	return created, nil
}

func (m *Materializer) runUser(ctx context.Context, uid string, now time.Time) (int, error) {
	txs, err := m.repo.ListTransactions(ctx, uid)
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}
	created := 0
	for _, occ := range Plan(txs, now) {
		if _, err := m.repo.AddTransaction(ctx, uid, occ); err != nil {
			return created, fmt.Errorf("add occurrence of %s: %w", occ.RecurrenceOf, err)
		}
		created++
	}
	if created > 0 {
		m.logger.InfoContext(ctx, "Recurring transactions materialized",
			log.FieldUserID, uid, log.FieldCount, created)
	}
	return created, nil
}

// Loop runs immediately and then every interval until ctx is done.
func (m *Materializer) Loop(ctx context.Context, interval time.Duration) error {
	m.tick(ctx, time.Now())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			m.tick(ctx, now)
		}
	}
}

func (m *Materializer) tick(ctx context.Context, now time.Time) {
	n, err := m.Run(ctx, now)
	if err != nil && ctx.Err() == nil {
		m.logger.ErrorContext(ctx, "Recurring run failed", log.FieldError, err)
		return
	}
	m.logger.DebugContext(ctx, "Recurring run complete", log.FieldCount, n)
}
