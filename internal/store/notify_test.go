package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"zenbudget/internal/core"
	"zenbudget/internal/store"
	"zenbudget/internal/store/memory"
)

type recorder struct {
	mu      sync.Mutex
	changes []store.Change
	err     error
}

func (r *recorder) Publish(_ context.Context, c store.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
	return r.err
}

func TestNotifyingPublishesAfterWrites(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	repo := store.Notify(memory.New(), rec)

	if _, err := repo.CreateProfile(ctx, core.User{UID: "u1"}); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	tx, err := repo.AddTransaction(ctx, "u1", core.Transaction{
		Amount: core.Money{Cents: 100}, Date: time.Now(), CategoryID: "c",
		Description: "x", Type: core.Expense, Frequency: core.OneTime,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, "u1", tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.AddCategory(ctx, "u1", core.Category{Name: "x", Type: core.Expense}); err != nil {
		t.Fatalf("add category: %v", err)
	}

	want := []store.Change{
		{UserID: "u1", Collection: store.CategoriesCollection},
		{UserID: "u1", Collection: store.TransactionsCollection},
		{UserID: "u1", Collection: store.TransactionsCollection},
		{UserID: "u1", Collection: store.CategoriesCollection},
	}
	if len(rec.changes) != len(want) {
		t.Fatalf("expected %d changes, got %v", len(want), rec.changes)
	}
	for i := range want {
		if rec.changes[i] != want[i] {
			t.Fatalf("change %d: expected %+v, got %+v", i, want[i], rec.changes[i])
		}
	}
}

func TestNotifyingSkipsFailedWrites(t *testing.T) {
	rec := &recorder{}
	repo := store.Notify(memory.New(), rec)
	err := repo.DeleteCategory(context.Background(), "ghost", "c1")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(rec.changes) != 0 {
		t.Fatalf("failed write must not publish: %v", rec.changes)
	}
}

func TestNotifyingIgnoresPublishErrors(t *testing.T) {
	rec := &recorder{err: errors.New("broker down")}
	repo := store.Notify(memory.New(), rec)
	if _, err := repo.CreateProfile(context.Background(), core.User{UID: "u1"}); err != nil {
		t.Fatalf("publish failure must not fail the write: %v", err)
	}
}
