package changefeed

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"zenbudget/internal/core"
	"zenbudget/internal/store"
	"zenbudget/internal/store/memory"
)

const wait = 2 * time.Second

func setup(t *testing.T) (*Feed, *store.Notifying) {
	t.Helper()
	mem := memory.New()
	if _, err := mem.CreateProfile(context.Background(), core.User{UID: "u1"}); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	bus := NewLocalBus(16)
	feed := New(mem, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go feed.Run(ctx, bus)
	t.Cleanup(func() {
		cancel()
		bus.Close()
	})
	return feed, store.Notify(mem, bus)
}

func expense(desc string) core.Transaction {
	return core.Transaction{
		Amount: core.Money{Cents: 100}, Date: time.Now(), CategoryID: "c",
		Description: desc, Type: core.Expense, Frequency: core.OneTime,
	}
}

func TestSubscribeDeliversInitialAndUpdatedSnapshots(t *testing.T) {
	feed, repo := setup(t)
	txs := make(chan []core.Transaction, 8)
	cats := make(chan []core.Category, 8)

	sub, err := feed.Subscribe(context.Background(), "u1",
		func(v []core.Transaction) { txs <- v },
		func(v []core.Category) { cats <- v })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Cancel()

	select {
	case c := <-cats:
		if len(c) != len(core.DefaultCategories()) {
			t.Fatalf("expected seeded categories, got %d", len(c))
		}
	case <-time.After(wait):
		t.Fatal("no initial categories snapshot")
	}
	select {
	case v := <-txs:
		if len(v) != 0 {
			t.Fatalf("expected empty initial transactions, got %d", len(v))
		}
	case <-time.After(wait):
		t.Fatal("no initial transactions snapshot")
	}

	if _, err := repo.AddTransaction(context.Background(), "u1", expense("first")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := repo.AddTransaction(context.Background(), "u1", expense("second")); err != nil {
		t.Fatalf("add: %v", err)
	}

	deadline := time.After(wait)
	for {
		select {
		case v := <-txs:
			if len(v) == 2 {
				return
			}
		case <-deadline:
			t.Fatal("full snapshot with both transactions never arrived")
		}
	}
}

func TestOtherUsersChangesAreNotDelivered(t *testing.T) {
	feed, repo := setup(t)
	if _, err := repo.CreateProfile(context.Background(), core.User{UID: "u2"}); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	var calls atomic.Int32
	initial := make(chan struct{}, 1)
	sub, err := feed.Subscribe(context.Background(), "u1", func([]core.Transaction) {
		if calls.Add(1) == 1 {
			initial <- struct{}{}
		}
	}, nil)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Cancel()
	<-initial

	if _, err := repo.AddTransaction(context.Background(), "u2", expense("not yours")); err != nil {
		t.Fatalf("add: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected only the initial delivery, got %d", n)
	}
}

func TestCancelIsIdempotentAndFinal(t *testing.T) {
	feed, repo := setup(t)
	var calls atomic.Int32
	initial := make(chan struct{}, 1)
	sub, err := feed.Subscribe(context.Background(), "u1", func([]core.Transaction) {
		if calls.Add(1) == 1 {
			initial <- struct{}{}
		}
	}, func([]core.Category) {})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	<-initial

	sub.Cancel()
	sub.Cancel()
	if feed.Subscribers("u1") != 0 {
		t.Fatalf("subscription still registered after cancel")
	}
	select {
	case <-sub.Done():
	default:
		t.Fatal("Done not closed after cancel")
	}

	if _, err := repo.AddTransaction(context.Background(), "u1", expense("late")); err != nil {
		t.Fatalf("add: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Fatalf("callback ran after cancel: %d calls", n)
	}
}

func TestCancelWaitsForInFlightCallback(t *testing.T) {
	feed, _ := setup(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	sub, err := feed.Subscribe(context.Background(), "u1", func([]core.Transaction) {
		close(entered)
		<-release
	}, nil)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	<-entered

	cancelled := make(chan struct{})
	go func() {
		sub.Cancel()
		close(cancelled)
	}()
	select {
	case <-cancelled:
		t.Fatal("Cancel returned while a callback was running")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	select {
	case <-cancelled:
	case <-time.After(wait):
		t.Fatal("Cancel never returned")
	}
}

func TestSubscribeRequiresUser(t *testing.T) {
	feed := New(memory.New(), nil)
	if _, err := feed.Subscribe(context.Background(), "", nil, nil); err != ErrEmptyUser {
		t.Fatalf("expected ErrEmptyUser, got %v", err)
	}
}

func TestLocalBusClosed(t *testing.T) {
	bus := NewLocalBus(1)
	bus.Close()
	bus.Close()
	if err := bus.Publish(context.Background(), store.Change{UserID: "u"}); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := bus.Run(context.Background(), func(store.Change) {}); err != nil {
		t.Fatalf("run on closed bus: %v", err)
	}
}
