package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"zenbudget/internal/changefeed"
	"zenbudget/internal/core"
	"zenbudget/internal/prefs"
	"zenbudget/internal/store"
	"zenbudget/internal/store/memory"
)

func newDeps(t *testing.T) Deps {
	t.Helper()
	mem := memory.New()
	bus := changefeed.NewLocalBus(64)
	feed := changefeed.New(mem, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go feed.Run(ctx, bus)
	t.Cleanup(func() {
		cancel()
		bus.Close()
	})
	return Deps{Repo: store.Notify(mem, bus), Feed: feed, Prefs: prefs.NewMemoryStore()}
}

func eventually(t *testing.T, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func openLoaded(t *testing.T, d Deps, u core.User) *Session {
	t.Helper()
	s, err := Open(context.Background(), d, u)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(s.Close)
	eventually(t, "initial snapshots never arrived", func() bool {
		snap := s.State().Snapshot()
		return !snap.DataLoading && len(snap.Categories) > 0
	})
	return s
}

func categoryNamed(t *testing.T, s *Session, name string) core.Category {
	t.Helper()
	for _, c := range s.State().Snapshot().Categories {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("category %q not found", name)
	return core.Category{}
}

func TestOpenSeedsProfileAndLoads(t *testing.T) {
	d := newDeps(t)
	s := openLoaded(t, d, core.User{UID: "u1", Email: "jane.doe@example.com"})

	snap := s.State().Snapshot()
	if snap.User == nil || snap.User.DisplayName != "jane.doe" {
		t.Fatalf("expected fallback display name, got %+v", snap.User)
	}
	if len(snap.Categories) != len(core.DefaultCategories()) {
		t.Fatalf("expected %d seeded categories, got %d", len(core.DefaultCategories()), len(snap.Categories))
	}
	if len(snap.Transactions) != 0 {
		t.Fatalf("expected no transactions, got %d", len(snap.Transactions))
	}
}

func TestOpenRequiresUID(t *testing.T) {
	if _, err := Open(context.Background(), newDeps(t), core.User{}); !errors.Is(err, core.ErrEmptyUID) {
		t.Fatalf("expected ErrEmptyUID, got %v", err)
	}
}

func TestWritesAreMirrored(t *testing.T) {
	s := openLoaded(t, newDeps(t), core.User{UID: "u1", DisplayName: "Jane"})
	food := categoryNamed(t, s, "Food")
	ctx := context.Background()

	tx, err := s.AddTransaction(ctx, core.Transaction{
		Amount: core.Money{Cents: 1250}, Date: time.Now(), CategoryID: food.ID,
		Description: "  Lunch  ", Type: core.Expense,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if tx.ID == "" || tx.Description != "Lunch" || tx.Frequency != core.OneTime {
		t.Fatalf("unexpected stored transaction: %+v", tx)
	}
	eventually(t, "added transaction never mirrored", func() bool {
		return len(s.State().Snapshot().Transactions) == 1
	})

	tx.Description = "Dinner"
	if err := s.UpdateTransaction(ctx, tx); err != nil {
		t.Fatalf("update: %v", err)
	}
	eventually(t, "update never mirrored", func() bool {
		txs := s.State().Snapshot().Transactions
		return len(txs) == 1 && txs[0].Description == "Dinner"
	})

	if err := s.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	eventually(t, "delete never mirrored", func() bool {
		return len(s.State().Snapshot().Transactions) == 0
	})
}

func TestTransactionValidation(t *testing.T) {
	s := openLoaded(t, newDeps(t), core.User{UID: "u1"})
	salary := categoryNamed(t, s, "Salary")
	food := categoryNamed(t, s, "Food")
	ctx := context.Background()

	base := core.Transaction{
		Amount: core.Money{Cents: 500}, Date: time.Now(), CategoryID: food.ID,
		Description: "Coffee", Type: core.Expense,
	}
	tests := []struct {
		name   string
		mutate func(*core.Transaction)
		want   error
	}{
		{"zero amount", func(tx *core.Transaction) { tx.Amount = core.Money{} }, core.ErrInvalidAmount},
		{"blank description", func(tx *core.Transaction) { tx.Description = "   " }, core.ErrEmptyDescription},
		{"unknown category", func(tx *core.Transaction) { tx.CategoryID = "nope" }, ErrUnknownCategory},
		{"type mismatch", func(tx *core.Transaction) { tx.CategoryID = salary.ID }, core.ErrCategoryTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := base
			tt.mutate(&tx)
			if _, err := s.AddTransaction(ctx, tx); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if err := s.UpdateTransaction(ctx, base); !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
}

func TestCategoryLifecycle(t *testing.T) {
	s := openLoaded(t, newDeps(t), core.User{UID: "u1"})
	ctx := context.Background()

	if _, err := s.AddCategory(ctx, core.Category{Name: " ", Type: core.Expense}); !errors.Is(err, core.ErrEmptyCategoryName) {
		t.Fatalf("expected ErrEmptyCategoryName, got %v", err)
	}
	c, err := s.AddCategory(ctx, core.Category{Name: "Pets", Type: core.Expense, Icon: "no-such-icon"})
	if err != nil {
		t.Fatalf("add category: %v", err)
	}
	if c.Icon != core.IconDefault || c.Color != core.DefaultCategoryColor {
		t.Fatalf("expected defaults applied, got %+v", c)
	}
	eventually(t, "new category never mirrored", func() bool {
		return len(s.State().Snapshot().Categories) == len(core.DefaultCategories())+1
	})

	if _, err := s.AddTransaction(ctx, core.Transaction{
		Amount: core.Money{Cents: 900}, Date: time.Now(), CategoryID: c.ID,
		Description: "Food bowl", Type: core.Expense,
	}); err != nil {
		t.Fatalf("add transaction: %v", err)
	}
	if err := s.DeleteCategory(ctx, c.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	eventually(t, "category delete never mirrored", func() bool {
		snap := s.State().Snapshot()
		return len(snap.Categories) == len(core.DefaultCategories()) && len(snap.Transactions) == 1
	})
	if got := s.State().Snapshot().Transactions[0].CategoryID; got != c.ID {
		t.Fatalf("transaction lost its category reference: %q", got)
	}
}

func TestUpdateDisplayName(t *testing.T) {
	s := openLoaded(t, newDeps(t), core.User{UID: "u1", DisplayName: "Old"})
	if err := s.UpdateDisplayName(context.Background(), "  "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if err := s.UpdateDisplayName(context.Background(), "New"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := s.State().Snapshot().User.DisplayName; got != "New" {
		t.Fatalf("display name = %q", got)
	}
}

func TestCloseClearsDataAndKeepsPreferences(t *testing.T) {
	d := newDeps(t)
	s := openLoaded(t, d, core.User{UID: "u1"})
	if _, err := s.State().ToggleTheme(); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	s.Close()
	s.Close()
	snap := s.State().Snapshot()
	if snap.User != nil || len(snap.Transactions) != 0 || len(snap.Categories) != 0 || snap.DataLoading {
		t.Fatalf("state not cleared: %+v", snap)
	}
	if snap.Preferences.Theme != prefs.Dark {
		t.Fatalf("theme lost on close: %q", snap.Preferences.Theme)
	}
	if _, err := s.AddCategory(context.Background(), core.Category{Name: "x", Type: core.Expense}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}

	again := openLoaded(t, d, core.User{UID: "u1"})
	if again.State().Preferences().Theme != prefs.Dark {
		t.Fatalf("theme not restored on next session")
	}
}

func TestManagerSharesSessions(t *testing.T) {
	m := NewManager(newDeps(t))
	defer m.CloseAll()

	var wg sync.WaitGroup
	got := make([]*Session, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := m.Open(context.Background(), core.User{UID: "u1"})
			if err != nil {
				t.Errorf("open: %v", err)
				return
			}
			got[i] = s
		}(i)
	}
	wg.Wait()
	for _, s := range got[1:] {
		if s != got[0] {
			t.Fatalf("concurrent opens produced distinct sessions")
		}
	}
	if m.Len() != 1 {
		t.Fatalf("expected one session, got %d", m.Len())
	}

	if !m.Close("u1") || m.Close("u1") {
		t.Fatalf("close should succeed exactly once")
	}
	if !got[0].Closed() {
		t.Fatalf("session not closed")
	}
	if _, ok := m.Get("u1"); ok {
		t.Fatalf("session still registered")
	}
}

type gatedRepo struct {
	store.Repository
	entered chan struct{}
	release chan struct{}
}

func (r *gatedRepo) CreateProfile(ctx context.Context, u core.User) (bool, error) {
	close(r.entered)
	<-r.release
	return r.Repository.CreateProfile(ctx, u)
}

func TestManagerCloseDuringOpen(t *testing.T) {
	d := newDeps(t)
	repo := &gatedRepo{Repository: d.Repo, entered: make(chan struct{}), release: make(chan struct{})}
	d.Repo = repo
	m := NewManager(d)
	defer m.CloseAll()

	done := make(chan error, 1)
	go func() {
		_, err := m.Open(context.Background(), core.User{UID: "u1"})
		done <- err
	}()

	<-repo.entered
	if !m.Close("u1") {
		t.Fatalf("close should report the pending open")
	}
	close(repo.release)

	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, ok := m.Get("u1"); ok || m.Len() != 0 {
		t.Fatalf("session registered after logout")
	}
	if n := d.Feed.(*changefeed.Feed).Subscribers("u1"); n != 0 {
		t.Fatalf("expected no live subscriptions, got %d", n)
	}
}
