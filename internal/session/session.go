package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"zenbudget/internal/changefeed"
	"zenbudget/internal/core"
	"zenbudget/internal/log"
	"zenbudget/internal/prefs"
	"zenbudget/internal/store"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrMissingID       = errors.New("missing id")
	ErrEmptyName       = errors.New("display name cannot be empty")
	ErrClosed          = errors.New("session closed")
)

// Subscriber opens push subscriptions on a user's collections.
type Subscriber interface {
	Subscribe(ctx context.Context, uid string, onTransactions func([]core.Transaction), onCategories func([]core.Category)) (*changefeed.Subscription, error)
}

// Deps are the collaborators shared by all sessions.
type Deps struct {
	Repo   store.Repository
	Feed   Subscriber
	Prefs  prefs.Store
	Logger *log.Logger
}

// Session is the context of one signed-in user: its state mirror and the
// subscription feeding it.
type Session struct {
	uid    string
	state  *State
	repo   store.Repository
	sub    *changefeed.Subscription
	logger *log.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// Open ensures the user's profile exists, loads it and subscribes to the
// user's collections. The first transactions snapshot clears DataLoading.
func Open(ctx context.Context, d Deps, u core.User) (*Session, error) {
	if u.UID == "" {
		return nil, core.ErrEmptyUID
	}
	logger := d.Logger
	if logger == nil {
		logger = log.Default(log.ComponentSession)
	}
	logger = logger.WithComponent(log.ComponentSession).With(log.FieldUserID, u.UID)

	state := NewState(u.UID, d.Prefs)
	state.SetDataLoading(true)

	if strings.TrimSpace(u.DisplayName) == "" {
		u.DisplayName = core.FallbackDisplayName(u.Email)
	}
	created, err := d.Repo.CreateProfile(ctx, u)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create profile", log.FieldError, err)
		return nil, fmt.Errorf("create profile: %w", err)
	}
	profile, err := d.Repo.GetProfile(ctx, u.UID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	state.SetUser(&profile)

	sub, err := d.Feed.Subscribe(ctx, u.UID,
		func(txs []core.Transaction) {
			state.SetTransactions(txs)
			state.SetDataLoading(false)
		},
		state.SetCategories,
	)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	logger.InfoContext(ctx, "Session opened", "new_profile", created)
	return &Session{
		uid:    u.UID,
		state:  state,
		repo:   d.Repo,
		sub:    sub,
		logger: logger,
		closed: make(chan struct{}),
	}, nil
}

func (s *Session) UID() string { return s.uid }

func (s *Session) State() *State { return s.state }

// Close cancels the subscription, then clears the state. Repeated calls are
// no-ops.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.sub.Cancel()
		s.state.Clear()
		close(s.closed)
		s.logger.InfoContext(context.Background(), "Session closed")
	})
}

// Done is closed when the session is closed.
func (s *Session) Done() <-chan struct{} { return s.closed }

// Closed reports whether Close has run.
func (s *Session) Closed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *Session) fail(ctx context.Context, msg, op string, err error, args ...any) error {
	fields := log.NewFields().WithOperation(op).WithError(err).ToSlice()
	s.logger.ErrorContext(ctx, msg, append(fields, args...)...)
	return err
}

func (s *Session) checkCategory(tx core.Transaction) error {
	for _, c := range s.state.Snapshot().Categories {
		if c.ID == tx.CategoryID {
			if c.Type != tx.Type {
				return core.ErrCategoryTypeMismatch
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownCategory, tx.CategoryID)
}

func (s *Session) prepareTransaction(tx *core.Transaction) error {
	if s.Closed() {
		return ErrClosed
	}
	tx.Normalize()
	if err := tx.Validate(); err != nil {
		return err
	}
	return s.checkCategory(*tx)
}

func (s *Session) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := s.prepareTransaction(&tx); err != nil {
		return core.Transaction{}, err
	}
	out, err := s.repo.AddTransaction(ctx, s.uid, tx)
	if err != nil {
		return core.Transaction{}, s.fail(ctx, "Failed to add transaction", log.OpCreate, fmt.Errorf("add transaction: %w", err),
			log.FieldAmountCents, tx.Amount.Cents)
	}
	return out, nil
}

func (s *Session) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	if tx.ID == "" {
		return ErrMissingID
	}
	if err := s.prepareTransaction(&tx); err != nil {
		return err
	}
	if err := s.repo.UpdateTransaction(ctx, s.uid, tx); err != nil {
		return s.fail(ctx, "Failed to update transaction", log.OpUpdate, fmt.Errorf("update transaction: %w", err),
			log.FieldTransactionID, tx.ID)
	}
	return nil
}

func (s *Session) DeleteTransaction(ctx context.Context, id string) error {
	if s.Closed() {
		return ErrClosed
	}
	if err := s.repo.DeleteTransaction(ctx, s.uid, id); err != nil {
		return s.fail(ctx, "Failed to delete transaction", log.OpDelete, fmt.Errorf("delete transaction: %w", err),
			log.FieldTransactionID, id)
	}
	return nil
}

func prepareCategory(c *core.Category) error {
	c.Normalize()
	return c.Validate()
}

func (s *Session) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if s.Closed() {
		return core.Category{}, ErrClosed
	}
	if err := prepareCategory(&c); err != nil {
		return core.Category{}, err
	}
	out, err := s.repo.AddCategory(ctx, s.uid, c)
	if err != nil {
		return core.Category{}, s.fail(ctx, "Failed to add category", log.OpCreate, fmt.Errorf("add category: %w", err))
	}
	return out, nil
}

func (s *Session) UpdateCategory(ctx context.Context, c core.Category) error {
	if s.Closed() {
		return ErrClosed
	}
	if c.ID == "" {
		return ErrMissingID
	}
	if err := prepareCategory(&c); err != nil {
		return err
	}
	if err := s.repo.UpdateCategory(ctx, s.uid, c); err != nil {
		return s.fail(ctx, "Failed to update category", log.OpUpdate, fmt.Errorf("update category: %w", err),
			log.FieldCategoryID, c.ID)
	}
	return nil
}

// DeleteCategory removes the category only; its transactions keep the
// dangling reference.
func (s *Session) DeleteCategory(ctx context.Context, id string) error {
	if s.Closed() {
		return ErrClosed
	}
	if err := s.repo.DeleteCategory(ctx, s.uid, id); err != nil {
		return s.fail(ctx, "Failed to delete category", log.OpDelete, fmt.Errorf("delete category: %w", err),
			log.FieldCategoryID, id)
	}
	return nil
}

// UpdateDisplayName stores the new name and reflects it in the state.
func (s *Session) UpdateDisplayName(ctx context.Context, name string) error {
	if s.Closed() {
		return ErrClosed
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if err := s.repo.UpdateProfile(ctx, s.uid, name); err != nil {
		return s.fail(ctx, "Failed to update profile", log.OpUpdate, fmt.Errorf("update profile: %w", err))
	}
	if u := s.state.Snapshot().User; u != nil {
		u.DisplayName = name
		s.state.SetUser(u)
	}
	return nil
}
