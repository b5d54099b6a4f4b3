// Package memory is an in-process store used for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"zenbudget/internal/core"
	"zenbudget/internal/store"
)

type userData struct {
	profile core.User
	txs     []core.Transaction
	cats    []core.Category
}

type Store struct {
	mu    sync.Mutex
	users map[string]*userData
	creds map[string]store.Credential
}

var _ store.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		users: make(map[string]*userData),
		creds: make(map[string]store.Credential),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) user(uid string) (*userData, error) {
	u, ok := s.users[uid]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", uid, store.ErrNotFound)
	}
	return u, nil
}

func (s *Store) CreateProfile(_ context.Context, u core.User) (bool, error) {
	if u.UID == "" {
		return false, core.ErrEmptyUID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.UID]; ok {
		return false, nil
	}
	data := &userData{profile: u}
	for _, c := range core.DefaultCategories() {
		c.ID = uuid.NewString()
		data.cats = append(data.cats, c)
	}
	s.users[u.UID] = data
	return true, nil
}

func (s *Store) GetProfile(_ context.Context, uid string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(uid)
	if err != nil {
		return core.User{}, err
	}
	return u.profile, nil
}

func (s *Store) UpdateProfile(_ context.Context, uid, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(uid)
	if err != nil {
		return err
	}
	u.profile.DisplayName = displayName
	return nil
}

func (s *Store) ListUserIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.users))
	for uid := range s.users {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) AddTransaction(_ context.Context, uid string, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(uid)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.ID = uuid.NewString()
	u.txs = append(u.txs, tx)
	return tx, nil
}

func (s *Store) UpdateTransaction(_ context.Context, uid string, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(uid)
	if err != nil {
		return err
	}
	for i := range u.txs {
		if u.txs[i].ID == tx.ID {
			u.txs[i] = tx
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", tx.ID, store.ErrNotFound)
}

func (s *Store) DeleteTransaction(_ context.Context, uid, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(uid)
	if err != nil {
		return err
	}
	for i := range u.txs {
		if u.txs[i].ID == id {
			u.txs = append(u.txs[:i], u.txs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
}

func (s *Store) ListTransactions(_ context.Context, uid string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(uid)
	if err != nil {
		return nil, err
	}
	return append([]core.Transaction(nil), u.txs...), nil
}

func (s *Store) AddCategory(_ context.Context, uid string, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(uid)
	if err != nil {
		return core.Category{}, err
	}
	c.ID = uuid.NewString()
	u.cats = append(u.cats, c)
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, uid string, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(uid)
	if err != nil {
		return err
	}
	for i := range u.cats {
		if u.cats[i].ID == c.ID {
			u.cats[i] = c
			return nil
		}
	}
	return fmt.Errorf("category %s: %w", c.ID, store.ErrNotFound)
}

func (s *Store) DeleteCategory(_ context.Context, uid, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(uid)
	if err != nil {
		return err
	}
	for i := range u.cats {
		if u.cats[i].ID == id {
			u.cats = append(u.cats[:i], u.cats[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("category %s: %w", id, store.ErrNotFound)
}

func (s *Store) ListCategories(_ context.Context, uid string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(uid)
	if err != nil {
		return nil, err
	}
	return append([]core.Category(nil), u.cats...), nil
}

func (s *Store) CreateCredential(_ context.Context, c store.Credential) error {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.creds[c.Email]; ok {
		return fmt.Errorf("credential %s: %w", c.Email, store.ErrAlreadyExists)
	}
	s.creds[c.Email] = c
	return nil
}

func (s *Store) GetCredential(_ context.Context, email string) (store.Credential, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[email]
	if !ok {
		return store.Credential{}, fmt.Errorf("credential %s: %w", email, store.ErrNotFound)
	}
	return c, nil
}
