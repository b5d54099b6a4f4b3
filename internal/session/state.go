// Package session holds the local mirror of one signed-in user's data and
// the lifecycle that keeps it in sync with the store.
package session

import (
	"fmt"
	"sync"

	"zenbudget/internal/core"
	"zenbudget/internal/prefs"
)

// Snapshot is a consistent copy of the state.
type Snapshot struct {
	Transactions []core.Transaction `json:"transactions"`
	Categories   []core.Category    `json:"categories"`
	User         *core.User         `json:"user"`
	DataLoading  bool               `json:"dataLoading"`
	Preferences  prefs.Preferences  `json:"preferences"`
	Version      uint64             `json:"version"`
}

// State is the reactive container. Setters are the only way to change it;
// each bumps Version.
type State struct {
	mu           sync.RWMutex
	key          string
	prefStore    prefs.Store
	transactions []core.Transaction
	categories   []core.Category
	user         *core.User
	dataLoading  bool
	preferences  prefs.Preferences
	version      uint64
}

// NewState creates an empty state whose preferences persist in ps under key.
func NewState(key string, ps prefs.Store) *State {
	if ps == nil {
		ps = prefs.NewMemoryStore()
	}
	p, err := ps.Load(key)
	if err != nil {
		p = prefs.Default()
	}
	return &State{
		key:          key,
		prefStore:    ps,
		transactions: []core.Transaction{},
		categories:   []core.Category{},
		preferences:  p,
	}
}

func (s *State) SetTransactions(txs []core.Transaction) {
	cp := append(make([]core.Transaction, 0, len(txs)), txs...)
	s.mu.Lock()
	s.transactions = cp
	s.version++
	s.mu.Unlock()
}

func (s *State) SetCategories(cats []core.Category) {
	cp := append(make([]core.Category, 0, len(cats)), cats...)
	s.mu.Lock()
	s.categories = cp
	s.version++
	s.mu.Unlock()
}

func (s *State) SetUser(u *core.User) {
	var cp *core.User
	if u != nil {
		v := *u
		cp = &v
	}
	s.mu.Lock()
	s.user = cp
	s.version++
	s.mu.Unlock()
}

func (s *State) SetDataLoading(loading bool) {
	s.mu.Lock()
	s.dataLoading = loading
	s.version++
	s.mu.Unlock()
}

// SetTheme applies and persists t.
func (s *State) SetTheme(t prefs.Theme) error {
	if _, err := prefs.ParseTheme(string(t)); err != nil {
		return err
	}
	return s.updatePreferences(func(p *prefs.Preferences) { p.Theme = t })
}

// ToggleTheme flips between light and dark and returns the new theme.
func (s *State) ToggleTheme() (prefs.Theme, error) {
	var next prefs.Theme
	err := s.updatePreferences(func(p *prefs.Preferences) {
		p.Theme = p.Theme.Toggle()
		next = p.Theme
	})
	return next, err
}

func (s *State) SetSidebarOpen(open bool) error {
	return s.updatePreferences(func(p *prefs.Preferences) { p.SidebarOpen = open })
}

func (s *State) updatePreferences(fn func(*prefs.Preferences)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.preferences
	fn(&next)
	if err := s.prefStore.Save(s.key, next); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	s.preferences = next
	s.version++
	return nil
}

// Clear drops all user data and keeps the preferences.
func (s *State) Clear() {
	s.mu.Lock()
	s.transactions = []core.Transaction{}
	s.categories = []core.Category{}
	s.user = nil
	s.dataLoading = false
	s.version++
	s.mu.Unlock()
}

// Snapshot returns a view that later setters do not affect. Callers must not
// modify its slices.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Transactions: s.transactions,
		Categories:   s.categories,
		DataLoading:  s.dataLoading,
		Preferences:  s.preferences,
		Version:      s.version,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// Version increases on every change.
func (s *State) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Preferences returns the current preferences.
func (s *State) Preferences() prefs.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preferences
}
