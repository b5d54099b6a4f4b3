package session

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"zenbudget/internal/core"
)

// Manager keeps at most one open session per user. Concurrent opens for the
// same user share a single Open call.
type Manager struct {
	deps  Deps
	group singleflight.Group

	mu       sync.Mutex
	sessions map[string]*Session
	// opening marks users with an Open in flight; true once a Close arrived
	// for them meanwhile.
	opening map[string]bool
}

func NewManager(d Deps) *Manager {
	return &Manager{deps: d, sessions: make(map[string]*Session), opening: make(map[string]bool)}
}

// Open returns the user's live session, opening one if needed.
func (m *Manager) Open(ctx context.Context, u core.User) (*Session, error) {
	if u.UID == "" {
		return nil, core.ErrEmptyUID
	}
	if s, ok := m.Get(u.UID); ok {
		return s, nil
	}
	v, err, _ := m.group.Do(u.UID, func() (any, error) {
		m.mu.Lock()
		if s, ok := m.sessions[u.UID]; ok {
			m.mu.Unlock()
			return s, nil
		}
		m.opening[u.UID] = false
		m.mu.Unlock()

		s, err := Open(context.WithoutCancel(ctx), m.deps, u)

		m.mu.Lock()
		closed := m.opening[u.UID]
		delete(m.opening, u.UID)
		if err == nil && !closed {
			m.sessions[u.UID] = s
		}
		m.mu.Unlock()
		if err != nil {
			return nil, err
		}
		if closed {
			s.Close()
			return nil, ErrClosed
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (m *Manager) Get(uid string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[uid]
	return s, ok
}

// Close signs the user out: the session is removed and closed. An Open in
// flight for the user is discarded when it completes.
func (m *Manager) Close(uid string) bool {
	m.mu.Lock()
	s, ok := m.sessions[uid]
	delete(m.sessions, uid)
	_, pending := m.opening[uid]
	if pending {
		m.opening[uid] = true
	}
	m.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok || pending
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	for uid := range m.opening {
		m.opening[uid] = true
	}
	m.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
