// Package prefs persists local UI preferences, independent of user data.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

var ErrInvalidTheme = errors.New("invalid theme")

// ParseTheme accepts "light" and "dark".
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case Light, Dark:
		return Theme(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

type Preferences struct {
	Theme       Theme `json:"theme"`
	SidebarOpen bool  `json:"sidebarOpen"`
}

// Default is light theme with the sidebar open.
func Default() Preferences {
	return Preferences{Theme: Light, SidebarOpen: true}
}

// Store loads and saves preferences under a key (one per user).
type Store interface {
	Load(key string) (Preferences, error)
	Save(key string, p Preferences) error
}

// MemoryStore keeps preferences for the life of the process.
type MemoryStore struct {
	mu sync.Mutex
	m  map[string]Preferences
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]Preferences)}
}

func (s *MemoryStore) Load(key string) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.m[key]; ok {
		return p, nil
	}
	return Default(), nil
}

func (s *MemoryStore) Save(key string, p Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = p
	return nil
}

// FileStore keeps all preferences in one JSON document. Writes replace the
// file atomically.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create preferences directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) readAll() (map[string]Preferences, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]Preferences{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	m := map[string]Preferences{}
	if len(b) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return m, nil
}

func (s *FileStore) Load(key string) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.readAll()
	if err != nil {
		return Default(), err
	}
	p, ok := m[key]
	if !ok {
		return Default(), nil
	}
	if _, err := ParseTheme(string(p.Theme)); err != nil {
		p.Theme = Light
	}
	return p, nil
}

func (s *FileStore) Save(key string, p Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.readAll()
	if err != nil {
		return err
	}
	m[key] = p
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".prefs-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close preferences: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace preferences: %w", err)
	}
	return nil
}
