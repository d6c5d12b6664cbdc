package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"section-presets/editor"
	"section-presets/preset"
)

var ErrNotFound = errors.New("session not found")

// Manager owns the live editing sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	store    preset.Store
}

func NewManager(store preset.Store) *Manager {
	return &Manager{sessions: make(map[string]*Session), store: store}
}

// Create opens an editing session over records and loads the owner's
// registry. When remembered is empty and the store keeps selections, the
// stored one is used.
func (m *Manager) Create(ctx context.Context, owner editor.Identity, section preset.Section, records []preset.Record, remembered string) (*Session, error) {
	if err := preset.ValidateSection(section); err != nil {
		return nil, err
	}

	memory, _ := m.store.(preset.SelectionMemory)
	now := time.Now()
	s := &Session{
		ID:         uuid.New().String(),
		Owner:      owner,
		CreatedAt:  now,
		lastActive: now,
		memory:     memory,
		done:       make(chan struct{}),
	}
	s.ed = editor.New(m.store, owner, section, records, editor.WithNotifier(s.publish))
	if err := s.Reload(ctx, remembered); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// List returns the owner's sessions, oldest first. Anonymous sessions are
// reachable only by ID and never listed.
func (m *Manager) List(owner editor.Identity) []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*Session, 0)
	if owner.Anonymous() {
		return list
	}
	for _, s := range m.sessions {
		if s.Owner == owner {
			list = append(list, s)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) Kill(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.close()
	delete(m.sessions, id)
	return nil
}
