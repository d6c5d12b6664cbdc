package preset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileState is the full persistent state of a Manager.
type FileState struct {
	// Registries is keyed by user ID, then section.
	Registries map[string]map[Section][]Preset `json:"registries"`
	// Selected holds the remembered selection per user and section.
	Selected map[string]map[Section]string `json:"selected"`
}

// Manager is a Store backed by a single JSON file.
type Manager struct {
	mu       sync.RWMutex
	filePath string
	state    FileState
}

var _ Store = (*Manager)(nil)
var _ SelectionMemory = (*Manager)(nil)

// NewManager loads the state from filePath, or starts empty if the file does
// not exist. Returns an error only on unexpected I/O or decode failures.
func NewManager(filePath string) (*Manager, error) {
	m := &Manager{filePath: filePath, state: emptyState()}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, &m.state); err != nil {
		return nil, err
	}
	if m.state.Registries == nil {
		m.state.Registries = map[string]map[Section][]Preset{}
	}
	if m.state.Selected == nil {
		m.state.Selected = map[string]map[Section]string{}
	}
	return m, nil
}

func (m *Manager) List(_ context.Context, userID string, section Section) ([]Preset, error) {
	if err := checkScope(userID, section); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ClonePresets(m.state.Registries[userID][section]), nil
}

func (m *Manager) Save(_ context.Context, userID string, section Section, p Preset) error {
	if err := checkScope(userID, section); err != nil {
		return err
	}
	if err := Validate(p); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	next := copyState(m.state)
	if next.Registries[userID] == nil {
		next.Registries[userID] = map[Section][]Preset{}
	}
	next.Registries[userID][section] = Upsert(next.Registries[userID][section], p)
	return m.commit(next)
}

func (m *Manager) Delete(_ context.Context, userID string, section Section, name string) error {
	if err := checkScope(userID, section); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.state.Registries[userID][section]
	if IndexOf(current, name) < 0 {
		return ErrNotFound
	}
	next := copyState(m.state)
	next.Registries[userID][section] = Without(current, name)
	return m.commit(next)
}

// Remember records name as the user's selection for section. An empty name
// clears it.
func (m *Manager) Remember(_ context.Context, userID string, section Section, name string) error {
	if err := checkScope(userID, section); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Selected[userID][section] == name {
		return nil
	}
	next := copyState(m.state)
	if name == "" {
		delete(next.Selected[userID], section)
	} else {
		if next.Selected[userID] == nil {
			next.Selected[userID] = map[Section]string{}
		}
		next.Selected[userID][section] = name
	}
	return m.commit(next)
}

func (m *Manager) Remembered(_ context.Context, userID string, section Section) (string, error) {
	if err := checkScope(userID, section); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Selected[userID][section], nil
}

// commit persists next and only then swaps it in. Caller must hold m.mu.
func (m *Manager) commit(next FileState) error {
	if err := m.writeAtomic(next); err != nil {
		return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	m.state = next
	return nil
}

// writeAtomic writes to a temp file then renames it over filePath.
func (m *Manager) writeAtomic(state FileState) error {
	dir := filepath.Dir(m.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp := m.filePath + ".tmp"
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, m.filePath)
}

func emptyState() FileState {
	return FileState{
		Registries: map[string]map[Section][]Preset{},
		Selected:   map[string]map[Section]string{},
	}
}

func copyState(s FileState) FileState {
	out := emptyState()
	for user, sections := range s.Registries {
		cp := make(map[Section][]Preset, len(sections))
		for sec, presets := range sections {
			cp[sec] = ClonePresets(presets)
		}
		out.Registries[user] = cp
	}
	for user, sections := range s.Selected {
		cp := make(map[Section]string, len(sections))
		for sec, name := range sections {
			cp[sec] = name
		}
		out.Selected[user] = cp
	}
	return out
}
