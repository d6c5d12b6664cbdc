package session

import (
	"context"
	"log"
	"sync"
	"time"

	"section-presets/editor"
	"section-presets/preset"
)

const (
	eventBuffer     = 64
	rememberTimeout = 5 * time.Second
)

// Session hosts one editor.Session for a remote UI. All editor access goes
// through Do, which serializes callers.
type Session struct {
	ID        string
	Owner     editor.Identity
	CreatedAt time.Time

	mu         sync.Mutex
	ed         *editor.Session
	lastActive time.Time
	memory     preset.SelectionMemory

	outChan   chan editor.Event
	kickChan  chan struct{}
	connected bool
	outMu     sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// State is a point-in-time view of a session for API responses.
type State struct {
	ID         string           `json:"id"`
	Section    preset.Section   `json:"section"`
	Selection  editor.Selection `json:"selection"`
	Records    []preset.Record  `json:"records"`
	Presets    []preset.Preset  `json:"presets"`
	Dirty      bool             `json:"dirty"`
	CanSave    bool             `json:"canSave"`
	CanDelete  bool             `json:"canDelete"`
	Connected  bool             `json:"connected"`
	CreatedAt  time.Time        `json:"created_at"`
	LastActive time.Time        `json:"last_active"`
}

// Do runs fn with exclusive access to the editor.
func (s *Session) Do(fn func(ed *editor.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	return fn(s.ed)
}

// Reload re-lists the registry and re-applies the remembered selection. An
// empty remembered falls back to the one the store keeps, if any.
func (s *Session) Reload(ctx context.Context, remembered string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	if remembered == "" {
		remembered = s.storedSelection(ctx)
	}
	return s.ed.Load(ctx, remembered)
}

func (s *Session) storedSelection(ctx context.Context) string {
	if s.memory == nil || s.Owner.Anonymous() {
		return ""
	}
	section := s.ed.Section()
	name, err := s.memory.Remembered(ctx, s.Owner.UserID, section)
	if err != nil {
		log.Printf("session %s: load remembered %s selection: %v", s.ID, section, err)
	}
	return name
}

// State snapshots the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outMu.Lock()
	connected := s.connected
	s.outMu.Unlock()
	return State{
		ID:         s.ID,
		Section:    s.ed.Section(),
		Selection:  s.ed.Selection(),
		Records:    s.ed.Records(),
		Presets:    s.ed.Presets(),
		Dirty:      s.ed.Dirty(),
		CanSave:    s.ed.CanSave(),
		CanDelete:  s.ed.CanDelete(),
		Connected:  connected,
		CreatedAt:  s.CreatedAt,
		LastActive: s.lastActive,
	}
}

// publish is the editor's notifier. It runs under s.mu.
func (s *Session) publish(ev editor.Event) {
	if ev.Kind == editor.EventSelectionChanged && ev.Selection != nil {
		s.remember(*ev.Selection)
	}

	s.outMu.Lock()
	defer s.outMu.Unlock()
	if s.outChan == nil {
		return
	}
	select {
	case s.outChan <- ev:
	default:
		log.Printf("session %s: client buffer full, dropping %s", s.ID, ev.Kind)
	}
}

func (s *Session) remember(sel editor.Selection) {
	if s.memory == nil || s.Owner.Anonymous() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), rememberTimeout)
	defer cancel()
	if err := s.memory.Remember(ctx, s.Owner.UserID, s.ed.Section(), sel.Name()); err != nil {
		log.Printf("session %s: remember selection %q: %v", s.ID, sel, err)
	}
}

// SetClient registers a channel to receive editor events. If a previous
// client is connected it is kicked: its kick channel is closed so the ws
// handler can close that connection. Returns a kick channel that will be
// closed if this client is itself later displaced.
func (s *Session) SetClient(ch chan editor.Event) <-chan struct{} {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if s.kickChan != nil {
		close(s.kickChan)
	}
	kick := make(chan struct{})
	s.kickChan = kick
	s.outChan = ch
	s.connected = true
	return kick
}

// ClearClient is called when a connection ends. It only updates session state
// if ch is still the current owner (guards against a displaced connection
// clearing a newer one). It always closes ch so the pump goroutine exits.
func (s *Session) ClearClient(ch chan editor.Event) {
	s.outMu.Lock()
	owned := s.outChan == ch
	if owned {
		s.outChan = nil
		s.connected = false
		s.kickChan = nil
	}
	s.outMu.Unlock()
	close(ch)
}

// NewClientChan returns a buffered channel suitable for SetClient.
func NewClientChan() chan editor.Event {
	return make(chan editor.Event, eventBuffer)
}

// Done returns a channel that is closed when the session is killed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}
