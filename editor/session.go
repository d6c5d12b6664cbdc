package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"section-presets/preset"
)

// EventKind names a change notification sent to the host.
type EventKind string

const (
	// EventReplaceSection carries the section's new record list.
	EventReplaceSection EventKind = "REPLACE_SECTION"
	// EventPresetsChanged tells the host the registry was mutated remotely.
	EventPresetsChanged EventKind = "PRESETS_CHANGED"
	// EventSelectionChanged carries the new selection so the host can remember it.
	EventSelectionChanged EventKind = "SELECTION_CHANGED"
)

type Event struct {
	Kind      EventKind       `json:"kind"`
	Section   preset.Section  `json:"sectionKind"`
	Value     []preset.Record `json:"value,omitempty"`
	Selection *Selection      `json:"selection,omitempty"`
}

// MarshalJSON writes value only for REPLACE_SECTION, where an empty list is
// still sent as [].
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	out := struct {
		plain
		Value *[]preset.Record `json:"value,omitempty"`
	}{plain: plain(e)}
	if e.Kind == EventReplaceSection {
		value := preset.CloneRecords(e.Value)
		out.Value = &value
	}
	return json.Marshal(out)
}

// Notifier receives host events synchronously, in order.
type Notifier func(Event)

// Option configures a Session.
type Option func(*Session)

// WithNotifier routes host events to fn.
func WithNotifier(fn Notifier) Option {
	return func(s *Session) { s.notify = fn }
}

// AllowDeletingLast lifts the guard that refuses to delete the only preset.
func AllowDeletingLast() Option {
	return func(s *Session) { s.keepLast = false }
}

// Session coordinates one section's working set, registry and selection for
// a single editor. It is not safe for concurrent use.
type Session struct {
	id        Identity
	working   *WorkingSet
	registry  *Registry
	selection Selection
	notify    Notifier
	keepLast  bool
}

// New builds a session over records. The registry is empty until Load.
func New(store preset.Store, id Identity, section preset.Section, records []preset.Record, opts ...Option) *Session {
	s := &Session{
		id:       id,
		working:  NewWorkingSet(records),
		registry: NewRegistry(store, section),
		notify:   func(Event) {},
		keepLast: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Identity() Identity      { return s.id }
func (s *Session) Section() preset.Section { return s.registry.Section() }
func (s *Session) Selection() Selection    { return s.selection }
func (s *Session) Records() []preset.Record {
	return s.working.Records()
}
func (s *Session) Presets() []preset.Preset { return s.registry.Presets() }
func (s *Session) Dirty() bool              { return s.working.Dirty() }

// CanSave reports whether presets may be written for this identity.
func (s *Session) CanSave() bool { return !s.id.Anonymous() }

// CanDelete reports whether DeleteSelected would act rather than be refused.
func (s *Session) CanDelete() bool {
	if !s.CanSave() || s.selection.IsCurrent() {
		return false
	}
	return !s.keepLast || s.registry.Len() > 1
}

// Load re-lists the registry and picks the initial selection from
// remembered. The working set is not touched; callers wanting the selected
// value call LoadValue as well.
func (s *Session) Load(ctx context.Context, remembered string) error {
	if err := s.registry.Refresh(ctx, s.id); err != nil {
		return fmt.Errorf("load %s presets: %w", s.Section(), err)
	}
	s.setSelection(Initial(remembered, s.registry.presets))
	return nil
}

// Refresh re-lists the registry and keeps the current selection when it is
// still present.
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.registry.Refresh(ctx, s.id); err != nil {
		return fmt.Errorf("refresh %s presets: %w", s.Section(), err)
	}
	s.setSelection(Reconcile(s.selection, s.registry.presets))
	return nil
}

// Select relabels the session without loading any value.
func (s *Session) Select(name string) error {
	next := ParseSelection(name)
	if !next.valid(s.registry.presets) {
		return fmt.Errorf("%w: %q", preset.ErrNotFound, name)
	}
	s.setSelection(next)
	return nil
}

// LoadValue replaces the working set with the value of preset name.
func (s *Session) LoadValue(name string) error {
	p, ok := s.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", preset.ErrNotFound, name)
	}
	s.replaceRecords(p.Value)
	return nil
}

// Choose is the user picking an entry from the preset list: the selection
// changes and the preset's value is loaded. Choosing Current only relabels.
func (s *Session) Choose(name string) error {
	if err := s.Select(name); err != nil {
		return err
	}
	if s.selection.IsCurrent() {
		return nil
	}
	return s.LoadValue(s.selection.Name())
}

// SaveAs stores the working set under name. The selection is not changed,
// even when name is the selected preset.
func (s *Session) SaveAs(ctx context.Context, name string) error {
	value := s.working.Records()
	if err := s.registry.Save(ctx, s.id, name, value); err != nil {
		return fmt.Errorf("save %s preset %q: %w", s.Section(), name, err)
	}
	confirmed := preset.Upsert(s.registry.presets, preset.Preset{Name: name, Value: value})
	s.afterMutation(ctx, confirmed)
	return nil
}

// DeleteSelected deletes the selected preset. It is refused, returning
// false and no error, when Current is selected or when it would remove the
// only preset. On success the first remaining preset is selected and
// loaded; with none left the selection becomes Current and the working set
// is kept.
func (s *Session) DeleteSelected(ctx context.Context) (bool, error) {
	if s.selection.IsCurrent() || (s.keepLast && s.registry.Len() <= 1) {
		return false, nil
	}
	name := s.selection.Name()
	before := s.registry.presets
	if err := s.registry.Delete(ctx, s.id, name); err != nil {
		return false, fmt.Errorf("delete %s preset %q: %w", s.Section(), name, err)
	}

	next, fallback, ok := AfterDelete(before, name)
	s.setSelection(next)
	if ok {
		s.replaceRecords(fallback.Value)
	}
	s.afterMutation(ctx, preset.Without(before, name))
	return true, nil
}

// afterMutation re-lists once the store confirmed a write. If the re-list
// fails the confirmed registry is used instead.
func (s *Session) afterMutation(ctx context.Context, confirmed []preset.Preset) {
	if err := s.registry.Refresh(ctx, s.id); err != nil {
		log.Printf("section %s: re-list after write failed, using confirmed registry: %v", s.Section(), err)
		s.registry.replace(confirmed)
	}
	s.setSelection(Reconcile(s.selection, s.registry.presets))
	s.emit(Event{Kind: EventPresetsChanged})
}

// SetField edits one field of the record at index.
func (s *Session) SetField(index int, field preset.Field, value string) {
	s.working.SetField(index, field, value)
}

// AppendRecord adds a blank record.
func (s *Session) AppendRecord() {
	s.working.Append()
}

// RemoveRecord drops the record at index and pushes the new list to the host.
func (s *Session) RemoveRecord(index int) {
	if s.working.RemoveAt(index) {
		s.emit(Event{Kind: EventReplaceSection, Value: s.working.Records()})
	}
}

// Commit hands the latest edits to the host.
func (s *Session) Commit() {
	s.emit(Event{Kind: EventReplaceSection, Value: s.working.Commit()})
}

func (s *Session) replaceRecords(records []preset.Record) {
	s.working.ReplaceAll(records)
	s.emit(Event{Kind: EventReplaceSection, Value: s.working.Records()})
}

func (s *Session) setSelection(next Selection) {
	if next == s.selection {
		return
	}
	s.selection = next
	s.emit(Event{Kind: EventSelectionChanged, Selection: &next})
}

func (s *Session) emit(ev Event) {
	ev.Section = s.Section()
	s.notify(ev)
}
