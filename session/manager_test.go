package session

import (
	"context"
	"errors"
	"testing"

	"section-presets/editor"
	"section-presets/preset"
)

var (
	ctx   = context.Background()
	alice = editor.Identity{UserID: "alice"}
	bob   = editor.Identity{UserID: "bob"}
)

func newTestManager(t *testing.T) (*Manager, *preset.Manager) {
	t.Helper()
	pm, err := preset.NewManager(t.TempDir() + "/presets.json")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return NewManager(pm), pm
}

func TestCreateAndGet(t *testing.T) {
	m, _ := newTestManager(t)
	s, err := m.Create(ctx, alice, preset.Education, []preset.Record{{}}, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	got, ok := m.Get(s.ID)
	if !ok {
		t.Fatal("Get returned ok=false for existing session")
	}
	if got.ID != s.ID {
		t.Fatalf("Get returned wrong session")
	}
	st := s.State()
	if !st.Selection.IsCurrent() || len(st.Records) != 1 || !st.CanSave {
		t.Fatalf("unexpected initial state: %+v", st)
	}
}

func TestCreateRejectsBadSection(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.Create(ctx, alice, preset.Section("no such"), nil, ""); !errors.Is(err, preset.ErrInvalidPreset) {
		t.Fatalf("expected ErrInvalidPreset, got %v", err)
	}
}

func TestCreateUsesRememberedSelection(t *testing.T) {
	m, pm := newTestManager(t)
	pm.Save(ctx, "alice", preset.Education, preset.Preset{Name: "A"})
	pm.Save(ctx, "alice", preset.Education, preset.Preset{Name: "B"})
	pm.Remember(ctx, "alice", preset.Education, "B")

	s, err := m.Create(ctx, alice, preset.Education, nil, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got := s.State().Selection; got != editor.Named("B") {
		t.Fatalf("expected remembered selection B, got %v", got)
	}

	explicit, _ := m.Create(ctx, alice, preset.Education, nil, "A")
	if got := explicit.State().Selection; got != editor.Named("A") {
		t.Fatalf("explicit remembered selection should win, got %v", got)
	}
}

func TestSelectionChangesAreRemembered(t *testing.T) {
	m, pm := newTestManager(t)
	pm.Save(ctx, "alice", preset.Education, preset.Preset{Name: "A"})
	pm.Save(ctx, "alice", preset.Education, preset.Preset{Name: "B"})

	s, _ := m.Create(ctx, alice, preset.Education, nil, "")
	if err := s.Do(func(ed *editor.Session) error { return ed.Choose("B") }); err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if name, _ := pm.Remembered(ctx, "alice", preset.Education); name != "B" {
		t.Fatalf("expected B remembered, got %q", name)
	}
	s.Do(func(ed *editor.Session) error { return ed.Choose(preset.CurrentName) })
	if name, _ := pm.Remembered(ctx, "alice", preset.Education); name != "" {
		t.Fatalf("expected cleared selection, got %q", name)
	}
}

func TestReloadKeepsRememberedSelection(t *testing.T) {
	m, pm := newTestManager(t)
	pm.Save(ctx, "alice", preset.Education, preset.Preset{Name: "A"})
	pm.Save(ctx, "alice", preset.Education, preset.Preset{Name: "B"})

	s, _ := m.Create(ctx, alice, preset.Education, nil, "")
	if err := s.Do(func(ed *editor.Session) error { return ed.Choose("B") }); err != nil {
		t.Fatalf("Choose: %v", err)
	}

	if err := s.Reload(ctx, ""); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := s.State().Selection; got != editor.Named("B") {
		t.Fatalf("reload without a selection should keep B, got %v", got)
	}
	if name, _ := pm.Remembered(ctx, "alice", preset.Education); name != "B" {
		t.Fatalf("expected B still remembered, got %q", name)
	}

	if err := s.Reload(ctx, "A"); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := s.State().Selection; got != editor.Named("A") {
		t.Fatalf("explicit selection should win, got %v", got)
	}
}

func TestList(t *testing.T) {
	m, _ := newTestManager(t)
	a1, _ := m.Create(ctx, alice, preset.Education, nil, "")
	a2, _ := m.Create(ctx, alice, preset.Education, nil, "")
	m.Create(ctx, bob, preset.Education, nil, "")
	m.Create(ctx, editor.Identity{}, preset.Education, nil, "")

	list := m.List(alice)
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
	if list[0].ID != a1.ID || list[1].ID != a2.ID {
		t.Fatal("expected sessions oldest first")
	}
	if len(m.List(editor.Identity{})) != 0 {
		t.Fatal("anonymous sessions must not be listed")
	}
}

func TestKill(t *testing.T) {
	m, _ := newTestManager(t)
	s, err := m.Create(ctx, alice, preset.Education, nil, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := m.Kill(s.ID); err != nil {
		t.Fatalf("Kill failed: %v", err)
	}
	if _, ok := m.Get(s.ID); ok {
		t.Fatal("session still exists after Kill")
	}
	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed after Kill")
	}
}

func TestKillNotFound(t *testing.T) {
	m, _ := newTestManager(t)
	if err := m.Kill("nonexistent"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
