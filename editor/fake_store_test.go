package editor_test

import (
	"context"

	"section-presets/preset"
)

// fakeStore is an in-memory preset.Store with failure injection.
type fakeStore struct {
	presets map[string][]preset.Preset

	listErr   error
	saveErr   error
	deleteErr error
	// failListAfter makes List fail once this many further calls succeeded; -1 disables it.
	failListAfter int

	lists, saves, deletes int
}

func newFakeStore(presets ...preset.Preset) *fakeStore {
	return &fakeStore{
		presets:       map[string][]preset.Preset{"u1": preset.ClonePresets(presets)},
		failListAfter: -1,
	}
}

func (f *fakeStore) List(_ context.Context, userID string, _ preset.Section) ([]preset.Preset, error) {
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.failListAfter == 0 {
		return nil, preset.ErrRemoteUnavailable
	}
	if f.failListAfter > 0 {
		f.failListAfter--
	}
	return preset.ClonePresets(f.presets[userID]), nil
}

func (f *fakeStore) Save(_ context.Context, userID string, _ preset.Section, p preset.Preset) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.presets[userID] = preset.Upsert(f.presets[userID], p)
	return nil
}

func (f *fakeStore) Delete(_ context.Context, userID string, _ preset.Section, name string) error {
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if preset.IndexOf(f.presets[userID], name) < 0 {
		return preset.ErrNotFound
	}
	f.presets[userID] = preset.Without(f.presets[userID], name)
	return nil
}

func rec(institution, degree, year string) preset.Record {
	return preset.Record{Institution: institution, Degree: degree, Year: year}
}

func named(name string, records ...preset.Record) preset.Preset {
	return preset.Preset{Name: name, Value: append([]preset.Record{}, records...)}
}
