package editor

import (
	"context"

	"section-presets/preset"
)

// Identity is the user an editing session acts for. The zero value is
// anonymous and may not mutate presets.
type Identity struct {
	UserID string `json:"user_id"`
}

func (i Identity) Anonymous() bool { return i.UserID == "" }

// Registry is a cached, ordered view of one section's presets in a Store.
// Save and Delete never touch the cache; callers refresh after them.
type Registry struct {
	store   preset.Store
	section preset.Section
	presets []preset.Preset
}

func NewRegistry(store preset.Store, section preset.Section) *Registry {
	return &Registry{store: store, section: section, presets: []preset.Preset{}}
}

func (r *Registry) Section() preset.Section { return r.section }

func (r *Registry) Len() int { return len(r.presets) }

// Presets returns a copy of the cached registry.
func (r *Registry) Presets() []preset.Preset {
	return preset.ClonePresets(r.presets)
}

func (r *Registry) Lookup(name string) (preset.Preset, bool) {
	i := preset.IndexOf(r.presets, name)
	if i < 0 {
		return preset.Preset{}, false
	}
	p := r.presets[i]
	return preset.Preset{Name: p.Name, Value: preset.CloneRecords(p.Value)}, true
}

// Refresh re-lists the registry. On failure the cache is left as it was.
// Anonymous identities own no presets, so they get an empty registry
// without a remote call.
func (r *Registry) Refresh(ctx context.Context, id Identity) error {
	if id.Anonymous() {
		r.presets = []preset.Preset{}
		return nil
	}
	presets, err := r.store.List(ctx, id.UserID, r.section)
	if err != nil {
		return err
	}
	r.presets = preset.ClonePresets(presets)
	return nil
}

// Save upserts value under name in the store.
func (r *Registry) Save(ctx context.Context, id Identity, name string, value []preset.Record) error {
	if id.Anonymous() {
		return preset.ErrPermissionDenied
	}
	p := preset.Preset{Name: name, Value: preset.CloneRecords(value)}
	if err := preset.Validate(p); err != nil {
		return err
	}
	return r.store.Save(ctx, id.UserID, r.section, p)
}

// Delete removes name from the store.
func (r *Registry) Delete(ctx context.Context, id Identity, name string) error {
	if id.Anonymous() {
		return preset.ErrPermissionDenied
	}
	return r.store.Delete(ctx, id.UserID, r.section, name)
}

// replace swaps the cache for a registry whose contents the store already confirmed.
func (r *Registry) replace(presets []preset.Preset) {
	r.presets = preset.ClonePresets(presets)
}
