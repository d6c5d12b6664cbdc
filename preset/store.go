package preset

import "context"

// Store is the remote preset collection. Registries are scoped to a
// (userID, section) pair and names are unique within one registry.
type Store interface {
	// List returns the registry in order. An unknown pair yields an empty list.
	List(ctx context.Context, userID string, section Section) ([]Preset, error)
	// Save upserts p by name. An existing name keeps its position.
	Save(ctx context.Context, userID string, section Section, p Preset) error
	// Delete removes the preset called name, or fails with ErrNotFound.
	Delete(ctx context.Context, userID string, section Section, name string) error
}

// SelectionMemory persists the last selection a user made per section, so a
// new editing session can start from it.
type SelectionMemory interface {
	Remember(ctx context.Context, userID string, section Section, name string) error
	Remembered(ctx context.Context, userID string, section Section) (string, error)
}
