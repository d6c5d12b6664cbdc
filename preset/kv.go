package preset

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

const maxCASAttempts = 5

// KVStore keeps each (user, section) registry as one JSON value in a
// JetStream key-value bucket. Writes are revision-checked.
type KVStore struct {
	kv jetstream.KeyValue
}

var _ Store = (*KVStore)(nil)

// OpenKV binds to bucket, creating it if needed.
func OpenKV(ctx context.Context, js jetstream.JetStream, bucket string) (*KVStore, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: bucket})
	if err != nil {
		return nil, fmt.Errorf("open kv bucket %q: %w", bucket, err)
	}
	return &KVStore{kv: kv}, nil
}

// kvKey encodes the scope with base64url so any user ID stays within the
// KV key alphabet. The section is already alphanumeric.
func kvKey(userID string, section Section) string {
	return base64.RawURLEncoding.EncodeToString([]byte(userID)) + "." + string(section)
}

func (s *KVStore) List(ctx context.Context, userID string, section Section) ([]Preset, error) {
	if err := checkScope(userID, section); err != nil {
		return nil, err
	}
	presets, _, err := s.load(ctx, kvKey(userID, section))
	return presets, err
}

func (s *KVStore) Save(ctx context.Context, userID string, section Section, p Preset) error {
	if err := checkScope(userID, section); err != nil {
		return err
	}
	if err := Validate(p); err != nil {
		return err
	}
	return s.mutate(ctx, kvKey(userID, section), func(presets []Preset) ([]Preset, error) {
		return Upsert(presets, p), nil
	})
}

func (s *KVStore) Delete(ctx context.Context, userID string, section Section, name string) error {
	if err := checkScope(userID, section); err != nil {
		return err
	}
	return s.mutate(ctx, kvKey(userID, section), func(presets []Preset) ([]Preset, error) {
		if IndexOf(presets, name) < 0 {
			return nil, ErrNotFound
		}
		return Without(presets, name), nil
	})
}

// load returns the registry under key and its revision; revision 0 means absent.
func (s *KVStore) load(ctx context.Context, key string) ([]Preset, uint64, error) {
	entry, err := s.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return []Preset{}, 0, nil
	}
	if err != nil {
		return nil, 0, unavailable(err)
	}
	var presets []Preset
	if err := json.Unmarshal(entry.Value(), &presets); err != nil {
		return nil, 0, unavailable(err)
	}
	if presets == nil {
		presets = []Preset{}
	}
	return presets, entry.Revision(), nil
}

// mutate applies fn with compare-and-set, retrying when another writer wins.
func (s *KVStore) mutate(ctx context.Context, key string, fn func([]Preset) ([]Preset, error)) error {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		presets, rev, err := s.load(ctx, key)
		if err != nil {
			return err
		}
		next, err := fn(presets)
		if err != nil {
			return err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}
		if rev == 0 {
			_, err = s.kv.Create(ctx, key, data)
		} else {
			_, err = s.kv.Update(ctx, key, data, rev)
		}
		if err == nil {
			return nil
		}
		if !casConflict(err) {
			return unavailable(err)
		}
	}
	return fmt.Errorf("%w: too many concurrent writers on %s", ErrRemoteUnavailable, key)
}

func casConflict(err error) bool {
	if errors.Is(err, jetstream.ErrKeyExists) {
		return true
	}
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}
