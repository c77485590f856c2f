package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

type metaRecord struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// MetaStore is the key/value view over the meta collection. Values are
// opaque JSON.
type MetaStore struct {
	s Store
}

func NewMeta(s Store) *MetaStore {
	return &MetaStore{s: s}
}

// Get returns the raw value for key, or nil when the key was never set.
func (m *MetaStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	raw, err := m.s.GetOne(ctx, Meta, key)
	if err != nil || raw == nil {
		return nil, err
	}
	var rec metaRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, Read("get", Meta, fmt.Errorf("decode %q: %w", key, err))
	}
	if len(rec.Value) == 0 {
		return json.RawMessage("null"), nil
	}
	return rec.Value, nil
}

// Load decodes the value for key into dst. It reports false when the key is
// absent, leaving dst untouched.
func (m *MetaStore) Load(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := m.Get(ctx, key)
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("meta %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key, replacing any previous value.
func (m *MetaStore) Set(ctx context.Context, key string, value any) error {
	v, err := json.Marshal(value)
	if err != nil {
		return Write("put", Meta, fmt.Errorf("%w: %v", ErrInvalidRecord, err))
	}
	rec, err := json.Marshal(metaRecord{Key: key, Value: v})
	if err != nil {
		return Write("put", Meta, err)
	}
	return m.s.Upsert(ctx, Meta, rec)
}

func (m *MetaStore) Delete(ctx context.Context, key string) error {
	return m.s.Delete(ctx, Meta, key)
}

// Keys lists the keys currently set, sorted.
func (m *MetaStore) Keys(ctx context.Context) ([]string, error) {
	all, err := m.s.GetAll(ctx, Meta)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for _, raw := range all {
		var rec metaRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, Read("keys", Meta, err)
		}
		keys = append(keys, rec.Key)
	}
	sort.Strings(keys)
	return keys, nil
}
