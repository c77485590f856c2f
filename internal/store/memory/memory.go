// Package memory is an in-process Store used by tests and by the CLI when
// no database is wanted. Nothing is persisted.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/dmitrijs2005/maintlog/internal/store"
)

type Store struct {
	mu      sync.RWMutex
	version int
	data    map[store.Collection]map[string]json.RawMessage
	// failWipe, when set, makes Wipe fail on that collection.
	failWipe store.Collection
}

var _ store.Store = (*Store)(nil)

// New returns an empty store at the given schema version.
func New(version int) (*Store, error) {
	if err := store.CheckVersion(version); err != nil {
		return nil, &store.OpenError{Path: ":memory:", Version: version, Err: err}
	}
	s := &Store{version: version, data: make(map[store.Collection]map[string]json.RawMessage)}
	for _, spec := range store.Available(version) {
		s.data[spec.Name] = make(map[string]json.RawMessage)
	}
	return s, nil
}

func (s *Store) Version() int { return s.version }

func (s *Store) Close() error { return nil }

func (s *Store) Upsert(ctx context.Context, c store.Collection, rec json.RawMessage) error {
	spec, err := store.Resolve(c, s.version)
	if err != nil {
		return store.Write("put", c, err)
	}
	key, err := store.KeyOf(spec, rec)
	if err != nil {
		return store.Write("put", c, err)
	}
	if err := ctx.Err(); err != nil {
		return store.Write("put", c, err)
	}
	s.mu.Lock()
	s.data[c][key] = store.Clone(rec)
	s.mu.Unlock()
	return nil
}

func (s *Store) GetAll(ctx context.Context, c store.Collection) ([]json.RawMessage, error) {
	if _, err := store.Resolve(c, s.version); err != nil {
		return nil, store.Read("getAll", c, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, store.Read("getAll", c, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data[c]))
	for k := range s.data[c] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]json.RawMessage, len(keys))
	for i, k := range keys {
		out[i] = store.Clone(s.data[c][k])
	}
	return out, nil
}

func (s *Store) GetOne(ctx context.Context, c store.Collection, id string) (json.RawMessage, error) {
	if _, err := store.Resolve(c, s.version); err != nil {
		return nil, store.Read("get", c, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, store.Read("get", c, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.Clone(s.data[c][id]), nil
}

func (s *Store) Delete(ctx context.Context, c store.Collection, id string) error {
	if _, err := store.Resolve(c, s.version); err != nil {
		return store.Write("delete", c, err)
	}
	if err := ctx.Err(); err != nil {
		return store.Write("delete", c, err)
	}
	s.mu.Lock()
	delete(s.data[c], id)
	s.mu.Unlock()
	return nil
}

func (s *Store) Query(ctx context.Context, c store.Collection, r store.Range) ([]json.RawMessage, error) {
	spec, err := store.Resolve(c, s.version)
	if err != nil {
		return nil, store.Read("query", c, err)
	}
	all, err := s.GetAll(ctx, c)
	if err != nil {
		return nil, err
	}
	out, err := store.Filter(spec, all, r)
	if err != nil {
		return nil, store.Read("query", c, err)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, c store.Collection) (int, error) {
	if _, err := store.Resolve(c, s.version); err != nil {
		return 0, store.Read("count", c, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[c]), nil
}

func (s *Store) Wipe(ctx context.Context) error {
	s.mu.RLock()
	fail := s.failWipe
	s.mu.RUnlock()
	return store.WipeEach(ctx, store.Available(s.version), func(ctx context.Context, spec store.Spec) error {
		if spec.Name == fail {
			return errWipeInjected
		}
		s.mu.Lock()
		s.data[spec.Name] = make(map[string]json.RawMessage)
		s.mu.Unlock()
		return nil
	})
}
