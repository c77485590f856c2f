package store

import (
	"context"
	"encoding/json"
)

// Range selects records through a secondary index. Equal, when set, matches
// the indexed field exactly and From/To are ignored. Otherwise From is an
// inclusive and To an exclusive lower/upper bound, each unbounded when
// empty. Values compare as strings.
type Range struct {
	Index string
	Equal string
	From  string
	To    string
	Desc  bool
	Limit int
}

// Store is the record store contract shared by all backends.
type Store interface {
	// Upsert creates or fully replaces the record keyed by its own key field.
	Upsert(ctx context.Context, c Collection, rec json.RawMessage) error
	// GetAll returns a snapshot of the collection in key order. Never nil.
	GetAll(ctx context.Context, c Collection) ([]json.RawMessage, error)
	// GetOne returns the record or nil when absent.
	GetOne(ctx context.Context, c Collection, id string) (json.RawMessage, error)
	// Delete removes the record; a missing id is a no-op.
	Delete(ctx context.Context, c Collection, id string) error
	Query(ctx context.Context, c Collection, r Range) ([]json.RawMessage, error)
	Count(ctx context.Context, c Collection) (int, error)
	// Wipe clears every available collection, one transaction each. It
	// stops at the first failure without restoring earlier collections.
	Wipe(ctx context.Context) error
	Version() int
	Close() error
}

// WipeEach clears the given collections in order using clear, wrapping the
// first failure as a *WriteError.
func WipeEach(ctx context.Context, specs []Spec, clear func(ctx context.Context, s Spec) error) error {
	for _, s := range specs {
		if err := ctx.Err(); err != nil {
			return Write("wipe", s.Name, err)
		}
		if err := clear(ctx, s); err != nil {
			return Write("wipe", s.Name, err)
		}
	}
	return nil
}
