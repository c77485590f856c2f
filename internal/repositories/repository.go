package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/maintlog/internal/models"
	"github.com/dmitrijs2005/maintlog/internal/store"
)

// Repository is a typed view over one collection. P is the pointer type
// that implements models.Record.
type Repository[T any, P interface {
	*T
	models.Record
}] struct {
	s store.Store
	c store.Collection
}

// New binds a repository for T to s.
func New[T any, P interface {
	*T
	models.Record
}](s store.Store) *Repository[T, P] {
	var zero T
	return &Repository[T, P]{s: s, c: P(&zero).Collection()}
}

// Put validates v and upserts it.
func (r *Repository[T, P]) Put(ctx context.Context, v P) error {
	if err := v.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", r.c, v.Key(), err)
	}
	return r.s.Upsert(ctx, r.c, raw)
}

// Get returns the record or nil when absent.
func (r *Repository[T, P]) Get(ctx context.Context, id string) (P, error) {
	raw, err := r.s.GetOne(ctx, r.c, id)
	if err != nil || raw == nil {
		return nil, err
	}
	return r.decode(raw)
}

func (r *Repository[T, P]) List(ctx context.Context) ([]P, error) {
	raws, err := r.s.GetAll(ctx, r.c)
	if err != nil {
		return nil, err
	}
	return r.decodeAll(raws)
}

func (r *Repository[T, P]) Range(ctx context.Context, q store.Range) ([]P, error) {
	raws, err := r.s.Query(ctx, r.c, q)
	if err != nil {
		return nil, err
	}
	return r.decodeAll(raws)
}

func (r *Repository[T, P]) Delete(ctx context.Context, id string) error {
	return r.s.Delete(ctx, r.c, id)
}

func (r *Repository[T, P]) decode(raw json.RawMessage) (P, error) {
	v := P(new(T))
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", r.c, err)
	}
	return v, nil
}

func (r *Repository[T, P]) decodeAll(raws []json.RawMessage) ([]P, error) {
	out := make([]P, 0, len(raws))
	for _, raw := range raws {
		v, err := r.decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Set bundles the repositories for every typed collection.
type Set struct {
	Entries  *Repository[models.Entry, *models.Entry]
	Shifts   *Repository[models.Shift, *models.Shift]
	Visits   *Repository[models.Visit, *models.Visit]
	Services *Repository[models.ServiceRecord, *models.ServiceRecord]
	Settings *Settings
}

func NewSet(s store.Store) *Set {
	return &Set{
		Entries:  New[models.Entry](s),
		Shifts:   New[models.Shift](s),
		Visits:   New[models.Visit](s),
		Services: New[models.ServiceRecord](s),
		Settings: NewSettings(s),
	}
}
