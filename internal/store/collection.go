package store

import (
	"fmt"
	"slices"
)

// Collection names a logical container of records.
type Collection string

const (
	Entries  Collection = "entries"
	Meta     Collection = "meta"
	Shifts   Collection = "shifts"
	Visits   Collection = "visits"
	Services Collection = "services"
)

// LatestVersion is the highest schema version this build can open.
const LatestVersion = 4

// Index is a secondary lookup over one top-level JSON field.
type Index struct {
	Name  string
	Field string
}

// Spec describes a collection: its key field, secondary indexes and the
// schema version that introduced it.
type Spec struct {
	Name     Collection
	KeyField string
	Indexes  []Index
	Since    int
}

// Index returns the named index.
func (s Spec) Index(name string) (Index, bool) {
	for _, ix := range s.Indexes {
		if ix.Name == name {
			return ix, true
		}
	}
	return Index{}, false
}

// registry is kept in wipe order.
var registry = []Spec{
	{Name: Entries, KeyField: "id", Since: 1, Indexes: []Index{
		{Name: "by_date", Field: "createdAt"},
		{Name: "by_machine", Field: "machine"},
	}},
	{Name: Meta, KeyField: "key", Since: 2},
	{Name: Shifts, KeyField: "id", Since: 3, Indexes: []Index{
		{Name: "by_start", Field: "startAt"},
	}},
	{Name: Visits, KeyField: "id", Since: 4, Indexes: []Index{
		{Name: "by_shift", Field: "shiftId"},
		{Name: "by_machine", Field: "machine"},
		{Name: "by_start", Field: "startAt"},
	}},
	{Name: Services, KeyField: "id", Since: 4, Indexes: []Index{
		{Name: "by_machine", Field: "machine"},
		{Name: "by_date", Field: "date"},
		{Name: "by_type", Field: "type"},
	}},
}

// CheckVersion reports whether v is a schema version this build knows.
func CheckVersion(v int) error {
	if v < 1 || v > LatestVersion {
		return fmt.Errorf("%w: %d (known 1..%d)", ErrUnsupportedVersion, v, LatestVersion)
	}
	return nil
}

// Available lists the collections present at schema version v, in
// declaration order.
func Available(v int) []Spec {
	out := make([]Spec, 0, len(registry))
	for _, s := range registry {
		if s.Since <= v {
			s.Indexes = slices.Clone(s.Indexes)
			out = append(out, s)
		}
	}
	return out
}

// Resolve returns the spec for c if it exists at version v.
func Resolve(c Collection, v int) (Spec, error) {
	for _, s := range registry {
		if s.Name != c {
			continue
		}
		if s.Since > v {
			return Spec{}, fmt.Errorf("%w: %q requires schema version %d", ErrUnknownCollection, c, s.Since)
		}
		return s, nil
	}
	return Spec{}, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
}
