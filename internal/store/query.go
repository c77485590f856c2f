package store

import (
	"encoding/json"
	"fmt"
	"sort"
)

// FieldString returns the top-level field of rec as a string for index
// comparison. Strings are returned unquoted, numbers and booleans in their
// JSON text, and absent or null fields as "".
func FieldString(rec json.RawMessage, field string) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rec, &fields); err != nil {
		return ""
	}
	raw, ok := fields[field]
	if !ok || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Match reports whether v falls inside r.
func (r Range) Match(v string) bool {
	if r.Equal != "" {
		return v == r.Equal
	}
	if r.From != "" && v < r.From {
		return false
	}
	if r.To != "" && v >= r.To {
		return false
	}
	return true
}

// Filter applies r to recs using spec's index, returning matches ordered by
// the indexed value, then key.
func Filter(spec Spec, recs []json.RawMessage, r Range) ([]json.RawMessage, error) {
	ix, ok := spec.Index(r.Index)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownIndex, spec.Name, r.Index)
	}
	type row struct {
		val string
		key string
		rec json.RawMessage
	}
	rows := make([]row, 0, len(recs))
	for _, rec := range recs {
		v := FieldString(rec, ix.Field)
		if !r.Match(v) {
			continue
		}
		rows = append(rows, row{val: v, key: FieldString(rec, spec.KeyField), rec: rec})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if r.Desc {
			a, b = b, a
		}
		if a.val != b.val {
			return a.val < b.val
		}
		return a.key < b.key
	})
	if r.Limit > 0 && len(rows) > r.Limit {
		rows = rows[:r.Limit]
	}
	out := make([]json.RawMessage, len(rows))
	for i, rw := range rows {
		out[i] = rw.rec
	}
	return out, nil
}
