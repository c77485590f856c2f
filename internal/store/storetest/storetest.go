// Package storetest is a behavioural test suite that every store.Store
// backend runs against itself.
package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/maintlog/internal/store"
)

// Opener returns a fresh, empty store at store.LatestVersion.
type Opener func(t *testing.T) store.Store

// E1 is the reference entry used across backend tests.
const E1 = `{"id":"e1","createdAt":"2024-01-01T00:00:00Z","machine":"M1","status":"NUJNO","durationMin":45,"mode":"SAM","materials":[{"name":"oil","qty":"2","unit":"L"}],"photos":[]}`

// Run executes the suite.
func Run(t *testing.T, open Opener) {
	t.Run("EntryScenario", func(t *testing.T) { testEntryScenario(t, open(t)) })
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, open(t)) })
	t.Run("UpsertIdempotent", func(t *testing.T) { testUpsertIdempotent(t, open(t)) })
	t.Run("UpsertReplaces", func(t *testing.T) { testUpsertReplaces(t, open(t)) })
	t.Run("MissingKey", func(t *testing.T) { testMissingKey(t, open(t)) })
	t.Run("InvalidRecord", func(t *testing.T) { testInvalidRecord(t, open(t)) })
	t.Run("UnknownCollection", func(t *testing.T) { testUnknownCollection(t, open(t)) })
	t.Run("Snapshot", func(t *testing.T) { testSnapshot(t, open(t)) })
	t.Run("Meta", func(t *testing.T) { testMeta(t, open(t)) })
	t.Run("Query", func(t *testing.T) { testQuery(t, open(t)) })
	t.Run("Wipe", func(t *testing.T) { testWipe(t, open(t)) })
}

func testEntryScenario(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, store.Entries, json.RawMessage(E1)))

	all, err := s.GetAll(ctx, store.Entries)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.JSONEq(t, E1, string(all[0]))

	require.NoError(t, s.Delete(ctx, store.Entries, "e1"))

	all, err = s.GetAll(ctx, store.Entries)
	require.NoError(t, err)
	require.NotNil(t, all)
	assert.Empty(t, all)
}

func testRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	records := map[store.Collection]string{
		store.Entries:  E1,
		store.Shifts:   `{"id":"s1","startAt":"2024-01-02T06:00:00Z","endAt":null,"stepsTotal":0}`,
		store.Visits:   `{"id":"v1","shiftId":"s1","machine":"M1","startAt":"2024-01-02T06:10:00Z","endAt":null,"stepsStart":12,"stepsEnd":null,"stepsDelta":null,"note":""}`,
		store.Services: `{"id":"p1","type":"ANNUAL_PREVENTIVE","machine":"M1","date":"2024-01-03T00:00:00Z","note":"Letna preventiva"}`,
		store.Meta:     `{"key":"lastMachine","value":"M1"}`,
	}
	for c, rec := range records {
		require.NoError(t, s.Upsert(ctx, c, json.RawMessage(rec)), c)
	}
	for c, rec := range records {
		var probe map[string]any
		require.NoError(t, json.Unmarshal([]byte(rec), &probe))
		id, _ := probe["id"].(string)
		if c == store.Meta {
			id = probe["key"].(string)
		}
		got, err := s.GetOne(ctx, c, id)
		require.NoError(t, err)
		assert.JSONEq(t, rec, string(got), c)
	}
}

func testUpsertIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, store.Entries, json.RawMessage(E1)))
	require.NoError(t, s.Upsert(ctx, store.Entries, json.RawMessage(E1)))

	all, err := s.GetAll(ctx, store.Entries)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	n, err := s.Count(ctx, store.Entries)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testUpsertReplaces(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, store.Entries, json.RawMessage(E1)))
	r2 := `{"id":"e1","createdAt":"2024-01-01T00:00:00Z","machine":"M2"}`
	require.NoError(t, s.Upsert(ctx, store.Entries, json.RawMessage(r2)))

	got, err := s.GetOne(ctx, store.Entries, "e1")
	require.NoError(t, err)
	assert.JSONEq(t, r2, string(got))
}

func testMissingKey(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, store.Entries, json.RawMessage(E1)))

	got, err := s.GetOne(ctx, store.Entries, "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Delete(ctx, store.Entries, "nonexistent"))
	all, err := s.GetAll(ctx, store.Entries)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testInvalidRecord(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, rec := range []string{`[]`, `"x"`, `{"machine":"M1"}`, `{"id":""}`, `{"id":7}`, `{bad`} {
		err := s.Upsert(ctx, store.Entries, json.RawMessage(rec))
		require.ErrorIs(t, err, store.ErrInvalidRecord, rec)
		var we *store.WriteError
		require.True(t, errors.As(err, &we), rec)
		assert.Equal(t, store.Entries, we.Collection)
	}
	err := s.Upsert(ctx, store.Meta, json.RawMessage(`{"id":"not-a-key"}`))
	require.ErrorIs(t, err, store.ErrInvalidRecord)
}

func testUnknownCollection(t *testing.T, s store.Store) {
	ctx := context.Background()
	err := s.Upsert(ctx, "photos", json.RawMessage(`{"id":"x"}`))
	require.ErrorIs(t, err, store.ErrUnknownCollection)

	_, err = s.GetAll(ctx, "photos")
	require.ErrorIs(t, err, store.ErrUnknownCollection)
	var re *store.ReadError
	require.True(t, errors.As(err, &re))
}

func testSnapshot(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, store.Entries, json.RawMessage(E1)))

	all, err := s.GetAll(ctx, store.Entries)
	require.NoError(t, err)
	for i := range all[0] {
		all[0][i] = ' '
	}
	all[0] = json.RawMessage(`{"id":"zzz"}`)

	got, err := s.GetOne(ctx, store.Entries, "e1")
	require.NoError(t, err)
	assert.JSONEq(t, E1, string(got))
	n, err := s.Count(ctx, store.Entries)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testMeta(t *testing.T, s store.Store) {
	ctx := context.Background()
	m := store.NewMeta(s)

	v, err := m.Get(ctx, "unset-key")
	require.NoError(t, err)
	assert.Nil(t, v)

	var names map[string]string
	ok, err := m.Load(ctx, "names", &names)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, names)

	require.NoError(t, m.Set(ctx, "unlocked", true))
	require.NoError(t, m.Set(ctx, "names", map[string]string{"ME": "Jaz"}))
	require.NoError(t, m.Set(ctx, "machines", []string{"A", "B"}))
	require.NoError(t, m.Set(ctx, "unlocked", false))

	v, err = m.Get(ctx, "unlocked")
	require.NoError(t, err)
	assert.JSONEq(t, `false`, string(v))

	ok, err = m.Load(ctx, "names", &names)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, map[string]string{"ME": "Jaz"}, names)

	require.NoError(t, m.Set(ctx, "activeShift", nil))
	v, err = m.Get(ctx, "activeShift")
	require.NoError(t, err)
	assert.JSONEq(t, `null`, string(v))

	keys, err := m.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"activeShift", "machines", "names", "unlocked"}, keys)

	require.NoError(t, m.Delete(ctx, "machines"))
	v, err = m.Get(ctx, "machines")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func testQuery(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, rec := range []string{
		`{"id":"a","createdAt":"2024-02-10T08:00:00Z","machine":"M1"}`,
		`{"id":"b","createdAt":"2024-03-01T08:00:00Z","machine":"M2"}`,
		`{"id":"c","createdAt":"2024-03-20T08:00:00Z","machine":"M1"}`,
		`{"id":"d","createdAt":"2024-04-02T08:00:00Z","machine":"M3"}`,
	} {
		require.NoError(t, s.Upsert(ctx, store.Entries, json.RawMessage(rec)))
	}

	ids := func(recs []json.RawMessage) []string {
		out := make([]string, len(recs))
		for i, r := range recs {
			out[i] = store.FieldString(r, "id")
		}
		return out
	}

	got, err := s.Query(ctx, store.Entries, store.Range{Index: "by_machine", Equal: "M1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(got))

	got, err = s.Query(ctx, store.Entries, store.Range{Index: "by_date", From: "2024-03", To: "2024-04"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(got))

	got, err = s.Query(ctx, store.Entries, store.Range{Index: "by_date", Desc: true, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c"}, ids(got))

	_, err = s.Query(ctx, store.Entries, store.Range{Index: "by_colour"})
	require.ErrorIs(t, err, store.ErrUnknownIndex)
}

func testWipe(t *testing.T, s store.Store) {
	ctx := context.Background()
	m := store.NewMeta(s)

	require.NoError(t, s.Upsert(ctx, store.Entries, json.RawMessage(E1)))
	require.NoError(t, s.Upsert(ctx, store.Shifts, json.RawMessage(`{"id":"s1","startAt":"2024-01-02T06:00:00Z"}`)))
	require.NoError(t, s.Upsert(ctx, store.Visits, json.RawMessage(`{"id":"v1","shiftId":"s1"}`)))
	require.NoError(t, s.Upsert(ctx, store.Services, json.RawMessage(`{"id":"p1","machine":"M1"}`)))
	require.NoError(t, m.Set(ctx, "pinHash", "abc"))

	require.NoError(t, s.Wipe(ctx))

	for _, spec := range store.Available(s.Version()) {
		all, err := s.GetAll(ctx, spec.Name)
		require.NoError(t, err)
		assert.Empty(t, all, spec.Name)
	}
	v, err := m.Get(ctx, "pinHash")
	require.NoError(t, err)
	assert.Nil(t, v)
}
