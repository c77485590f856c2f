package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/maintlog/internal/store"
	"github.com/dmitrijs2005/maintlog/internal/store/storetest"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "logbook.db")
}

func openAt(t *testing.T, path string, version int) *Store {
	t.Helper()
	s, err := Open(context.Background(), Options{Path: path, Version: version})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openAt(t, tempPath(t), store.LatestVersion)
	})
}

func TestContract_InMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openAt(t, ":memory:", store.LatestVersion)
	})
}

func TestOpen_CreatesSchemaAndGooseTable(t *testing.T) {
	s := openAt(t, tempPath(t), 0)

	assert.Equal(t, store.LatestVersion, s.Version())
	for _, name := range []string{"goose_db_version", "entries", "meta", "shifts", "visits", "services"} {
		assert.True(t, tableExists(t, s.DB(), name), name)
	}

	var idx int
	require.NoError(t, s.DB().QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name LIKE 'visits_by_%'`).Scan(&idx))
	assert.Equal(t, 3, idx)
}

func TestOpen_Version2HasOnlyEntriesAndMeta(t *testing.T) {
	s := openAt(t, tempPath(t), 2)

	assert.True(t, tableExists(t, s.DB(), "entries"))
	assert.True(t, tableExists(t, s.DB(), "meta"))
	assert.False(t, tableExists(t, s.DB(), "shifts"))

	err := s.Upsert(context.Background(), store.Visits, json.RawMessage(`{"id":"v1"}`))
	require.ErrorIs(t, err, store.ErrUnknownCollection)
}

func TestOpen_MigrationIsAdditive(t *testing.T) {
	ctx := context.Background()
	path := tempPath(t)
	// odd spacing on purpose: the stored bytes must survive untouched
	raw := `{ "id":"e1",  "createdAt":"2024-01-01T00:00:00Z", "machine":"M1" }`

	s2, err := Open(ctx, Options{Path: path, Version: 2})
	require.NoError(t, err)
	require.NoError(t, s2.Upsert(ctx, store.Entries, json.RawMessage(raw)))
	require.NoError(t, store.NewMeta(s2).Set(ctx, "lastMachine", "M1"))
	require.NoError(t, s2.Close())

	s3, err := Open(ctx, Options{Path: path, Version: 3})
	require.NoError(t, err)
	require.NoError(t, s3.Close())

	s4 := openAt(t, path, 4)
	got, err := s4.GetOne(ctx, store.Entries, "e1")
	require.NoError(t, err)
	assert.Equal(t, raw, string(got))

	byMachine, err := s4.Query(ctx, store.Entries, store.Range{Index: "by_machine", Equal: "M1"})
	require.NoError(t, err)
	require.Len(t, byMachine, 1)

	v, err := store.NewMeta(s4).Get(ctx, "lastMachine")
	require.NoError(t, err)
	assert.JSONEq(t, `"M1"`, string(v))

	require.NoError(t, s4.Upsert(ctx, store.Services, json.RawMessage(`{"id":"p1","machine":"M1"}`)))
}

func TestOpen_ReopenSameVersionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := tempPath(t)

	s, err := Open(ctx, Options{Path: path})
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, store.Entries, json.RawMessage(storetest.E1)))
	require.NoError(t, s.Close())

	s = openAt(t, path, store.LatestVersion)
	n, err := s.Count(ctx, store.Entries)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDSN_EscapesPath(t *testing.T) {
	got := dsn("/data/log 100%?v=1#a.db", time.Second)
	assert.True(t, strings.HasPrefix(got, "file:/data/log%20100%25%3Fv=1%23a.db?"), got)
	assert.Contains(t, got, "busy_timeout%281000%29")
	assert.True(t, strings.HasPrefix(dsn(":memory:", time.Second), "file::memory:?"))
}

func TestOpen_PathWithURIDelimiters(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "log 100%?v=1#a.db")

	s, err := Open(ctx, Options{Path: path})
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, store.Entries, json.RawMessage(storetest.E1)))
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	require.NoError(t, err, "database file is created under the literal name")
	_, err = os.Stat(filepath.Join(dir, "log 100%"))
	assert.True(t, os.IsNotExist(err))

	s = openAt(t, path, store.LatestVersion)
	n, err := s.Count(ctx, store.Entries)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpen_NewerDatabaseIsRefused(t *testing.T) {
	ctx := context.Background()
	path := tempPath(t)

	s, err := Open(ctx, Options{Path: path, Version: 4})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Options{Path: path, Version: 2})
	require.ErrorIs(t, err, store.ErrVersionConflict)
	var oe *store.OpenError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, 2, oe.Version)
}

func TestOpen_BadArguments(t *testing.T) {
	_, err := Open(context.Background(), Options{Path: tempPath(t), Version: 7})
	require.ErrorIs(t, err, store.ErrUnsupportedVersion)

	_, err = Open(context.Background(), Options{Version: 1})
	var oe *store.OpenError
	require.True(t, errors.As(err, &oe))
}

type fakeMigrator struct {
	upErr      error
	version    int64
	versionErr error
}

func (f fakeMigrator) UpTo(context.Context, int64) ([]*goose.MigrationResult, error) {
	return nil, f.upErr
}

func (f fakeMigrator) GetDBVersion(context.Context) (int64, error) {
	return f.version, f.versionErr
}

func TestOpen_MigrationFailures(t *testing.T) {
	orig := newMigrator
	t.Cleanup(func() { newMigrator = orig })

	boom := errors.New("boom")
	tests := []struct {
		name string
		m    func(*sql.DB) (migrator, error)
	}{
		{"provider", func(*sql.DB) (migrator, error) { return nil, boom }},
		{"up", func(*sql.DB) (migrator, error) { return fakeMigrator{upErr: boom}, nil }},
		{"version", func(*sql.DB) (migrator, error) { return fakeMigrator{versionErr: boom}, nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newMigrator = tt.m
			_, err := Open(context.Background(), Options{Path: tempPath(t)})
			require.ErrorIs(t, err, boom)
		})
	}
}

func TestWipe_PartialFailureKeepsEarlierClears(t *testing.T) {
	ctx := context.Background()
	s := openAt(t, tempPath(t), store.LatestVersion)

	require.NoError(t, s.Upsert(ctx, store.Entries, json.RawMessage(storetest.E1)))
	require.NoError(t, store.NewMeta(s).Set(ctx, "unlocked", true))
	require.NoError(t, s.Upsert(ctx, store.Visits, json.RawMessage(`{"id":"v1"}`)))

	_, err := s.DB().Exec(`DROP TABLE shifts`)
	require.NoError(t, err)

	err = s.Wipe(ctx)
	var we *store.WriteError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, store.Shifts, we.Collection)

	n, _ := s.Count(ctx, store.Entries)
	assert.Zero(t, n)
	n, _ = s.Count(ctx, store.Meta)
	assert.Zero(t, n)
	n, _ = s.Count(ctx, store.Visits)
	assert.Equal(t, 1, n)
}

func TestOperations_AfterCloseReportTypedErrors(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Options{Path: tempPath(t)})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	var we *store.WriteError
	require.True(t, errors.As(s.Upsert(ctx, store.Entries, json.RawMessage(storetest.E1)), &we))
	require.True(t, errors.As(s.Delete(ctx, store.Entries, "e1"), &we))

	var re *store.ReadError
	_, err = s.GetAll(ctx, store.Entries)
	require.True(t, errors.As(err, &re))
	_, err = s.GetOne(ctx, store.Entries, "e1")
	require.True(t, errors.As(err, &re))
}

func TestBuildQuery(t *testing.T) {
	spec, err := store.Resolve(store.Entries, store.LatestVersion)
	require.NoError(t, err)
	ix, _ := spec.Index("by_date")

	q, args := buildQuery(spec, ix, store.Range{Index: "by_date", From: "2024-03", To: "2024-04", Desc: true, Limit: 5})
	assert.Equal(t,
		"SELECT doc FROM entries WHERE 1=1 AND json_extract(doc, '$.createdAt') >= ? AND json_extract(doc, '$.createdAt') < ?"+
			" ORDER BY json_extract(doc, '$.createdAt') DESC, id DESC LIMIT ?", q)
	assert.Equal(t, []any{"2024-03", "2024-04", 5}, args)
}
