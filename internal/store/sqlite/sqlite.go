// Package sqlite is the local, embedded record store backend. Each
// collection is a table of (id, doc) rows where doc is the record's JSON,
// stored exactly as given; secondary indexes are SQLite expression indexes
// over json_extract.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/maintlog/internal/dbx"
	"github.com/dmitrijs2005/maintlog/internal/store"
	"github.com/dmitrijs2005/maintlog/internal/store/sqlite/migrations"
)

// Options configure Open.
type Options struct {
	// Path is the database file, or ":memory:".
	Path string
	// Version is the schema version to open at. Zero means store.LatestVersion.
	Version     int
	BusyTimeout time.Duration
}

type Store struct {
	db      *sql.DB
	version int
}

var _ store.Store = (*Store)(nil)

// migrator is the part of *goose.Provider that Open uses.
type migrator interface {
	UpTo(ctx context.Context, version int64) ([]*goose.MigrationResult, error)
	GetDBVersion(ctx context.Context) (int64, error)
}

// newMigrator is a test seam for goose.NewProvider.
var newMigrator = func(db *sql.DB) (migrator, error) {
	return goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
}

// dsn builds a file: URI for path. Characters SQLite treats specially in
// URIs, such as '?', '#' and '%', are percent-encoded.
func dsn(path string, busy time.Duration) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	q.Add("_pragma", "foreign_keys(1)")
	if path != ":memory:" {
		path = (&url.URL{Path: path}).EscapedPath()
	}
	return "file:" + path + "?" + q.Encode()
}

// Open opens (creating if needed) the database at opts.Path and migrates it
// forward to opts.Version. A database already past opts.Version is refused
// with store.ErrVersionConflict.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Version == 0 {
		opts.Version = store.LatestVersion
	}
	if opts.BusyTimeout == 0 {
		opts.BusyTimeout = 5 * time.Second
	}
	fail := func(err error) (*Store, error) {
		return nil, &store.OpenError{Path: opts.Path, Version: opts.Version, Err: err}
	}
	if err := store.CheckVersion(opts.Version); err != nil {
		return fail(err)
	}
	if opts.Path == "" {
		return fail(errors.New("empty database path"))
	}

	db, err := sql.Open("sqlite", dsn(opts.Path, opts.BusyTimeout))
	if err != nil {
		return fail(err)
	}
	if opts.Path == ":memory:" {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := migrate(ctx, db, opts.Version); err != nil {
		_ = db.Close()
		return fail(err)
	}
	return &Store{db: db, version: opts.Version}, nil
}

func migrate(ctx context.Context, db *sql.DB, version int) error {
	m, err := newMigrator(db)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if _, err := m.UpTo(ctx, int64(version)); err != nil {
		return fmt.Errorf("migrate to %d: %w", version, err)
	}
	current, err := m.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("schema version: %w", err)
	}
	if current > int64(version) {
		return fmt.Errorf("%w: database is at %d, requested %d", store.ErrVersionConflict, current, version)
	}
	return nil
}

func (s *Store) Version() int { return s.version }

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for maintenance tasks.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) resolve(c store.Collection) (store.Spec, error) {
	return store.Resolve(c, s.version)
}

func (s *Store) Upsert(ctx context.Context, c store.Collection, rec json.RawMessage) error {
	spec, err := s.resolve(c)
	if err != nil {
		return store.Write("put", c, err)
	}
	key, err := store.KeyOf(spec, rec)
	if err != nil {
		return store.Write("put", c, err)
	}
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`
			INSERT INTO %s (id, doc) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET doc = excluded.doc`, spec.Name), key, string(rec))
		return err
	})
	return store.Write("put", c, err)
}

func (s *Store) GetAll(ctx context.Context, c store.Collection) ([]json.RawMessage, error) {
	spec, err := s.resolve(c)
	if err != nil {
		return nil, store.Read("getAll", c, err)
	}
	out, err := dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) ([]json.RawMessage, error) {
		return scanDocs(tx.QueryContext(ctx, fmt.Sprintf(`SELECT doc FROM %s ORDER BY id`, spec.Name)))
	})
	return out, store.Read("getAll", c, err)
}

func (s *Store) GetOne(ctx context.Context, c store.Collection, id string) (json.RawMessage, error) {
	spec, err := s.resolve(c)
	if err != nil {
		return nil, store.Read("get", c, err)
	}
	out, err := dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (json.RawMessage, error) {
		var doc string
		err := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE id = ?`, spec.Name), id).Scan(&doc)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return json.RawMessage(doc), nil
	})
	return out, store.Read("get", c, err)
}

func (s *Store) Delete(ctx context.Context, c store.Collection, id string) error {
	spec, err := s.resolve(c)
	if err != nil {
		return store.Write("delete", c, err)
	}
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, spec.Name), id)
		return err
	})
	return store.Write("delete", c, err)
}

func (s *Store) Query(ctx context.Context, c store.Collection, r store.Range) ([]json.RawMessage, error) {
	spec, err := s.resolve(c)
	if err != nil {
		return nil, store.Read("query", c, err)
	}
	ix, ok := spec.Index(r.Index)
	if !ok {
		return nil, store.Read("query", c, fmt.Errorf("%w: %s.%s", store.ErrUnknownIndex, c, r.Index))
	}
	q, args := buildQuery(spec, ix, r)
	out, err := dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) ([]json.RawMessage, error) {
		return scanDocs(tx.QueryContext(ctx, q, args...))
	})
	return out, store.Read("query", c, err)
}

func buildQuery(spec store.Spec, ix store.Index, r store.Range) (string, []any) {
	expr := fmt.Sprintf("json_extract(doc, '$.%s')", ix.Field)
	q := fmt.Sprintf("SELECT doc FROM %s WHERE 1=1", spec.Name)
	var args []any
	switch {
	case r.Equal != "":
		q += " AND " + expr + " = ?"
		args = append(args, r.Equal)
	default:
		if r.From != "" {
			q += " AND " + expr + " >= ?"
			args = append(args, r.From)
		}
		if r.To != "" {
			q += " AND " + expr + " < ?"
			args = append(args, r.To)
		}
	}
	dir := "ASC"
	if r.Desc {
		dir = "DESC"
	}
	q += fmt.Sprintf(" ORDER BY %s %s, id %s", expr, dir, dir)
	if r.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, r.Limit)
	}
	return q, args
}

func (s *Store) Count(ctx context.Context, c store.Collection) (int, error) {
	spec, err := s.resolve(c)
	if err != nil {
		return 0, store.Read("count", c, err)
	}
	var n int
	err = s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, spec.Name)).Scan(&n)
	return n, store.Read("count", c, err)
}

func (s *Store) Wipe(ctx context.Context) error {
	return store.WipeEach(ctx, store.Available(s.version), func(ctx context.Context, spec store.Spec) error {
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			_, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, spec.Name))
			return err
		})
	})
}

func scanDocs(rows *sql.Rows, err error) ([]json.RawMessage, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]json.RawMessage, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(doc))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
