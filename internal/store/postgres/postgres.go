// Package postgres is the hosted record store backend. Every row carries
// the owner it belongs to and every statement is scoped by that owner, so
// many logbooks share one database. Documents are stored as JSONB, which
// keeps them semantically equal to what was written but not byte-equal.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/maintlog/internal/dbx"
	"github.com/dmitrijs2005/maintlog/internal/store"
	"github.com/dmitrijs2005/maintlog/internal/store/postgres/migrations"
)

var ErrNoOwner = errors.New("owner id is required")

type Options struct {
	DSN     string
	Version int
	OwnerID string
}

type Store struct {
	db      *sql.DB
	version int
	owner   string
}

var _ store.Store = (*Store)(nil)

type migrator interface {
	UpTo(ctx context.Context, version int64) ([]*goose.MigrationResult, error)
	GetDBVersion(ctx context.Context) (int64, error)
}

// newMigrator is a test seam for goose.NewProvider.
var newMigrator = func(db *sql.DB) (migrator, error) {
	return goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
}

// sqlOpen is a test seam for sql.Open.
var sqlOpen = sql.Open

// Open connects through pgx and migrates the schema to opts.Version.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Version == 0 {
		opts.Version = store.LatestVersion
	}
	db, err := sqlOpen("pgx", opts.DSN)
	if err != nil {
		return nil, &store.OpenError{Path: "postgres", Version: opts.Version, Err: err}
	}
	s, err := OpenDB(ctx, db, opts.Version, opts.OwnerID)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenDB migrates an existing handle and binds it to owner.
func OpenDB(ctx context.Context, db *sql.DB, version int, owner string) (*Store, error) {
	fail := func(err error) (*Store, error) {
		return nil, &store.OpenError{Path: "postgres", Version: version, Err: err}
	}
	if err := store.CheckVersion(version); err != nil {
		return fail(err)
	}
	if owner == "" {
		return fail(ErrNoOwner)
	}
	m, err := newMigrator(db)
	if err != nil {
		return fail(fmt.Errorf("migrations: %w", err))
	}
	if _, err := m.UpTo(ctx, int64(version)); err != nil {
		return fail(fmt.Errorf("migrate to %d: %w", version, err))
	}
	current, err := m.GetDBVersion(ctx)
	if err != nil {
		return fail(fmt.Errorf("schema version: %w", err))
	}
	if current > int64(version) {
		return fail(fmt.Errorf("%w: database is at %d, requested %d", store.ErrVersionConflict, current, version))
	}
	return &Store{db: db, version: version, owner: owner}, nil
}

func (s *Store) Version() int { return s.version }

func (s *Store) Owner() string { return s.owner }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Upsert(ctx context.Context, c store.Collection, rec json.RawMessage) error {
	spec, err := store.Resolve(c, s.version)
	if err != nil {
		return store.Write("put", c, err)
	}
	key, err := store.KeyOf(spec, rec)
	if err != nil {
		return store.Write("put", c, err)
	}
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`
			INSERT INTO %s (owner_id, id, doc) VALUES ($1, $2, $3::jsonb)
			ON CONFLICT (owner_id, id) DO UPDATE SET doc = EXCLUDED.doc`, spec.Name),
			s.owner, key, string(rec))
		return err
	})
	return store.Write("put", c, err)
}

func (s *Store) GetAll(ctx context.Context, c store.Collection) ([]json.RawMessage, error) {
	spec, err := store.Resolve(c, s.version)
	if err != nil {
		return nil, store.Read("getAll", c, err)
	}
	out, err := dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) ([]json.RawMessage, error) {
		return scanDocs(tx.QueryContext(ctx,
			fmt.Sprintf(`SELECT doc FROM %s WHERE owner_id = $1 ORDER BY id`, spec.Name), s.owner))
	})
	return out, store.Read("getAll", c, err)
}

func (s *Store) GetOne(ctx context.Context, c store.Collection, id string) (json.RawMessage, error) {
	spec, err := store.Resolve(c, s.version)
	if err != nil {
		return nil, store.Read("get", c, err)
	}
	out, err := dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (json.RawMessage, error) {
		var doc []byte
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT doc FROM %s WHERE owner_id = $1 AND id = $2`, spec.Name), s.owner, id).Scan(&doc)
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
	spec, err := store.Resolve(c, s.version)
	if err != nil {
		return store.Write("delete", c, err)
	}
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE owner_id = $1 AND id = $2`, spec.Name), s.owner, id)
		return err
	})
	return store.Write("delete", c, err)
}

func (s *Store) Query(ctx context.Context, c store.Collection, r store.Range) ([]json.RawMessage, error) {
	spec, err := store.Resolve(c, s.version)
	if err != nil {
		return nil, store.Read("query", c, err)
	}
	ix, ok := spec.Index(r.Index)
	if !ok {
		return nil, store.Read("query", c, fmt.Errorf("%w: %s.%s", store.ErrUnknownIndex, c, r.Index))
	}
	q, args := buildQuery(spec, ix, s.owner, r)
	out, err := dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) ([]json.RawMessage, error) {
		return scanDocs(tx.QueryContext(ctx, q, args...))
	})
	return out, store.Read("query", c, err)
}

func buildQuery(spec store.Spec, ix store.Index, owner string, r store.Range) (string, []any) {
	expr := fmt.Sprintf("(doc->>'%s')", ix.Field)
	q := fmt.Sprintf("SELECT doc FROM %s WHERE owner_id = $1", spec.Name)
	args := []any{owner}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	switch {
	case r.Equal != "":
		q += " AND " + expr + " = " + next(r.Equal)
	default:
		if r.From != "" {
			q += " AND " + expr + " >= " + next(r.From)
		}
		if r.To != "" {
			q += " AND " + expr + " < " + next(r.To)
		}
	}
	dir, nulls := "ASC", "NULLS FIRST"
	if r.Desc {
		dir, nulls = "DESC", "NULLS LAST"
	}
	q += fmt.Sprintf(" ORDER BY %s %s %s, id %s", expr, dir, nulls, dir)
	if r.Limit > 0 {
		q += " LIMIT " + next(r.Limit)
	}
	return q, args
}

func (s *Store) Count(ctx context.Context, c store.Collection) (int, error) {
	spec, err := store.Resolve(c, s.version)
	if err != nil {
		return 0, store.Read("count", c, err)
	}
	var n int
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE owner_id = $1`, spec.Name), s.owner).Scan(&n)
	return n, store.Read("count", c, err)
}

// Wipe clears this owner's rows only.
func (s *Store) Wipe(ctx context.Context) error {
	return store.WipeEach(ctx, store.Available(s.version), func(ctx context.Context, spec store.Spec) error {
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			_, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE owner_id = $1`, spec.Name), s.owner)
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
		var doc []byte
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
