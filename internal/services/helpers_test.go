package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/maintlog/internal/logging"
	"github.com/dmitrijs2005/maintlog/internal/models"
	"github.com/dmitrijs2005/maintlog/internal/repositories"
	"github.com/dmitrijs2005/maintlog/internal/store"
	"github.com/dmitrijs2005/maintlog/internal/store/memory"
	"github.com/dmitrijs2005/maintlog/internal/store/sqlite"
)

func memSet(t *testing.T) (*repositories.Set, store.Store) {
	t.Helper()
	s, err := memory.New(store.LatestVersion)
	require.NoError(t, err)
	return repositories.NewSet(s), s
}

func sqliteSet(t *testing.T) (*repositories.Set, store.Store) {
	t.Helper()
	s, err := sqlite.Open(context.Background(), sqlite.Options{Path: filepath.Join(t.TempDir(), "logbook.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return repositories.NewSet(s), s
}

func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func putEntry(t *testing.T, set *repositories.Set, e *models.Entry) {
	t.Helper()
	if e.Status == "" {
		e.Status = models.StatusOK
	}
	if e.Mode == "" {
		e.Mode = models.ModeSolo
	}
	require.NoError(t, set.Entries.Put(context.Background(), e))
}

var discard = logging.Discard()
