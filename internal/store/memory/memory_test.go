package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/maintlog/internal/store"
	"github.com/dmitrijs2005/maintlog/internal/store/storetest"
)

func open(t *testing.T) store.Store {
	t.Helper()
	s, err := New(store.LatestVersion)
	require.NoError(t, err)
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, open)
}

func TestNew_RejectsUnknownVersion(t *testing.T) {
	_, err := New(9)
	require.ErrorIs(t, err, store.ErrUnsupportedVersion)
	var oe *store.OpenError
	require.True(t, errors.As(err, &oe))
}

func TestVersion2_HasNoShifts(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)
	err = s.Upsert(context.Background(), store.Shifts, json.RawMessage(`{"id":"s1"}`))
	require.ErrorIs(t, err, store.ErrUnknownCollection)
}

func TestWipe_StopsAtFailureWithoutRestoring(t *testing.T) {
	ctx := context.Background()
	s, err := New(store.LatestVersion)
	require.NoError(t, err)

	require.NoError(t, s.Upsert(ctx, store.Entries, json.RawMessage(storetest.E1)))
	require.NoError(t, store.NewMeta(s).Set(ctx, "k", 1))
	require.NoError(t, s.Upsert(ctx, store.Shifts, json.RawMessage(`{"id":"s1"}`)))

	s.FailWipeAt(store.Meta)
	err = s.Wipe(ctx)

	var we *store.WriteError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, store.Meta, we.Collection)

	n, _ := s.Count(ctx, store.Entries)
	assert.Zero(t, n, "entries cleared before the failure stay cleared")
	n, _ = s.Count(ctx, store.Meta)
	assert.Equal(t, 1, n)
	n, _ = s.Count(ctx, store.Shifts)
	assert.Equal(t, 1, n, "collections after the failure are untouched")
}
