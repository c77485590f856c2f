package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/maintlog/internal/models"
	"github.com/dmitrijs2005/maintlog/internal/store"
	"github.com/dmitrijs2005/maintlog/internal/store/memory"
)

func TestBackupService_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src, srcStore := sqliteSet(t)

	putEntry(t, src, &models.Entry{ID: "e1", CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), Machine: "M1"})
	putEntry(t, src, &models.Entry{ID: "e2", CreatedAt: time.Date(2024, 1, 3, 3, 4, 5, 0, time.UTC), Work: "čiščenje"})
	require.NoError(t, src.Settings.SetMachines(ctx, []string{"M1"}))
	require.NoError(t, src.Services.Put(ctx, &models.ServiceRecord{
		ID: "s1", Type: models.ServiceAnnualPreventive, Machine: "M1", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}))

	path := filepath.Join(t.TempDir(), "nested", "backup.jsonl")
	counts, err := NewBackupService(srcStore, src.Settings, discard).Export(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[store.Entries])
	assert.Equal(t, 1, counts[store.Meta])
	assert.Equal(t, 1, counts[store.Services])
	assert.Zero(t, counts[store.Visits])

	dst, dstStore := memSet(t)
	report, err := NewBackupService(dstStore, dst.Settings, discard).Import(ctx, path)
	require.NoError(t, err)
	assert.Zero(t, report.Skipped)
	assert.Equal(t, 2, report.Imported[store.Entries])

	e, err := dst.Entries.Get(ctx, "e2")
	require.NoError(t, err)
	assert.Equal(t, "čiščenje", e.Work)
	machines, _, err := dst.Settings.Machines(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"M1"}, machines)
}

func TestBackupService_ImportSkipsBadLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "in.jsonl")
	lines := []string{
		`{"collection":"entries","record":{"id":"e1","createdAt":"2024-01-02T03:04:05Z","machine":"M1","status":"OK","mode":"SAM"}}`,
		`not json`,
		`{"collection":"entries","record":{"machine":"no id"}}`,
		`{"collection":"gadgets","record":{"id":"g1"}}`,
		`{"record":{"id":"x"}}`,
		`{"collection":"visits","record":{"id":"v1","shiftId":"s1"}}`,
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))

	s, err := memory.New(3)
	require.NoError(t, err)
	report, err := NewBackupService(s, nil, discard).Import(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported[store.Entries])
	// not json, missing key, unknown collection, no collection, visits on v3
	assert.Equal(t, 5, report.Skipped)
}

func TestBackupService_ImportValidatesTypedRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "in.jsonl")
	lines := []string{
		`{"collection":"entries","record":{"id":"e1","createdAt":"2024-03-02T08:00:00Z","machine":"M1","status":"OK","mode":"SAM","durationMin":12.5}}`,
		`{"collection":"entries","record":{"id":"e2","createdAt":"2024-03-03T08:00:00Z","machine":"M2","status":"BOGUS","mode":"SAM"}}`,
		`{"collection":"entries","record":{"id":"e3","createdAt":"2024-03-04T08:00:00Z","machine":"M3","status":"OK","mode":"SAM","durationMin":"nope"}}`,
		`{"collection":"entries","record":{"id":"e4","createdAt":"yesterday","machine":"M4","status":"OK","mode":"SAM"}}`,
		`{"collection":"services","record":{"id":"s1","type":"ANNUAL_PREVENTIVE","date":"2024-01-01T00:00:00Z"}}`,
		`{"collection":"meta","record":{"key":"lastMachine","value":"M1"}}`,
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))

	set, s := memSet(t)
	report, err := NewBackupService(s, set.Settings, discard).Import(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported[store.Entries])
	assert.Equal(t, 1, report.Imported[store.Meta])
	// unknown status, unparsable createdAt, service without machine
	assert.Equal(t, 3, report.Skipped)

	entries, err := NewEntryService(set, nil, discard).List(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "e3", entries[0].ID)
	assert.Zero(t, entries[0].DurationMin)
	assert.Equal(t, 13, entries[1].DurationMin)

	sum, err := NewSummaryService(set, time.UTC).Month(ctx, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 13, sum.Minutes)
}

func TestBackupService_ImportMissingFile(t *testing.T) {
	_, s := memSet(t)
	_, err := NewBackupService(s, nil, discard).Import(context.Background(), filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}

func TestBackupService_WipeLocks(t *testing.T) {
	ctx := context.Background()
	set, s := memSet(t)
	putEntry(t, set, &models.Entry{ID: "e1", CreatedAt: time.Now(), Machine: "M1"})
	require.NoError(t, set.Settings.SetUnlocked(ctx, true))

	require.NoError(t, NewBackupService(s, set.Settings, discard).Wipe(ctx))

	n, err := s.Count(ctx, store.Entries)
	require.NoError(t, err)
	assert.Zero(t, n)
	unlocked, err := set.Settings.Unlocked(ctx)
	require.NoError(t, err)
	assert.False(t, unlocked)
}

func TestBackupService_WipeFailure(t *testing.T) {
	ctx := context.Background()
	s, err := memory.New(store.LatestVersion)
	require.NoError(t, err)
	s.FailWipeAt(store.Shifts)

	err = NewBackupService(s, nil, discard).Wipe(ctx)
	var we *store.WriteError
	require.ErrorAs(t, err, &we)
}
