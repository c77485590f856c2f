package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/maintlog/internal/filex"
	"github.com/dmitrijs2005/maintlog/internal/logging"
	"github.com/dmitrijs2005/maintlog/internal/models"
	"github.com/dmitrijs2005/maintlog/internal/repositories"
	"github.com/dmitrijs2005/maintlog/internal/store"
)

// BackupLine is one line of a JSONL backup.
type BackupLine struct {
	Collection store.Collection `json:"collection"`
	Record     json.RawMessage  `json:"record"`
}

type ImportReport struct {
	Imported map[store.Collection]int
	Skipped  int
}

type BackupService interface {
	// Export writes every available collection to path, replacing it
	// atomically. It returns the number of records per collection.
	Export(ctx context.Context, path string) (map[store.Collection]int, error)
	// Import upserts each line of a backup. Malformed lines, records that
	// fail typed validation and records the store rejects are skipped and
	// counted.
	Import(ctx context.Context, path string) (ImportReport, error)
	// Wipe erases every collection and leaves the logbook locked.
	Wipe(ctx context.Context) error
}

type backupService struct {
	s        store.Store
	settings *repositories.Settings
	log      logging.Logger
}

func NewBackupService(s store.Store, settings *repositories.Settings, log logging.Logger) BackupService {
	return &backupService{s: s, settings: settings, log: log}
}

func (b *backupService) Export(ctx context.Context, path string) (map[store.Collection]int, error) {
	counts := make(map[store.Collection]int)
	var lines []json.RawMessage

	for _, spec := range store.Available(b.s.Version()) {
		recs, err := b.s.GetAll(ctx, spec.Name)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", spec.Name, err)
		}
		for _, rec := range recs {
			line, err := json.Marshal(BackupLine{Collection: spec.Name, Record: rec})
			if err != nil {
				return nil, fmt.Errorf("encode %s record: %w", spec.Name, err)
			}
			lines = append(lines, line)
		}
		counts[spec.Name] = len(recs)
	}

	if err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}
	if err := filex.WriteJSONL(path, lines); err != nil {
		return nil, fmt.Errorf("write backup: %w", err)
	}
	b.log.Info(ctx, "backup exported", "path", path, "records", len(lines))
	return counts, nil
}

func (b *backupService) Import(ctx context.Context, path string) (ImportReport, error) {
	report := ImportReport{Imported: make(map[store.Collection]int)}
	raws, skipped, err := filex.ReadJSONL(path)
	if err != nil {
		return report, fmt.Errorf("read backup: %w", err)
	}
	report.Skipped = skipped

	for _, raw := range raws {
		var line BackupLine
		if err := json.Unmarshal(raw, &line); err != nil || line.Collection == "" || len(line.Record) == 0 {
			report.Skipped++
			continue
		}
		err := models.ValidateRaw(line.Collection, line.Record)
		if err == nil {
			err = b.s.Upsert(ctx, line.Collection, line.Record)
		}
		switch {
		case errors.Is(err, models.ErrValidation), errors.Is(err, store.ErrInvalidRecord), errors.Is(err, store.ErrUnknownCollection):
			b.log.Warn(ctx, "backup line skipped", "collection", line.Collection, "err", err)
			report.Skipped++
		case err != nil:
			return report, fmt.Errorf("import %s: %w", line.Collection, err)
		default:
			report.Imported[line.Collection]++
		}
	}
	b.log.Info(ctx, "backup imported", "path", path, "skipped", report.Skipped)
	return report, nil
}

func (b *backupService) Wipe(ctx context.Context) error {
	if err := b.s.Wipe(ctx); err != nil {
		return fmt.Errorf("wipe: %w", err)
	}
	if err := b.settings.SetUnlocked(ctx, false); err != nil {
		return fmt.Errorf("lock after wipe: %w", err)
	}
	b.log.Warn(ctx, "all data wiped")
	return nil
}
