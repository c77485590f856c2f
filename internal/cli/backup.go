package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/maintlog/internal/store"
)

func (a *App) Export(ctx context.Context, args []string) error {
	path, err := a.argOrAsk(args, "Backup file")
	if err != nil {
		return err
	}
	counts, err := a.svc.Backup.Export(ctx, path)
	if err != nil {
		return err
	}
	a.printf("Exported to %s: %s\n", path, formatCounts(counts))
	return nil
}

func (a *App) Import(ctx context.Context, args []string) error {
	path, err := a.argOrAsk(args, "Backup file")
	if err != nil {
		return err
	}
	rep, err := a.svc.Backup.Import(ctx, path)
	if err != nil {
		return err
	}
	a.printf("Imported: %s\n", formatCounts(rep.Imported))
	if rep.Skipped > 0 {
		a.printf("Skipped %d lines.\n", rep.Skipped)
	}
	return nil
}

func (a *App) Wipe(ctx context.Context, _ []string) error {
	ok, err := Confirm(a.reader, "Erase ALL data?", a.out)
	if err != nil || !ok {
		return err
	}
	if err := a.svc.Backup.Wipe(ctx); err != nil {
		return err
	}
	if err := a.session.Restore(ctx); err != nil {
		return err
	}
	a.session.SetSteps(0)
	a.printf("All data erased. Logbook is locked.\n")
	return nil
}

func formatCounts(counts map[store.Collection]int) string {
	keys := make([]string, 0, len(counts))
	for c := range counts {
		keys = append(keys, string(c))
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[store.Collection(k)]))
	}
	if len(parts) == 0 {
		return "nothing"
	}
	return strings.Join(parts, ", ")
}
