package cli

import (
	"context"

	"github.com/dmitrijs2005/maintlog/internal/services"
)

func (a *App) Machines(ctx context.Context, _ []string) error {
	list, err := a.svc.Settings.Machines(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.printf("No machines configured.\n")
	}
	for i, m := range list {
		a.printf("%2d. %s\n", i+1, m)
	}
	return nil
}

// SetMachines replaces the machine list with the lines entered.
func (a *App) SetMachines(ctx context.Context, _ []string) error {
	lines, err := GetLines(a.reader, "Machines, one per line", a.out)
	if err != nil {
		return err
	}
	if err := a.svc.Settings.SetMachines(ctx, lines); err != nil {
		return err
	}
	return a.Machines(ctx, nil)
}

// Names prints the team names; "names edit" prompts for each of them.
func (a *App) Names(ctx context.Context, args []string) error {
	names, err := a.svc.Settings.Names(ctx)
	if err != nil {
		return err
	}
	if len(args) > 0 && args[0] == "edit" {
		for _, k := range services.PersonKeys {
			v, err := a.askDefault(k, names[k])
			if err != nil {
				return err
			}
			names[k] = v
		}
		if err := a.svc.Settings.SetNames(ctx, names); err != nil {
			return err
		}
		if names, err = a.svc.Settings.Names(ctx); err != nil {
			return err
		}
	}
	for _, k := range services.PersonKeys {
		a.printf("%-12s %s\n", k, names[k])
	}
	return nil
}
