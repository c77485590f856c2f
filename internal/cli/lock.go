package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/maintlog/internal/cryptox"
	"github.com/dmitrijs2005/maintlog/internal/services"
)

func (a *App) Unlock(ctx context.Context, _ []string) error {
	if a.isUnlocked(ctx) {
		a.printf("Already unlocked.\n")
		return nil
	}
	pin, err := GetPIN(a.reader, a.out)
	if err != nil {
		return err
	}
	defer cryptox.Wipe(pin)

	first, err := a.svc.Lock.Unlock(ctx, string(pin))
	switch {
	case errors.Is(err, services.ErrWrongPIN):
		a.printf("Wrong PIN.\n")
		return nil
	case err != nil:
		return err
	case first:
		a.printf("PIN set. Logbook unlocked.\n")
	default:
		a.printf("Unlocked.\n")
	}
	return nil
}

func (a *App) Lock(ctx context.Context, _ []string) error {
	if err := a.svc.Lock.Lock(ctx); err != nil {
		return err
	}
	a.printf("Locked.\n")
	return nil
}

func (a *App) SetPIN(ctx context.Context, _ []string) error {
	a.printf("New PIN.\n")
	pin, err := GetPIN(a.reader, a.out)
	if err != nil {
		return err
	}
	defer cryptox.Wipe(pin)

	if err := a.svc.Lock.SetPIN(ctx, string(pin)); err != nil {
		return err
	}
	a.printf("PIN saved.\n")
	return nil
}
