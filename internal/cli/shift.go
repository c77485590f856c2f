package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/maintlog/internal/models"
	"github.com/dmitrijs2005/maintlog/internal/session"
)

func (a *App) Shift(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.printShift()
	}
	switch args[0] {
	case "start":
		sh, err := a.session.StartShift(ctx)
		if err != nil {
			return err
		}
		a.printf("Shift started at %s.\n", sh.StartAt.In(time.Local).Format("15:04"))
	case "stop":
		sh, err := a.session.StopShift(ctx)
		if err != nil {
			return err
		}
		a.printf("Shift closed: %s, %d steps.\n", elapsed(sh.StartAt, *sh.EndAt), sh.StepsTotal)
	default:
		return fmt.Errorf("%w: shift [start|stop]", errUsage)
	}
	return nil
}

func (a *App) printShift() error {
	sh := a.session.ActiveShift()
	if sh == nil {
		a.printf("No active shift.\n")
		return nil
	}
	a.printf("Shift since %s (%s), %d steps.\n",
		sh.StartAt.In(time.Local).Format("15:04"), elapsed(sh.StartAt, a.now()), a.session.Steps())
	if v := a.session.ActiveVisit(); v != nil {
		a.printf("At %s since %s, %d steps.\n",
			v.Machine, v.StartAt.In(time.Local).Format("15:04"), a.session.Steps()-v.StepsStart)
	}
	return nil
}

func (a *App) Visit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: visit start [machine] | visit stop", errUsage)
	}
	switch args[0] {
	case "start":
		if a.session.ActiveShift() == nil {
			return session.ErrNoShift
		}
		machine := strings.Join(args[1:], " ")
		if machine == "" {
			last, err := a.svc.Settings.LastMachine(ctx)
			if err != nil {
				return err
			}
			if machine, err = a.askDefault("Machine", last); err != nil {
				return err
			}
		}
		note, err := a.ask("Note (optional)")
		if err != nil {
			return err
		}
		v, err := a.session.StartVisit(ctx, machine, note)
		if err != nil {
			return err
		}
		a.printf("Visit at %s started.\n", v.Machine)
	case "stop":
		if a.session.ActiveVisit() == nil {
			return session.ErrNoVisit
		}
		note, err := a.ask("Note (empty keeps the start note)")
		if err != nil {
			return err
		}
		v, err := a.session.StopVisit(ctx, note)
		if err != nil {
			return err
		}
		a.printf("Visit at %s closed: %s, %d steps.\n", v.Machine, elapsed(v.StartAt, *v.EndAt), deref(v.StepsDelta))
	default:
		return fmt.Errorf("%w: visit start [machine] | visit stop", errUsage)
	}
	return nil
}

// Steps shows the counter. A number sets it; "feed <file>" replays recorded
// accelerometer samples through the detector.
func (a *App) Steps(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "feed" {
		if len(args) != 2 {
			return fmt.Errorf("%w: steps feed <file>", errUsage)
		}
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		counted, skipped, err := a.session.FeedSteps(ctx, f)
		if err != nil {
			return fmt.Errorf("feed %s: %w", args[1], err)
		}
		a.printf("Counted %d steps, %d lines skipped.\n", counted, skipped)
	} else if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: steps [n | feed <file>]", errUsage)
		}
		a.session.SetSteps(n)
	}
	a.printf("Steps: %d\n", a.session.Steps())
	return nil
}

func elapsed(from, to time.Time) string {
	return models.FormatMinutes(int(to.Sub(from).Minutes()))
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
