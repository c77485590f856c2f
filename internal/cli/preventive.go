package cli

import (
	"context"
	"strings"
	"time"
)

func (a *App) Preventive(ctx context.Context, _ []string) error {
	list, err := a.svc.Preventive.Status(ctx, a.now())
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.printf("No machines configured.\n")
		return nil
	}
	for _, st := range list {
		if st.Last == nil {
			a.printf("%-30s %-9s never serviced\n", st.Machine, st.State.Label())
			continue
		}
		a.printf("%-30s %-9s last %s, due %s (%d days)\n", st.Machine, st.State.Label(),
			st.Last.In(time.Local).Format("02.01.2006"), st.Due.In(time.Local).Format("02.01.2006"), st.DaysLeft)
	}
	return nil
}

// Done records an annual preventive service: done <machine> [YYYY-MM-DD].
func (a *App) Done(ctx context.Context, args []string) error {
	date := a.now()
	if n := len(args); n > 0 {
		if d, err := time.ParseInLocation(time.DateOnly, args[n-1], time.Local); err == nil {
			date = d
			args = args[:n-1]
		}
	}
	machine := strings.Join(args, " ")
	if machine == "" {
		var err error
		if machine, err = a.ask("Machine"); err != nil {
			return err
		}
	}
	rec, err := a.svc.Preventive.MarkDone(ctx, machine, date)
	if err != nil {
		return err
	}
	a.printf("Preventive service for %s recorded on %s.\n", rec.Machine, date.Format("02.01.2006"))
	return nil
}
