package cli

import (
	"context"
	"fmt"
	"strconv"
)

func (a *App) Month(ctx context.Context, args []string) error {
	month := a.now().Format("2006-01")
	if len(args) > 0 {
		month = args[0]
	}
	s, err := a.svc.Summary.Month(ctx, month)
	if err != nil {
		return err
	}
	a.printf("%s\n", s.Text())
	return nil
}

func (a *App) Year(ctx context.Context, args []string) error {
	year := a.now().Year()
	if len(args) > 0 {
		y, err := strconv.Atoi(args[0])
		if err != nil || y < 1 {
			return fmt.Errorf("bad year %q", args[0])
		}
		year = y
	}
	s, err := a.svc.Summary.Year(ctx, year)
	if err != nil {
		return err
	}
	a.printf("%s\n", s.Text())
	return nil
}
