package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/maintlog/internal/models"
	"github.com/dmitrijs2005/maintlog/internal/services"
)

var errUsage = errors.New("usage")

func (a *App) Add(ctx context.Context, _ []string) error {
	last, err := a.svc.Settings.LastMachine(ctx)
	if err != nil {
		return err
	}
	in, err := a.fillEntry(&models.Entry{Machine: last, Status: models.StatusOK, Mode: models.ModeSolo, Lead: services.PersonMe})
	if err != nil {
		return err
	}
	return a.save(ctx, in)
}

func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := a.argOrAsk(args, "Entry id")
	if err != nil {
		return err
	}
	e, err := a.svc.Entries.Get(ctx, id)
	if err != nil {
		return err
	}
	in, err := a.fillEntry(e)
	if err != nil {
		return err
	}
	in.ID = e.ID
	return a.save(ctx, in)
}

func (a *App) save(ctx context.Context, in services.EntryInput) error {
	e, created, err := a.svc.Entries.Save(ctx, in)
	if errors.Is(err, models.ErrValidation) {
		a.printf("Not saved: %v\n", err)
		return nil
	}
	if err != nil {
		return err
	}
	if created {
		a.printf("Saved %s.\n", e.ID)
	} else {
		a.printf("Updated %s.\n", e.ID)
	}
	return nil
}

// fillEntry walks the entry form, offering cur's values as defaults.
// Existing materials and photos can be removed by number before new ones
// are added.
func (a *App) fillEntry(cur *models.Entry) (services.EntryInput, error) {
	in := services.EntryInput{
		Materials: cur.Materials,
		Photos:    cur.Photos,
	}
	var err error
	steps := []func() error{
		func() (err error) { in.Machine, err = a.askDefault("Machine / location", cur.Machine); return },
		func() (err error) { in.Work, err = a.askDefault("Work done", cur.Work); return },
		func() error {
			v, err := a.askDefault("Status (OK, NUJNO, CAKA_DELE)", string(cur.Status))
			in.Status = parseStatus(v)
			return err
		},
		func() error {
			def := ""
			if cur.DurationMin > 0 {
				def = strconv.Itoa(cur.DurationMin)
			}
			in.Duration, err = a.askDefault("Duration (minutes)", def)
			return err
		},
		func() error {
			v, err := a.askDefault("Mode (SAM, TIM)", string(cur.Mode))
			in.Mode = models.Mode(strings.ToUpper(v))
			return err
		},
		func() (err error) { in.Lead, err = a.askDefault("Lead (ME, SODELAVEC_1..3)", cur.Lead); return },
		func() error {
			if in.Mode != models.ModeTeam {
				return nil
			}
			v, err := a.askDefault("Team (comma separated)", strings.Join(cur.Team, ","))
			in.Team = splitList(v)
			return err
		},
		func() error {
			labels := make([]string, len(in.Materials))
			for i, m := range in.Materials {
				labels[i] = m.String()
			}
			drop, err := a.askRemovals("materials", labels)
			in.Materials = without(in.Materials, drop)
			return err
		},
		func() error {
			lines, err := GetLines(a.reader, "Materials, one per line as name;qty;unit", a.out)
			for _, l := range lines {
				parts := strings.SplitN(l, ";", 3)
				parts = append(parts, "", "")
				if m := models.NewMaterial(parts[0], parts[1], parts[2]); m.Name != "" {
					in.Materials = append(in.Materials, m)
				}
			}
			return err
		},
		func() (err error) { in.Obs, err = a.askDefault("Observations", cur.Obs); return },
		func() (err error) { in.Think, err = a.askDefault("Ideas / improvements", cur.Think); return },
		func() error {
			labels := make([]string, len(in.Photos))
			for i, p := range in.Photos {
				labels[i] = p.Name
			}
			drop, err := a.askRemovals("photos", labels)
			in.Photos = without(in.Photos, drop)
			return err
		},
		func() error {
			paths, err := GetLines(a.reader, "Photo files, one path per line", a.out)
			for _, p := range paths {
				photo, perr := readPhoto(p)
				if perr != nil {
					a.printf("Skipping %s: %v\n", p, perr)
					continue
				}
				in.Photos = append(in.Photos, photo)
			}
			return err
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return in, err
		}
	}
	return in, nil
}

// askRemovals lists labels and returns the zero-based indexes the user
// picks for removal. Nothing is asked when labels is empty.
func (a *App) askRemovals(what string, labels []string) (map[int]bool, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	a.printf("Current %s:\n", what)
	for i, l := range labels {
		a.printf("  %d. %s\n", i+1, l)
	}
	v, err := a.ask(fmt.Sprintf("Remove %s (numbers separated by commas, empty keeps all)", what))
	if err != nil {
		return nil, err
	}
	drop := make(map[int]bool)
	for _, f := range splitList(v) {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > len(labels) {
			a.printf("Ignoring %q\n", f)
			continue
		}
		drop[n-1] = true
	}
	return drop, nil
}

func without[T any](items []T, drop map[int]bool) []T {
	if len(drop) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for i, it := range items {
		if !drop[i] {
			out = append(out, it)
		}
	}
	return out
}

func parseStatus(v string) models.Status {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(v), " ", "_")) {
	case "NUJNO", "URGENT":
		return models.StatusUrgent
	case "CAKA_DELE", "ČAKA_DELE", "WAIT":
		return models.StatusAwaitingParts
	default:
		return models.StatusOK
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func readPhoto(path string) (models.Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Photo{}, err
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return models.Photo{}, fmt.Errorf("not an image (%s)", ct)
	}
	return models.Photo{
		Name:    filepath.Base(path),
		Type:    ct,
		DataURL: services.EncodeDataURL(ct, data),
	}, nil
}

func (a *App) List(ctx context.Context, args []string) error {
	entries, err := a.svc.Entries.List(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		a.printf("No entries.\n")
		return nil
	}
	for _, e := range entries {
		a.printf("%s  %s  %-20s [%s] %s %s\n",
			e.ID, fmtDT(e.CreatedAt), e.Machine, e.Status.Label(), oneLine(e.Work), models.FormatMinutes(e.DurationMin))
	}
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := a.argOrAsk(args, "Entry id")
	if err != nil {
		return err
	}
	e, err := a.svc.Entries.Get(ctx, id)
	if err != nil {
		return err
	}
	names, err := a.svc.Settings.Names(ctx)
	if err != nil {
		return err
	}

	a.printf("ID:        %s\n", e.ID)
	a.printf("Created:   %s\n", fmtDT(e.CreatedAt))
	if !e.UpdatedAt.IsZero() && !e.UpdatedAt.Equal(e.CreatedAt) {
		a.printf("Updated:   %s\n", fmtDT(e.UpdatedAt))
	}
	a.printf("Machine:   %s\n", e.Machine)
	a.printf("Work:      %s\n", e.Work)
	a.printf("Status:    %s\n", e.Status.Label())
	a.printf("Duration:  %s\n", models.FormatMinutes(e.DurationMin))
	a.printf("Mode:      %s, lead %s\n", e.Mode, services.DisplayName(names, e.Lead))
	if len(e.Team) > 0 {
		team := make([]string, 0, len(e.Team))
		for _, k := range e.Team {
			team = append(team, services.DisplayName(names, k))
		}
		a.printf("Team:      %s\n", strings.Join(team, ", "))
	}
	for _, m := range e.Materials {
		a.printf("Material:  %s\n", m)
	}
	if e.Obs != "" {
		a.printf("Notes:     %s\n", e.Obs)
	}
	if e.Think != "" {
		a.printf("Ideas:     %s\n", e.Think)
	}
	for _, p := range e.Photos {
		url, err := a.svc.Entries.PhotoURL(ctx, p)
		if err != nil {
			a.printf("Photo:     %s (%v)\n", p.Name, err)
			continue
		}
		if strings.HasPrefix(url, "data:") {
			url = "embedded"
		}
		a.printf("Photo:     %s %s\n", p.Name, url)
	}
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.argOrAsk(args, "Entry id")
	if err != nil {
		return err
	}
	e, err := a.svc.Entries.Get(ctx, id)
	if err != nil {
		return err
	}
	ok, err := Confirm(a.reader, fmt.Sprintf("Delete %s (%s)?", e.ID, e.Machine), a.out)
	if err != nil || !ok {
		return err
	}
	if err := a.svc.Entries.Delete(ctx, id); err != nil {
		return err
	}
	a.printf("Deleted.\n")
	return nil
}

func fmtDT(t time.Time) string {
	return t.In(time.Local).Format("02.01.2006 15:04")
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 40 {
		s = string(r[:39]) + "…"
	}
	return s
}
