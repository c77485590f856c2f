package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/maintlog/internal/models"
	"github.com/dmitrijs2005/maintlog/internal/repositories"
	"github.com/dmitrijs2005/maintlog/internal/store"
)

const (
	topN        = 5
	unnamedItem = "—"
)

type Count struct {
	Name string
	N    int
}

type Summary struct {
	Title         string
	Total         int
	Solo          int
	Team          int
	Urgent        int
	AwaitingParts int
	Minutes       int
	MinutesSolo   int
	MinutesTeam   int
	TopMachines   []Count
	TopMaterials  []Count
}

// Text is the short plain-text form used for copying a summary elsewhere.
func (s Summary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", s.Title)
	fmt.Fprintf(&b, "Skupaj: %d\n", s.Total)
	fmt.Fprintf(&b, "SAM: %d | TIM: %d\n", s.Solo, s.Team)
	fmt.Fprintf(&b, "NUJNO: %d | ČAKA DELE: %d\n", s.Urgent, s.AwaitingParts)
	fmt.Fprintf(&b, "Čas: %s", models.FormatMinutes(s.Minutes))
	return b.String()
}

// Summarize counts entries in the order given. Ties in the top lists keep
// first-seen order.
func Summarize(entries []*models.Entry) Summary {
	var s Summary
	machines := newCounter()
	materials := newCounter()

	for _, e := range entries {
		s.Total++
		if e.Mode == models.ModeSolo {
			s.Solo++
			s.MinutesSolo += e.DurationMin
		}
		switch e.Status {
		case models.StatusUrgent:
			s.Urgent++
		case models.StatusAwaitingParts:
			s.AwaitingParts++
		}
		s.Minutes += e.DurationMin

		machines.add(e.Machine)
		for _, m := range e.Materials {
			materials.add(m.Name)
		}
	}
	s.Team = s.Total - s.Solo
	s.MinutesTeam = s.Minutes - s.MinutesSolo
	s.TopMachines = machines.top(topN)
	s.TopMaterials = materials.top(topN)
	return s
}

type counter struct {
	index  map[string]int
	counts []Count
}

func newCounter() *counter {
	return &counter{index: map[string]int{}}
}

func (c *counter) add(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = unnamedItem
	}
	if i, ok := c.index[name]; ok {
		c.counts[i].N++
		return
	}
	c.index[name] = len(c.counts)
	c.counts = append(c.counts, Count{Name: name, N: 1})
}

func (c *counter) top(n int) []Count {
	out := slices.Clone(c.counts)
	slices.SortStableFunc(out, func(a, b Count) int { return b.N - a.N })
	if len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []Count{}
	}
	return out
}

type SummaryService interface {
	// Month summarises entries created in month ("YYYY-MM", local time).
	Month(ctx context.Context, month string) (Summary, error)
	Year(ctx context.Context, year int) (Summary, error)
}

type summaryService struct {
	repos *repositories.Set
	loc   *time.Location
}

// NewSummaryService groups entries by calendar periods in loc.
func NewSummaryService(repos *repositories.Set, loc *time.Location) SummaryService {
	if loc == nil {
		loc = time.Local
	}
	return &summaryService{repos: repos, loc: loc}
}

func (s *summaryService) Month(ctx context.Context, month string) (Summary, error) {
	start, err := time.ParseInLocation("2006-01", strings.TrimSpace(month), s.loc)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: month %q, want YYYY-MM", ErrBadPeriod, month)
	}
	sum, err := s.between(ctx, start, start.AddDate(0, 1, 0))
	sum.Title = "Mesečni povzetek: " + start.Format("2006-01")
	return sum, err
}

func (s *summaryService) Year(ctx context.Context, year int) (Summary, error) {
	if year < 1 || year > 9999 {
		return Summary{}, fmt.Errorf("%w: year %d", ErrBadPeriod, year)
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc)
	sum, err := s.between(ctx, start, start.AddDate(1, 0, 0))
	sum.Title = fmt.Sprintf("Letni povzetek: %d", year)
	return sum, err
}

// between queries a window padded by a second on both sides, since stored
// timestamps may or may not carry fractional seconds, then filters exactly.
func (s *summaryService) between(ctx context.Context, from, to time.Time) (Summary, error) {
	candidates, err := s.repos.Entries.Range(ctx, store.Range{
		Index: "by_date",
		From:  from.Add(-time.Second).UTC().Format(time.RFC3339),
		To:    to.Add(time.Second).UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Summary{}, fmt.Errorf("query entries: %w", err)
	}
	in := candidates[:0]
	for _, e := range candidates {
		if !e.CreatedAt.Before(from) && e.CreatedAt.Before(to) {
			in = append(in, e)
		}
	}
	return Summarize(in), nil
}
