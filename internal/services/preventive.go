package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/maintlog/internal/logging"
	"github.com/dmitrijs2005/maintlog/internal/models"
	"github.com/dmitrijs2005/maintlog/internal/repositories"
	"github.com/dmitrijs2005/maintlog/internal/store"
	"github.com/dmitrijs2005/maintlog/internal/timex"
)

const PreventiveInterval = 365

type PreventiveState string

const (
	PreventiveOK      PreventiveState = "OK"
	PreventiveSoon    PreventiveState = "SOON"
	PreventiveOverdue PreventiveState = "OVERDUE"
)

// Label is the Slovenian badge text.
func (s PreventiveState) Label() string {
	switch s {
	case PreventiveOK:
		return "OK"
	case PreventiveSoon:
		return "KMALU"
	default:
		return "ZAMUJENO"
	}
}

type MachineStatus struct {
	Machine string
	// Last and Due are nil when the machine was never serviced.
	Last     *time.Time
	Due      *time.Time
	DaysLeft int
	State    PreventiveState
}

type PreventiveService interface {
	MarkDone(ctx context.Context, machine string, date time.Time) (*models.ServiceRecord, error)
	// Status reports every configured machine, in list order.
	Status(ctx context.Context, now time.Time) ([]MachineStatus, error)
}

type preventiveService struct {
	repos    *repositories.Set
	soonDays int
	log      logging.Logger
	newID    func() string
}

func NewPreventiveService(repos *repositories.Set, soonDays int, log logging.Logger) PreventiveService {
	return &preventiveService{repos: repos, soonDays: soonDays, log: log, newID: uuid.NewString}
}

func (s *preventiveService) MarkDone(ctx context.Context, machine string, date time.Time) (*models.ServiceRecord, error) {
	machine = strings.TrimSpace(machine)
	if machine == "" {
		return nil, ErrMachineRequired
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: service date is required", models.ErrValidation)
	}
	r := &models.ServiceRecord{
		ID:      s.newID(),
		Type:    models.ServiceAnnualPreventive,
		Machine: machine,
		Date:    timex.StartOfDay(date).UTC(),
		Note:    models.PreventiveNote,
	}
	if err := s.repos.Services.Put(ctx, r); err != nil {
		return nil, fmt.Errorf("save service record: %w", err)
	}
	s.log.Info(ctx, "preventive service recorded", "machine", machine, "date", r.Date.Format(time.DateOnly))
	return r, nil
}

func (s *preventiveService) Status(ctx context.Context, now time.Time) ([]MachineStatus, error) {
	machines, _, err := s.repos.Settings.Machines(ctx)
	if err != nil {
		return nil, fmt.Errorf("load machines: %w", err)
	}
	records, err := s.repos.Services.Range(ctx, store.Range{
		Index: "by_type",
		Equal: string(models.ServiceAnnualPreventive),
	})
	if err != nil {
		return nil, fmt.Errorf("load service records: %w", err)
	}

	last := make(map[string]time.Time, len(records))
	for _, r := range records {
		if prev, ok := last[r.Machine]; !ok || r.Date.After(prev) {
			last[r.Machine] = r.Date
		}
	}

	out := make([]MachineStatus, 0, len(machines))
	for _, m := range machines {
		st := MachineStatus{Machine: m, State: PreventiveOverdue}
		if l, ok := last[m]; ok {
			l = l.In(now.Location())
			due := l.AddDate(0, 0, PreventiveInterval)
			st.Last, st.Due = &l, &due
			st.DaysLeft = timex.DaysBetween(now, due)
			st.State = s.classify(st.DaysLeft)
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *preventiveService) classify(daysLeft int) PreventiveState {
	switch {
	case daysLeft >= s.soonDays:
		return PreventiveOK
	case daysLeft >= 0:
		return PreventiveSoon
	default:
		return PreventiveOverdue
	}
}
