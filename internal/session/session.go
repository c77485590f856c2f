// Package session tracks the working shift and the machine visits inside
// it. The open shift and visit are mirrored into meta so they survive a
// restart; closed ones live only in their collections.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/maintlog/internal/logging"
	"github.com/dmitrijs2005/maintlog/internal/models"
	"github.com/dmitrijs2005/maintlog/internal/repositories"
	"github.com/dmitrijs2005/maintlog/internal/steps"
)

var (
	ErrShiftActive     = errors.New("a shift is already active")
	ErrNoShift         = errors.New("no active shift")
	ErrVisitActive     = errors.New("a machine visit is already active")
	ErrNoVisit         = errors.New("no active machine visit")
	ErrMachineRequired = errors.New("machine is required")
)

type Session struct {
	mu      sync.Mutex
	repos   *repositories.Set
	counter *steps.Counter
	log     logging.Logger
	shift   *models.Shift
	visit   *models.Visit

	now   func() time.Time
	newID func() string
}

func New(repos *repositories.Set, counter *steps.Counter, log logging.Logger) *Session {
	return &Session{
		repos:   repos,
		counter: counter,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Restore reloads the open shift and visit left by a previous run.
func (s *Session) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := s.repos.Settings.ActiveShift(ctx)
	if err != nil {
		return fmt.Errorf("restore shift: %w", err)
	}
	v, err := s.repos.Settings.ActiveVisit(ctx)
	if err != nil {
		return fmt.Errorf("restore visit: %w", err)
	}
	s.shift, s.visit = sh, v
	if sh != nil {
		s.log.Info(ctx, "shift restored", "id", sh.ID, "visit", v != nil)
	}
	return nil
}

// ActiveShift returns a copy of the open shift, or nil.
func (s *Session) ActiveShift() *models.Shift {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shift == nil {
		return nil
	}
	c := *s.shift
	return &c
}

// ActiveVisit returns a copy of the open visit, or nil.
func (s *Session) ActiveVisit() *models.Visit {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visit == nil {
		return nil
	}
	c := *s.visit
	return &c
}

func (s *Session) Steps() int { return s.counter.Steps() }

func (s *Session) SetSteps(n int) { s.counter.Set(n) }

// FeedSteps runs the step detector over accelerometer samples read from r.
func (s *Session) FeedSteps(ctx context.Context, r io.Reader) (counted, skipped int, err error) {
	counted, skipped, err = s.counter.Feed(ctx, r)
	s.log.Info(ctx, "steps fed", "counted", counted, "skipped", skipped, "total", s.counter.Steps())
	return counted, skipped, err
}

func (s *Session) StartShift(ctx context.Context) (*models.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shift != nil {
		return nil, ErrShiftActive
	}

	sh := &models.Shift{ID: s.newID(), StartAt: s.now().UTC()}
	if err := s.repos.Shifts.Put(ctx, sh); err != nil {
		return nil, fmt.Errorf("save shift: %w", err)
	}
	if err := s.repos.Settings.SetActiveShift(ctx, sh); err != nil {
		return nil, fmt.Errorf("remember shift: %w", err)
	}
	s.counter.Reset()
	s.shift = sh
	s.log.Info(ctx, "shift started", "id", sh.ID)
	c := *sh
	return &c, nil
}

// StopShift closes the shift with the current step count, closing an
// open visit first.
func (s *Session) StopShift(ctx context.Context) (*models.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shift == nil {
		return nil, ErrNoShift
	}
	sh := *s.shift
	end := s.endAfter(sh.StartAt)
	if s.visit != nil {
		v, err := s.stopVisit(ctx, "")
		if err != nil {
			return nil, err
		}
		if v.EndAt.After(end) {
			end = *v.EndAt
		}
	}

	sh.EndAt = &end
	sh.StepsTotal = s.counter.Steps()
	if err := s.repos.Shifts.Put(ctx, &sh); err != nil {
		return nil, fmt.Errorf("save shift: %w", err)
	}
	if err := s.repos.Settings.SetActiveShift(ctx, nil); err != nil {
		return nil, fmt.Errorf("clear shift: %w", err)
	}
	s.shift = nil
	s.log.Info(ctx, "shift stopped", "id", sh.ID, "steps", sh.StepsTotal)
	return &sh, nil
}

func (s *Session) StartVisit(ctx context.Context, machine, note string) (*models.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shift == nil {
		return nil, ErrNoShift
	}
	if s.visit != nil {
		return nil, ErrVisitActive
	}
	machine = strings.TrimSpace(machine)
	if machine == "" {
		return nil, ErrMachineRequired
	}

	v := &models.Visit{
		ID:         s.newID(),
		ShiftID:    s.shift.ID,
		Machine:    machine,
		StartAt:    s.now().UTC(),
		StepsStart: s.counter.Steps(),
		Note:       strings.TrimSpace(note),
	}
	if err := s.repos.Visits.Put(ctx, v); err != nil {
		return nil, fmt.Errorf("save visit: %w", err)
	}
	if err := s.repos.Settings.SetActiveVisit(ctx, v); err != nil {
		return nil, fmt.Errorf("remember visit: %w", err)
	}
	s.visit = v
	s.log.Info(ctx, "visit started", "id", v.ID, "machine", machine)
	c := *v
	return &c, nil
}

// endAfter is the current time, held at start when the clock has stepped
// back since.
func (s *Session) endAfter(start time.Time) time.Time {
	now := s.now().UTC()
	if now.Before(start) {
		return start
	}
	return now
}

// StopVisit closes the visit. A non-empty note replaces the one given at
// the start.
func (s *Session) StopVisit(ctx context.Context, note string) (*models.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopVisit(ctx, note)
}

func (s *Session) stopVisit(ctx context.Context, note string) (*models.Visit, error) {
	if s.visit == nil {
		return nil, ErrNoVisit
	}
	v := *s.visit
	end := s.endAfter(v.StartAt)
	stepsEnd := s.counter.Steps()
	delta := max(stepsEnd-v.StepsStart, 0)
	v.EndAt, v.StepsEnd, v.StepsDelta = &end, &stepsEnd, &delta
	if note = strings.TrimSpace(note); note != "" {
		v.Note = note
	}

	if err := s.repos.Visits.Put(ctx, &v); err != nil {
		return nil, fmt.Errorf("save visit: %w", err)
	}
	if err := s.repos.Settings.SetActiveVisit(ctx, nil); err != nil {
		return nil, fmt.Errorf("clear visit: %w", err)
	}
	s.visit = nil
	s.log.Info(ctx, "visit stopped", "id", v.ID, "steps", delta)
	return &v, nil
}
