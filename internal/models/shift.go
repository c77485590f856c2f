package models

import (
	"time"

	"github.com/dmitrijs2005/maintlog/internal/store"
)

// Shift is one working session. EndAt stays nil while it is open.
type Shift struct {
	ID         string     `json:"id"`
	StartAt    time.Time  `json:"startAt"`
	EndAt      *time.Time `json:"endAt"`
	StepsTotal int        `json:"stepsTotal"`
}

func (s *Shift) Key() string { return s.ID }

func (s *Shift) Collection() store.Collection { return store.Shifts }

func (s *Shift) Open() bool { return s.EndAt == nil }

func (s *Shift) Validate() error {
	switch {
	case s.ID == "":
		return invalid("shift id is empty")
	case s.StartAt.IsZero():
		return invalid("shift %s has no start", s.ID)
	case s.EndAt != nil && s.EndAt.Before(s.StartAt):
		return invalid("shift %s ends before it starts", s.ID)
	case s.StepsTotal < 0:
		return invalid("shift %s: negative step count", s.ID)
	}
	return nil
}

// Visit is time spent at one machine inside a shift.
type Visit struct {
	ID         string     `json:"id"`
	ShiftID    string     `json:"shiftId"`
	Machine    string     `json:"machine"`
	StartAt    time.Time  `json:"startAt"`
	EndAt      *time.Time `json:"endAt"`
	StepsStart int        `json:"stepsStart"`
	StepsEnd   *int       `json:"stepsEnd"`
	StepsDelta *int       `json:"stepsDelta"`
	Note       string     `json:"note"`
}

func (v *Visit) Key() string { return v.ID }

func (v *Visit) Collection() store.Collection { return store.Visits }

func (v *Visit) Open() bool { return v.EndAt == nil }

func (v *Visit) Validate() error {
	switch {
	case v.ID == "":
		return invalid("visit id is empty")
	case v.ShiftID == "":
		return invalid("visit %s has no shift", v.ID)
	case v.Machine == "":
		return invalid("visit %s has no machine", v.ID)
	case v.StartAt.IsZero():
		return invalid("visit %s has no start", v.ID)
	case v.EndAt != nil && v.EndAt.Before(v.StartAt):
		return invalid("visit %s ends before it starts", v.ID)
	case v.StepsDelta != nil && *v.StepsDelta < 0:
		return invalid("visit %s: negative step delta", v.ID)
	}
	return nil
}
