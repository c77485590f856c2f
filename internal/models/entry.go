package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/maintlog/internal/store"
)

type Status string

const (
	StatusOK            Status = "OK"
	StatusUrgent        Status = "NUJNO"
	StatusAwaitingParts Status = "CAKA_DELE"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusUrgent, StatusAwaitingParts:
		return true
	}
	return false
}

// Label is the operator-facing name.
func (s Status) Label() string {
	switch s {
	case StatusUrgent:
		return "NUJNO"
	case StatusAwaitingParts:
		return "ČAKA DELE"
	default:
		return "OK"
	}
}

type Mode string

const (
	ModeSolo Mode = "SAM"
	ModeTeam Mode = "TIM"
)

func (m Mode) Valid() bool {
	return m == ModeSolo || m == ModeTeam
}

// DefaultUnit is used for materials entered without a unit.
const DefaultUnit = "kos"

type Material struct {
	Name string `json:"name"`
	Qty  string `json:"qty"`
	Unit string `json:"unit"`
}

// NewMaterial applies the entry-form defaults: quantity 1, unit kos.
func NewMaterial(name, qty, unit string) Material {
	qty, unit = strings.TrimSpace(qty), strings.TrimSpace(unit)
	if qty == "" {
		qty = "1"
	}
	if unit == "" {
		unit = DefaultUnit
	}
	return Material{Name: strings.TrimSpace(name), Qty: qty, Unit: unit}
}

func (m Material) String() string {
	return m.Name + " " + m.Qty + " " + m.Unit
}

// Photo is an attachment. Its payload is either embedded as a data URL or,
// once offloaded, referenced by StorageKey.
type Photo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	DataURL    string `json:"dataUrl,omitempty"`
	StorageKey string `json:"storageKey,omitempty"`
}

type Entry struct {
	ID          string     `json:"id"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Machine     string     `json:"machine"`
	Work        string     `json:"work"`
	Status      Status     `json:"status"`
	DurationMin int        `json:"durationMin"`
	Mode        Mode       `json:"mode"`
	Lead        string     `json:"lead"`
	Team        []string   `json:"team"`
	Materials   []Material `json:"materials"`
	Obs         string     `json:"obs"`
	Think       string     `json:"think"`
	Photos      []Photo    `json:"photos"`
}

// UnmarshalJSON reads durationMin leniently, so fractional or quoted
// minutes stored by older clients decode the way the entry form parses them.
func (e *Entry) UnmarshalJSON(b []byte) error {
	type plain Entry
	aux := struct {
		*plain
		DurationMin json.RawMessage `json:"durationMin"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	e.DurationMin = rawMinutes(aux.DurationMin)
	return nil
}

func rawMinutes(raw json.RawMessage) int {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseDurationMin(s)
	}
	return ParseDurationMin(string(raw))
}

func (e *Entry) Key() string { return e.ID }

func (e *Entry) Collection() store.Collection { return store.Entries }

func (e *Entry) Validate() error {
	switch {
	case e.ID == "":
		return invalid("entry id is empty")
	case e.CreatedAt.IsZero():
		return invalid("entry %s has no creation time", e.ID)
	case strings.TrimSpace(e.Machine) == "" && strings.TrimSpace(e.Work) == "":
		return invalid("entry %s needs a machine or a work description", e.ID)
	case !e.Status.Valid():
		return invalid("entry %s: unknown status %q", e.ID, e.Status)
	case !e.Mode.Valid():
		return invalid("entry %s: unknown mode %q", e.ID, e.Mode)
	case e.DurationMin < 0:
		return invalid("entry %s: negative duration", e.ID)
	case e.Mode == ModeSolo && len(e.Team) > 0:
		return invalid("entry %s: team members on a solo job", e.ID)
	}
	for i, m := range e.Materials {
		if strings.TrimSpace(m.Name) == "" {
			return invalid("entry %s: material %d has no name", e.ID, i+1)
		}
	}
	for i, p := range e.Photos {
		if p.DataURL == "" && p.StorageKey == "" {
			return invalid("entry %s: photo %d has no payload", e.ID, i+1)
		}
	}
	return nil
}

// Matches reports whether q occurs, case-insensitively, in any of the
// searchable fields. An empty q matches everything.
func (e *Entry) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	parts := []string{e.Machine, e.Work, e.Obs, e.Think, string(e.Status)}
	for _, m := range e.Materials {
		parts = append(parts, m.String())
	}
	return strings.Contains(strings.ToLower(strings.Join(parts, " ")), q)
}

// ParseDurationMin reads a minutes field leniently: blanks, garbage,
// non-finite and negative values all become 0; fractions are rounded.
func ParseDurationMin(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return int(math.Round(f))
}

// FormatMinutes renders minutes as "1h 05m", or "12m" below an hour.
func FormatMinutes(m int) string {
	if m < 60 {
		return strconv.Itoa(m) + "m"
	}
	mm := strconv.Itoa(m % 60)
	if len(mm) == 1 {
		mm = "0" + mm
	}
	return strconv.Itoa(m/60) + "h " + mm + "m"
}
