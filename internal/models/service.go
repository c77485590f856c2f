package models

import (
	"time"

	"github.com/dmitrijs2005/maintlog/internal/store"
)

type ServiceType string

const ServiceAnnualPreventive ServiceType = "ANNUAL_PREVENTIVE"

// PreventiveNote is the note written on annual preventive records.
const PreventiveNote = "Letna preventiva (1× leto)"

type ServiceRecord struct {
	ID      string      `json:"id"`
	Type    ServiceType `json:"type"`
	Machine string      `json:"machine"`
	Date    time.Time   `json:"date"`
	Note    string      `json:"note"`
}

func (r *ServiceRecord) Key() string { return r.ID }

func (r *ServiceRecord) Collection() store.Collection { return store.Services }

func (r *ServiceRecord) Validate() error {
	switch {
	case r.ID == "":
		return invalid("service record id is empty")
	case r.Type != ServiceAnnualPreventive:
		return invalid("service record %s: unknown type %q", r.ID, r.Type)
	case r.Machine == "":
		return invalid("service record %s has no machine", r.ID)
	case r.Date.IsZero():
		return invalid("service record %s has no date", r.ID)
	}
	return nil
}
