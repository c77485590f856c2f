package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/maintlog/internal/store"
)

// ErrValidation wraps every record validation failure.
var ErrValidation = errors.New("validation failed")

// Record is implemented by every type persisted in a collection.
type Record interface {
	Key() string
	Collection() store.Collection
	Validate() error
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ValidateRaw decodes raw as the typed record of collection c and validates
// it. Collections without a typed record, such as meta, always pass.
func ValidateRaw(c store.Collection, raw json.RawMessage) error {
	var r Record
	switch c {
	case store.Entries:
		r = &Entry{}
	case store.Shifts:
		r = &Shift{}
	case store.Visits:
		r = &Visit{}
	case store.Services:
		r = &ServiceRecord{}
	default:
		return nil
	}
	if err := json.Unmarshal(raw, r); err != nil {
		return invalid("%s record: %v", c, err)
	}
	return r.Validate()
}
