package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// KeyOf extracts the key field of rec according to spec. rec must be a JSON
// object whose key field is a non-empty string.
func KeyOf(spec Spec, rec json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(rec)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", fmt.Errorf("%w: %s record must be a JSON object", ErrInvalidRecord, spec.Name)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	raw, ok := fields[spec.KeyField]
	if !ok {
		return "", fmt.Errorf("%w: %s record has no %q", ErrInvalidRecord, spec.Name, spec.KeyField)
	}
	var key string
	if err := json.Unmarshal(raw, &key); err != nil || key == "" {
		return "", fmt.Errorf("%w: %s.%s must be a non-empty string", ErrInvalidRecord, spec.Name, spec.KeyField)
	}
	return key, nil
}

// Clone returns an independent copy of rec.
func Clone(rec json.RawMessage) json.RawMessage {
	if rec == nil {
		return nil
	}
	return append(json.RawMessage(nil), rec...)
}
