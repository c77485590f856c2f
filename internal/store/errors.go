package store

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCollection  = errors.New("unknown collection")
	ErrUnknownIndex       = errors.New("unknown index")
	ErrInvalidRecord      = errors.New("invalid record")
	ErrUnsupportedVersion = errors.New("unsupported schema version")
	// ErrVersionConflict means the database is already at a newer schema
	// than the one requested.
	ErrVersionConflict = errors.New("schema version conflict")
)

// OpenError reports a failure to open or migrate a database.
type OpenError struct {
	Path    string
	Version int
	Err     error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s at version %d: %v", e.Path, e.Version, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// WriteError reports a failed Upsert, Delete or Wipe.
type WriteError struct {
	Op         string
	Collection Collection
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ReadError reports a failed read transaction. A missing record is not one.
type ReadError struct {
	Op         string
	Collection Collection
	Err        error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Write wraps err as a *WriteError, passing nil through.
func Write(op string, c Collection, err error) error {
	if err == nil {
		return nil
	}
	return &WriteError{Op: op, Collection: c, Err: err}
}

// Read wraps err as a *ReadError, passing nil through.
func Read(op string, c Collection, err error) error {
	if err == nil {
		return nil
	}
	return &ReadError{Op: op, Collection: c, Err: err}
}
