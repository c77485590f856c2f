package services

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrWrongPIN        = errors.New("wrong PIN")
	ErrPINTooShort     = errors.New("PIN must have at least 4 characters")
	ErrMachineRequired = errors.New("machine is required")
	ErrBadPeriod       = errors.New("bad period")
	ErrBadPhoto        = errors.New("bad photo payload")
)
