package simulation

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateBody = errors.New("duplicate body name")
	ErrInvalidBody   = errors.New("invalid body definition")
	ErrInvalidLimits = errors.New("invalid speed limits")
	ErrNoRenderer    = errors.New("no renderer available")
)

// UnknownBodyError reports an operation on a name the store does not hold.
type UnknownBodyError struct {
	Name string
}

func (e *UnknownBodyError) Error() string {
	return fmt.Sprintf("unknown body %q", e.Name)
}

// OutOfRangeSpeedError is returned by a store using the Reject policy.
type OutOfRangeSpeedError struct {
	Name   string
	Speed  float64
	Limits Limits
}

func (e *OutOfRangeSpeedError) Error() string {
	return fmt.Sprintf("speed %g for %q outside [%g, %g]", e.Speed, e.Name, e.Limits.Min, e.Limits.Max)
}
