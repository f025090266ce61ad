package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned when an operation needs an active session.
	ErrNoSession = errors.New("no active session")
	// ErrSessionEnded rejects submissions after the session reached ENDED.
	ErrSessionEnded = errors.New("session has ended")
	// ErrStepInFlight rejects a submission while another one is outstanding.
	ErrStepInFlight = errors.New("a step submission is already in flight")
)

// ValidationError reports bad input caught before any remote call is made.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// InsufficientBudgetError rejects an action the commander cannot afford. The
// session is left untouched and no remote call is attempted.
type InsufficientBudgetError struct {
	Needed    float64
	Available float64
}

func (e *InsufficientBudgetError) Error() string {
	return fmt.Sprintf("insufficient budget: need %.1f, have %.1f", e.Needed, e.Available)
}
