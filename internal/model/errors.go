package model

import (
	"errors"
	"fmt"
)

// Kind classifies a planning failure.
type Kind string

const (
	KindConfiguration Kind = "CONFIGURATION"
	KindInfeasible    Kind = "INFEASIBLE"
	KindUnbounded     Kind = "UNBOUNDED"
	KindSolver        Kind = "SOLVER"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrInfeasible    = errors.New("infeasible model")
	ErrUnbounded     = errors.New("unbounded model")
	ErrSolver        = errors.New("solver error")

	// ErrNetworkBusy is returned when a network is mutated or solved while a solve is running.
	ErrNetworkBusy = errors.New("network is being solved")
)

// PlanError carries the failure kind plus the period or window the failure belongs to.
type PlanError struct {
	Kind  Kind
	Op    string
	Scope string
	Err   error
}

func (e *PlanError) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Scope != "" {
		msg += " (" + e.Scope + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PlanError) Unwrap() error { return e.Err }

// Is matches the sentinel for the kind. An unbounded model is also an infeasible one
// from the caller's point of view: no usable plan exists.
func (e *PlanError) Is(target error) bool {
	switch target {
	case ErrConfiguration:
		return e.Kind == KindConfiguration
	case ErrInfeasible:
		return e.Kind == KindInfeasible || e.Kind == KindUnbounded
	case ErrUnbounded:
		return e.Kind == KindUnbounded
	case ErrSolver:
		return e.Kind == KindSolver
	}
	return false
}

func ConfigErrorf(op, format string, args ...interface{}) error {
	return &PlanError{Kind: KindConfiguration, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of a planning error, or "" for anything else.
func KindOf(err error) Kind {
	var pe *PlanError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
