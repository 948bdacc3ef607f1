package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks every declaration-time (or first-construction) failure.
	ErrConfiguration = errors.New("invalid machine configuration")

	// ErrNoTransition is returned when no transition matches an input in the current state.
	ErrNoTransition = errors.New("no transition")

	// ErrUnhandledInput is returned after a machine enters its error state.
	ErrUnhandledInput = errors.New("unhandled input")

	// ErrUnknownInput is returned when an input name is not declared.
	ErrUnknownInput = errors.New("unknown input")

	// ErrBadArguments is returned when an input is called with the wrong number of arguments.
	ErrBadArguments = errors.New("bad input arguments")

	// ErrSnapshotNotFound is returned when a snapshot ID cannot be found in a store.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// ConfigError describes a configuration problem.
type ConfigError struct {
	Op     string
	Detail string
}

// Configf builds a ConfigError for the given operation.
func Configf(op, format string, args ...any) *ConfigError {
	return &ConfigError{Op: op, Detail: fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// NoTransitionError reports the (state, input) pair that had no matching transition.
type NoTransitionError struct {
	State State
	Input *Symbol
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("no transition for %s in %s", e.Input, e.State)
}

func (e *NoTransitionError) Is(target error) bool { return target == ErrNoTransition }

// UnhandledInputError is raised once a machine falls into its error state.
type UnhandledInputError struct {
	State string
	Input string
	Cause error
}

func (e *UnhandledInputError) Error() string {
	return fmt.Sprintf("unhandled: state:%s input:%s", e.State, e.Input)
}

func (e *UnhandledInputError) Unwrap() error { return e.Cause }

func (e *UnhandledInputError) Is(target error) bool { return target == ErrUnhandledInput }
