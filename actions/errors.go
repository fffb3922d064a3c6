package actions

import (
	"errors"
	"fmt"
)

var (
	// ErrRejected means the window manager understood the request but did not apply it
	ErrRejected = errors.New("rejected")

	// ErrTransportFailure means the window manager could not be reached
	ErrTransportFailure = errors.New("transport failure")

	ErrNonZeroExit = errors.New("non-zero exit")

	ErrSpawnFailure = errors.New("spawn failure")
)

// ActionError describes one failed action execution
type ActionError struct {
	Kind    Kind
	Command string

	// Reason is one of ErrRejected, ErrTransportFailure, ErrNonZeroExit, ErrSpawnFailure
	Reason error

	// ExitCode is set for ErrNonZeroExit
	ExitCode int

	// Err is the underlying cause, may be nil
	Err error
}

func (e *ActionError) Error() string {
	msg := fmt.Sprintf("%s action %q: %v", e.Kind, e.Command, e.Reason)
	if errors.Is(e.Reason, ErrNonZeroExit) {
		msg += fmt.Sprintf(" (exit code %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ActionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

func newActionError(kind Kind, command string, reason error, cause error) *ActionError {
	return &ActionError{
		Kind:    kind,
		Command: command,
		Reason:  reason,
		Err:     cause,
	}
}
