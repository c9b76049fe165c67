// Package errs defines the error-kind taxonomy shared by the model
// services, the reconciler and the GitOps writer: InvalidArgument,
// NotFound, Conflict, Unavailable, Internal.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for callers that need to decide whether to
// retry, acknowledge, or surface the failure to a human.
type Kind string

const (
	InvalidArgument Kind = "InvalidArgument"
	NotFound        Kind = "NotFound"
	Conflict        Kind = "Conflict"
	Unavailable     Kind = "Unavailable"
	Internal        Kind = "Internal"
)

// Error wraps a cause with a Kind and a single-line reason suitable for
// a CLI diagnostic; the cause itself carries the full stack context for
// structured logs.
type Error struct {
	Kind   Kind
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given Kind with no wrapped cause.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap builds an Error of the given Kind around a cause.
func Wrap(kind Kind, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Cause: cause}
}

// KindOf extracts the Kind of err, defaulting to Internal for errors
// that were not constructed through this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Retryable reports whether the reconciler or GitOps writer should
// leave the triggering event unacknowledged and retry later.
func Retryable(err error) bool {
	switch KindOf(err) {
	case Unavailable, Internal:
		return true
	default:
		return false
	}
}
