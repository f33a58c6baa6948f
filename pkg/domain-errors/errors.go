// Package dErrors provides coded domain errors.
//
// Services resolve store sentinels and validation failures into one of the
// codes below before anything crosses a feature boundary; transports map
// codes to status lines without inspecting error text. Infrastructure
// errors never reach a caller raw; they are wrapped as CodeUnavailable
// (transient) or CodeInternal (bug).
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeUnauthorized means the caller is not authenticated.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden means the caller lacks the required grant. Always safe
	// to surface as a generic access-denied message.
	CodeForbidden Code = "forbidden"
	// CodeNotFound means the referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict marks expected, non-fatal business collisions: duplicate
	// credential, conflicting grant, already on site. Never retried
	// automatically.
	CodeConflict Code = "conflict"
	// CodeInvalidInput means a field failed validation (malformed cutoff,
	// timestamp ordering).
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest means the request shape itself is unusable.
	CodeBadRequest Code = "bad_request"
	// CodeUnavailable marks a transient infrastructure failure. The
	// scheduler retries these on its next tick; interactive callers see
	// them immediately.
	CodeUnavailable Code = "unavailable"
	// CodeInvariantViolation marks a model invariant breach detected at
	// construction or transition time.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal is a catch-all for bugs and unexpected states.
	CodeInternal Code = "internal"
)

// Error is a domain error with a stable code and a human-readable message.
type Error struct {
	Code    Code
	Message string
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.wrapped }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message while keeping it in the
// chain for errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, wrapped: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.wrapped
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf returns the outermost domain code in the chain, or CodeInternal
// when err carries no code at all.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost domain message, or empty when err is
// not a domain error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
