// Package apperr defines the Kind-tagged error type used across service and
// repository layers. A Kind carries enough meaning for the HTTP boundary
// (see internal/handler) to map it to a status code without the boundary
// needing to know anything about the originating component.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies the nature of a failure
type Kind string

const (
	InvalidInput      Kind = "invalid_input"
	NotFound          Kind = "not_found"
	Forbidden         Kind = "forbidden"
	Conflict          Kind = "conflict"
	ConfigError       Kind = "config_error"
	Integrity         Kind = "integrity"
	StoreTimeout      Kind = "store_timeout"
	SafetyCheckFailed Kind = "safety_check_failed"
	Internal          Kind = "internal"
)

// Error wraps an underlying cause with a Kind and a human-readable message
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error of the given Kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given Kind around an underlying cause
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and
// apperr.Internal otherwise.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// Is reports whether err is (or wraps) an *Error of the given Kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func Invalidf(format string, args ...interface{}) *Error {
	return New(InvalidInput, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...interface{}) *Error {
	return New(NotFound, fmt.Sprintf(format, args...))
}

func Forbiddenf(format string, args ...interface{}) *Error {
	return New(Forbidden, fmt.Sprintf(format, args...))
}

func Conflictf(format string, args ...interface{}) *Error {
	return New(Conflict, fmt.Sprintf(format, args...))
}

func Integrityf(format string, args ...interface{}) *Error {
	return New(Integrity, fmt.Sprintf(format, args...))
}
