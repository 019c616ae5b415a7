// Package apperr holds the error kinds shared by every domain package.
//
// Domain errors wrap exactly one kind so callers can classify them with
// errors.Is without knowing the concrete sentinel:
//
//	var ErrSlotNotFound = apperr.New(apperr.ErrNotFound, "slot not found")
//
// Anything that does not wrap a kind is treated as an internal failure.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// New returns a sentinel error of the given kind. Its message is msg alone.
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Validation builds an ad hoc validation error.
func Validation(format string, args ...any) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind err wraps, or nil for internal errors.
func KindOf(err error) error {
	for _, k := range []error{ErrValidation, ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrConflict} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
