package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// NotFoundError is returned when the requested object does not exist.
// Hint is an optional human readable suggestion (eg. a close match).
type NotFoundError struct {
	Err  error
	Hint string
}

func NewNotFoundError(err error, hint ...string) error {
	nfErr := &NotFoundError{Err: err}
	if len(hint) > 0 {
		nfErr.Hint = hint[0]
	}
	return nfErr
}

func (err NotFoundError) Error() string {
	if err.Err == nil {
		return "not found"
	}
	if err.Hint != "" {
		return err.Err.Error() + " (" + err.Hint + ")"
	}
	return err.Err.Error()
}

func (err NotFoundError) Unwrap() error { return err.Err }

// ConflictError is returned when an object clashes with an existing one.
type ConflictError struct {
	Err error
}

func NewConflictError(err error) error {
	return &ConflictError{Err: err}
}

func (err ConflictError) Error() string {
	if err.Err == nil {
		return "conflict"
	}
	return err.Err.Error()
}

func (err ConflictError) Unwrap() error { return err.Err }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
