package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("record not found")
var ErrNotUnique = errors.New("record not unique")
var ErrNoPermission = errors.New("no permission")
var ErrInvalidData = errors.New("invalid data")
var ErrDuplicateEntry = errors.New("duplicate entry")

// ConfigurationError indicates an invalid or missing configuration value.
// It is fatal: the service must refuse to start, the error must never surface at first use.
type ConfigurationError struct {
	Field string
	Msg   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Msg)
}

// SigningError indicates that a signature could not be computed or checked.
// It propagates to the caller of the audit operation and is never retried internally.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing failed: %v", e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// PersistenceError indicates a storage failure while writing or reading audit data.
// The caller of the originating business mutation decides whether to abort.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
