package restaurant

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input: an empty required field or an
// out-of-range rating. The workflow recovers by re-prompting the same step.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Code identifies the error class for structured logs.
func (e *ValidationError) Code() string { return "VALIDATION" }

// NotFoundError reports an operation targeting an id that is not in the
// registry, e.g. a restaurant deleted between listing and confirming.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("restaurant %d not found", e.ID)
}

// Code identifies the error class for structured logs.
func (e *NotFoundError) Code() string { return "NOT_FOUND" }

// PersistenceError wraps a storage read/write failure. The operation fails
// but the process keeps running.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Code identifies the error class for structured logs.
func (e *PersistenceError) Code() string { return "PERSISTENCE" }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsPersistence reports whether err is a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
