package model

import (
	"errors"
	"fmt"
)

// ErrBudgetExhausted is returned by the scheduler when the daily
// application ceiling for a platform has been reached. The run pauses
// itself rather than erroring.
var ErrBudgetExhausted = errors.New("daily application budget exhausted")

// TransientError wraps a failure that may succeed on retry
// (network errors, timeouts, platform rate limiting).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError wraps a failure that will not succeed on retry
// (validation rejection, duplicate application, expired posting).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Transient marks err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Permanent marks err as not retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsTransient reports whether err is marked retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is marked not retryable.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// InvalidStateError indicates an operation that is not valid for the
// run's current status. The run state is unchanged.
type InvalidStateError struct {
	Op     string
	Status string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s while run is %s", e.Op, e.Status)
}

// UnmappableFieldError indicates a required form field the mapper could
// not resolve with enough confidence. The attempt is skipped, not failed.
type UnmappableFieldError struct {
	FieldID    string
	Type       string
	Confidence float64
}

func (e *UnmappableFieldError) Error() string {
	return fmt.Sprintf("unmappable required field %q (type %q, confidence %.2f)", e.FieldID, e.Type, e.Confidence)
}

// IsUnmappable reports whether err is an unmappable-field error.
func IsUnmappable(err error) bool {
	var ue *UnmappableFieldError
	return errors.As(err, &ue)
}
