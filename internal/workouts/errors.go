package workouts

import (
	"errors"
	"fmt"
)

type ValidationReason string

const (
	ReasonMissingField  ValidationReason = "missing field"
	ReasonNonNumeric    ValidationReason = "non-numeric"
	ReasonBadDateFormat ValidationReason = "bad date format"
	ReasonNegativeValue ValidationReason = "negative value"
)

// ValidationError is returned when a submitted workout form is rejected.
type ValidationError struct {
	Reason ValidationReason
	Field  string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Field)
}

// PersistenceError wraps any failure of the underlying store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func newPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pErr *PersistenceError
	if errors.As(err, &pErr) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
