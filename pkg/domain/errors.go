package domain

import (
	"fmt"
	"strings"
)

// FieldError names one input field that failed validation and the rule it broke.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func (f FieldError) String() string {
	if f.Rule == "" {
		return f.Field
	}
	return fmt.Sprintf("%s (%s)", f.Field, f.Rule)
}

// ValidationError indicates caller input that cannot be accepted.
type ValidationError struct {
	Fields  []FieldError
	Message string
}

func (e ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Message == "" {
			return "validation failed"
		}
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	msg := "invalid fields: " + strings.Join(parts, ", ")
	if e.Message != "" {
		msg = e.Message + ": " + msg
	}
	return msg
}

// NotFoundError is returned when no exhibit has the requested id.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("exhibit %q not found", e.ID)
}

// InvalidTransitionError is returned when an update would move a state field backwards.
type InvalidTransitionError struct {
	ID    string
	Field string
	From  string
	To    string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("exhibit %q: %s cannot change from %s to %s", e.ID, e.Field, e.From, e.To)
}

// AlreadyCollectedError is returned when collection is recorded twice.
type AlreadyCollectedError struct {
	ID           string
	SerialNumber string
}

func (e AlreadyCollectedError) Error() string {
	if e.SerialNumber != "" {
		return fmt.Sprintf("exhibit %s has already been collected", e.SerialNumber)
	}
	return fmt.Sprintf("exhibit %q has already been collected", e.ID)
}

// FormatError reports an import payload that is not a valid exhibit set.
// Position is the 1-based index of the offending record, or 0 for the payload as a whole.
type FormatError struct {
	Position int
	Reason   string
	Err      error
}

func (e FormatError) Error() string {
	msg := "invalid data format"
	if e.Position > 0 {
		msg = fmt.Sprintf("invalid exhibit at position %d", e.Position)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e FormatError) Unwrap() error { return e.Err }

// PersistenceError wraps a failure of the underlying store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	if e.Err == nil {
		return "persistence " + e.Op + " failed"
	}
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

// SerialExhaustedError is returned when a month already holds the highest serial.
type SerialExhaustedError struct {
	Month int
	Year  int
}

func (e SerialExhaustedError) Error() string {
	return fmt.Sprintf("serial numbers exhausted for %02d-%04d (limit %d)", e.Month, e.Year, MaxSerialSequence)
}
