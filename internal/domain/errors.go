package domain

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidInput signals malformed caller-supplied input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)

// Stage names an ingestion pipeline step.
type Stage string

// Ingestion stages in execution order.
const (
	StageFetch     Stage = "fetch"
	StageTransform Stage = "transform"
	StageLoad      Stage = "load"
)

// FetchError is a transport or filesystem failure while retrieving a source file.
// Dir is the run directory holding any partial download; empty if none was created.
type FetchError struct {
	URL string
	Dir string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports the first row that could not be parsed or normalized.
// Line is 1-based and counts the header row.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "parse line " + strconv.Itoa(e.Line)
	if e.Column != "" {
		msg += " column " + e.Column
	}
	if e.Value != "" {
		msg += " value " + strconv.Quote(e.Value)
	}
	return msg + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// InsertError is a failed batch write. Inserted is the number of records
// committed by earlier batches; those stay in the store.
type InsertError struct {
	Inserted int
	Err      error
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("insert failed after %d rows: %v", e.Inserted, e.Err)
}

func (e *InsertError) Unwrap() error { return e.Err }

// ValidationError is a malformed search parameter.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

// Unwrap exposes both the cause and ErrInvalidInput to errors.Is.
func (e *ValidationError) Unwrap() []error { return []error{ErrInvalidInput, e.Err} }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, err error) error {
	return &ValidationError{Field: field, Value: value, Err: err}
}

// StageError attaches pipeline stage context to a failure.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return string(e.Stage) + " stage: " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }
