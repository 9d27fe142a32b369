package propsales

import "github.com/kailas-cloud/propsales/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput = domain.ErrInvalidInput
)

// Error types re-exported from the domain layer. Use errors.As() to inspect.
type (
	FetchError      = domain.FetchError
	ParseError      = domain.ParseError
	InsertError     = domain.InsertError
	ValidationError = domain.ValidationError
	StageError      = domain.StageError
)
