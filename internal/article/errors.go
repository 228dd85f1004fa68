package article

import (
	"errors"
	"fmt"
)

// Errors surfaced to callers.
var (
	// ErrNotFound indicates no article exists with the requested id.
	ErrNotFound = errors.New("article not found")

	// ErrDOINotFound indicates the DOI registry could not resolve an identifier.
	ErrDOINotFound = errors.New("DOI metadata could not be retrieved")
)

// Event names attached to log records for failures that are absorbed rather
// than returned.
const (
	EventExtractionFailure     = "extraction_failure"
	EventSummarizationDegraded = "summarization_degraded"
	EventBlobDeletionFailed    = "blob_deletion_failed"
)

// ValidationError reports a missing or malformed user-supplied field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidation returns true if err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound returns true if err indicates an unknown article id.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDOINotFound returns true if err indicates a failed DOI resolution.
func IsDOINotFound(err error) bool {
	return errors.Is(err, ErrDOINotFound)
}
