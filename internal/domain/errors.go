package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound means a referenced user, link or reminder does not exist
// (typically a stale button click after data deletion).
var ErrNotFound = errors.New("not found")

// ValidationError describes malformed user input. It is surfaced to the user
// with a corrective message and never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", e.Reason)
}

// NewValidationError builds a ValidationError with a user-facing reason.
func NewValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
