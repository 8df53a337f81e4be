package quiz

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced question, attempt or response does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would duplicate or contradict stored state.
	ErrConflict = errors.New("conflict")
	// ErrAttemptClosed rejects submissions to completed or expired attempts.
	ErrAttemptClosed = fmt.Errorf("attempt is closed: %w", ErrConflict)
	// ErrAlreadyAnswered rejects a second submission for the same question in one attempt.
	ErrAlreadyAnswered = fmt.Errorf("question already answered in this attempt: %w", ErrConflict)
)

// ValidationError reports malformed input at the system boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func notFound(what, id string) error {
	return fmt.Errorf("%s %q: %w", what, id, ErrNotFound)
}
