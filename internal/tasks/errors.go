package tasks

import (
	"errors"
	"fmt"
)

// Field length limits, counted in characters after trimming.
const (
	MaxTitleLen       = 50
	MaxDescriptionLen = 500
	MaxLocationLen    = 60
)

// Sentinel errors for id lookups.
var (
	ErrTaskNotFound = errors.New("task not found")
	ErrAmbiguousID  = errors.New("ambiguous task id")
)

var errNoNotifier = errors.New("no notifier configured")

// ValidationError reports user input that violates a presence or length
// constraint. The operation that returned it changed nothing.
type ValidationError struct {
	Field  string
	Limit  int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("%s %s (max %d characters)", e.Field, e.Reason, e.Limit)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// CollaboratorError wraps a failure of the notification, location or file
// collaborator. It is shown to the user as a notice and never blocks.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Collaborator, e.Err)
}

// Unwrap returns the underlying error.
func (e *CollaboratorError) Unwrap() error {
	return e.Err
}
