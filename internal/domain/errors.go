// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every error surfaced by the engine wraps exactly one of
// these so callers can classify it with errors.Is.
var (
	// ErrNotFound is returned when a referenced task, user, opportunity or
	// notification does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the principal may not perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthenticated is returned when no principal could be resolved.
	ErrUnauthenticated = fmt.Errorf("%w: no authenticated principal", ErrForbidden)

	// ErrInvalidState is returned when the operation is illegal for the
	// entity's current lifecycle state.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidInput is returned for malformed or out-of-range input.
	ErrInvalidInput = errors.New("invalid input")
)

// Not found errors.
var (
	ErrTaskNotFound         = fmt.Errorf("task %w", ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrOpportunityNotFound  = fmt.Errorf("opportunity %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)
)

// Authorization errors.
var (
	ErrTaskNotAccessible = fmt.Errorf("%w: task is not assigned to the principal", ErrForbidden)
	ErrAssignOthers      = fmt.Errorf("%w: standard users can only assign tasks to themselves", ErrForbidden)
	ErrFilterOthers      = fmt.Errorf("%w: standard users can only list their own tasks", ErrForbidden)
)

// Lifecycle errors.
var (
	ErrTaskArchived      = fmt.Errorf("%w: task is archived", ErrInvalidState)
	ErrTaskInProgress    = fmt.Errorf("%w: only the assignee can change while the task is in progress", ErrInvalidState)
	ErrAlreadyArchived   = fmt.Errorf("%w: task is already archived", ErrInvalidState)
	ErrTaskNotTerminal   = fmt.Errorf("%w: only done or cancelled tasks can be archived", ErrInvalidState)
	ErrIllegalTransition = fmt.Errorf("%w: illegal status transition", ErrInvalidState)
)

// Validation errors.
var (
	ErrDeadlineTooSoon   = fmt.Errorf("%w: deadline must be at least tomorrow", ErrInvalidInput)
	ErrEmptyTitle        = fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	ErrEmptyDescription  = fmt.Errorf("%w: description cannot be empty", ErrInvalidInput)
	ErrEmptyTaskType     = fmt.Errorf("%w: type cannot be empty", ErrInvalidInput)
	ErrMissingDeadline   = fmt.Errorf("%w: deadline is required", ErrInvalidInput)
	ErrInvalidStatus     = fmt.Errorf("%w: unknown task status", ErrInvalidInput)
	ErrInvalidPriority   = fmt.Errorf("%w: unknown priority", ErrInvalidInput)
	ErrInvalidRole       = fmt.Errorf("%w: unknown role", ErrInvalidInput)
	ErrInvalidNotifyType = fmt.Errorf("%w: unknown notification type", ErrInvalidInput)
	ErrEmptyID           = fmt.Errorf("%w: id cannot be empty", ErrInvalidInput)
	ErrEmptyEmail        = fmt.Errorf("%w: email cannot be empty", ErrInvalidInput)
	ErrEmptyLink         = fmt.Errorf("%w: link cannot be empty", ErrInvalidInput)
	ErrEmptyMessage      = fmt.Errorf("%w: message cannot be empty", ErrInvalidInput)
)

// ValidationError reports a single invalid field. It wraps ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
