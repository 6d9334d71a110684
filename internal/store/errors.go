package store

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// Common store errors used across all store implementations.
// ErrNotFound and ErrInvalidEntity wrap the matching domain categories so
// callers above the store can classify errors without importing it.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = fmt.Errorf("entity %w", domain.ErrNotFound)

	// ErrDuplicate is returned when an operation would violate a uniqueness constraint.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when a write violates a schema constraint
	// (foreign key, check, not null).
	ErrInvalidEntity = fmt.Errorf("%w: invalid entity", domain.ErrInvalidInput)

	// ErrTransactionFailed is returned when a transaction cannot begin or commit.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrUnsupportedPredicate is returned when a query names a field or
	// operator the store does not know how to render.
	ErrUnsupportedPredicate = errors.New("unsupported predicate")
)

// Entity-specific "not found" errors. Each matches both ErrNotFound and the
// domain-level error for the entity.
var (
	ErrTaskNotFound         = fmt.Errorf("%w: %w", ErrNotFound, domain.ErrTaskNotFound)
	ErrUserNotFound         = fmt.Errorf("%w: %w", ErrNotFound, domain.ErrUserNotFound)
	ErrOpportunityNotFound  = fmt.Errorf("%w: %w", ErrNotFound, domain.ErrOpportunityNotFound)
	ErrNotificationNotFound = fmt.Errorf("%w: %w", ErrNotFound, domain.ErrNotificationNotFound)

	// ErrEmailExists indicates that a user with the given email already exists.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)
)

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "task", "notification")
	Operation string // The operation that failed (e.g., "create", "update")
	Message   string
	Err       error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation on %s failed: %s: %v", e.Operation, e.Entity, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// IsNotFoundError reports whether err is, or wraps, any not-found error.
func IsNotFoundError(err error) bool {
	return err != nil && errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err is, or wraps, a uniqueness violation.
func IsDuplicateError(err error) bool {
	return err != nil && errors.Is(err, ErrDuplicate)
}
