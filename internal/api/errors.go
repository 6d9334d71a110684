package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// MapErrorToStatusCode maps an error to the HTTP status for its category.
// ErrUnauthenticated wraps ErrForbidden, so it is checked first.
func MapErrorToStatusCode(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, shared.ErrEmptyBody),
		errors.As(err, &verrs):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// safeMessages are client-facing messages for specific errors, checked in
// order before falling back to the error's category.
var safeMessages = []struct {
	err error
	msg string
}{
	{domain.ErrUnauthenticated, "Authentication required"},
	{domain.ErrTaskNotAccessible, "You do not have access to this task"},
	{domain.ErrAssignOthers, "You can only assign tasks to yourself"},
	{domain.ErrFilterOthers, "You can only list your own tasks"},
	{domain.ErrTaskNotFound, "Task not found"},
	{domain.ErrUserNotFound, "User not found"},
	{domain.ErrOpportunityNotFound, "Opportunity not found"},
	{domain.ErrNotificationNotFound, "Notification not found"},
	{domain.ErrTaskArchived, "Archived tasks cannot be modified"},
	{domain.ErrTaskInProgress, "Only the assignee can be changed while the task is in progress"},
	{domain.ErrAlreadyArchived, "Task is already archived"},
	{domain.ErrTaskNotTerminal, "Only done or cancelled tasks can be archived"},
	{domain.ErrIllegalTransition, "Illegal status transition"},
	{domain.ErrDeadlineTooSoon, "Deadline must be at least tomorrow"},
	{store.ErrInvalidEntity, "Invalid entity data"},
	{shared.ErrEmptyBody, "Request body is required"},
}

// GetSafeErrorMessage returns a client-safe message for err. Internal
// details never reach the response.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return fmt.Sprintf("Invalid %s: %s", verr.Field, verr.Message)
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return SanitizeValidationError(verrs)
	}

	for _, m := range safeMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}

	switch {
	case errors.Is(err, domain.ErrForbidden):
		return "Forbidden"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return "Not found"
	case errors.Is(err, domain.ErrInvalidState):
		return "Operation not allowed in the current state"
	case errors.Is(err, domain.ErrInvalidInput):
		return invalidInputMessage(err)
	default:
		return "An unexpected error occurred"
	}
}

// invalidInputMessage keeps the detail of a domain validation sentinel
// ("invalid input: unknown priority") without any wrapping context.
func invalidInputMessage(err error) string {
	msg := err.Error()
	prefix := domain.ErrInvalidInput.Error() + ": "
	if i := strings.LastIndex(msg, prefix); i >= 0 {
		detail := msg[i+len(prefix):]
		if detail != "" && !strings.ContainsAny(detail, "\n") {
			return "Invalid input: " + detail
		}
	}
	return "Invalid input"
}

// SanitizeValidationError renders the first failing field of a validator
// error without exposing struct names.
func SanitizeValidationError(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "Validation error"
	}
	fe := errs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "uuid", "uuid4":
		return "invalid identifier"
	default:
		return "validation failed"
	}
}
