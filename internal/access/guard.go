// Package access decides what a principal may do with tasks.
//
// Principals come in two tiers. Elevated principals (Admin, SuperAdmin) may
// act on every task. Standard principals may act only on tasks assigned to
// them and may only assign tasks to themselves. Every check takes the
// principal explicitly; nothing is read from ambient request state.
package access

import (
	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// CanAccessTask reports whether principal may read or modify task.
func CanAccessTask(principal *domain.Principal, task *domain.Task) error {
	if principal == nil {
		return domain.ErrUnauthenticated
	}
	if principal.IsElevated() {
		return nil
	}
	if task != nil && task.IsAssignedTo(principal.UserID) {
		return nil
	}
	return domain.ErrTaskNotAccessible
}

// CanAssign reports whether principal may assign a task to assignee.
// Leaving a task unassigned is always permitted.
func CanAssign(principal *domain.Principal, assignee uuid.NullUUID) error {
	if principal == nil {
		return domain.ErrUnauthenticated
	}
	if !assignee.Valid || principal.IsElevated() || assignee.UUID == principal.UserID {
		return nil
	}
	return domain.ErrAssignOthers
}

// RequireElevated reports whether principal holds an elevated role.
func RequireElevated(principal *domain.Principal) error {
	if principal == nil {
		return domain.ErrUnauthenticated
	}
	if !principal.IsElevated() {
		return domain.ErrForbidden
	}
	return nil
}
