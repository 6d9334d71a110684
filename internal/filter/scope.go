package filter

import (
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// Scope applies principal visibility to spec. Elevated principals see every
// assignee. Standard principals are pinned to their own tasks; asking for
// another user's tasks, or for unassigned tasks, is refused rather than
// silently narrowed.
func Scope(spec Spec, principal *domain.Principal) (Spec, error) {
	if principal == nil {
		return Spec{}, domain.ErrUnauthenticated
	}
	if principal.IsElevated() {
		return spec, nil
	}

	if spec.UnassignedOnly {
		return Spec{}, domain.ErrFilterOthers
	}
	if spec.AssigneeID.Valid && spec.AssigneeID.UUID != principal.UserID {
		return Spec{}, domain.ErrFilterOthers
	}
	spec.AssigneeID.UUID = principal.UserID
	spec.AssigneeID.Valid = true
	return spec, nil
}
