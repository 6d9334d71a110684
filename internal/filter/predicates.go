package filter

import (
	"github.com/phrazzld/taskflow-api/internal/store"
)

// axis contributes at most one predicate for a Spec.
type axis func(Spec) (store.Predicate, bool)

// axes is evaluated in order; each entry covers one independent dimension.
var axes = []axis{
	statusAxis,
	priorityAxis,
	opportunityAxis,
	assigneeAxis,
	archivedAxis,
	deadlineAxis,
	queryAxis,
}

// Predicates returns the conjunction terms for every constrained axis of spec.
func Predicates(spec Spec) []store.Predicate {
	preds := make([]store.Predicate, 0, len(axes))
	for _, build := range axes {
		if p, ok := build(spec); ok {
			preds = append(preds, p)
		}
	}
	return preds
}

// Query turns spec into a paginated, sorted store query.
func Query(spec Spec) store.TaskQuery {
	sort := spec.Sort
	if sort.Field == "" {
		sort = store.DefaultSort
	}
	page := spec.Page
	if page.Size <= 0 {
		page.Size = DefaultPageSize
	}
	return store.TaskQuery{
		Where: Predicates(spec),
		Sort:  sort,
		Page:  page,
	}
}

func statusAxis(s Spec) (store.Predicate, bool) {
	if s.Status == nil {
		return store.Predicate{}, false
	}
	return store.Eq(store.FieldStatus, *s.Status), true
}

func priorityAxis(s Spec) (store.Predicate, bool) {
	if s.Priority == nil {
		return store.Predicate{}, false
	}
	return store.Eq(store.FieldPriority, *s.Priority), true
}

func opportunityAxis(s Spec) (store.Predicate, bool) {
	if !s.OpportunityID.Valid {
		return store.Predicate{}, false
	}
	return store.Eq(store.FieldOpportunity, s.OpportunityID.UUID), true
}

func assigneeAxis(s Spec) (store.Predicate, bool) {
	switch {
	case s.UnassignedOnly:
		return store.IsNull(store.FieldAssignee), true
	case s.AssigneeID.Valid:
		return store.Eq(store.FieldAssignee, s.AssigneeID.UUID), true
	default:
		return store.Predicate{}, false
	}
}

func archivedAxis(s Spec) (store.Predicate, bool) {
	switch s.Archived {
	case ArchivedAny:
		return store.Predicate{}, false
	case ArchivedOnly:
		return store.Eq(store.FieldArchived, true), true
	default:
		return store.Eq(store.FieldArchived, false), true
	}
}

func deadlineAxis(s Spec) (store.Predicate, bool) {
	if s.DeadlineFrom == nil && s.DeadlineTo == nil {
		return store.Predicate{}, false
	}
	from, to := MinDeadline, MaxDeadline
	if s.DeadlineFrom != nil {
		from = *s.DeadlineFrom
	}
	if s.DeadlineTo != nil {
		to = *s.DeadlineTo
	}
	return store.Between(store.FieldDeadline, from, to), true
}

func queryAxis(s Spec) (store.Predicate, bool) {
	if s.Query == "" {
		return store.Predicate{}, false
	}
	return store.ContainsFold(store.FieldTitle, s.Query), true
}
