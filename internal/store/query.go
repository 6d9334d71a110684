package store

import (
	"time"
)

// Field names a filterable or sortable task attribute.
type Field string

// Task fields understood by TaskStore implementations.
const (
	FieldStatus      Field = "status"
	FieldPriority    Field = "priority"
	FieldOpportunity Field = "opportunity_id"
	FieldAssignee    Field = "assigned_user_id"
	FieldArchived    Field = "archived"
	FieldDeadline    Field = "deadline"
	FieldTitle       Field = "title"
	FieldCompletedAt Field = "completed_at"
	FieldCreatedAt   Field = "created_at"
)

// Op is a comparison applied by a Predicate.
type Op int

// Supported predicate operators
const (
	OpEq Op = iota
	OpIn
	OpNotIn
	OpIsNull
	OpNotNull
	// OpBetween is inclusive on both ends.
	OpBetween
	OpBefore
	OpAfter
	OpAtMost
	OpContainsFold
)

// Predicate is one condition of a task query. A query matches tasks that
// satisfy every predicate.
type Predicate struct {
	Field Field
	Op    Op
	Args  []any
}

// Eq matches field = v.
func Eq(f Field, v any) Predicate {
	return Predicate{Field: f, Op: OpEq, Args: []any{v}}
}

// In matches field IN (vs...).
func In[T any](f Field, vs ...T) Predicate {
	return Predicate{Field: f, Op: OpIn, Args: toAny(vs)}
}

// NotIn matches field NOT IN (vs...).
func NotIn[T any](f Field, vs ...T) Predicate {
	return Predicate{Field: f, Op: OpNotIn, Args: toAny(vs)}
}

// IsNull matches field IS NULL.
func IsNull(f Field) Predicate {
	return Predicate{Field: f, Op: OpIsNull}
}

// NotNull matches field IS NOT NULL.
func NotNull(f Field) Predicate {
	return Predicate{Field: f, Op: OpNotNull}
}

// Between matches lo <= field <= hi.
func Between(f Field, lo, hi time.Time) Predicate {
	return Predicate{Field: f, Op: OpBetween, Args: []any{lo.UTC(), hi.UTC()}}
}

// Before matches field < t.
func Before(f Field, t time.Time) Predicate {
	return Predicate{Field: f, Op: OpBefore, Args: []any{t.UTC()}}
}

// After matches field > t.
func After(f Field, t time.Time) Predicate {
	return Predicate{Field: f, Op: OpAfter, Args: []any{t.UTC()}}
}

// AtMost matches field <= t.
func AtMost(f Field, t time.Time) Predicate {
	return Predicate{Field: f, Op: OpAtMost, Args: []any{t.UTC()}}
}

// ContainsFold matches a case-insensitive substring of field.
func ContainsFold(f Field, s string) Predicate {
	return Predicate{Field: f, Op: OpContainsFold, Args: []any{s}}
}

func toAny[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

// Sort orders task results.
type Sort struct {
	Field Field
	Desc  bool
}

// DefaultSort orders by deadline, latest first.
var DefaultSort = Sort{Field: FieldDeadline, Desc: true}

// Page selects a zero-based page of results.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return p.Number * p.Size
}

// TaskQuery is a fully resolved task listing request.
type TaskQuery struct {
	Where []Predicate
	Sort  Sort
	Page  Page
}
