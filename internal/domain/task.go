package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusToDo       TaskStatus = "ToDo"
	TaskStatusInProgress TaskStatus = "InProgress"
	TaskStatusDone       TaskStatus = "Done"
	TaskStatusCancelled  TaskStatus = "Cancelled"
)

// TaskStatuses lists every status in declaration order.
var TaskStatuses = []TaskStatus{
	TaskStatusToDo,
	TaskStatusInProgress,
	TaskStatusDone,
	TaskStatusCancelled,
}

// transitions holds the legal target states for each source state.
// Staying in the same state is handled separately as a no-op.
var transitions = map[TaskStatus][]TaskStatus{
	TaskStatusToDo:       {TaskStatusInProgress, TaskStatusDone, TaskStatusCancelled},
	TaskStatusInProgress: {TaskStatusToDo, TaskStatusDone, TaskStatusCancelled},
	TaskStatusDone:       {TaskStatusToDo, TaskStatusInProgress},
	TaskStatusCancelled:  {TaskStatusToDo, TaskStatusInProgress},
}

// ParseTaskStatus resolves s case-insensitively. Underscores and spaces are
// ignored so "in_progress" and "IN PROGRESS" both resolve to InProgress.
func ParseTaskStatus(s string) (TaskStatus, error) {
	key := normalizeEnum(s)
	for _, st := range TaskStatuses {
		if normalizeEnum(string(st)) == key {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether s is Done or Cancelled.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusDone || s == TaskStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Same-state moves are always allowed.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	if s == next {
		return s.Valid()
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Priority is the urgency of a task. LOW < MEDIUM < HIGH.
type Priority string

// Possible priority values
const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Priorities lists every priority in ascending order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority resolves s case-insensitively.
func ParsePriority(s string) (Priority, error) {
	key := normalizeEnum(s)
	for _, p := range Priorities {
		if normalizeEnum(string(p)) == key {
			return p, nil
		}
	}
	return "", ErrInvalidPriority
}

// Rank returns the ordinal of p (1 for LOW), or 0 if p is unknown.
func (p Priority) Rank() int {
	for i, candidate := range Priorities {
		if candidate == p {
			return i + 1
		}
	}
	return 0
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

func normalizeEnum(s string) string {
	r := strings.NewReplacer("_", "", " ", "", "-", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}

// DeadlinePolicy decides whether a deadline is far enough in the future.
type DeadlinePolicy interface {
	AtLeastTomorrow(deadline time.Time) bool
}

// Task is a unit of work with a deadline, optionally tied to an opportunity
// and assigned to a user.
type Task struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	Title          string        `db:"title" json:"title"`
	Description    string        `db:"description" json:"description"`
	Deadline       time.Time     `db:"deadline" json:"deadline"`
	Priority       Priority      `db:"priority" json:"priority"`
	Status         TaskStatus    `db:"status" json:"status"`
	Type           string        `db:"type" json:"type"`
	CompletedAt    *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
	Archived       bool          `db:"archived" json:"archived"`
	OpportunityID  uuid.NullUUID `db:"opportunity_id" json:"opportunity_id"`
	AssignedUserID uuid.NullUUID `db:"assigned_user_id" json:"assigned_user_id"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// NewTaskParams carries the caller-supplied fields of a new task.
type NewTaskParams struct {
	Title          string
	Description    string
	Deadline       time.Time
	Priority       Priority
	Type           string
	OpportunityID  uuid.NullUUID
	AssignedUserID uuid.NullUUID
}

// NewTask creates a ToDo task. The deadline must satisfy policy; priority
// defaults to MEDIUM.
func NewTask(p NewTaskParams, now time.Time, policy DeadlinePolicy) (*Task, error) {
	if p.Priority == "" {
		p.Priority = PriorityMedium
	}
	if p.Deadline.IsZero() {
		return nil, ErrMissingDeadline
	}
	if !policy.AtLeastTomorrow(p.Deadline) {
		return nil, ErrDeadlineTooSoon
	}

	now = now.UTC()
	task := &Task{
		ID:             uuid.New(),
		Title:          strings.TrimSpace(p.Title),
		Description:    strings.TrimSpace(p.Description),
		Deadline:       p.Deadline.UTC(),
		Priority:       p.Priority,
		Status:         TaskStatusToDo,
		Type:           strings.TrimSpace(p.Type),
		OpportunityID:  p.OpportunityID,
		AssignedUserID: p.AssignedUserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks field presence and the lifecycle invariants.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyID
	}
	if t.Title == "" {
		return ErrEmptyTitle
	}
	if t.Description == "" {
		return ErrEmptyDescription
	}
	if t.Type == "" {
		return ErrEmptyTaskType
	}
	if t.Deadline.IsZero() {
		return ErrMissingDeadline
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}
	if t.Status.IsTerminal() != (t.CompletedAt != nil) {
		return NewValidationError("completed_at", "must be set exactly when the task is done or cancelled")
	}
	if t.Archived && !t.Status.IsTerminal() {
		return NewValidationError("archived", "only done or cancelled tasks can be archived")
	}
	return nil
}

// IsAssignedTo reports whether userID is the task's assignee.
func (t *Task) IsAssignedTo(userID uuid.UUID) bool {
	return t.AssignedUserID.Valid && t.AssignedUserID.UUID == userID
}

// TaskChanges describes an edit. Nil fields are left untouched.
// ClearOpportunity detaches the task from its opportunity and takes
// precedence over OpportunityID.
type TaskChanges struct {
	Title            *string
	Description      *string
	Deadline         *time.Time
	Priority         *Priority
	Type             *string
	OpportunityID    *uuid.UUID
	ClearOpportunity bool
}

// Apply edits the task's non-assignee fields. Archived tasks reject every
// edit; InProgress tasks reject any edit that would change a value.
// A changed deadline must satisfy policy. It reports whether anything changed.
func (t *Task) Apply(c TaskChanges, now time.Time, policy DeadlinePolicy) (bool, error) {
	if t.Archived {
		return false, ErrTaskArchived
	}

	next := *t
	if c.Title != nil {
		next.Title = strings.TrimSpace(*c.Title)
	}
	if c.Description != nil {
		next.Description = strings.TrimSpace(*c.Description)
	}
	if c.Type != nil {
		next.Type = strings.TrimSpace(*c.Type)
	}
	if c.Priority != nil {
		next.Priority = *c.Priority
	}
	if c.Deadline != nil {
		next.Deadline = c.Deadline.UTC()
	}
	switch {
	case c.ClearOpportunity:
		next.OpportunityID = uuid.NullUUID{}
	case c.OpportunityID != nil:
		next.OpportunityID = uuid.NullUUID{UUID: *c.OpportunityID, Valid: true}
	}

	deadlineChanged := !next.Deadline.Equal(t.Deadline)
	changed := next.Title != t.Title ||
		next.Description != t.Description ||
		next.Type != t.Type ||
		next.Priority != t.Priority ||
		deadlineChanged ||
		next.OpportunityID != t.OpportunityID

	if !changed {
		return false, nil
	}
	if t.Status == TaskStatusInProgress {
		return false, ErrTaskInProgress
	}
	if deadlineChanged && !policy.AtLeastTomorrow(next.Deadline) {
		return false, ErrDeadlineTooSoon
	}
	if err := next.Validate(); err != nil {
		return false, err
	}

	next.UpdatedAt = now.UTC()
	*t = next
	return true, nil
}

// Reassign sets the assignee. It is permitted in every non-archived state and
// reports whether the assignee actually changed.
func (t *Task) Reassign(assignee uuid.NullUUID, now time.Time) (bool, error) {
	if t.Archived {
		return false, ErrTaskArchived
	}
	if !assignee.Valid {
		assignee = uuid.NullUUID{}
	}
	if assignee == t.AssignedUserID {
		return false, nil
	}
	t.AssignedUserID = assignee
	t.UpdatedAt = now.UTC()
	return true, nil
}

// TransitionTo moves the task to next. Entering Done or Cancelled stamps
// CompletedAt; leaving them clears it. It reports whether the status changed.
func (t *Task) TransitionTo(next TaskStatus, now time.Time) (bool, error) {
	if !next.Valid() {
		return false, ErrInvalidStatus
	}
	if t.Archived {
		return false, ErrTaskArchived
	}
	if next == t.Status {
		return false, nil
	}
	if !t.Status.CanTransitionTo(next) {
		return false, ErrIllegalTransition
	}

	now = now.UTC()
	t.Status = next
	if next.IsTerminal() {
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
	t.UpdatedAt = now
	return true, nil
}

// Archive hides a settled task from default listings.
func (t *Task) Archive(now time.Time) error {
	if t.Archived {
		return ErrAlreadyArchived
	}
	if !t.Status.IsTerminal() {
		return ErrTaskNotTerminal
	}
	t.Archived = true
	t.UpdatedAt = now.UTC()
	return nil
}

// Detach applies the effect of the task's opportunity being removed: the
// link is cleared, the task is cancelled and archived. An existing
// completion time is kept.
func (t *Task) Detach(now time.Time) {
	now = now.UTC()
	t.OpportunityID = uuid.NullUUID{}
	if t.CompletedAt == nil || !t.Status.IsTerminal() {
		t.CompletedAt = &now
	}
	t.Status = TaskStatusCancelled
	t.Archived = true
	t.UpdatedAt = now
}
