package testdb

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/sqlstore"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/stretchr/testify/require"
)

// CreateUser inserts a user with the given role and a unique email.
func CreateUser(t *testing.T, db store.DBTX, role domain.Role) *domain.User {
	t.Helper()

	user, err := domain.NewUser(uuid.NewString()+"@example.com", role, time.Now())
	require.NoError(t, err)
	require.NoError(t, sqlstore.NewUserStore(db, nil).Create(context.Background(), user))
	return user
}

// CreateOpportunity inserts an opportunity with the given status.
func CreateOpportunity(t *testing.T, db store.DBTX, title string, status domain.OpportunityStatus) *domain.Opportunity {
	t.Helper()

	opp, err := domain.NewOpportunity(title, time.Now())
	require.NoError(t, err)
	opp.Status = status
	require.NoError(t, sqlstore.NewOpportunityStore(db, nil).Create(context.Background(), opp))
	return opp
}

// TaskOption adjusts a fixture task before it is inserted.
type TaskOption func(*domain.Task)

// AssignedTo sets the task's assignee.
func AssignedTo(userID uuid.UUID) TaskOption {
	return func(t *domain.Task) {
		t.AssignedUserID = uuid.NullUUID{UUID: userID, Valid: true}
	}
}

// ForOpportunity links the task to an opportunity.
func ForOpportunity(oppID uuid.UUID) TaskOption {
	return func(t *domain.Task) {
		t.OpportunityID = uuid.NullUUID{UUID: oppID, Valid: true}
	}
}

// DueAt sets the task deadline.
func DueAt(deadline time.Time) TaskOption {
	return func(t *domain.Task) {
		t.Deadline = deadline.UTC()
	}
}

// WithStatus sets the status, stamping the completion time for terminal states.
func WithStatus(status domain.TaskStatus) TaskOption {
	return func(t *domain.Task) {
		t.Status = status
		t.CompletedAt = nil
		if status.IsTerminal() {
			completed := t.UpdatedAt
			t.CompletedAt = &completed
		}
	}
}

// Archived marks the task archived. Apply it after a terminal WithStatus.
func Archived() TaskOption {
	return func(t *domain.Task) {
		t.Archived = true
	}
}

// WithTitle sets the task title.
func WithTitle(title string) TaskOption {
	return func(t *domain.Task) {
		t.Title = title
	}
}

// WithPriority sets the task priority.
func WithPriority(p domain.Priority) TaskOption {
	return func(t *domain.Task) {
		t.Priority = p
	}
}

// InsertTask stores a valid ToDo task, due in a week unless overridden.
// It writes through the store directly and bypasses the deadline policy so
// tests can create tasks that are already overdue.
func InsertTask(t *testing.T, db store.DBTX, opts ...TaskOption) *domain.Task {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	task := &domain.Task{
		ID:          uuid.New(),
		Title:       "Follow up",
		Description: "Call the client back",
		Deadline:    now.Add(7 * 24 * time.Hour),
		Priority:    domain.PriorityMedium,
		Status:      domain.TaskStatusToDo,
		Type:        "Call",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(task)
	}
	require.NoError(t, sqlstore.NewTaskStore(db, nil).Create(context.Background(), task))
	return task
}
