package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// policyAfter accepts deadlines at or after its boundary.
type policyAfter time.Time

func (p policyAfter) AtLeastTomorrow(deadline time.Time) bool {
	return !deadline.Before(time.Time(p))
}

var (
	testNow    = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	testPolicy = policyAfter(testNow.Add(24 * time.Hour))
)

func newTestTask(t *testing.T) *Task {
	t.Helper()
	task, err := NewTask(NewTaskParams{
		Title:       "Call the client",
		Description: "Confirm the quote",
		Deadline:    testNow.Add(48 * time.Hour),
		Type:        "Call",
	}, testNow, testPolicy)
	require.NoError(t, err)
	return task
}

func ptr[T any](v T) *T { return &v }

func TestNewTask(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		task := newTestTask(t)
		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, TaskStatusToDo, task.Status)
		assert.Equal(t, PriorityMedium, task.Priority)
		assert.Nil(t, task.CompletedAt)
		assert.False(t, task.Archived)
		assert.Equal(t, testNow, task.CreatedAt)
	})

	tests := []struct {
		name    string
		params  NewTaskParams
		wantErr error
	}{
		{
			name:    "deadline exactly tomorrow accepted",
			params:  NewTaskParams{Title: "a", Description: "b", Type: "c", Deadline: testNow.Add(24 * time.Hour)},
			wantErr: nil,
		},
		{
			name:    "deadline too soon",
			params:  NewTaskParams{Title: "a", Description: "b", Type: "c", Deadline: testNow.Add(23 * time.Hour)},
			wantErr: ErrDeadlineTooSoon,
		},
		{
			name:    "missing deadline",
			params:  NewTaskParams{Title: "a", Description: "b", Type: "c"},
			wantErr: ErrMissingDeadline,
		},
		{
			name:    "blank title",
			params:  NewTaskParams{Title: "  ", Description: "b", Type: "c", Deadline: testNow.Add(48 * time.Hour)},
			wantErr: ErrEmptyTitle,
		},
		{
			name:    "blank type",
			params:  NewTaskParams{Title: "a", Description: "b", Deadline: testNow.Add(48 * time.Hour)},
			wantErr: ErrEmptyTaskType,
		},
		{
			name: "unknown priority",
			params: NewTaskParams{
				Title: "a", Description: "b", Type: "c",
				Deadline: testNow.Add(48 * time.Hour), Priority: "URGENT",
			},
			wantErr: ErrInvalidPriority,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTask(tc.params, testNow, testPolicy)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestTransitionTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from    TaskStatus
		to      TaskStatus
		allowed bool
	}{
		{TaskStatusToDo, TaskStatusInProgress, true},
		{TaskStatusToDo, TaskStatusDone, true},
		{TaskStatusToDo, TaskStatusCancelled, true},
		{TaskStatusInProgress, TaskStatusToDo, true},
		{TaskStatusInProgress, TaskStatusDone, true},
		{TaskStatusInProgress, TaskStatusCancelled, true},
		{TaskStatusDone, TaskStatusToDo, true},
		{TaskStatusDone, TaskStatusInProgress, true},
		{TaskStatusDone, TaskStatusCancelled, false},
		{TaskStatusCancelled, TaskStatusToDo, true},
		{TaskStatusCancelled, TaskStatusInProgress, true},
		{TaskStatusCancelled, TaskStatusDone, false},
	}

	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			task := newTestTask(t)
			task.Status = tc.from
			if tc.from.IsTerminal() {
				task.CompletedAt = ptr(testNow)
			}

			later := testNow.Add(time.Hour)
			changed, err := task.TransitionTo(tc.to, later)
			if !tc.allowed {
				require.ErrorIs(t, err, ErrIllegalTransition)
				assert.False(t, changed)
				assert.Equal(t, tc.from, task.Status)
				return
			}

			require.NoError(t, err)
			assert.True(t, changed)
			assert.Equal(t, tc.to, task.Status)
			if tc.to.IsTerminal() {
				require.NotNil(t, task.CompletedAt)
				assert.Equal(t, later, *task.CompletedAt)
			} else {
				assert.Nil(t, task.CompletedAt)
			}
			assert.NoError(t, task.Validate())
		})
	}
}

func TestTransitionToEdgeCases(t *testing.T) {
	t.Parallel()

	t.Run("same state is a no-op", func(t *testing.T) {
		task := newTestTask(t)
		changed, err := task.TransitionTo(TaskStatusToDo, testNow.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, testNow, task.UpdatedAt)
	})

	t.Run("archived task rejected", func(t *testing.T) {
		task := newTestTask(t)
		_, err := task.TransitionTo(TaskStatusDone, testNow)
		require.NoError(t, err)
		require.NoError(t, task.Archive(testNow))

		_, err = task.TransitionTo(TaskStatusToDo, testNow)
		require.ErrorIs(t, err, ErrTaskArchived)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("unknown target", func(t *testing.T) {
		task := newTestTask(t)
		_, err := task.TransitionTo("Paused", testNow)
		require.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestApply(t *testing.T) {
	t.Parallel()

	later := testNow.Add(time.Hour)

	t.Run("edits a ToDo task", func(t *testing.T) {
		task := newTestTask(t)
		changed, err := task.Apply(TaskChanges{
			Title:    ptr("Call the client again"),
			Priority: ptr(PriorityHigh),
		}, later, testPolicy)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, "Call the client again", task.Title)
		assert.Equal(t, PriorityHigh, task.Priority)
		assert.Equal(t, later, task.UpdatedAt)
	})

	t.Run("identical values are not a change", func(t *testing.T) {
		task := newTestTask(t)
		task.Status = TaskStatusInProgress
		changed, err := task.Apply(TaskChanges{Title: ptr(task.Title)}, later, testPolicy)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("in progress rejects field edits", func(t *testing.T) {
		task := newTestTask(t)
		task.Status = TaskStatusInProgress
		before := *task
		_, err := task.Apply(TaskChanges{Description: ptr("new")}, later, testPolicy)
		require.ErrorIs(t, err, ErrTaskInProgress)
		assert.Equal(t, before, *task)
	})

	t.Run("changed deadline must be at least tomorrow", func(t *testing.T) {
		task := newTestTask(t)
		_, err := task.Apply(TaskChanges{Deadline: ptr(testNow.Add(time.Hour))}, later, testPolicy)
		require.ErrorIs(t, err, ErrDeadlineTooSoon)
	})

	t.Run("unchanged past deadline is not revalidated", func(t *testing.T) {
		task := newTestTask(t)
		task.Deadline = testNow.Add(-time.Hour)
		_, err := task.Apply(TaskChanges{
			Deadline: ptr(task.Deadline),
			Title:    ptr("renamed"),
		}, later, testPolicy)
		require.NoError(t, err)
	})

	t.Run("archived rejects everything", func(t *testing.T) {
		task := newTestTask(t)
		task.Status = TaskStatusDone
		task.CompletedAt = ptr(testNow)
		task.Archived = true
		_, err := task.Apply(TaskChanges{}, later, testPolicy)
		require.ErrorIs(t, err, ErrTaskArchived)
	})

	t.Run("clear opportunity wins over set", func(t *testing.T) {
		task := newTestTask(t)
		task.OpportunityID = uuid.NullUUID{UUID: uuid.New(), Valid: true}
		changed, err := task.Apply(TaskChanges{
			OpportunityID:    ptr(uuid.New()),
			ClearOpportunity: true,
		}, later, testPolicy)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.False(t, task.OpportunityID.Valid)
	})
}

func TestReassign(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	assignee := uuid.NullUUID{UUID: userID, Valid: true}

	t.Run("allowed while in progress", func(t *testing.T) {
		task := newTestTask(t)
		task.Status = TaskStatusInProgress
		changed, err := task.Reassign(assignee, testNow)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.True(t, task.IsAssignedTo(userID))
	})

	t.Run("same assignee is a no-op", func(t *testing.T) {
		task := newTestTask(t)
		task.AssignedUserID = assignee
		changed, err := task.Reassign(assignee, testNow)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("archived rejected", func(t *testing.T) {
		task := newTestTask(t)
		task.Status = TaskStatusCancelled
		task.CompletedAt = ptr(testNow)
		task.Archived = true
		_, err := task.Reassign(assignee, testNow)
		require.ErrorIs(t, err, ErrTaskArchived)
	})
}

func TestArchive(t *testing.T) {
	t.Parallel()

	t.Run("requires terminal status", func(t *testing.T) {
		task := newTestTask(t)
		require.ErrorIs(t, task.Archive(testNow), ErrTaskNotTerminal)
	})

	t.Run("archives once", func(t *testing.T) {
		task := newTestTask(t)
		_, err := task.TransitionTo(TaskStatusCancelled, testNow)
		require.NoError(t, err)
		require.NoError(t, task.Archive(testNow))
		assert.True(t, task.Archived)
		assert.NoError(t, task.Validate())
		require.ErrorIs(t, task.Archive(testNow), ErrAlreadyArchived)
	})
}

func TestDetach(t *testing.T) {
	t.Parallel()

	oppID := uuid.NullUUID{UUID: uuid.New(), Valid: true}
	later := testNow.Add(time.Hour)

	t.Run("open task is cancelled now", func(t *testing.T) {
		task := newTestTask(t)
		task.OpportunityID = oppID
		task.Detach(later)

		assert.False(t, task.OpportunityID.Valid)
		assert.Equal(t, TaskStatusCancelled, task.Status)
		assert.True(t, task.Archived)
		require.NotNil(t, task.CompletedAt)
		assert.Equal(t, later, *task.CompletedAt)
		assert.NoError(t, task.Validate())
	})

	t.Run("done task keeps its completion time", func(t *testing.T) {
		task := newTestTask(t)
		task.OpportunityID = oppID
		_, err := task.TransitionTo(TaskStatusDone, testNow)
		require.NoError(t, err)

		task.Detach(later)
		assert.Equal(t, TaskStatusCancelled, task.Status)
		require.NotNil(t, task.CompletedAt)
		assert.Equal(t, testNow, *task.CompletedAt)
	})
}

func TestParseEnums(t *testing.T) {
	t.Parallel()

	statusCases := map[string]TaskStatus{
		"todo":        TaskStatusToDo,
		"IN_PROGRESS": TaskStatusInProgress,
		"inprogress":  TaskStatusInProgress,
		"Done":        TaskStatusDone,
		"cancelled":   TaskStatusCancelled,
	}
	for in, want := range statusCases {
		got, err := ParseTaskStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseTaskStatus("archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	p, err := ParsePriority("high")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)
	assert.Less(t, PriorityLow.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityHigh.Rank())
	_, err = ParsePriority("critical")
	assert.ErrorIs(t, err, ErrInvalidPriority)
}
