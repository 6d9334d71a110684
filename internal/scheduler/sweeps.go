package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/clock"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// Notifier emits a task notification at most once per user, type and link.
type Notifier interface {
	Emit(ctx context.Context, userID uuid.UUID, task *domain.Task, typ domain.NotificationType) (bool, error)
}

// sweepWindow is the fixed span ahead of now for upcoming reminders and
// behind now for archival. It is elapsed time, not calendar days.
const sweepWindow = 24 * time.Hour

// epoch is the lower bound of the archival window. Tasks with a zero
// deadline are never archived by the sweep.
var epoch = time.Unix(0, 0).UTC()

// OverdueSweep notifies assignees of in-progress tasks past their deadline.
type OverdueSweep struct {
	tasks    store.TaskStore
	notifier Notifier
	clock    *clock.Clock
	logger   *slog.Logger
}

// NewOverdueSweep creates the overdue job.
func NewOverdueSweep(tasks store.TaskStore, notifier Notifier, clk *clock.Clock, logger *slog.Logger) *OverdueSweep {
	return &OverdueSweep{tasks: tasks, notifier: notifier, clock: clk, logger: componentLogger(logger, JobOverdue)}
}

// Name implements Job.
func (s *OverdueSweep) Name() string { return JobOverdue }

// Run implements Job.
func (s *OverdueSweep) Run(ctx context.Context) (Result, error) {
	now := s.clock.Now()
	tasks, err := s.tasks.FindAll(ctx,
		store.Eq(store.FieldStatus, domain.TaskStatusInProgress),
		store.Before(store.FieldDeadline, now),
		store.NotNull(store.FieldAssignee),
	)
	if err != nil {
		return Result{}, fmt.Errorf("failed to select overdue tasks: %w", err)
	}
	return notifyAssignees(ctx, s.notifier, tasks, domain.NotificationTaskOverdue, s.logger), nil
}

// UpcomingSweep reminds assignees of open tasks due within the next day.
type UpcomingSweep struct {
	tasks    store.TaskStore
	notifier Notifier
	clock    *clock.Clock
	logger   *slog.Logger
}

// NewUpcomingSweep creates the upcoming-deadline job.
func NewUpcomingSweep(tasks store.TaskStore, notifier Notifier, clk *clock.Clock, logger *slog.Logger) *UpcomingSweep {
	return &UpcomingSweep{tasks: tasks, notifier: notifier, clock: clk, logger: componentLogger(logger, JobUpcoming)}
}

// Name implements Job.
func (s *UpcomingSweep) Name() string { return JobUpcoming }

// Run implements Job.
func (s *UpcomingSweep) Run(ctx context.Context) (Result, error) {
	now := s.clock.Now()
	tasks, err := s.tasks.FindAll(ctx,
		store.NotIn(store.FieldStatus, domain.TaskStatusDone, domain.TaskStatusCancelled),
		store.Between(store.FieldDeadline, now, now.Add(sweepWindow)),
		store.NotNull(store.FieldAssignee),
	)
	if err != nil {
		return Result{}, fmt.Errorf("failed to select upcoming tasks: %w", err)
	}
	return notifyAssignees(ctx, s.notifier, tasks, domain.NotificationTaskUpcoming, s.logger), nil
}

// ArchivalSweep archives settled tasks whose deadline passed more than a
// day ago and whose opportunity has closed.
type ArchivalSweep struct {
	tasks         store.TaskStore
	opportunities store.OpportunityStore
	clock         *clock.Clock
	logger        *slog.Logger
}

// NewArchivalSweep creates the archive job.
func NewArchivalSweep(tasks store.TaskStore, opportunities store.OpportunityStore, clk *clock.Clock, logger *slog.Logger) *ArchivalSweep {
	return &ArchivalSweep{tasks: tasks, opportunities: opportunities, clock: clk, logger: componentLogger(logger, JobArchive)}
}

// Name implements Job.
func (s *ArchivalSweep) Name() string { return JobArchive }

// Run implements Job.
func (s *ArchivalSweep) Run(ctx context.Context) (Result, error) {
	now := s.clock.Now()
	tasks, err := s.tasks.FindAll(ctx,
		store.NotIn(store.FieldStatus, domain.TaskStatusToDo, domain.TaskStatusInProgress),
		store.Eq(store.FieldArchived, false),
		store.After(store.FieldDeadline, epoch),
		store.AtMost(store.FieldDeadline, now.Add(-sweepWindow)),
		store.NotNull(store.FieldOpportunity),
	)
	if err != nil {
		return Result{}, fmt.Errorf("failed to select archivable tasks: %w", err)
	}

	res := Result{Selected: len(tasks)}
	for _, task := range tasks {
		archived, err := s.archive(ctx, task, now)
		switch {
		case err != nil:
			res.Failed++
			s.logger.Error("failed to archive task",
				slog.String("task_id", task.ID.String()),
				slog.String("error", err.Error()))
		case archived:
			res.Applied++
		default:
			res.Skipped++
		}
	}
	return res, nil
}

func (s *ArchivalSweep) archive(ctx context.Context, task *domain.Task, now time.Time) (bool, error) {
	opp, err := s.opportunities.GetByID(ctx, task.OpportunityID.UUID)
	if errors.Is(err, store.ErrOpportunityNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !opp.Status.IsClosed() {
		return false, nil
	}
	return s.tasks.ArchiveIfSettled(ctx, task.ID, now)
}

// notifyAssignees emits typ for every assigned task. A failure for one
// task is logged and does not stop the others.
func notifyAssignees(ctx context.Context, n Notifier, tasks []*domain.Task, typ domain.NotificationType, logger *slog.Logger) Result {
	res := Result{Selected: len(tasks)}
	for _, task := range tasks {
		if !task.AssignedUserID.Valid {
			res.Skipped++
			continue
		}
		created, err := n.Emit(ctx, task.AssignedUserID.UUID, task, typ)
		switch {
		case err != nil:
			res.Failed++
			logger.Error("failed to emit notification",
				slog.String("task_id", task.ID.String()),
				slog.String("user_id", task.AssignedUserID.UUID.String()),
				slog.String("error", err.Error()))
		case created:
			res.Applied++
		default:
			res.Skipped++
		}
	}
	return res
}

func componentLogger(logger *slog.Logger, job string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("component", "sweep"), slog.String("job", job))
}
