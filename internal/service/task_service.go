package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskflow-api/internal/access"
	"github.com/phrazzld/taskflow-api/internal/clock"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/filter"
	"github.com/phrazzld/taskflow-api/internal/notify"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// CreateTaskInput carries the fields of a new task. Status and Priority are
// optional and parsed case-insensitively.
type CreateTaskInput struct {
	Title          string
	Description    string
	Deadline       time.Time
	Priority       string
	Status         string
	Type           string
	OpportunityID  uuid.UUID
	AssignedUserID uuid.NullUUID
}

// UpdateTaskInput describes an edit. Nil fields are left unchanged.
type UpdateTaskInput struct {
	Title          *string
	Description    *string
	Deadline       *time.Time
	Priority       *string
	Status         *string
	Type           *string
	OpportunityID  *uuid.UUID
	AssignedUserID *uuid.UUID
}

// TaskService exposes the task lifecycle operations.
type TaskService interface {
	// CreateTask creates a task linked to an existing opportunity and
	// notifies the assignee, if any.
	CreateTask(ctx context.Context, principal *domain.Principal, in CreateTaskInput) (*domain.Task, error)

	// UpdateTask edits a task. A task in progress accepts only a new assignee.
	UpdateTask(ctx context.Context, principal *domain.Principal, id uuid.UUID, in UpdateTaskInput) (*domain.Task, error)

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, principal *domain.Principal, id uuid.UUID) error

	// ArchiveTask archives a done or cancelled task.
	ArchiveTask(ctx context.Context, principal *domain.Principal, id uuid.UUID) (*domain.Task, error)

	// GetTask returns one task.
	GetTask(ctx context.Context, principal *domain.Principal, id uuid.UUID) (*domain.Task, error)

	// ListTasks returns one page of the tasks matching params that the
	// principal may see.
	ListTasks(ctx context.Context, principal *domain.Principal, params filter.Params) (*store.TaskPage, error)

	// ListOpportunityTasks is ListTasks restricted to one opportunity. Only
	// elevated principals get ErrOpportunityNotFound for an unknown
	// opportunity; standard principals get an empty page either way.
	ListOpportunityTasks(ctx context.Context, principal *domain.Principal, opportunityID uuid.UUID, params filter.Params) (*store.TaskPage, error)

	// UpdateStatus moves a task through the lifecycle.
	UpdateStatus(ctx context.Context, principal *domain.Principal, id uuid.UUID, status string) (*domain.Task, error)

	// UnassignUserTasks clears the assignee of every task held by userID.
	// It is called when the user is removed.
	UnassignUserTasks(ctx context.Context, principal *domain.Principal, userID uuid.UUID) (int64, error)

	// DetachOpportunityTasks cancels and archives every task of an
	// opportunity that is being removed, and clears the link.
	DetachOpportunityTasks(ctx context.Context, principal *domain.Principal, opportunityID uuid.UUID) (int, error)
}

type taskServiceImpl struct {
	db            *sqlx.DB
	tasks         store.TaskStore
	users         store.UserStore
	opportunities store.OpportunityStore
	emitter       *notify.Emitter
	clock         *clock.Clock
	logger        *slog.Logger
}

// NewTaskService creates a TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	db *sqlx.DB,
	tasks store.TaskStore,
	users store.UserStore,
	opportunities store.OpportunityStore,
	emitter *notify.Emitter,
	clk *clock.Clock,
	logger *slog.Logger,
) (TaskService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil")
	}
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil")
	}
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil")
	}
	if opportunities == nil {
		return nil, domain.NewValidationError("opportunities", "cannot be nil")
	}
	if emitter == nil {
		return nil, domain.NewValidationError("emitter", "cannot be nil")
	}
	if clk == nil {
		return nil, domain.NewValidationError("clock", "cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		db:            db,
		tasks:         tasks,
		users:         users,
		opportunities: opportunities,
		emitter:       emitter,
		clock:         clk,
		logger:        logger.With(slog.String("component", "task_service")),
	}, nil
}

// txDeps is the set of stores bound to one transaction.
type txDeps struct {
	tasks         store.TaskStore
	users         store.UserStore
	opportunities store.OpportunityStore
	emitter       *notify.Emitter
}

func (s *taskServiceImpl) inTx(ctx context.Context, fn func(ctx context.Context, d txDeps) error) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		return fn(ctx, txDeps{
			tasks:         s.tasks.WithTx(tx),
			users:         s.users.WithTx(tx),
			opportunities: s.opportunities.WithTx(tx),
			emitter:       s.emitter.WithTx(tx),
		})
	})
}

// CreateTask implements TaskService.CreateTask.
func (s *taskServiceImpl) CreateTask(ctx context.Context, principal *domain.Principal, in CreateTaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if principal == nil {
		return nil, domain.ErrUnauthenticated
	}
	if err := access.CanAssign(principal, in.AssignedUserID); err != nil {
		return nil, err
	}
	if in.OpportunityID == uuid.Nil {
		return nil, domain.NewValidationError("opportunityId", "is required")
	}

	priority, err := parseOptional(in.Priority, domain.ParsePriority)
	if err != nil {
		return nil, err
	}
	status, err := parseOptional(in.Status, domain.ParseTaskStatus)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	task, err := domain.NewTask(domain.NewTaskParams{
		Title:          in.Title,
		Description:    in.Description,
		Deadline:       in.Deadline,
		Priority:       priority,
		Type:           in.Type,
		OpportunityID:  uuid.NullUUID{UUID: in.OpportunityID, Valid: true},
		AssignedUserID: in.AssignedUserID,
	}, now, s.clock)
	if err != nil {
		return nil, err
	}
	if status != "" {
		if _, err := task.TransitionTo(status, now); err != nil {
			return nil, err
		}
	}

	err = s.inTx(ctx, func(ctx context.Context, d txDeps) error {
		if _, err := d.opportunities.GetByID(ctx, in.OpportunityID); err != nil {
			return lookupError("create_task", "opportunity lookup failed", err)
		}
		if in.AssignedUserID.Valid {
			if _, err := d.users.GetByID(ctx, in.AssignedUserID.UUID); err != nil {
				return lookupError("create_task", "assignee lookup failed", err)
			}
		}
		if err := d.tasks.Create(ctx, task); err != nil {
			return NewTaskServiceError("create_task", "failed to save task", err)
		}
		if in.AssignedUserID.Valid {
			if _, err := d.emitter.Emit(ctx, in.AssignedUserID.UUID, task, domain.NotificationTaskAssigned); err != nil {
				return NewTaskServiceError("create_task", "failed to notify assignee", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("principal_id", principal.UserID.String()))
	return task, nil
}

// UpdateTask implements TaskService.UpdateTask.
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	principal *domain.Principal,
	id uuid.UUID,
	in UpdateTaskInput,
) (*domain.Task, error) {
	changes := domain.TaskChanges{
		Title:         in.Title,
		Description:   in.Description,
		Deadline:      in.Deadline,
		Type:          in.Type,
		OpportunityID: in.OpportunityID,
	}
	if in.Priority != nil {
		p, err := domain.ParsePriority(*in.Priority)
		if err != nil {
			return nil, err
		}
		changes.Priority = &p
	}
	var status *domain.TaskStatus
	if in.Status != nil {
		st, err := domain.ParseTaskStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		status = &st
	}
	var assignee uuid.NullUUID
	if in.AssignedUserID != nil {
		assignee = uuid.NullUUID{UUID: *in.AssignedUserID, Valid: true}
		if err := access.CanAssign(principal, assignee); err != nil {
			return nil, err
		}
	}

	var task *domain.Task
	err := s.inTx(ctx, func(ctx context.Context, d txDeps) error {
		var err error
		task, err = s.loadAccessible(ctx, d.tasks, principal, id, "update_task")
		if err != nil {
			return err
		}
		if task.Archived {
			return domain.ErrTaskArchived
		}

		now := s.clock.Now()
		if in.OpportunityID != nil {
			if _, err := d.opportunities.GetByID(ctx, *in.OpportunityID); err != nil {
				return lookupError("update_task", "opportunity lookup failed", err)
			}
		}

		edited, err := task.Apply(changes, now, s.clock)
		if err != nil {
			return err
		}

		moved := false
		if status != nil && *status != task.Status {
			if task.Status == domain.TaskStatusInProgress {
				return domain.ErrTaskInProgress
			}
			if moved, err = task.TransitionTo(*status, now); err != nil {
				return err
			}
		}

		reassigned := false
		if assignee.Valid {
			if _, err := d.users.GetByID(ctx, assignee.UUID); err != nil {
				return lookupError("update_task", "assignee lookup failed", err)
			}
			if reassigned, err = task.Reassign(assignee, now); err != nil {
				return err
			}
		}

		if !edited && !moved && !reassigned {
			return nil
		}
		if err := d.tasks.Update(ctx, task); err != nil {
			return NewTaskServiceError("update_task", "failed to save task", err)
		}
		if reassigned {
			if _, err := d.emitter.Emit(ctx, assignee.UUID, task, domain.NotificationTaskAssigned); err != nil {
				return NewTaskServiceError("update_task", "failed to notify assignee", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask implements TaskService.DeleteTask.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, principal *domain.Principal, id uuid.UUID) error {
	return s.inTx(ctx, func(ctx context.Context, d txDeps) error {
		if _, err := s.loadAccessible(ctx, d.tasks, principal, id, "delete_task"); err != nil {
			return err
		}
		if err := d.tasks.Delete(ctx, id); err != nil {
			return NewTaskServiceError("delete_task", "failed to delete task", err)
		}
		logger.FromContextOrDefault(ctx, s.logger).Info("task deleted",
			slog.String("task_id", id.String()),
			slog.String("principal_id", principal.UserID.String()))
		return nil
	})
}

// ArchiveTask implements TaskService.ArchiveTask.
func (s *taskServiceImpl) ArchiveTask(ctx context.Context, principal *domain.Principal, id uuid.UUID) (*domain.Task, error) {
	var task *domain.Task
	err := s.inTx(ctx, func(ctx context.Context, d txDeps) error {
		var err error
		if task, err = s.loadAccessible(ctx, d.tasks, principal, id, "archive_task"); err != nil {
			return err
		}
		if err := task.Archive(s.clock.Now()); err != nil {
			return err
		}
		if err := d.tasks.Update(ctx, task); err != nil {
			return NewTaskServiceError("archive_task", "failed to save task", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask implements TaskService.GetTask.
func (s *taskServiceImpl) GetTask(ctx context.Context, principal *domain.Principal, id uuid.UUID) (*domain.Task, error) {
	return s.loadAccessible(ctx, s.tasks, principal, id, "get_task")
}

// ListTasks implements TaskService.ListTasks.
func (s *taskServiceImpl) ListTasks(ctx context.Context, principal *domain.Principal, params filter.Params) (*store.TaskPage, error) {
	spec, err := filter.Normalize(ctx, params, s.clock)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, principal, spec, "list_tasks")
}

// ListOpportunityTasks implements TaskService.ListOpportunityTasks.
func (s *taskServiceImpl) ListOpportunityTasks(
	ctx context.Context,
	principal *domain.Principal,
	opportunityID uuid.UUID,
	params filter.Params,
) (*store.TaskPage, error) {
	params.OpportunityID = ""
	spec, err := filter.Normalize(ctx, params, s.clock)
	if err != nil {
		return nil, err
	}
	if principal == nil {
		return nil, domain.ErrUnauthenticated
	}
	if principal.IsElevated() {
		if _, err := s.opportunities.GetByID(ctx, opportunityID); err != nil {
			return nil, lookupError("list_opportunity_tasks", "opportunity lookup failed", err)
		}
	}
	spec.OpportunityID = uuid.NullUUID{UUID: opportunityID, Valid: true}
	return s.find(ctx, principal, spec, "list_opportunity_tasks")
}

func (s *taskServiceImpl) find(ctx context.Context, principal *domain.Principal, spec filter.Spec, op string) (*store.TaskPage, error) {
	spec, err := filter.Scope(spec, principal)
	if err != nil {
		return nil, err
	}
	page, err := s.tasks.Find(ctx, filter.Query(spec))
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError(op, "failed to query tasks", err)
	}
	return page, nil
}

// UpdateStatus implements TaskService.UpdateStatus.
func (s *taskServiceImpl) UpdateStatus(
	ctx context.Context,
	principal *domain.Principal,
	id uuid.UUID,
	status string,
) (*domain.Task, error) {
	next, err := domain.ParseTaskStatus(status)
	if err != nil {
		return nil, err
	}

	var task *domain.Task
	err = s.inTx(ctx, func(ctx context.Context, d txDeps) error {
		var err error
		if task, err = s.loadAccessible(ctx, d.tasks, principal, id, "update_status"); err != nil {
			return err
		}
		changed, err := task.TransitionTo(next, s.clock.Now())
		if err != nil || !changed {
			return err
		}
		if err := d.tasks.Update(ctx, task); err != nil {
			return NewTaskServiceError("update_status", "failed to save task", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UnassignUserTasks implements TaskService.UnassignUserTasks.
func (s *taskServiceImpl) UnassignUserTasks(ctx context.Context, principal *domain.Principal, userID uuid.UUID) (int64, error) {
	if err := access.RequireElevated(principal); err != nil {
		return 0, err
	}
	n, err := s.tasks.UnassignUser(ctx, userID, s.clock.Now())
	if err != nil {
		return 0, NewTaskServiceError("unassign_user_tasks", "failed to unassign tasks", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("unassigned tasks from user",
		slog.String("user_id", userID.String()),
		slog.Int64("task_count", n))
	return n, nil
}

// DetachOpportunityTasks implements TaskService.DetachOpportunityTasks.
func (s *taskServiceImpl) DetachOpportunityTasks(ctx context.Context, principal *domain.Principal, opportunityID uuid.UUID) (int, error) {
	if err := access.RequireElevated(principal); err != nil {
		return 0, err
	}

	var count int
	err := s.inTx(ctx, func(ctx context.Context, d txDeps) error {
		tasks, err := d.tasks.FindAll(ctx, store.Eq(store.FieldOpportunity, opportunityID))
		if err != nil {
			return NewTaskServiceError("detach_opportunity_tasks", "failed to load tasks", err)
		}
		now := s.clock.Now()
		for _, task := range tasks {
			task.Detach(now)
			if err := d.tasks.Update(ctx, task); err != nil {
				return NewTaskServiceError("detach_opportunity_tasks", "failed to save task", err)
			}
		}
		count = len(tasks)
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("detached tasks from opportunity",
		slog.String("opportunity_id", opportunityID.String()),
		slog.Int("task_count", count))
	return count, nil
}

// loadAccessible fetches a task and applies the access guard. A missing task
// is reported before a forbidden one.
func (s *taskServiceImpl) loadAccessible(
	ctx context.Context,
	tasks store.TaskStore,
	principal *domain.Principal,
	id uuid.UUID,
	op string,
) (*domain.Task, error) {
	if principal == nil {
		return nil, domain.ErrUnauthenticated
	}
	task, err := tasks.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(op, "task lookup failed", err)
	}
	if err := access.CanAccessTask(principal, task); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("task access denied",
			slog.String("operation", op),
			slog.String("task_id", id.String()),
			slog.String("principal_id", principal.UserID.String()))
		return nil, err
	}
	return task, nil
}

// lookupError passes not-found errors through unchanged and wraps anything else.
func lookupError(op, message string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return NewTaskServiceError(op, message, err)
}

func parseOptional[T ~string](s string, parse func(string) (T, error)) (T, error) {
	if s == "" {
		return "", nil
	}
	return parse(s)
}
