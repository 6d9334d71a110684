package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// TaskStore implements store.TaskStore on sqlx.
type TaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewTaskStore creates a TaskStore. It accepts a database connection or
// transaction that is initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewTaskStore(db store.DBTX, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*TaskStore)(nil)

// WithTx implements store.TaskStore.WithTx.
func (s *TaskStore) WithTx(tx *sqlx.Tx) store.TaskStore {
	return &TaskStore{db: tx, logger: s.logger}
}

func (s *TaskStore) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// Create implements store.TaskStore.Create.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := s.log(ctx)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed before create",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := s.db.Rebind(`
		INSERT INTO tasks (id, title, description, deadline, priority, status, type,
			completed_at, archived, opportunity_id, assigned_user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Deadline.UTC(),
		task.Priority,
		task.Status,
		task.Type,
		utcPtr(task.CompletedAt),
		task.Archived,
		task.OpportunityID,
		task.AssignedUserID,
		task.CreatedAt.UTC(),
		task.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to insert task",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("task", "create", "insert failed", MapError(err))
	}

	log.Debug("task created", slog.String("task_id", task.ID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var task domain.Task
	query := s.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`)
	if err := s.db.GetContext(ctx, &task, query, id); err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrNotFound) {
			return nil, store.ErrTaskNotFound
		}
		s.log(ctx).Error("failed to get task",
			slog.String("task_id", id.String()),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "get", "select failed", mapped)
	}
	normalizeTask(&task)
	return &task, nil
}

// Update implements store.TaskStore.Update.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := s.log(ctx)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed before update",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := s.db.Rebind(`
		UPDATE tasks
		SET title = ?, description = ?, deadline = ?, priority = ?, status = ?, type = ?,
			completed_at = ?, archived = ?, opportunity_id = ?, assigned_user_id = ?, updated_at = ?
		WHERE id = ?`)

	result, err := s.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.Deadline.UTC(),
		task.Priority,
		task.Status,
		task.Type,
		utcPtr(task.CompletedAt),
		task.Archived,
		task.OpportunityID,
		task.AssignedUserID,
		task.UpdatedAt.UTC(),
		task.ID,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("task", "update", "update failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.Delete.
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		s.log(ctx).Error("failed to delete task",
			slog.String("task_id", id.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("task", "delete", "delete failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Find implements store.TaskStore.Find.
func (s *TaskStore) Find(ctx context.Context, q store.TaskQuery) (*store.TaskPage, error) {
	where, args, err := buildWhere(q.Where)
	if err != nil {
		return nil, err
	}
	orderBy, err := buildOrderBy(q.Sort)
	if err != nil {
		return nil, err
	}

	var total int
	countQuery := s.db.Rebind(`SELECT COUNT(*) FROM tasks` + where)
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		s.log(ctx).Error("failed to count tasks", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "find", "count failed", MapError(err))
	}

	listQuery := `SELECT ` + taskColumns + ` FROM tasks` + where + orderBy
	listArgs := args
	if q.Page.Size > 0 {
		listQuery += ` LIMIT ? OFFSET ?`
		listArgs = append(append([]any{}, args...), q.Page.Size, q.Page.Offset())
	}

	tasks := []*domain.Task{}
	if err := s.db.SelectContext(ctx, &tasks, s.db.Rebind(listQuery), listArgs...); err != nil {
		s.log(ctx).Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "find", "select failed", MapError(err))
	}
	for _, t := range tasks {
		normalizeTask(t)
	}

	return &store.TaskPage{
		Tasks: tasks,
		Total: total,
		Page:  q.Page.Number,
		Size:  q.Page.Size,
	}, nil
}

// FindAll implements store.TaskStore.FindAll.
func (s *TaskStore) FindAll(ctx context.Context, where ...store.Predicate) ([]*domain.Task, error) {
	page, err := s.Find(ctx, store.TaskQuery{
		Where: where,
		Sort:  store.Sort{Field: store.FieldDeadline},
	})
	if err != nil {
		return nil, err
	}
	return page.Tasks, nil
}

// ArchiveIfSettled implements store.TaskStore.ArchiveIfSettled.
func (s *TaskStore) ArchiveIfSettled(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	query := s.db.Rebind(`
		UPDATE tasks
		SET archived = ?, updated_at = ?
		WHERE id = ? AND archived = ? AND status IN (?, ?)`)

	result, err := s.db.ExecContext(ctx, query,
		true, now.UTC(), id, false, domain.TaskStatusDone, domain.TaskStatusCancelled)
	if err != nil {
		s.log(ctx).Error("failed to archive task",
			slog.String("task_id", id.String()),
			slog.String("error", err.Error()))
		return false, store.NewStoreError("task", "archive", "update failed", MapError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// UnassignUser implements store.TaskStore.UnassignUser.
func (s *TaskStore) UnassignUser(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	query := s.db.Rebind(`
		UPDATE tasks SET assigned_user_id = NULL, updated_at = ?
		WHERE assigned_user_id = ?`)

	result, err := s.db.ExecContext(ctx, query, now.UTC(), userID)
	if err != nil {
		s.log(ctx).Error("failed to unassign tasks",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return 0, store.NewStoreError("task", "unassign", "update failed", MapError(err))
	}
	return result.RowsAffected()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// normalizeTask reports every timestamp in UTC regardless of driver.
func normalizeTask(t *domain.Task) {
	t.Deadline = t.Deadline.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	t.CompletedAt = utcPtr(t.CompletedAt)
}
