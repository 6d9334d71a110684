package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// TaskPage is one page of a task listing.
type TaskPage struct {
	Tasks []*domain.Task
	Total int
	Page  int
	Size  int
}

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	// Create saves a new task. Returns ErrInvalidEntity if a referenced
	// user or opportunity does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task. Returns ErrTaskNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update writes every mutable column of task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task. Returns ErrTaskNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Find returns the page of tasks matching every predicate of q,
	// together with the total match count.
	Find(ctx context.Context, q TaskQuery) (*TaskPage, error)

	// FindAll returns every task matching the predicates, ordered by deadline.
	FindAll(ctx context.Context, where ...Predicate) ([]*domain.Task, error)

	// ArchiveIfSettled archives the task only if it is still unarchived and
	// Done or Cancelled at write time. It reports whether a row changed.
	ArchiveIfSettled(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)

	// UnassignUser clears the assignee on every task assigned to userID and
	// returns the number of tasks changed.
	UnassignUser(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)

	// WithTx returns a TaskStore bound to tx.
	WithTx(tx *sqlx.Tx) TaskStore
}

// NotificationStore defines the interface for notification persistence.
type NotificationStore interface {
	// InsertIfAbsent stores n unless a notification with the same user,
	// type and link exists. The check and insert are a single atomic
	// statement. It reports whether n was stored.
	InsertIfAbsent(ctx context.Context, n *domain.Notification) (bool, error)

	// GetByID retrieves a notification. Returns ErrNotificationNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error)

	// ListByUser returns the user's notifications, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*domain.Notification, error)

	// CountUnread returns the number of unread notifications for the user.
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)

	// MarkRead flags a notification as read.
	// Returns ErrNotificationNotFound if it does not exist.
	MarkRead(ctx context.Context, id uuid.UUID) error

	// WithTx returns a NotificationStore bound to tx.
	WithTx(tx *sqlx.Tx) NotificationStore
}

// UserStore exposes the minimal user lookups the engine needs.
type UserStore interface {
	// Create saves a new user. Returns ErrEmailExists on a duplicate email.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user. Returns ErrUserNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// WithTx returns a UserStore bound to tx.
	WithTx(tx *sqlx.Tx) UserStore
}

// OpportunityStore exposes the opportunity lookups the engine needs.
type OpportunityStore interface {
	// Create saves a new opportunity.
	Create(ctx context.Context, opp *domain.Opportunity) error

	// GetByID retrieves an opportunity.
	// Returns ErrOpportunityNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Opportunity, error)

	// UpdateStatus changes the disposition of an opportunity.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OpportunityStatus) error

	// WithTx returns an OpportunityStore bound to tx.
	WithTx(tx *sqlx.Tx) OpportunityStore
}
