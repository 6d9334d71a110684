// Package notify composes task notifications and stores them at most once
// per (user, type, link).
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskflow-api/internal/clock"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// Emitter creates task notifications. Deduplication is delegated to the
// store's atomic insert-if-absent, so concurrent emitters for the same key
// store exactly one row.
type Emitter struct {
	notifications store.NotificationStore
	opportunities store.OpportunityStore
	clock         *clock.Clock
	logger        *slog.Logger
}

// NewEmitter creates an Emitter. If logger is nil, a default logger will be used.
func NewEmitter(
	notifications store.NotificationStore,
	opportunities store.OpportunityStore,
	clk *clock.Clock,
	logger *slog.Logger,
) (*Emitter, error) {
	if notifications == nil {
		return nil, errors.New("notifications cannot be nil")
	}
	if opportunities == nil {
		return nil, errors.New("opportunities cannot be nil")
	}
	if clk == nil {
		return nil, errors.New("clock cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{
		notifications: notifications,
		opportunities: opportunities,
		clock:         clk,
		logger:        logger.With(slog.String("component", "notification_emitter")),
	}, nil
}

// WithTx returns an Emitter whose reads and writes run inside tx.
func (e *Emitter) WithTx(tx *sqlx.Tx) *Emitter {
	return &Emitter{
		notifications: e.notifications.WithTx(tx),
		opportunities: e.opportunities.WithTx(tx),
		clock:         e.clock,
		logger:        e.logger,
	}
}

// Emit notifies userID about task. It reports whether a new notification
// was stored; false means one with the same type and link already existed.
func (e *Emitter) Emit(ctx context.Context, userID uuid.UUID, task *domain.Task, typ domain.NotificationType) (bool, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	oppTitle := ""
	if typ == domain.NotificationTaskAssigned && task.OpportunityID.Valid {
		opp, err := e.opportunities.GetByID(ctx, task.OpportunityID.UUID)
		switch {
		case err == nil:
			oppTitle = opp.Title
		case errors.Is(err, store.ErrOpportunityNotFound):
		default:
			return false, fmt.Errorf("failed to load opportunity for notification: %w", err)
		}
	}

	n, err := domain.NewNotification(userID, typ, Message(task, oppTitle, typ), domain.TaskLink(task.ID), e.clock.Now())
	if err != nil {
		return false, err
	}

	created, err := e.notifications.InsertIfAbsent(ctx, n)
	if err != nil {
		log.Error("failed to store notification",
			slog.String("user_id", userID.String()),
			slog.String("task_id", task.ID.String()),
			slog.String("type", string(typ)),
			slog.String("error", err.Error()))
		return false, err
	}

	if created {
		log.Debug("notification created",
			slog.String("user_id", userID.String()),
			slog.String("task_id", task.ID.String()),
			slog.String("type", string(typ)))
	}
	return created, nil
}

// Message renders the text of a task notification.
func Message(task *domain.Task, opportunityTitle string, typ domain.NotificationType) string {
	switch typ {
	case domain.NotificationTaskAssigned:
		if opportunityTitle == "" {
			return "You have been assigned a new task: " + task.Title
		}
		return "You have been assigned a new task: " + task.Title + " for opportunity: " + opportunityTitle
	case domain.NotificationTaskUpcoming:
		return "Reminder: Task '" + task.Title + "' is due in 24 hours!"
	case domain.NotificationTaskOverdue:
		return "Task '" + task.Title + "' is overdue!"
	default:
		return "Notification for task: " + task.Title
	}
}
