package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// NotificationService exposes a principal's notification inbox.
type NotificationService interface {
	// List returns the principal's notifications, newest first.
	List(ctx context.Context, principal *domain.Principal, unreadOnly bool) ([]*domain.Notification, error)

	// CountUnread returns the number of unread notifications of the principal.
	CountUnread(ctx context.Context, principal *domain.Principal) (int, error)

	// MarkRead flags one of the principal's notifications as read.
	MarkRead(ctx context.Context, principal *domain.Principal, id uuid.UUID) error
}

type notificationServiceImpl struct {
	notifications store.NotificationStore
	logger        *slog.Logger
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(notifications store.NotificationStore, logger *slog.Logger) (NotificationService, error) {
	if notifications == nil {
		return nil, domain.NewValidationError("notifications", "cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &notificationServiceImpl{
		notifications: notifications,
		logger:        logger.With(slog.String("component", "notification_service")),
	}, nil
}

// List implements NotificationService.List.
func (s *notificationServiceImpl) List(ctx context.Context, principal *domain.Principal, unreadOnly bool) ([]*domain.Notification, error) {
	if principal == nil {
		return nil, domain.ErrUnauthenticated
	}
	list, err := s.notifications.ListByUser(ctx, principal.UserID, unreadOnly)
	if err != nil {
		return nil, NewNotificationServiceError("list", "failed to list notifications", err)
	}
	return list, nil
}

// CountUnread implements NotificationService.CountUnread.
func (s *notificationServiceImpl) CountUnread(ctx context.Context, principal *domain.Principal) (int, error) {
	if principal == nil {
		return 0, domain.ErrUnauthenticated
	}
	n, err := s.notifications.CountUnread(ctx, principal.UserID)
	if err != nil {
		return 0, NewNotificationServiceError("count_unread", "failed to count notifications", err)
	}
	return n, nil
}

// MarkRead implements NotificationService.MarkRead. Only the recipient may
// mark a notification read.
func (s *notificationServiceImpl) MarkRead(ctx context.Context, principal *domain.Principal, id uuid.UUID) error {
	if principal == nil {
		return domain.ErrUnauthenticated
	}

	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return lookupError("mark_read", "notification lookup failed", err)
	}
	if n.UserID != principal.UserID {
		logger.FromContextOrDefault(ctx, s.logger).Warn("notification belongs to another user",
			slog.String("notification_id", id.String()),
			slog.String("principal_id", principal.UserID.String()))
		return domain.ErrForbidden
	}
	if n.Read {
		return nil
	}
	if err := s.notifications.MarkRead(ctx, id); err != nil {
		return NewNotificationServiceError("mark_read", "failed to update notification", err)
	}
	return nil
}
