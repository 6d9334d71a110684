package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

const notificationColumns = `id, user_id, message, type, link, is_read, created_at`

// NotificationStore implements store.NotificationStore on sqlx.
type NotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewNotificationStore creates a NotificationStore.
// If logger is nil, a default logger will be used.
func NewNotificationStore(db store.DBTX, logger *slog.Logger) *NotificationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_store")),
	}
}

var _ store.NotificationStore = (*NotificationStore)(nil)

// WithTx implements store.NotificationStore.WithTx.
func (s *NotificationStore) WithTx(tx *sqlx.Tx) store.NotificationStore {
	return &NotificationStore{db: tx, logger: s.logger}
}

// InsertIfAbsent implements store.NotificationStore.InsertIfAbsent.
// The unique (user_id, type, link) constraint arbitrates concurrent
// emitters; the loser's insert is a no-op.
func (s *NotificationStore) InsertIfAbsent(ctx context.Context, n *domain.Notification) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := n.Validate(); err != nil {
		return false, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := s.db.Rebind(`
		INSERT INTO notifications (id, user_id, message, type, link, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, type, link) DO NOTHING`)

	result, err := s.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Message, n.Type, n.Link, n.Read, n.CreatedAt.UTC())
	if err != nil {
		log.Error("failed to insert notification",
			slog.String("user_id", n.UserID.String()),
			slog.String("type", string(n.Type)),
			slog.String("link", n.Link),
			slog.String("error", err.Error()))
		return false, store.NewStoreError("notification", "insert", "insert failed", MapError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// GetByID implements store.NotificationStore.GetByID.
func (s *NotificationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	var n domain.Notification
	query := s.db.Rebind(`SELECT ` + notificationColumns + ` FROM notifications WHERE id = ?`)
	if err := s.db.GetContext(ctx, &n, query, id); err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrNotFound) {
			return nil, store.ErrNotificationNotFound
		}
		return nil, store.NewStoreError("notification", "get", "select failed", mapped)
	}
	n.CreatedAt = n.CreatedAt.UTC()
	return &n, nil
}

// ListByUser implements store.NotificationStore.ListByUser.
func (s *NotificationStore) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = ?`
	args := []any{userID}
	if unreadOnly {
		query += ` AND is_read = ?`
		args = append(args, false)
	}
	query += ` ORDER BY created_at DESC, id ASC`

	out := []*domain.Notification{}
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(query), args...); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list notifications",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("notification", "list", "select failed", MapError(err))
	}
	for _, n := range out {
		n.CreatedAt = n.CreatedAt.UTC()
	}
	return out, nil
}

// CountUnread implements store.NotificationStore.CountUnread.
func (s *NotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := s.db.Rebind(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = ?`)
	if err := s.db.GetContext(ctx, &count, query, userID, false); err != nil {
		return 0, store.NewStoreError("notification", "count", "select failed", MapError(err))
	}
	return count, nil
}

// MarkRead implements store.NotificationStore.MarkRead.
func (s *NotificationStore) MarkRead(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE notifications SET is_read = ? WHERE id = ?`), true, id)
	if err != nil {
		return store.NewStoreError("notification", "mark_read", "update failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrNotificationNotFound)
}
