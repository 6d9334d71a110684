package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies a notification. Together with the user and
// link it forms the deduplication key.
type NotificationType string

// Task-driven notification types
const (
	NotificationTaskAssigned NotificationType = "TASK_ASSIGNED"
	NotificationTaskUpcoming NotificationType = "TASK_UPCOMING"
	NotificationTaskOverdue  NotificationType = "TASK_OVERDUE"
)

// Account-level notification types, emitted by collaborators.
const (
	NotificationPasswordChange NotificationType = "PASSWORD_CHANGE"
	NotificationTwoFAEnabled   NotificationType = "TWO_FA_ENABLED"
	NotificationTwoFADisabled  NotificationType = "TWO_FA_DISABLED"
	NotificationUserCreated    NotificationType = "USER_CREATED"
	NotificationUserDeleted    NotificationType = "USER_DELETED"
	NotificationContactCreated NotificationType = "CONTACT_CREATED"
)

var notificationTypes = map[NotificationType]struct{}{
	NotificationTaskAssigned:   {},
	NotificationTaskUpcoming:   {},
	NotificationTaskOverdue:    {},
	NotificationPasswordChange: {},
	NotificationTwoFAEnabled:   {},
	NotificationTwoFADisabled:  {},
	NotificationUserCreated:    {},
	NotificationUserDeleted:    {},
	NotificationContactCreated: {},
}

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	_, ok := notificationTypes[t]
	return ok
}

// Notification is a message delivered to a user's inbox.
type Notification struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	UserID    uuid.UUID        `db:"user_id" json:"user_id"`
	Message   string           `db:"message" json:"message"`
	Type      NotificationType `db:"type" json:"type"`
	Link      string           `db:"link" json:"link"`
	Read      bool             `db:"is_read" json:"read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// NewNotification creates an unread notification.
func NewNotification(userID uuid.UUID, typ NotificationType, message, link string, now time.Time) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Message:   strings.TrimSpace(message),
		Type:      typ,
		Link:      strings.TrimSpace(link),
		CreatedAt: now.UTC(),
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Validate checks that the notification can be stored.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil || n.UserID == uuid.Nil {
		return ErrEmptyID
	}
	if !n.Type.Valid() {
		return ErrInvalidNotifyType
	}
	if n.Message == "" {
		return ErrEmptyMessage
	}
	if n.Link == "" {
		return ErrEmptyLink
	}
	return nil
}

// TaskLink is the deep link, and deduplication key, for a task.
func TaskLink(taskID uuid.UUID) string {
	return "/tasks/" + taskID.String()
}
