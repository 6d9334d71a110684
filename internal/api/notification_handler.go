package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/service"
)

// NotificationHandler serves the principal's notification inbox.
type NotificationHandler struct {
	notifications service.NotificationService
	logger        *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications service.NotificationService, logger *slog.Logger) *NotificationHandler {
	if notifications == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("notifications cannot be nil for NotificationHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{
		notifications: notifications,
		logger:        logger.With(slog.String("component", "notification_handler")),
	}
}

// List handles GET /notifications?unread=true
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	unreadOnly := false
	if raw := r.URL.Query().Get("unread"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			HandleAPIError(w, r, domain.NewValidationError("unread", "must be true or false"), "")
			return
		}
		unreadOnly = v
	}

	list, err := h.notifications.List(r.Context(), principal, unreadOnly)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list notifications")
		return
	}

	resp := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		resp = append(resp, notificationToResponse(n))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// CountUnread handles GET /notifications/unread-count
func (h *NotificationHandler) CountUnread(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	n, err := h.notifications.CountUnread(r.Context(), principal)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to count notifications")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, UnreadCountResponse{Count: n})
}

// MarkRead handles POST /notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	principal, id, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(r.Context(), principal, id); err != nil {
		HandleAPIError(w, r, err, "Failed to update notification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
