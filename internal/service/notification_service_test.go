package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	svc, err := service.NewNotificationService(h.notifications, nil)
	require.NoError(t, err)

	_, err = h.svc.CreateTask(ctx, h.admin.Principal(), h.input(h.alice))
	require.NoError(t, err)
	_, err = h.svc.CreateTask(ctx, h.admin.Principal(), h.input(h.alice))
	require.NoError(t, err)

	count, err := svc.CountUnread(ctx, h.alice.Principal())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	list, err := svc.List(ctx, h.alice.Principal(), false)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.ErrorIs(t, svc.MarkRead(ctx, h.bob.Principal(), list[0].ID), domain.ErrForbidden)
	require.NoError(t, svc.MarkRead(ctx, h.alice.Principal(), list[0].ID))
	require.NoError(t, svc.MarkRead(ctx, h.alice.Principal(), list[0].ID), "marking twice is harmless")
	assert.ErrorIs(t, svc.MarkRead(ctx, h.alice.Principal(), uuid.New()), domain.ErrNotificationNotFound)

	unread, err := svc.List(ctx, h.alice.Principal(), true)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	others, err := svc.List(ctx, h.bob.Principal(), false)
	require.NoError(t, err)
	assert.Empty(t, others)

	_, err = svc.CountUnread(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestServiceError(t *testing.T) {
	err := service.NewTaskServiceError("update_task", "failed to save task", domain.ErrTaskNotFound)
	assert.Equal(t, "task service update_task failed: failed to save task: task not found", err.Error())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	bare := service.NewNotificationServiceError("list", "boom", nil)
	assert.Equal(t, "notification service list failed: boom", bare.Error())
}
