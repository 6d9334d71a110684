package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// CreateTaskRequest defines the payload for creating a task. Deadline is an
// RFC 3339 timestamp or a zone-less local time ("2026-03-01T09:30").
type CreateTaskRequest struct {
	Title          string  `json:"title"            validate:"required,max=255"`
	Description    string  `json:"description"      validate:"required"`
	Deadline       string  `json:"deadline"         validate:"required"`
	Priority       string  `json:"priority"         validate:"omitempty,max=16"`
	Status         string  `json:"status"           validate:"omitempty,max=16"`
	Type           string  `json:"type"             validate:"required,max=64"`
	OpportunityID  string  `json:"opportunity_id"   validate:"required,uuid"`
	AssignedUserID *string `json:"assigned_user_id" validate:"omitempty,uuid"`
}

// UpdateTaskRequest defines the payload for editing a task. Omitted fields
// are left unchanged.
type UpdateTaskRequest struct {
	Title          *string `json:"title"            validate:"omitempty,max=255"`
	Description    *string `json:"description"`
	Deadline       *string `json:"deadline"`
	Priority       *string `json:"priority"         validate:"omitempty,max=16"`
	Status         *string `json:"status"           validate:"omitempty,max=16"`
	Type           *string `json:"type"             validate:"omitempty,max=64"`
	OpportunityID  *string `json:"opportunity_id"   validate:"omitempty,uuid"`
	AssignedUserID *string `json:"assigned_user_id" validate:"omitempty,uuid"`
}

// UpdateStatusRequest defines the payload for a status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,max=16"`
}

// TaskResponse is the wire form of a task.
type TaskResponse struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Deadline       time.Time  `json:"deadline"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	Type           string     `json:"type"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Archived       bool       `json:"archived"`
	OpportunityID  *string    `json:"opportunity_id"`
	AssignedUserID *string    `json:"assigned_user_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TaskPageResponse is one page of a task listing.
type TaskPageResponse struct {
	Tasks      []TaskResponse `json:"tasks"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	Size       int            `json:"size"`
	TotalPages int            `json:"total_pages"`
}

// NotificationResponse is the wire form of a notification.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Link      string    `json:"link"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// UnreadCountResponse reports the number of unread notifications.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// AffectedResponse reports how many tasks a bulk operation changed.
type AffectedResponse struct {
	Affected int64 `json:"affected"`
}

func nullUUIDString(id uuid.NullUUID) *string {
	if !id.Valid {
		return nil
	}
	s := id.UUID.String()
	return &s
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:             t.ID.String(),
		Title:          t.Title,
		Description:    t.Description,
		Deadline:       t.Deadline,
		Priority:       string(t.Priority),
		Status:         string(t.Status),
		Type:           t.Type,
		CompletedAt:    t.CompletedAt,
		Archived:       t.Archived,
		OpportunityID:  nullUUIDString(t.OpportunityID),
		AssignedUserID: nullUUIDString(t.AssignedUserID),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func taskPageToResponse(p *store.TaskPage) TaskPageResponse {
	resp := TaskPageResponse{
		Tasks: make([]TaskResponse, 0, len(p.Tasks)),
		Total: p.Total,
		Page:  p.Page,
		Size:  p.Size,
	}
	for _, t := range p.Tasks {
		resp.Tasks = append(resp.Tasks, taskToResponse(t))
	}
	if p.Size > 0 {
		resp.TotalPages = (p.Total + p.Size - 1) / p.Size
	}
	return resp
}

func notificationToResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID.String(),
		Type:      string(n.Type),
		Message:   n.Message,
		Link:      n.Link,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
