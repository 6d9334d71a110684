package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/clock"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/service"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	tasks  service.TaskService
	clock  *clock.Clock
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(tasks service.TaskService, clk *clock.Clock, logger *slog.Logger) *TaskHandler {
	if tasks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("tasks cannot be nil for TaskHandler")
	}
	if clk == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("clock cannot be nil for TaskHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		clock:  clk,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

func (h *TaskHandler) parseDeadline(raw string) (time.Time, error) {
	t, _, err := h.clock.ParseLocal(raw)
	if err != nil {
		return time.Time{}, domain.NewValidationError("deadline", "has invalid format")
	}
	return t, nil
}

func parseUUIDField(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(field, "has invalid format")
	}
	return id, nil
}

// decodeAndValidate reads and validates a JSON body into req.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := shared.DecodeJSON(w, r, req); err != nil {
		if errors.Is(err, shared.ErrEmptyBody) {
			HandleAPIError(w, r, err, "")
			return false
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, "")
		return false
	}
	return true
}

// CreateTask handles POST /tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	deadline, err := h.parseDeadline(req.Deadline)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	oppID, err := parseUUIDField("opportunity_id", req.OpportunityID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	in := service.CreateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		Deadline:      deadline,
		Priority:      req.Priority,
		Status:        req.Status,
		Type:          req.Type,
		OpportunityID: oppID,
	}
	if req.AssignedUserID != nil {
		assignee, err := parseUUIDField("assigned_user_id", *req.AssignedUserID)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		in.AssignedUserID = uuid.NullUUID{UUID: assignee, Valid: true}
	}

	task, err := h.tasks.CreateTask(r.Context(), principal, in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	log.Debug("task created", slog.String("task_id", task.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// GetTask handles GET /tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	principal, id, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(r.Context(), principal, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateTask handles PUT /tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	principal, id, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	in := service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		Type:        req.Type,
	}
	if req.Deadline != nil {
		deadline, err := h.parseDeadline(*req.Deadline)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		in.Deadline = &deadline
	}
	if req.OpportunityID != nil {
		oppID, err := parseUUIDField("opportunity_id", *req.OpportunityID)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		in.OpportunityID = &oppID
	}
	if req.AssignedUserID != nil {
		assignee, err := parseUUIDField("assigned_user_id", *req.AssignedUserID)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		in.AssignedUserID = &assignee
	}

	task, err := h.tasks.UpdateTask(r.Context(), principal, id, in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}

	log.Debug("task updated", slog.String("task_id", id.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateStatus handles PATCH /tasks/{id}/status
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	principal, id, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.UpdateStatus(r.Context(), principal, id, req.Status)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task status")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// ArchiveTask handles POST /tasks/{id}/archive
func (h *TaskHandler) ArchiveTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	principal, id, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.tasks.ArchiveTask(r.Context(), principal, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to archive task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	principal, id, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(r.Context(), principal, id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	log.Debug("task deleted", slog.String("task_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// ListTasks handles GET /tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	page, err := h.tasks.ListTasks(r.Context(), principal, listParams(r))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskPageToResponse(page))
}

// ListOpportunityTasks handles GET /opportunities/{id}/tasks
func (h *TaskHandler) ListOpportunityTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	principal, oppID, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	page, err := h.tasks.ListOpportunityTasks(r.Context(), principal, oppID, listParams(r))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskPageToResponse(page))
}

// UnassignUserTasks handles POST /users/{id}/tasks/unassign
func (h *TaskHandler) UnassignUserTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	principal, userID, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	n, err := h.tasks.UnassignUserTasks(r.Context(), principal, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to unassign tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, AffectedResponse{Affected: n})
}

// DetachOpportunityTasks handles POST /opportunities/{id}/tasks/detach
func (h *TaskHandler) DetachOpportunityTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	principal, oppID, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	n, err := h.tasks.DetachOpportunityTasks(r.Context(), principal, oppID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to detach tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, AffectedResponse{Affected: int64(n)})
}
