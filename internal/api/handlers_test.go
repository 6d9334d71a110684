package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskflow-api/internal/api"
	"github.com/phrazzld/taskflow-api/internal/api/middleware"
	"github.com/phrazzld/taskflow-api/internal/clock"
	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/notify"
	"github.com/phrazzld/taskflow-api/internal/platform/sqlstore"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret-that-is-long-enough"

type apiHarness struct {
	db      *sqlx.DB
	now     time.Time
	handler http.Handler
	jwt     auth.JWTService
	admin   *domain.User
	alice   *domain.User
	bob     *domain.User
	opp     *domain.Opportunity
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	db := testdb.Open(t)
	now := time.Now().UTC().Truncate(time.Second)
	clk, err := clock.Load(clock.DefaultZone, clock.WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	tasks := sqlstore.NewTaskStore(db, nil)
	users := sqlstore.NewUserStore(db, nil)
	opps := sqlstore.NewOpportunityStore(db, nil)
	notifications := sqlstore.NewNotificationStore(db, nil)

	emitter, err := notify.NewEmitter(notifications, opps, clk, nil)
	require.NoError(t, err)
	taskSvc, err := service.NewTaskService(db, tasks, users, opps, emitter, clk, nil)
	require.NoError(t, err)
	notificationSvc, err := service.NewNotificationService(notifications, nil)
	require.NoError(t, err)
	jwtSvc, err := auth.NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60})
	require.NoError(t, err)

	handler := api.NewRouter(api.RouterDeps{
		Tasks:         api.NewTaskHandler(taskSvc, clk, nil),
		Notifications: api.NewNotificationHandler(notificationSvc, nil),
		Auth:          middleware.NewAuthMiddleware(jwtSvc, users),
	})

	return &apiHarness{
		db:      db,
		now:     now,
		handler: handler,
		jwt:     jwtSvc,
		admin:   testdb.CreateUser(t, db, domain.RoleAdmin),
		alice:   testdb.CreateUser(t, db, domain.RoleUser),
		bob:     testdb.CreateUser(t, db, domain.RoleUser),
		opp:     testdb.CreateOpportunity(t, db, "Acme renewal", domain.OpportunityInProgress),
	}
}

// do sends a request as user (nil for anonymous) and returns the recorder.
func (h *apiHarness) do(t *testing.T, user *domain.User, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		token, err := h.jwt.GenerateToken(context.Background(), user.ID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	return rr
}

func (h *apiHarness) createBody(assignee *domain.User) map[string]interface{} {
	body := map[string]interface{}{
		"title":          "Call Acme",
		"description":    "Discuss the renewal terms",
		"deadline":       h.now.Add(72 * time.Hour).Format(time.RFC3339),
		"type":           "Call",
		"priority":       "high",
		"opportunity_id": h.opp.ID.String(),
	}
	if assignee != nil {
		body["assigned_user_id"] = assignee.ID.String()
	}
	return body
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rr)["error"]
}

func TestAuthentication(t *testing.T) {
	h := newAPIHarness(t)

	rr := h.do(t, nil, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = h.do(t, nil, http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Trace-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr = httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid token", errorMessage(t, rr))

	req = httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Basic abc")
	rr = httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	ghost := &domain.User{ID: uuid.New()}
	rr = h.do(t, ghost, http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	h := newAPIHarness(t)

	rr := h.do(t, h.alice, http.MethodPost, "/api/tasks", h.createBody(h.alice))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[api.TaskResponse](t, rr)
	assert.Equal(t, "Call Acme", created.Title)
	assert.Equal(t, string(domain.PriorityHigh), created.Priority)
	assert.Equal(t, string(domain.TaskStatusToDo), created.Status)
	require.NotNil(t, created.AssignedUserID)
	assert.Equal(t, h.alice.ID.String(), *created.AssignedUserID)

	path := "/api/tasks/" + created.ID

	rr = h.do(t, h.alice, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = h.do(t, h.bob, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "You do not have access to this task", errorMessage(t, rr))

	rr = h.do(t, h.alice, http.MethodPatch, path+"/status", map[string]string{"status": "InProgress"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, string(domain.TaskStatusInProgress), decode[api.TaskResponse](t, rr).Status)

	rr = h.do(t, h.alice, http.MethodPut, path, map[string]string{"title": "New title"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = h.do(t, h.alice, http.MethodPost, path+"/archive", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "Only done or cancelled tasks can be archived", errorMessage(t, rr))

	rr = h.do(t, h.alice, http.MethodPatch, path+"/status", map[string]string{"status": "done"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NotNil(t, decode[api.TaskResponse](t, rr).CompletedAt)

	rr = h.do(t, h.alice, http.MethodPost, path+"/archive", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, decode[api.TaskResponse](t, rr).Archived)

	rr = h.do(t, h.alice, http.MethodPut, path, map[string]string{"title": "New title"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "Archived tasks cannot be modified", errorMessage(t, rr))

	rr = h.do(t, h.alice, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = h.do(t, h.alice, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Task not found", errorMessage(t, rr))
}

func TestCreateTask_Rejections(t *testing.T) {
	h := newAPIHarness(t)

	tooSoon := h.createBody(nil)
	tooSoon["deadline"] = h.now.Format(time.RFC3339)

	badDeadline := h.createBody(nil)
	badDeadline["deadline"] = "next tuesday"

	missingTitle := h.createBody(nil)
	delete(missingTitle, "title")

	unknownOpp := h.createBody(nil)
	unknownOpp["opportunity_id"] = uuid.NewString()

	tests := []struct {
		name    string
		user    *domain.User
		body    interface{}
		status  int
		message string
	}{
		{"deadline too soon", h.alice, tooSoon, http.StatusBadRequest, "Deadline must be at least tomorrow"},
		{"unparseable deadline", h.alice, badDeadline, http.StatusBadRequest, "Invalid deadline: has invalid format"},
		{"missing title", h.alice, missingTitle, http.StatusBadRequest, "Invalid title: required field"},
		{"assign others", h.alice, h.createBody(h.bob), http.StatusForbidden, "You can only assign tasks to yourself"},
		{"unknown opportunity", h.admin, unknownOpp, http.StatusNotFound, "Opportunity not found"},
		{"malformed json", h.alice, `{"title":`, http.StatusBadRequest, "Invalid request format"},
		{"unknown field", h.alice, `{"title":"x","colour":"red"}`, http.StatusBadRequest, "Invalid request format"},
		{"empty body", h.alice, "", http.StatusBadRequest, "Request body is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := h.do(t, tt.user, http.MethodPost, "/api/tasks", tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			assert.Equal(t, tt.message, errorMessage(t, rr))
		})
	}
}

func TestListTasks(t *testing.T) {
	h := newAPIHarness(t)

	testdb.InsertTask(t, h.db, testdb.AssignedTo(h.alice.ID), testdb.ForOpportunity(h.opp.ID), testdb.WithPriority(domain.PriorityHigh))
	testdb.InsertTask(t, h.db, testdb.AssignedTo(h.alice.ID), testdb.WithPriority(domain.PriorityLow))
	testdb.InsertTask(t, h.db, testdb.AssignedTo(h.bob.ID), testdb.ForOpportunity(h.opp.ID))
	testdb.InsertTask(t, h.db)

	t.Run("standard user sees own tasks", func(t *testing.T) {
		rr := h.do(t, h.alice, http.MethodGet, "/api/tasks", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		page := decode[api.TaskPageResponse](t, rr)
		assert.Equal(t, 2, page.Total)
		assert.Equal(t, 10, page.Size)
		assert.Equal(t, 1, page.TotalPages)
	})

	t.Run("admin sees all", func(t *testing.T) {
		rr := h.do(t, h.admin, http.MethodGet, "/api/tasks?size=2", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		page := decode[api.TaskPageResponse](t, rr)
		assert.Equal(t, 4, page.Total)
		assert.Len(t, page.Tasks, 2)
		assert.Equal(t, 2, page.TotalPages)
	})

	t.Run("filters combine", func(t *testing.T) {
		rr := h.do(t, h.alice, http.MethodGet, "/api/tasks?priority=HIGH&status=ANY", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 1, decode[api.TaskPageResponse](t, rr).Total)
	})

	t.Run("admin filters unassigned", func(t *testing.T) {
		rr := h.do(t, h.admin, http.MethodGet, "/api/tasks?unassigned=true", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 1, decode[api.TaskPageResponse](t, rr).Total)
	})

	t.Run("opportunity tasks", func(t *testing.T) {
		rr := h.do(t, h.admin, http.MethodGet, "/api/opportunities/"+h.opp.ID.String()+"/tasks", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 2, decode[api.TaskPageResponse](t, rr).Total)
	})

	t.Run("bad status", func(t *testing.T) {
		rr := h.do(t, h.alice, http.MethodGet, "/api/tasks?status=Paused", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("standard user filtering another assignee", func(t *testing.T) {
		rr := h.do(t, h.alice, http.MethodGet, "/api/tasks?assigned_user_id="+h.bob.ID.String(), nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("bad path id", func(t *testing.T) {
		rr := h.do(t, h.alice, http.MethodGet, "/api/tasks/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid id: has invalid format", errorMessage(t, rr))
	})
}

func TestNotificationsOverHTTP(t *testing.T) {
	h := newAPIHarness(t)

	rr := h.do(t, h.admin, http.MethodPost, "/api/tasks", h.createBody(h.alice))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = h.do(t, h.alice, http.MethodGet, "/api/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, decode[api.UnreadCountResponse](t, rr).Count)

	rr = h.do(t, h.alice, http.MethodGet, "/api/notifications?unread=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	inbox := decode[[]api.NotificationResponse](t, rr)
	require.Len(t, inbox, 1)
	assert.Equal(t, string(domain.NotificationTaskAssigned), inbox[0].Type)
	assert.Equal(t, "You have been assigned a new task: Call Acme for opportunity: Acme renewal", inbox[0].Message)

	rr = h.do(t, h.bob, http.MethodPost, "/api/notifications/"+inbox[0].ID+"/read", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = h.do(t, h.alice, http.MethodPost, "/api/notifications/"+inbox[0].ID+"/read", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = h.do(t, h.alice, http.MethodGet, "/api/notifications/unread-count", nil)
	assert.Equal(t, 0, decode[api.UnreadCountResponse](t, rr).Count)

	rr = h.do(t, h.alice, http.MethodGet, "/api/notifications?unread=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCollaboratorHooksOverHTTP(t *testing.T) {
	h := newAPIHarness(t)
	testdb.InsertTask(t, h.db, testdb.AssignedTo(h.bob.ID), testdb.ForOpportunity(h.opp.ID))
	testdb.InsertTask(t, h.db, testdb.AssignedTo(h.bob.ID))

	rr := h.do(t, h.alice, http.MethodPost, "/api/users/"+h.bob.ID.String()+"/tasks/unassign", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = h.do(t, h.admin, http.MethodPost, "/api/users/"+h.bob.ID.String()+"/tasks/unassign", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, int64(2), decode[api.AffectedResponse](t, rr).Affected)

	rr = h.do(t, h.admin, http.MethodPost, "/api/opportunities/"+h.opp.ID.String()+"/tasks/detach", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, int64(1), decode[api.AffectedResponse](t, rr).Affected)
}
