package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/taskflow-api/internal/api/middleware"
)

// RouterDeps are the handlers and middleware mounted by NewRouter.
type RouterDeps struct {
	Tasks         *TaskHandler
	Notifications *NotificationHandler
	Auth          *apiMiddleware.AuthMiddleware
	Logger        *slog.Logger
}

// NewRouter builds the HTTP routes. Everything under /api requires a
// bearer token.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apiMiddleware.Trace(d.Logger))

	r.Route("/api", func(r chi.Router) {
		r.Use(d.Auth.Authenticate)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", d.Tasks.ListTasks)
			r.Post("/", d.Tasks.CreateTask)
			r.Get("/{id}", d.Tasks.GetTask)
			r.Put("/{id}", d.Tasks.UpdateTask)
			r.Delete("/{id}", d.Tasks.DeleteTask)
			r.Patch("/{id}/status", d.Tasks.UpdateStatus)
			r.Post("/{id}/archive", d.Tasks.ArchiveTask)
		})

		r.Get("/opportunities/{id}/tasks", d.Tasks.ListOpportunityTasks)
		r.Post("/opportunities/{id}/tasks/detach", d.Tasks.DetachOpportunityTasks)
		r.Post("/users/{id}/tasks/unassign", d.Tasks.UnassignUserTasks)

		r.Get("/notifications", d.Notifications.List)
		r.Get("/notifications/unread-count", d.Notifications.CountUnread)
		r.Post("/notifications/{id}/read", d.Notifications.MarkRead)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil && d.Logger != nil {
			d.Logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
