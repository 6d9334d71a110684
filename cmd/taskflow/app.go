package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskflow-api/internal/api"
	apiMiddleware "github.com/phrazzld/taskflow-api/internal/api/middleware"
	"github.com/phrazzld/taskflow-api/internal/clock"
	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/notify"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/platform/sqlstore"
	"github.com/phrazzld/taskflow-api/internal/scheduler"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// application holds the shared dependencies of every command and owns
// their cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sqlx.DB
	clock  *clock.Clock

	taskStore         store.TaskStore
	userStore         store.UserStore
	opportunityStore  store.OpportunityStore
	notificationStore store.NotificationStore

	emitter             *notify.Emitter
	jwtService          auth.JWTService
	taskService         service.TaskService
	notificationService service.NotificationService
	scheduler           *scheduler.Scheduler
}

// loadConfig reads configuration and installs the configured logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_driver", cfg.Database.Driver,
		"time_zone", cfg.Clock.TimeZone)
	return cfg, log, nil
}

// newApplication connects to the database and builds every service.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: log}

	var err error
	app.clock, err = clock.Load(cfg.Clock.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone: %w", err)
	}

	app.db, err = sqlstore.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("database connection established", "driver", cfg.Database.Driver)

	app.taskStore = sqlstore.NewTaskStore(app.db, log)
	app.userStore = sqlstore.NewUserStore(app.db, log)
	app.opportunityStore = sqlstore.NewOpportunityStore(app.db, log)
	app.notificationStore = sqlstore.NewNotificationStore(app.db, log)

	app.emitter, err = notify.NewEmitter(app.notificationStore, app.opportunityStore, app.clock, log)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create notification emitter: %w", err)
	}

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.taskService, err = service.NewTaskService(
		app.db, app.taskStore, app.userStore, app.opportunityStore, app.emitter, app.clock, log)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.notificationService, err = service.NewNotificationService(app.notificationStore, log)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create notification service: %w", err)
	}

	app.scheduler, err = newScheduler(app)
	if err != nil {
		app.cleanup()
		return nil, err
	}

	return app, nil
}

// newScheduler registers the three sweeps at their configured intervals.
func newScheduler(app *application) (*scheduler.Scheduler, error) {
	cfg := app.config.Scheduler
	s := scheduler.New(scheduler.Config{
		WorkerCount: cfg.WorkerCount,
		QueueSize:   cfg.QueueSize,
	}, app.logger)

	if err := s.Register(scheduler.NewOverdueSweep(app.taskStore, app.emitter, app.clock, app.logger), cfg.OverdueInterval()); err != nil {
		return nil, fmt.Errorf("failed to register overdue sweep: %w", err)
	}
	if err := s.Register(scheduler.NewUpcomingSweep(app.taskStore, app.emitter, app.clock, app.logger), cfg.UpcomingInterval()); err != nil {
		return nil, fmt.Errorf("failed to register upcoming sweep: %w", err)
	}
	if err := s.Register(scheduler.NewArchivalSweep(app.taskStore, app.opportunityStore, app.clock, app.logger), cfg.ArchiveInterval()); err != nil {
		return nil, fmt.Errorf("failed to register archive sweep: %w", err)
	}
	return s, nil
}

// router builds the HTTP handler tree.
func (app *application) router() http.Handler {
	return api.NewRouter(api.RouterDeps{
		Tasks:         api.NewTaskHandler(app.taskService, app.clock, app.logger),
		Notifications: api.NewNotificationHandler(app.notificationService, app.logger),
		Auth:          apiMiddleware.NewAuthMiddleware(app.jwtService, app.userStore),
		Logger:        app.logger,
	})
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
			return
		}
		app.logger.Info("database connection closed")
	}
}
