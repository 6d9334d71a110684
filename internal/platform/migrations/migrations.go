// Package migrations embeds the schema migrations for every supported
// database driver and applies them with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var embedded embed.FS

// Commands accepted by Run.
const (
	CommandUp      = "up"
	CommandUpByOne = "up-by-one"
	CommandDown    = "down"
	CommandReset   = "reset"
	CommandStatus  = "status"
	CommandVersion = "version"
)

// ErrUnknownCommand is returned by Run for an unrecognized command.
var ErrUnknownCommand = errors.New("unknown migration command")

// slogGooseLogger adapts slog to goose's Logger interface.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements goose.Logger.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements goose.Logger. It logs at error level and does not exit;
// goose returns the underlying error to the caller as well.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

// Source returns the migration files and goose dialect for a database driver
// name as used in configuration ("postgres" or "sqlite").
func Source(driver string) (fs.FS, goose.Dialect, error) {
	var dialect goose.Dialect
	switch driver {
	case "postgres":
		dialect = goose.DialectPostgres
	case "sqlite":
		dialect = goose.DialectSQLite3
	default:
		return nil, "", fmt.Errorf("no migrations for driver %q", driver)
	}
	sub, err := fs.Sub(embedded, driver)
	if err != nil {
		return nil, "", fmt.Errorf("open embedded migrations for %s: %w", driver, err)
	}
	return sub, dialect, nil
}

// NewProvider creates a goose provider bound to db for the given driver.
func NewProvider(db *sql.DB, driver string, logger *slog.Logger) (*goose.Provider, error) {
	fsys, dialect, err := Source(driver)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return goose.NewProvider(dialect, db, fsys,
		goose.WithLogger(&slogGooseLogger{logger: logger}),
	)
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, driver string) error {
	return Run(ctx, db, driver, CommandUp, nil)
}

// Run executes a migration command against db and logs each result.
func Run(ctx context.Context, db *sql.DB, driver, command string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(
		slog.String("correlation_id", uuid.New().String()),
		slog.String("component", "migrations"),
		slog.String("command", command),
		slog.String("driver", driver),
	)

	provider, err := NewProvider(db, driver, log)
	if err != nil {
		return err
	}

	start := time.Now()
	log.Debug("starting migration operation")

	var results []*goose.MigrationResult
	switch command {
	case CommandUp:
		results, err = provider.Up(ctx)
	case CommandUpByOne:
		var res *goose.MigrationResult
		res, err = provider.UpByOne(ctx)
		results = appendResult(results, res)
	case CommandDown:
		var res *goose.MigrationResult
		res, err = provider.Down(ctx)
		results = appendResult(results, res)
	case CommandReset:
		results, err = provider.DownTo(ctx, 0)
	case CommandStatus:
		return logStatus(ctx, provider, log)
	case CommandVersion:
		var version int64
		version, err = provider.GetDBVersion(ctx)
		if err == nil {
			log.Info("current database version", slog.Int64("version", version))
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}

	for _, r := range results {
		log.Info("migration applied",
			slog.String("result", r.String()),
			slog.Int64("version", r.Source.Version))
	}

	if errors.Is(err, goose.ErrNoNextVersion) {
		log.Info("no migration to apply")
		err = nil
	}
	if err != nil {
		log.Error("migration failed",
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	log.Debug("migration operation completed",
		slog.Int("applied", len(results)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return nil
}

func appendResult(results []*goose.MigrationResult, r *goose.MigrationResult) []*goose.MigrationResult {
	if r == nil {
		return results
	}
	return append(results, r)
}

func logStatus(ctx context.Context, provider *goose.Provider, log *slog.Logger) error {
	statuses, err := provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("migration status failed: %w", err)
	}
	for _, s := range statuses {
		attrs := []any{
			slog.Int64("version", s.Source.Version),
			slog.String("state", string(s.State)),
		}
		if !s.AppliedAt.IsZero() {
			attrs = append(attrs, slog.Time("applied_at", s.AppliedAt))
		}
		log.Info("migration status", attrs...)
	}
	return nil
}
