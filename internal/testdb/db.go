package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/platform/migrations"
	"github.com/phrazzld/taskflow-api/internal/platform/sqlstore"
	"github.com/stretchr/testify/require"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 5 * time.Second

// PostgresURLEnv names the variable holding an optional PostgreSQL test database.
const PostgresURLEnv = "TASKFLOW_TEST_DATABASE_URL"

// Open returns a fresh, fully migrated SQLite database that is closed when
// the test ends.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "taskflow.db")
	return open(t, config.DatabaseConfig{
		Driver:       sqlstore.DriverSQLite,
		URL:          path,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
}

// IsIntegrationTestEnvironment reports whether a PostgreSQL test database is configured.
func IsIntegrationTestEnvironment() bool {
	return os.Getenv(PostgresURLEnv) != ""
}

// OpenPostgres returns the configured PostgreSQL test database, migrated to
// the latest version. The test is skipped when none is configured.
func OpenPostgres(t *testing.T) *sqlx.DB {
	t.Helper()

	url := os.Getenv(PostgresURLEnv)
	if url == "" {
		t.Skipf("%s not set", PostgresURLEnv)
	}
	return open(t, config.DatabaseConfig{
		Driver:       sqlstore.DriverPostgres,
		URL:          url,
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	})
}

func open(t *testing.T, cfg config.DatabaseConfig) *sqlx.DB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := sqlstore.Open(ctx, cfg)
	require.NoError(t, err, "failed to open %s test database", cfg.Driver)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(ctx, db.DB, cfg.Driver), "failed to migrate test database")
	return db
}

// WithTx runs fn inside a transaction that is always rolled back, so changes
// never outlive the test.
func WithTx(t *testing.T, db *sqlx.DB, fn func(t *testing.T, tx *sqlx.Tx)) {
	t.Helper()

	tx, err := db.Beginx()
	require.NoError(t, err, "failed to begin transaction")

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("Warning: failed to rollback transaction: %v", err)
		}
	}()

	fn(t, tx)
}
