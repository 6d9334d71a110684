// Package testdb provides database fixtures for tests.
//
// Open gives each test its own migrated SQLite database in a temporary
// directory, so tests run in parallel without sharing state. When
// TASKFLOW_TEST_DATABASE_URL names a PostgreSQL database, OpenPostgres
// migrates it and WithTx isolates each test in a rolled-back transaction.
package testdb
