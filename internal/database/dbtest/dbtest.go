// Package dbtest opens migrated SQLite databases for tests.
package dbtest

import (
	"path/filepath"
	"runtime"
	"testing"

	"kotoba/internal/database"
)

// MigrationsPath returns the absolute path of the repository's migrations directory.
func MigrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
}

// New returns a fresh, migrated SQLite database that is closed when the test ends.
func New(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "kotoba_test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.RunMigrations(MigrationsPath()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}
