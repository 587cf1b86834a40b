// Package testutil provides shared fixtures for blog tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"blogsys/internal/config"
	"blogsys/internal/database"

	"gorm.io/gorm"
)

// TestConfig returns a development config pointing at a fresh SQLite file
// under t.TempDir with the cheapest bcrypt cost.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:                "test",
		Port:               "0",
		JWTSecret:          "test-secret-that-is-at-least-32-characters",
		DBDriver:           "sqlite",
		DBPath:             filepath.Join(t.TempDir(), "data", "blog.db"),
		AllowedOrigins:     "http://localhost:4321",
		ContentDir:         t.TempDir(),
		BcryptCost:         4,
		RateLimitPerMinute: 0,
		TracingSampleRatio: 1,
	}
}

// NewTestDB opens a migrated SQLite database that is closed when the test ends.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(TestConfig(t))
	if err != nil {
		t.Fatalf("connect test db: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	return db
}

// MustExec runs raw SQL against db, failing the test on error.
func MustExec(t *testing.T, db *gorm.DB, sql string, args ...any) {
	t.Helper()
	if err := db.WithContext(context.Background()).Exec(sql, args...).Error; err != nil {
		t.Fatalf("exec %q: %v", sql, err)
	}
}
