// Package dbtest opens a migrated sqlite database for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/sotfmods/api/internal/db"
)

// New returns a fresh database under t.TempDir with all migrations applied.
func New(t *testing.T) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := db.Init("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close(conn)
	})

	err = db.RunMigrations(conn.DB, "sqlite")
	if err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	return conn
}
