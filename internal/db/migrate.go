package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// dialects maps database/sql driver names to goose dialects
var dialects = map[string]goose.Dialect{
	"sqlite": goose.DialectSQLite3,
	"pgx":    goose.DialectPostgres,
}

func newProvider(conn *sql.DB, driver string) (*goose.Provider, error) {
	dialect, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to get migrations directory: %w", err)
	}

	provider, err := goose.NewProvider(dialect, conn, migrations)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

func RunMigrations(conn *sql.DB, driver string) error {
	provider, err := newProvider(conn, driver)
	if err != nil {
		return err
	}

	results, err := provider.Up(context.Background())
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("migrations completed successfully", "applied", len(results))
	return nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(conn *sql.DB, driver string) error {
	provider, err := newProvider(conn, driver)
	if err != nil {
		return err
	}

	result, err := provider.Down(context.Background())
	if err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	slog.Info("rolled back migration", "version", result.Source.Version)
	return nil
}

// Version returns the current schema version recorded by goose.
func Version(conn *sql.DB, driver string) (int64, error) {
	provider, err := newProvider(conn, driver)
	if err != nil {
		return 0, err
	}

	version, err := provider.GetDBVersion(context.Background())
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
