package internal

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukerupert/parcelry/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies every pending migration and returns the resulting
// schema version.
func RunMigrations(db *sql.DB, logger *slog.Logger) (int64, error) {
	goose.SetBaseFS(migrations.MigrationsFS)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("failed to set goose dialect: %w", err)
	}

	before, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	after, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if logger != nil {
		logger.Info("database migrations applied", "from_version", before, "to_version", after)
	}
	return after, nil
}
