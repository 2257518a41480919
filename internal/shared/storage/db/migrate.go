package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"

	"assistant-backend/internal/shared/telemetry"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// gooseLogger routes goose progress lines to telemetry.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	telemetry.Info("db.migration", map[string]any{"detail": strings.TrimSpace(fmt.Sprintf(format, v...))})
}

// Fatalf is only reached on goose internal errors; the error is logged and
// returned to the caller through UpContext instead of exiting.
func (gooseLogger) Fatalf(format string, v ...any) {
	telemetry.Error("db.migration_fatal", map[string]any{"detail": strings.TrimSpace(fmt.Sprintf(format, v...))})
}

// RunMigrations applies the embedded accounts and usage_events migrations.
// A nil database is a no-op so memory-backed deployments can share startup.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, database, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, database)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	telemetry.Info("db.migrated", map[string]any{"version": version})
	return nil
}
