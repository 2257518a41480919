package db

import (
	"bytes"
	"context"
	"io/fs"
	"strings"
	"testing"

	"assistant-backend/internal/shared/telemetry"
)

func TestEmbeddedMigrationsAreGooseFiles(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected at least 2 migrations, got %d", len(entries))
	}
	for _, e := range entries {
		body, err := fs.ReadFile(migrationFiles, "migrations/"+e.Name())
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		text := string(body)
		if !strings.Contains(text, "-- +goose Up") || !strings.Contains(text, "-- +goose Down") {
			t.Fatalf("%s missing goose annotations", e.Name())
		}
	}
}

func TestRunMigrationsNilDatabase(t *testing.T) {
	if err := RunMigrations(context.Background(), nil); err != nil {
		t.Fatalf("expected nil db to be a no-op, got %v", err)
	}
}

func TestGooseLoggerWritesTelemetry(t *testing.T) {
	var buf bytes.Buffer
	restore := telemetry.SetOutput(&buf)
	defer restore()

	gooseLogger{}.Printf("OK   %s (%s)\n", "00002_usage_events.sql", "3ms")
	line := buf.String()
	if !strings.Contains(line, `"msg":"db.migration"`) || !strings.Contains(line, `00002_usage_events.sql (3ms)"`) {
		t.Fatalf("unexpected log line: %s", line)
	}
}
