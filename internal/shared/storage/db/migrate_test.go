package db

import (
	"context"
	"strconv"
	"strings"
	"testing"
)

func TestEmbeddedMigrationsAreSequential(t *testing.T) {
	entries, err := migrationFiles.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected embedded migrations")
	}
	for i, e := range entries {
		prefix, _, ok := strings.Cut(e.Name(), "_")
		if !ok {
			t.Fatalf("migration %s has no version prefix", e.Name())
		}
		version, err := strconv.Atoi(prefix)
		if err != nil || version != i+1 {
			t.Fatalf("migration %s: expected version %d", e.Name(), i+1)
		}
		body, err := migrationFiles.ReadFile(migrationsDir + "/" + e.Name())
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		if !strings.Contains(string(body), "-- +goose Up") || !strings.Contains(string(body), "-- +goose Down") {
			t.Fatalf("migration %s must define Up and Down sections", e.Name())
		}
	}
}

func TestMigrationHelpersWithoutDatabase(t *testing.T) {
	ctx := context.Background()
	if err := RunMigrations(ctx, nil); err != nil {
		t.Fatalf("nil database should be a no-op: %v", err)
	}
	if err := RollbackMigration(ctx, nil); err == nil {
		t.Fatal("expected rollback to require a database")
	}
	if _, err := SchemaVersion(ctx, nil); err == nil {
		t.Fatal("expected version to require a database")
	}
}
