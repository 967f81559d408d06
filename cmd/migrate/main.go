package main

// Apply, roll back or inspect the database schema:
//   go run ./cmd/migrate            # up
//   go run ./cmd/migrate -down      # revert the latest migration
//   go run ./cmd/migrate -version

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"recruit-backend/internal/shared/config"
	"recruit-backend/internal/shared/storage/db"
	"recruit-backend/internal/shared/telemetry"
)

func main() {
	down := flag.Bool("down", false, "Revert the most recent migration")
	versionOnly := flag.Bool("version", false, "Print the applied schema version and exit")
	flag.Parse()

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultOptions(db.RoleMigrate)))
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer sqlDB.Close()

	switch {
	case *versionOnly:
	case *down:
		if err := db.RollbackMigration(ctx, sqlDB); err != nil {
			log.Fatalf("rollback: %v", err)
		}
	default:
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	version, err := db.SchemaVersion(ctx, sqlDB)
	if err != nil {
		log.Fatalf("read schema version: %v", err)
	}
	telemetry.Info("migrate.done", map[string]any{"schema_version": version, "down": *down})
}
