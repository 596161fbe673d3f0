package main

// Run database migrations:
//   go run ./cmd/migrate            apply everything
//   go run ./cmd/migrate status     print the schema version
//   go run ./cmd/migrate to 4       apply up to version 4
//   go run ./cmd/migrate down       revert the latest migration

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"resume-builder/internal/shared/config"
	"resume-builder/internal/shared/storage/db"
	"resume-builder/internal/shared/telemetry"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err.Error()})
		telemetry.Sync()
		os.Exit(1)
	}
	telemetry.Sync()
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.DefaultMigrateOptions())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	cmd := "up"
	if len(args) > 0 {
		cmd = args[0]
	}
	switch cmd {
	case "up":
		err = db.RunMigrations(ctx, sqlDB)
	case "down":
		err = db.Rollback(ctx, sqlDB)
	case "to":
		if len(args) < 2 {
			return fmt.Errorf("usage: migrate to <version>")
		}
		version, perr := strconv.ParseInt(args[1], 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		err = db.MigrateTo(ctx, sqlDB, version)
	case "status":
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		return err
	}

	version, err := db.MigrationStatus(ctx, sqlDB)
	if err != nil {
		return err
	}
	telemetry.Info("migrate.done", map[string]any{"command": cmd, "version": version})
	return nil
}
