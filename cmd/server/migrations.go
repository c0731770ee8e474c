package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/tinysteps/smart-explorer/internal/platform/postgres"
)

// migrationCommands lists the goose commands the -migrate flag accepts.
var migrationCommands = map[string]bool{
	"up":      true,
	"down":    true,
	"status":  true,
	"version": true,
	"reset":   true,
}

// slogGooseLogger adapts goose's logger to slog. Fatalf does not exit; the
// error is returned to main instead.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

// runMigrations applies command to db using the embedded migration files.
func runMigrations(ctx context.Context, db *sql.DB, command string, logger *slog.Logger) error {
	if !migrationCommands[command] {
		return fmt.Errorf("unknown migration command: %s (expected up, down, status, version or reset)", command)
	}

	log := logger.With("component", "migrations", "command", command)
	goose.SetLogger(&slogGooseLogger{logger: log})
	goose.SetBaseFS(postgres.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	start := time.Now()
	var err error
	switch command {
	case "up":
		err = goose.UpContext(ctx, db, postgres.MigrationsDir)
	case "down":
		err = goose.DownContext(ctx, db, postgres.MigrationsDir)
	case "reset":
		err = goose.ResetContext(ctx, db, postgres.MigrationsDir)
	case "status":
		err = goose.StatusContext(ctx, db, postgres.MigrationsDir)
	case "version":
		err = goose.VersionContext(ctx, db, postgres.MigrationsDir)
	}
	if err != nil {
		log.Error("migration command failed", "error", err)
		return fmt.Errorf("migration command '%s' failed: %w", command, err)
	}

	log.Info("migration command executed successfully",
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
