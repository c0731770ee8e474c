// Package main runs the Smart Explorer API server: the adaptive session
// engine behind the explorer client, plus the background sweeper that
// finalizes abandoned sessions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tinysteps/smart-explorer/internal/config"
	"github.com/tinysteps/smart-explorer/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run a migration command and exit: up, down, status, version or reset")
	configPath := flag.String("config", "", "path to a config file (default: search . and /etc/smart-explorer)")
	flag.Parse()

	if err := run(*configPath, *migrateCmd); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(configPath, migrateCmd string) error {
	if migrateCmd != "" && !migrationCommands[migrateCmd] {
		return fmt.Errorf("unknown migration command: %s (expected up, down, status, version or reset)", migrateCmd)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"redis_enabled", cfg.Redis.URL != "",
		"sweeper_enabled", cfg.Sweeper.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer func() { _ = db.Close() }()
		return runMigrations(ctx, db, migrateCmd, log)
	}

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
