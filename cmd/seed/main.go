// Package main loads a YAML scene catalog into the database and clears the
// cached catalog listing.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/tinysteps/smart-explorer/internal/catalogfile"
	"github.com/tinysteps/smart-explorer/internal/config"
	"github.com/tinysteps/smart-explorer/internal/platform/cache"
	"github.com/tinysteps/smart-explorer/internal/platform/logger"
	"github.com/tinysteps/smart-explorer/internal/platform/postgres"
	"github.com/tinysteps/smart-explorer/internal/service/catalog"
	"github.com/tinysteps/smart-explorer/internal/store"
)

func main() {
	file := flag.String("file", "content/catalog.yaml", "catalog file to load")
	configPath := flag.String("config", "", "path to a config file")
	dryRun := flag.Bool("dry-run", false, "validate the catalog without writing it")
	flag.Parse()

	if err := run(*file, *configPath, *dryRun); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(file, configPath string, dryRun bool) error {
	bundles, err := loadBundles(file)
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Printf("%s: %d scenes OK\n", file, len(bundles))
		return nil
	}

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer func() { _ = db.Close() }()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	scenes := postgres.NewPostgresSceneStore(db, log)
	prompts := postgres.NewPostgresPromptStore(db, log)

	n, err := catalogfile.NewSeeder(store.NewTransactor(db), scenes, prompts, log).Seed(ctx, bundles)
	if err != nil {
		return err
	}
	log.Info("catalog seeded", "file", file, "scenes", n)

	if cfg.Redis.URL == "" {
		return nil
	}
	c, err := cache.NewRedis(ctx, cfg.Redis.URL, log)
	if err != nil {
		log.Warn("catalog written but cache not cleared", "error", err)
		return nil
	}
	defer func() { _ = c.Close() }()
	if err := catalog.NewService(scenes, prompts, c, cfg.Redis.CatalogTTL(), log).Invalidate(ctx); err != nil {
		log.Warn("catalog written but cache not cleared", "error", err)
	}
	return nil
}

func loadBundles(file string) ([]catalogfile.Bundle, error) {
	f, err := catalogfile.LoadFile(file)
	if err != nil {
		return nil, err
	}
	bundles, err := f.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return bundles, nil
}
