package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/tinysteps/smart-explorer/internal/config"
	"github.com/tinysteps/smart-explorer/internal/domain/engine"
	"github.com/tinysteps/smart-explorer/internal/platform/cache"
	"github.com/tinysteps/smart-explorer/internal/platform/postgres"
	"github.com/tinysteps/smart-explorer/internal/redact"
	"github.com/tinysteps/smart-explorer/internal/scheduler"
	"github.com/tinysteps/smart-explorer/internal/service/auth"
	"github.com/tinysteps/smart-explorer/internal/service/catalog"
	"github.com/tinysteps/smart-explorer/internal/service/identity"
	"github.com/tinysteps/smart-explorer/internal/service/session"
	"github.com/tinysteps/smart-explorer/internal/store"
	"github.com/tinysteps/smart-explorer/internal/task"
)

// workerDrainTimeout bounds how long shutdown waits for queued finalize tasks
// before canceling the ones still running.
const workerDrainTimeout = 15 * time.Second

// application holds the shared dependencies so they can be torn down in
// order on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	cache  cache.Cache

	jwtService     auth.JWTService
	identity       identity.Resolver
	catalogService catalog.Service
	sessionService session.Service

	taskQueue    *task.TaskQueue
	workerPool   *task.WorkerPool
	sweeper      *scheduler.Sweeper
	drainTimeout time.Duration
}

// newApplication wires stores, services and background workers.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:       cfg,
		logger:       logger,
		db:           db,
		drainTimeout: workerDrainTimeout,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.cache, err = newCache(ctx, cfg.Redis, logger)
	if err != nil {
		return nil, err
	}

	sceneStore := postgres.NewPostgresSceneStore(db, logger)
	promptStore := postgres.NewPostgresPromptStore(db, logger)
	stores := session.Stores{
		Scenes:   sceneStore,
		Prompts:  promptStore,
		Sessions: postgres.NewPostgresSessionStore(db, logger),
		Turns:    postgres.NewPostgresTurnStore(db, logger),
		Rewards:  postgres.NewPostgresRewardStore(db, logger),
	}

	app.identity = identity.NewService(postgres.NewPostgresUserStore(db, logger), logger)
	app.catalogService = catalog.NewService(sceneStore, promptStore, app.cache, cfg.Redis.CatalogTTL(), logger)

	params := engine.NewParams(engine.ParamsConfig{
		HistoryCap:    cfg.Engine.HistoryCap,
		EWMAAlpha:     cfg.Engine.EWMAAlpha,
		PlayPromptCap: cfg.Engine.PlayPromptCap,
		DayLocation:   cfg.Engine.Location(),
	})
	app.sessionService, err = session.NewService(
		store.NewTransactor(db),
		stores,
		engine.NewServiceWithParams(params),
		logger,
	)
	if err != nil {
		_ = app.cache.Close()
		return nil, fmt.Errorf("failed to create session service: %w", err)
	}

	if cfg.Sweeper.Enabled {
		if err := app.startBackground(); err != nil {
			_ = app.cache.Close()
			return nil, err
		}
	}

	logger.Info("application initialized")
	return app, nil
}

// newCache connects to Redis when a URL is configured and falls back to the
// no-op cache otherwise.
func newCache(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (cache.Cache, error) {
	if cfg.URL == "" {
		logger.Info("catalog cache disabled")
		return cache.Noop{}, nil
	}
	c, err := cache.NewRedis(ctx, cfg.URL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("catalog cache enabled", "ttl", cfg.CatalogTTL())
	return c, nil
}

// startBackground starts the worker pool and the stale-session sweeper that
// feeds it.
func (app *application) startBackground() error {
	cfg := app.config.Sweeper

	app.taskQueue = task.NewTaskQueue(cfg.QueueSize, app.logger)
	poolConfig := task.DefaultWorkerPoolConfig()
	poolConfig.WorkerCount = cfg.WorkerCount
	app.workerPool = task.NewWorkerPool(app.taskQueue, poolConfig, app.logger)
	app.workerPool.SetErrorHandler(app.logTaskFailure)
	app.workerPool.Start()

	sweeper, err := scheduler.New(app.sessionService, app.sessionService, app.taskQueue, scheduler.Config{
		Interval:   cfg.Interval(),
		StaleAfter: cfg.StaleAfter(),
		BatchSize:  cfg.BatchSize,
	}, app.logger)
	if err != nil {
		app.stopWorkers()
		return fmt.Errorf("failed to create session sweeper: %w", err)
	}
	if err := sweeper.Start(); err != nil {
		app.stopWorkers()
		return fmt.Errorf("failed to start session sweeper: %w", err)
	}
	app.sweeper = sweeper
	return nil
}

// Run serves HTTP until ctx is canceled, then shuts everything down.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// logTaskFailure reports a failed background task. A session that could not
// be finalized stays stale and is picked up again by the next sweep.
func (app *application) logTaskFailure(t task.Task, err error) {
	attrs := []any{
		slog.String("task_type", t.Type()),
		slog.String("error", redact.Error(err)),
	}
	if f, ok := t.(*task.FinalizeSessionTask); ok {
		attrs = append(attrs, slog.String("session_id", f.SessionID().String()))
	}
	app.logger.Warn("background task failed, leaving it for the next sweep", attrs...)
}

// stopWorkers closes the queue and waits for the workers to drain it. Tasks
// still running after the drain timeout are canceled.
func (app *application) stopWorkers() {
	if app.taskQueue != nil {
		app.taskQueue.Close()
	}
	if app.workerPool == nil {
		return
	}

	timeout := app.drainTimeout
	if timeout <= 0 {
		timeout = workerDrainTimeout
	}
	drained := make(chan struct{})
	go func() {
		app.workerPool.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		app.logger.Info("worker pool drained")
	case <-time.After(timeout):
		app.logger.Warn("worker pool drain timed out, canceling running tasks",
			slog.Duration("timeout", timeout))
		app.workerPool.Stop()
	}
}

// cleanup stops the sweeper, drains the workers and closes connections, in
// that order.
func (app *application) cleanup() {
	if app.sweeper != nil {
		app.sweeper.Stop()
	}
	app.stopWorkers()

	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error("error closing cache", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
