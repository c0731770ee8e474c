// Package scheduler runs the periodic sweep that finalizes abandoned
// sessions. Each sweep lists stale sessions and enqueues one finalize task per
// session for the worker pool.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/tinysteps/smart-explorer/internal/domain"
	"github.com/tinysteps/smart-explorer/internal/task"
)

// StaleFinder lists open sessions idle for longer than olderThan.
type StaleFinder interface {
	FindStale(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Session, error)
}

// Config controls the sweep schedule.
type Config struct {
	Interval   time.Duration
	StaleAfter time.Duration
	BatchSize  int
}

// Sweeper schedules stale-session sweeps.
type Sweeper struct {
	scheduler *gocron.Scheduler
	finder    StaleFinder
	completer task.SessionCompleter
	queue     task.TaskQueueWriter
	config    Config
	logger    *slog.Logger
}

// New creates a sweeper. Start must be called to begin scheduling.
func New(
	finder StaleFinder,
	completer task.SessionCompleter,
	queue task.TaskQueueWriter,
	config Config,
	logger *slog.Logger,
) (*Sweeper, error) {
	if finder == nil || completer == nil || queue == nil {
		return nil, errors.New("finder, completer and queue are required")
	}
	if config.Interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", config.Interval)
	}
	if config.StaleAfter <= 0 {
		return nil, fmt.Errorf("stale-after must be positive, got %s", config.StaleAfter)
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	return &Sweeper{
		scheduler: s,
		finder:    finder,
		completer: completer,
		queue:     queue,
		config:    config,
		logger:    logger.With(slog.String("component", "session_sweeper")),
	}, nil
}

// Start schedules the sweep every Interval and returns immediately. The
// first sweep runs once Interval has elapsed.
func (s *Sweeper) Start() error {
	_, err := s.scheduler.Every(s.config.Interval).WaitForSchedule().Do(func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.logger.Error("session sweep failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	s.scheduler.StartAsync()
	s.logger.Info("session sweeper started",
		slog.Duration("interval", s.config.Interval),
		slog.Duration("stale_after", s.config.StaleAfter))
	return nil
}

// Stop halts scheduling. A sweep already running finishes.
func (s *Sweeper) Stop() {
	s.scheduler.Stop()
	s.logger.Info("session sweeper stopped")
}

// Sweep enqueues a finalize task for every stale session and returns how
// many were enqueued. A full queue ends the sweep early; the remaining
// sessions are picked up next time.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	stale, err := s.finder.FindStale(ctx, s.config.StaleAfter, s.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list stale sessions: %w", err)
	}

	enqueued := 0
	for _, sess := range stale {
		t, err := task.NewFinalizeSessionTask(sess.UserID, sess.ID, s.completer, s.logger)
		if err != nil {
			return enqueued, err
		}
		if err := s.queue.Enqueue(t); err != nil {
			if errors.Is(err, task.ErrQueueFull) {
				s.logger.Warn("task queue full, deferring remaining stale sessions",
					slog.Int("enqueued", enqueued),
					slog.Int("remaining", len(stale)-enqueued))
				return enqueued, nil
			}
			return enqueued, fmt.Errorf("enqueue finalize task for %s: %w", sess.ID, err)
		}
		enqueued++
	}

	if enqueued > 0 {
		s.logger.Info("stale sessions queued for finalization", slog.Int("count", enqueued))
	}
	return enqueued, nil
}
