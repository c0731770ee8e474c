package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/domain"
	"github.com/tinysteps/smart-explorer/internal/platform/logger"
	"github.com/tinysteps/smart-explorer/internal/service/session"
)

// SessionCompleter is the part of the session service the finalizer needs.
type SessionCompleter interface {
	Complete(ctx context.Context, userID, sessionID uuid.UUID) (*session.CompleteResult, error)
}

// FinalizeSessionTask completes one abandoned session on behalf of its owner.
type FinalizeSessionTask struct {
	id        uuid.UUID
	userID    uuid.UUID
	sessionID uuid.UUID
	completer SessionCompleter
	logger    *slog.Logger
}

var _ Task = (*FinalizeSessionTask)(nil)

// NewFinalizeSessionTask creates a task for the given session.
func NewFinalizeSessionTask(
	userID, sessionID uuid.UUID,
	completer SessionCompleter,
	logger *slog.Logger,
) (*FinalizeSessionTask, error) {
	if completer == nil {
		return nil, errors.New("completer cannot be nil")
	}
	if sessionID == uuid.Nil {
		return nil, errors.New("session id cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FinalizeSessionTask{
		id:        uuid.New(),
		userID:    userID,
		sessionID: sessionID,
		completer: completer,
		logger:    logger,
	}, nil
}

// ID implements Task.
func (t *FinalizeSessionTask) ID() uuid.UUID { return t.id }

// Type implements Task.
func (t *FinalizeSessionTask) Type() string { return TaskTypeFinalizeSession }

// SessionID returns the session the task finalizes.
func (t *FinalizeSessionTask) SessionID() uuid.UUID { return t.sessionID }

// Execute implements Task. A session that vanished or was touched by a
// concurrent request is skipped; the next sweep will see its current state.
func (t *FinalizeSessionTask) Execute(ctx context.Context) error {
	log := t.logger.With(slog.String("session_id", t.sessionID.String()))
	ctx = logger.WithLogger(ctx, log)

	_, err := t.completer.Complete(ctx, t.userID, t.sessionID)
	switch {
	case err == nil:
		log.Info("finalized stale session")
		return nil
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrNotFound):
		log.Debug("skipping stale session", slog.String("reason", err.Error()))
		return nil
	default:
		return fmt.Errorf("finalize session %s: %w", t.sessionID, err)
	}
}
