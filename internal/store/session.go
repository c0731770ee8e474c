package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/domain"
)

// SessionStore persists learning sessions.
type SessionStore interface {
	// Create inserts a new session at version 1.
	Create(ctx context.Context, session *domain.Session) error

	// GetByID returns ErrSessionNotFound if the session does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)

	// Update writes the session if its stored version still equals
	// session.Version, then increments session.Version. A stale version
	// yields ErrVersionConflict; a missing row yields ErrSessionNotFound.
	Update(ctx context.Context, session *domain.Session) error

	// ListStale returns up to limit open sessions whose last update is older
	// than cutoff, oldest first.
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Session, error)

	// WithTx returns a SessionStore bound to tx.
	WithTx(tx *sql.Tx) SessionStore
}

// TurnStore is the append-only session event log.
type TurnStore interface {
	// Append writes the turns in order.
	Append(ctx context.Context, turns ...*domain.Turn) error

	// ListBySession returns a session's turns in insertion order.
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.Turn, error)

	// WithTx returns a TurnStore bound to tx.
	WithTx(tx *sql.Tx) TurnStore
}
