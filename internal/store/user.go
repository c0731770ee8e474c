package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/domain"
)

// UserStore persists users known to the service.
type UserStore interface {
	// UpsertByExternalID returns the user with the given external identity,
	// creating it on first contact and refreshing LastSeenAt otherwise.
	UpsertByExternalID(ctx context.Context, externalID string, now time.Time) (*domain.User, error)

	// GetByID returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// WithTx returns a UserStore bound to tx.
	WithTx(tx *sql.Tx) UserStore
}
