package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/domain"
)

// RewardStore persists the per-user reward aggregate.
type RewardStore interface {
	// Get returns ErrRewardsNotFound if the user has no aggregate yet.
	Get(ctx context.Context, userID uuid.UUID) (*domain.UserRewards, error)

	// GetForUpdate is Get with a row lock held until the surrounding
	// transaction ends. Implementations create the row with starting values
	// when it is missing. Only meaningful on a store bound with WithTx.
	GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.UserRewards, error)

	// Upsert inserts or replaces the aggregate.
	Upsert(ctx context.Context, rewards *domain.UserRewards) error

	// WithTx returns a RewardStore bound to tx.
	WithTx(tx *sql.Tx) RewardStore
}
