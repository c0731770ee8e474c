package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/domain"
)

// PromptStore persists prompts and samples them for the prompt selector.
type PromptStore interface {
	// GetByID returns ErrPromptNotFound if the prompt does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Prompt, error)

	// ListByScene returns a scene's prompts ordered by tier.
	ListByScene(ctx context.Context, sceneID uuid.UUID) ([]*domain.Prompt, error)

	// SampleEligible picks one prompt uniformly at random among the scene's
	// prompts at exactly tier whose id is not in exclude. It returns
	// (nil, nil) when none qualify.
	SampleEligible(
		ctx context.Context,
		sceneID uuid.UUID,
		tier domain.Tier,
		exclude []uuid.UUID,
	) (*domain.Prompt, error)

	// Upsert inserts or replaces a prompt by id.
	Upsert(ctx context.Context, prompt *domain.Prompt) error

	// WithTx returns a PromptStore bound to tx.
	WithTx(tx *sql.Tx) PromptStore
}
