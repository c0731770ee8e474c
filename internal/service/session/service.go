package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/domain"
)

// Service manages the lifecycle of learning sessions.
type Service interface {
	// Start opens a session in the scene identified by slug. The returned
	// prompt is nil when the scene has no eligible prompts.
	Start(ctx context.Context, userID uuid.UUID, sceneSlug string, mode domain.Mode) (*StartResult, error)

	// ResolvePrompt records the outcome of the prompt in flight and serves
	// the next one, or ends the session.
	ResolvePrompt(ctx context.Context, userID, sessionID uuid.UUID, input ResolveInput) (*ResolveResult, error)

	// Complete ends the session if it is still open. Calling it again is a
	// no-op on the session.
	Complete(ctx context.Context, userID, sessionID uuid.UUID) (*CompleteResult, error)

	// Rewards returns the caller's reward snapshot. Users who have never
	// played get the starting aggregate.
	Rewards(ctx context.Context, userID uuid.UUID) (domain.RewardSnapshot, error)

	// FindStale lists up to limit open sessions idle for longer than olderThan.
	FindStale(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Session, error)
}

// ResolveInput is the client's report for one prompt.
type ResolveInput struct {
	PromptID       uuid.UUID
	Correct        bool
	ResponseTimeMs *int64
	IncorrectTaps  int
	HintsUsed      []string
	Events         []domain.ClientEvent
}

// Validate checks the input before anything is read or written.
func (in ResolveInput) Validate() error {
	if in.PromptID == uuid.Nil {
		return domain.NewValidationError("promptId", "is required", nil)
	}
	if in.IncorrectTaps < 0 {
		return domain.NewValidationError("incorrectTaps", "cannot be negative", nil)
	}
	if in.ResponseTimeMs != nil && *in.ResponseTimeMs < 0 {
		return domain.NewValidationError("responseTimeMs", "cannot be negative", nil)
	}
	for _, e := range in.Events {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// StartResult is returned by Start.
type StartResult struct {
	Session *domain.Session
	Prompt  *domain.Prompt
}

// ResolveResult is returned by ResolvePrompt.
type ResolveResult struct {
	Session    *domain.Session
	Rewards    domain.RewardSnapshot
	NextPrompt *domain.Prompt
	ScoreDelta int
}

// CompleteResult is returned by Complete.
type CompleteResult struct {
	Session *domain.Session
	Rewards domain.RewardSnapshot
}
