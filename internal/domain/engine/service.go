package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/domain"
)

// Common errors
var (
	ErrNilRewards = errors.New("user rewards cannot be nil")
	ErrNilSession = errors.New("session cannot be nil")
)

// Service defines the interface for adaptive engine operations
type Service interface {
	// Params exposes the constants the service was built with
	Params() *Params

	// NextDifficulty runs the difficulty controller
	NextDifficulty(state DifficultyState, correct bool, responseTimeMs *int64) DifficultyState

	// Score computes the points for one resolved prompt
	Score(correct bool, incorrectTaps int, responseTimeMs *int64, tier domain.Tier) int

	// SelectPrompt picks the next prompt, walking down the ladder when needed
	SelectPrompt(
		ctx context.Context,
		sampler PromptSampler,
		sceneID uuid.UUID,
		tier domain.Tier,
		exclude []uuid.UUID,
	) (*domain.Prompt, error)

	// AppendHistory records a served prompt in a capped history
	AppendHistory(history []uuid.UUID, id uuid.UUID) []uuid.UUID

	// StartingTier chooses the opening tier for a new session
	StartingTier(rewards *domain.UserRewards, sceneSlug string) domain.Tier

	// ApplyPromptOutcome updates the reward aggregate after a resolution
	ApplyPromptOutcome(rewards *domain.UserRewards, outcome Outcome) error

	// ApplySessionCompletion updates the reward aggregate at session end
	ApplySessionCompletion(rewards *domain.UserRewards, sceneSlug string, session *domain.Session) error
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new engine service with default parameters
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewServiceWithParams creates a new engine service with custom parameters
func NewServiceWithParams(params *Params) Service {
	return &defaultService{params: params}
}

func (s *defaultService) Params() *Params {
	return s.params
}

func (s *defaultService) NextDifficulty(
	state DifficultyState,
	correct bool,
	responseTimeMs *int64,
) DifficultyState {
	return NextDifficulty(state, correct, responseTimeMs, s.params)
}

func (s *defaultService) Score(
	correct bool,
	incorrectTaps int,
	responseTimeMs *int64,
	tier domain.Tier,
) int {
	return Score(correct, incorrectTaps, responseTimeMs, tier, s.params)
}

func (s *defaultService) SelectPrompt(
	ctx context.Context,
	sampler PromptSampler,
	sceneID uuid.UUID,
	tier domain.Tier,
	exclude []uuid.UUID,
) (*domain.Prompt, error) {
	return SelectPrompt(ctx, sampler, sceneID, tier, exclude)
}

func (s *defaultService) AppendHistory(history []uuid.UUID, id uuid.UUID) []uuid.UUID {
	return AppendHistory(history, id, s.params.HistoryCap)
}

func (s *defaultService) StartingTier(rewards *domain.UserRewards, sceneSlug string) domain.Tier {
	return StartingTier(rewards, sceneSlug, s.params)
}

func (s *defaultService) ApplyPromptOutcome(rewards *domain.UserRewards, outcome Outcome) error {
	if rewards == nil {
		return ErrNilRewards
	}
	if outcome.At.IsZero() {
		outcome.At = time.Now()
	}
	ApplyPromptOutcome(rewards, outcome, s.params)
	return nil
}

func (s *defaultService) ApplySessionCompletion(
	rewards *domain.UserRewards,
	sceneSlug string,
	session *domain.Session,
) error {
	if rewards == nil {
		return ErrNilRewards
	}
	if session == nil {
		return ErrNilSession
	}
	ApplySessionCompletion(rewards, sceneSlug, session)
	return nil
}
