package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/domain"
	"github.com/tinysteps/smart-explorer/internal/domain/engine"
	"github.com/tinysteps/smart-explorer/internal/platform/logger"
	"github.com/tinysteps/smart-explorer/internal/redact"
	"github.com/tinysteps/smart-explorer/internal/store"
)

// Stores groups the persistence dependencies of the session manager.
type Stores struct {
	Scenes   store.SceneStore
	Prompts  store.PromptStore
	Sessions store.SessionStore
	Turns    store.TurnStore
	Rewards  store.RewardStore
}

func (s Stores) withTx(tx *sql.Tx) Stores {
	return Stores{
		Scenes:   s.Scenes.WithTx(tx),
		Prompts:  s.Prompts.WithTx(tx),
		Sessions: s.Sessions.WithTx(tx),
		Turns:    s.Turns.WithTx(tx),
		Rewards:  s.Rewards.WithTx(tx),
	}
}

// Option configures the session service.
type Option func(*serviceImpl)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *serviceImpl) {
		s.now = now
	}
}

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	tx     store.Transactor
	stores Stores
	engine engine.Service
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates the session manager.
func NewService(
	tx store.Transactor,
	stores Stores,
	engineService engine.Service,
	logger *slog.Logger,
	opts ...Option,
) (Service, error) {
	if tx == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "transactor cannot be nil"}
	}
	if stores.Scenes == nil || stores.Prompts == nil || stores.Sessions == nil ||
		stores.Turns == nil || stores.Rewards == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "all stores are required"}
	}
	if engineService == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "engine service cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &serviceImpl{
		tx:     tx,
		stores: stores,
		engine: engineService,
		now:    time.Now,
		logger: logger.With(slog.String("component", "session_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *serviceImpl) runInTransaction(ctx context.Context, fn func(ctx context.Context, r Stores) error) error {
	return s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.stores.withTx(tx))
	})
}

// Start implements Service.Start.
func (s *serviceImpl) Start(
	ctx context.Context,
	userID uuid.UUID,
	sceneSlug string,
	mode domain.Mode,
) (*StartResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !mode.Valid() {
		return nil, domain.ErrModeInvalid
	}
	if sceneSlug == "" {
		return nil, domain.NewValidationError("sceneSlug", "is required", nil)
	}

	now := s.now().UTC()
	var result StartResult
	err := s.runInTransaction(ctx, func(ctx context.Context, r Stores) error {
		scene, err := r.Scenes.GetBySlug(ctx, sceneSlug)
		if err != nil {
			return err
		}

		rewards, err := loadRewards(ctx, r.Rewards.Get, userID)
		if err != nil {
			return err
		}
		tier := s.engine.StartingTier(rewards, scene.Slug)

		sess := &domain.Session{
			ID:              uuid.New(),
			UserID:          userID,
			SceneID:         scene.ID,
			Mode:            mode,
			StartedAt:       now,
			StartDifficulty: tier,
			State: domain.SessionState{
				Difficulty: tier,
				History:    []uuid.UUID{},
				PromptCap:  s.engine.Params().PromptCap(mode),
			},
			UpdatedAt: now,
		}

		prompt, err := s.engine.SelectPrompt(ctx, r.Prompts, scene.ID, tier, nil)
		if err != nil {
			return err
		}
		if prompt != nil {
			sess.State.History = s.engine.AppendHistory(sess.State.History, prompt.ID)
		}

		if err := r.Sessions.Create(ctx, sess); err != nil {
			return err
		}
		if prompt != nil {
			shown := domain.NewTurn(sess.ID, domain.TurnPromptShown, &prompt.ID, nil, now)
			if err := r.Turns.Append(ctx, shown); err != nil {
				return err
			}
		}

		result = StartResult{Session: sess, Prompt: prompt}
		return nil
	})
	if err != nil {
		return nil, s.fail(log, "start", "failed to start session", err,
			slog.String("user_id", userID.String()),
			slog.String("scene_slug", sceneSlug))
	}

	log.Info("session started",
		slog.String("session_id", result.Session.ID.String()),
		slog.String("user_id", userID.String()),
		slog.String("mode", string(mode)),
		slog.String("tier", string(result.Session.StartDifficulty)),
		slog.Bool("has_prompt", result.Prompt != nil))
	return &result, nil
}

// ResolvePrompt implements Service.ResolvePrompt.
func (s *serviceImpl) ResolvePrompt(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	input ResolveInput,
) (*ResolveResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var result ResolveResult
	err := s.runInTransaction(ctx, func(ctx context.Context, r Stores) error {
		sess, err := loadOwnedSession(ctx, r.Sessions, userID, sessionID)
		if err != nil {
			return err
		}
		if sess.Ended() {
			return domain.ErrSessionEnded
		}

		prompt, err := r.Prompts.GetByID(ctx, input.PromptID)
		if err != nil {
			return err
		}
		if prompt.SceneID != sess.SceneID {
			return domain.NewValidationError("promptId", "does not belong to the session's scene", nil)
		}

		scene, err := r.Scenes.GetByID(ctx, sess.SceneID)
		if err != nil {
			return err
		}

		// Scored against the session's active tier, not the prompt's own.
		activeTier := sess.State.Difficulty
		delta := s.engine.Score(input.Correct, input.IncorrectTaps, input.ResponseTimeMs, activeTier)

		turns := make([]*domain.Turn, 0, len(input.Events)+3)
		for _, e := range input.Events {
			turns = append(turns, domain.NewTurn(sess.ID, e.Type, &prompt.ID, e.Payload, now))
		}
		resolved, err := resolvedTurn(sess.ID, prompt.ID, input, delta, now)
		if err != nil {
			return err
		}
		turns = append(turns, resolved)

		sess.RecordOutcome(input.Correct)
		sess.Score += delta

		if input.Correct {
			sess.State.CurrentStreak++
		} else {
			sess.State.CurrentStreak = 0
		}
		if sess.State.CurrentStreak > sess.StreakAchieved {
			sess.StreakAchieved = sess.State.CurrentStreak
		}

		next := s.engine.NextDifficulty(engine.DifficultyState{
			Tier:                 activeTier,
			ConsecutiveCorrect:   sess.State.ConsecutiveCorrect,
			ConsecutiveIncorrect: sess.State.ConsecutiveIncorrect,
		}, input.Correct, input.ResponseTimeMs)
		sess.State.Difficulty = next.Tier
		sess.State.ConsecutiveCorrect = next.ConsecutiveCorrect
		sess.State.ConsecutiveIncorrect = next.ConsecutiveIncorrect

		// The prompt was recorded when served; only a prompt the client
		// resolved out of turn still needs an entry.
		if h := sess.State.History; len(h) == 0 || h[len(h)-1] != prompt.ID {
			sess.State.History = s.engine.AppendHistory(sess.State.History, prompt.ID)
		}

		var nextPrompt *domain.Prompt
		if sess.TotalPrompts < sess.State.PromptCap {
			nextPrompt, err = s.engine.SelectPrompt(ctx, r.Prompts, sess.SceneID, sess.State.Difficulty, sess.State.History)
			if err != nil {
				return err
			}
		}
		if nextPrompt != nil {
			sess.State.History = s.engine.AppendHistory(sess.State.History, nextPrompt.ID)
			turns = append(turns, domain.NewTurn(sess.ID, domain.TurnPromptShown, &nextPrompt.ID, nil, now))
		} else {
			sess.End(now)
			turns = append(turns, domain.NewTurn(sess.ID, domain.TurnSceneComplete, nil, nil, now))
		}

		sess.UpdatedAt = now
		if err := r.Sessions.Update(ctx, sess); err != nil {
			return err
		}
		if err := r.Turns.Append(ctx, turns...); err != nil {
			return err
		}

		rewards, err := loadRewards(ctx, r.Rewards.GetForUpdate, userID)
		if err != nil {
			return err
		}
		err = s.engine.ApplyPromptOutcome(rewards, engine.Outcome{
			SceneSlug:   scene.Slug,
			Correct:     input.Correct,
			ScoreDelta:  delta,
			SessionTier: sess.State.Difficulty,
			At:          now,
		})
		if err != nil {
			return err
		}
		if sess.Ended() {
			if err := s.engine.ApplySessionCompletion(rewards, scene.Slug, sess); err != nil {
				return err
			}
		}
		if err := r.Rewards.Upsert(ctx, rewards); err != nil {
			return err
		}

		result = ResolveResult{
			Session:    sess,
			Rewards:    rewards.Snapshot(),
			NextPrompt: nextPrompt,
			ScoreDelta: delta,
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(log, "resolve_prompt", "failed to resolve prompt", err,
			slog.String("user_id", userID.String()),
			slog.String("session_id", sessionID.String()),
			slog.String("prompt_id", input.PromptID.String()))
	}

	log.Debug("prompt resolved",
		slog.String("session_id", sessionID.String()),
		slog.Bool("correct", input.Correct),
		slog.Int("score_delta", result.ScoreDelta),
		slog.String("tier", string(result.Session.State.Difficulty)),
		slog.Bool("ended", result.Session.Ended()))
	return &result, nil
}

// Complete implements Service.Complete.
func (s *serviceImpl) Complete(ctx context.Context, userID, sessionID uuid.UUID) (*CompleteResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := s.now().UTC()
	var result CompleteResult
	err := s.runInTransaction(ctx, func(ctx context.Context, r Stores) error {
		sess, err := loadOwnedSession(ctx, r.Sessions, userID, sessionID)
		if err != nil {
			return err
		}
		scene, err := r.Scenes.GetByID(ctx, sess.SceneID)
		if err != nil {
			return err
		}

		if !sess.Ended() {
			sess.End(now)
			sess.UpdatedAt = now
			if err := r.Sessions.Update(ctx, sess); err != nil {
				return err
			}
			if err := r.Turns.Append(ctx, domain.NewTurn(sess.ID, domain.TurnSceneComplete, nil, nil, now)); err != nil {
				return err
			}
		}

		rewards, err := loadRewards(ctx, r.Rewards.GetForUpdate, userID)
		if err != nil {
			return err
		}
		before := bestStreak(rewards, scene.Slug)
		if err := s.engine.ApplySessionCompletion(rewards, scene.Slug, sess); err != nil {
			return err
		}
		if bestStreak(rewards, scene.Slug) != before {
			rewards.UpdatedAt = now
			if err := r.Rewards.Upsert(ctx, rewards); err != nil {
				return err
			}
		}

		result = CompleteResult{Session: sess, Rewards: rewards.Snapshot()}
		return nil
	})
	if err != nil {
		return nil, s.fail(log, "complete", "failed to complete session", err,
			slog.String("user_id", userID.String()),
			slog.String("session_id", sessionID.String()))
	}

	log.Info("session completed",
		slog.String("session_id", sessionID.String()),
		slog.Int("score", result.Session.Score),
		slog.Int("accuracy", result.Session.Accuracy))
	return &result, nil
}

// Rewards implements Service.Rewards.
func (s *serviceImpl) Rewards(ctx context.Context, userID uuid.UUID) (domain.RewardSnapshot, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rewards, err := loadRewards(ctx, s.stores.Rewards.Get, userID)
	if err != nil {
		return domain.RewardSnapshot{}, s.fail(log, "rewards", "failed to load rewards", err,
			slog.String("user_id", userID.String()))
	}
	return rewards.Snapshot(), nil
}

// FindStale implements Service.FindStale.
func (s *serviceImpl) FindStale(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Session, error) {
	cutoff := s.now().UTC().Add(-olderThan)
	sessions, err := s.stores.Sessions.ListStale(ctx, cutoff, limit)
	if err != nil {
		return nil, NewServiceError("find_stale", "failed to list stale sessions", err)
	}
	return sessions, nil
}

func (s *serviceImpl) fail(log *slog.Logger, operation, message string, err error, attrs ...any) error {
	mapped := NewServiceError(operation, message, err)
	var svcErr *ServiceError
	if errors.As(mapped, &svcErr) {
		log.Error(message, append(attrs, slog.String("error", redact.Error(err)))...)
	} else {
		log.Debug(message, append(attrs, slog.String("error", mapped.Error()))...)
	}
	return mapped
}

func loadOwnedSession(
	ctx context.Context,
	sessions store.SessionStore,
	userID, sessionID uuid.UUID,
) (*domain.Session, error) {
	sess, err := sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, domain.ErrSessionNotOwned
	}
	return sess, nil
}

func loadRewards(
	ctx context.Context,
	get func(context.Context, uuid.UUID) (*domain.UserRewards, error),
	userID uuid.UUID,
) (*domain.UserRewards, error) {
	rewards, err := get(ctx, userID)
	if errors.Is(err, store.ErrRewardsNotFound) {
		return domain.NewUserRewards(userID), nil
	}
	return rewards, err
}

func bestStreak(rewards *domain.UserRewards, slug string) int {
	m, _ := rewards.Mastery(slug)
	return m.BestStreak
}

type resolvedPayload struct {
	ResponseTimeMs *int64   `json:"responseTimeMs,omitempty"`
	IncorrectTaps  int      `json:"incorrectTaps"`
	HintsUsed      []string `json:"hintsUsed"`
	ScoreDelta     int      `json:"scoreDelta"`
}

func resolvedTurn(
	sessionID, promptID uuid.UUID,
	input ResolveInput,
	delta int,
	at time.Time,
) (*domain.Turn, error) {
	hints := input.HintsUsed
	if hints == nil {
		hints = []string{}
	}
	payload, err := json.Marshal(resolvedPayload{
		ResponseTimeMs: input.ResponseTimeMs,
		IncorrectTaps:  input.IncorrectTaps,
		HintsUsed:      hints,
		ScoreDelta:     delta,
	})
	if err != nil {
		return nil, err
	}
	turn := domain.NewTurn(sessionID, domain.TurnPromptResolved, &promptID, payload, at)
	correct := input.Correct
	turn.Correct = &correct
	return turn, nil
}
