package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/domain"
	"github.com/tinysteps/smart-explorer/internal/platform/logger"
	"github.com/tinysteps/smart-explorer/internal/store"
)

// PostgresRewardStore implements the store.RewardStore interface
type PostgresRewardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRewardStore creates a new PostgreSQL implementation of the RewardStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresRewardStore(db store.DBTX, logger *slog.Logger) *PostgresRewardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRewardStore{
		db:     db,
		logger: logger.With(slog.String("component", "reward_store")),
	}
}

var _ store.RewardStore = (*PostgresRewardStore)(nil)

// WithTx implements store.RewardStore.WithTx
func (s *PostgresRewardStore) WithTx(tx *sql.Tx) store.RewardStore {
	return &PostgresRewardStore{db: tx, logger: s.logger}
}

const rewardSelect = `
	SELECT user_id, xp, coins, hearts, daily_streak, best_streak, last_played_on,
	       lifetime_correct, lifetime_total, accuracy, scenes, updated_at
	FROM user_rewards
	WHERE user_id = $1`

// Get implements store.RewardStore.Get
func (s *PostgresRewardStore) Get(ctx context.Context, userID uuid.UUID) (*domain.UserRewards, error) {
	return s.get(ctx, rewardSelect, userID)
}

// GetForUpdate implements store.RewardStore.GetForUpdate. A missing row is
// inserted with column defaults first so concurrent first writers queue on
// the same lock.
func (s *PostgresRewardStore) GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.UserRewards, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_rewards (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create user rewards row",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	return s.get(ctx, rewardSelect+` FOR UPDATE`, userID)
}

func (s *PostgresRewardStore) get(ctx context.Context, query string, userID uuid.UUID) (*domain.UserRewards, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		r          domain.UserRewards
		lastPlayed sql.NullTime
		scenes     []byte
	)
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&r.UserID, &r.XP, &r.Coins, &r.Hearts, &r.DailyStreak, &r.BestStreak, &lastPlayed,
		&r.LifetimeCorrect, &r.LifetimeTotal, &r.Accuracy, &scenes, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRewardsNotFound
		}
		log.Error("failed to get user rewards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	if lastPlayed.Valid {
		day := lastPlayed.Time.UTC()
		r.LastPlayedOn = &day
	}
	r.Scenes = make(map[string]domain.SceneMastery)
	if err := decodeJSON(scenes, &r.Scenes); err != nil {
		return nil, err
	}
	return &r, nil
}

// Upsert implements store.RewardStore.Upsert
func (s *PostgresRewardStore) Upsert(ctx context.Context, r *domain.UserRewards) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	scenes, err := encodeJSON(r.Scenes, `{}`)
	if err != nil {
		return err
	}
	var lastPlayed sql.NullString
	if r.LastPlayedOn != nil {
		// DATE column; send the calendar day as text so no zone shift applies.
		lastPlayed = sql.NullString{String: r.LastPlayedOn.Format("2006-01-02"), Valid: true}
	}

	query := `
		INSERT INTO user_rewards (
			user_id, xp, coins, hearts, daily_streak, best_streak, last_played_on,
			lifetime_correct, lifetime_total, accuracy, scenes, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			xp = EXCLUDED.xp,
			coins = EXCLUDED.coins,
			hearts = EXCLUDED.hearts,
			daily_streak = EXCLUDED.daily_streak,
			best_streak = EXCLUDED.best_streak,
			last_played_on = EXCLUDED.last_played_on,
			lifetime_correct = EXCLUDED.lifetime_correct,
			lifetime_total = EXCLUDED.lifetime_total,
			accuracy = EXCLUDED.accuracy,
			scenes = EXCLUDED.scenes,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		r.UserID, r.XP, r.Coins, r.Hearts, r.DailyStreak, r.BestStreak, lastPlayed,
		r.LifetimeCorrect, r.LifetimeTotal, r.Accuracy, scenes, r.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to upsert user rewards",
			slog.String("error", err.Error()),
			slog.String("user_id", r.UserID.String()))
		return MapError(err)
	}

	log.Debug("user rewards saved",
		slog.String("user_id", r.UserID.String()),
		slog.Int("xp", r.XP))
	return nil
}
