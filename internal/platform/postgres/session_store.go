package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/domain"
	"github.com/tinysteps/smart-explorer/internal/platform/logger"
	"github.com/tinysteps/smart-explorer/internal/store"
)

// PostgresSessionStore implements the store.SessionStore interface
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a new PostgreSQL implementation of the SessionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

var _ store.SessionStore = (*PostgresSessionStore)(nil)

// WithTx implements store.SessionStore.WithTx
func (s *PostgresSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &PostgresSessionStore{db: tx, logger: s.logger}
}

const sessionColumns = `
	id, user_id, scene_id, mode, started_at, ended_at, start_difficulty, end_difficulty,
	accuracy, score, total_prompts, correct_prompts, streak_achieved, state, version, updated_at`

func scanSession(row interface{ Scan(...any) error }) (*domain.Session, error) {
	var (
		sess          domain.Session
		mode, start   string
		endedAt       sql.NullTime
		endDifficulty sql.NullString
		state         []byte
	)
	err := row.Scan(
		&sess.ID, &sess.UserID, &sess.SceneID, &mode, &sess.StartedAt, &endedAt, &start, &endDifficulty,
		&sess.Accuracy, &sess.Score, &sess.TotalPrompts, &sess.CorrectPrompts, &sess.StreakAchieved,
		&state, &sess.Version, &sess.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sess.Mode = domain.Mode(mode)
	sess.StartDifficulty = domain.Tier(start)
	if endedAt.Valid {
		t := endedAt.Time.UTC()
		sess.EndedAt = &t
	}
	if endDifficulty.Valid {
		tier := domain.Tier(endDifficulty.String)
		sess.EndDifficulty = &tier
	}
	if err := json.Unmarshal(state, &sess.State); err != nil {
		return nil, store.NewStoreError("session", "decode", "state column for "+sess.ID.String(), err)
	}
	return &sess, nil
}

func nullableTier(t *domain.Tier) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*t), Valid: true}
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Create implements store.SessionStore.Create
func (s *PostgresSessionStore) Create(ctx context.Context, sess *domain.Session) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	state, err := json.Marshal(sess.State)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = sess.StartedAt
	}
	sess.Version = 1

	query := `
		INSERT INTO sessions (
			id, user_id, scene_id, mode, started_at, ended_at, start_difficulty, end_difficulty,
			accuracy, score, total_prompts, correct_prompts, streak_achieved, state, version, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = s.db.ExecContext(ctx, query,
		sess.ID, sess.UserID, sess.SceneID, string(sess.Mode), sess.StartedAt,
		nullableTime(sess.EndedAt), string(sess.StartDifficulty), nullableTier(sess.EndDifficulty),
		sess.Accuracy, sess.Score, sess.TotalPrompts, sess.CorrectPrompts, sess.StreakAchieved,
		state, sess.Version, sess.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create session",
			slog.String("error", err.Error()),
			slog.String("session_id", sess.ID.String()),
			slog.String("user_id", sess.UserID.String()))
		return MapError(err)
	}

	log.Debug("session created",
		slog.String("session_id", sess.ID.String()),
		slog.String("mode", string(sess.Mode)))
	return nil
}

// GetByID implements store.SessionStore.GetByID
func (s *PostgresSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	sess, err := scanSession(s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to get session",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return nil, MapError(err)
	}
	return sess, nil
}

// Update implements store.SessionStore.Update
func (s *PostgresSessionStore) Update(ctx context.Context, sess *domain.Session) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	state, err := json.Marshal(sess.State)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}

	query := `
		UPDATE sessions
		SET ended_at = $1, end_difficulty = $2, accuracy = $3, score = $4,
		    total_prompts = $5, correct_prompts = $6, streak_achieved = $7,
		    state = $8, updated_at = $9, version = version + 1
		WHERE id = $10 AND version = $11
	`
	result, err := s.db.ExecContext(ctx, query,
		nullableTime(sess.EndedAt), nullableTier(sess.EndDifficulty), sess.Accuracy, sess.Score,
		sess.TotalPrompts, sess.CorrectPrompts, sess.StreakAchieved,
		state, sess.UpdatedAt, sess.ID, sess.Version,
	)
	if err != nil {
		log.Error("failed to update session",
			slog.String("error", err.Error()),
			slog.String("session_id", sess.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrVersionConflict); err != nil {
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}
		var exists bool
		if qErr := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`, sess.ID,
		).Scan(&exists); qErr != nil {
			return MapError(qErr)
		}
		if !exists {
			return store.ErrSessionNotFound
		}
		log.Warn("session version conflict",
			slog.String("session_id", sess.ID.String()),
			slog.Int("version", sess.Version))
		return store.ErrVersionConflict
	}

	sess.Version++
	return nil
}

// ListStale implements store.SessionStore.ListStale
func (s *PostgresSessionStore) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE ended_at IS NULL AND updated_at < $1
		ORDER BY updated_at
		LIMIT $2`
	rows, err := s.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		log.Error("failed to list stale sessions", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	sessions := []*domain.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return sessions, nil
}
