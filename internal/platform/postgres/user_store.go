package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/domain"
	"github.com/tinysteps/smart-explorer/internal/platform/logger"
	"github.com/tinysteps/smart-explorer/internal/store"
)

// PostgresUserStore implements the store.UserStore interface
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

var _ store.UserStore = (*PostgresUserStore)(nil)

// WithTx implements store.UserStore.WithTx
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{db: tx, logger: s.logger}
}

// UpsertByExternalID implements store.UserStore.UpsertByExternalID
func (s *PostgresUserStore) UpsertByExternalID(
	ctx context.Context,
	externalID string,
	now time.Time,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	candidate, err := domain.NewUser(externalID, now)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (id, external_id, created_at, last_seen_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (external_id) DO UPDATE SET last_seen_at = EXCLUDED.last_seen_at
		RETURNING id, external_id, created_at, last_seen_at
	`
	var user domain.User
	err = s.db.QueryRowContext(ctx, query, candidate.ID, candidate.ExternalID, candidate.CreatedAt).
		Scan(&user.ID, &user.ExternalID, &user.CreatedAt, &user.LastSeenAt)
	if err != nil {
		log.Error("failed to upsert user",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return &user, nil
}

// GetByID implements store.UserStore.GetByID
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT id, external_id, created_at, last_seen_at FROM users WHERE id = $1`

	var user domain.User
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.ExternalID, &user.CreatedAt, &user.LastSeenAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, MapError(err)
	}
	return &user, nil
}
