package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/domain"
	"github.com/tinysteps/smart-explorer/internal/platform/logger"
	"github.com/tinysteps/smart-explorer/internal/store"
)

// PostgresTurnStore implements the store.TurnStore interface
type PostgresTurnStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTurnStore creates a new PostgreSQL implementation of the TurnStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTurnStore(db store.DBTX, logger *slog.Logger) *PostgresTurnStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTurnStore{
		db:     db,
		logger: logger.With(slog.String("component", "turn_store")),
	}
}

var _ store.TurnStore = (*PostgresTurnStore)(nil)

// WithTx implements store.TurnStore.WithTx
func (s *PostgresTurnStore) WithTx(tx *sql.Tx) store.TurnStore {
	return &PostgresTurnStore{db: tx, logger: s.logger}
}

// Append implements store.TurnStore.Append
func (s *PostgresTurnStore) Append(ctx context.Context, turns ...*domain.Turn) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO turns (id, session_id, type, prompt_id, correct, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, turn := range turns {
		var (
			promptID uuid.NullUUID
			correct  sql.NullBool
		)
		if turn.PromptID != nil {
			promptID = uuid.NullUUID{UUID: *turn.PromptID, Valid: true}
		}
		if turn.Correct != nil {
			correct = sql.NullBool{Bool: *turn.Correct, Valid: true}
		}
		payload := []byte(turn.Payload)
		if len(payload) == 0 {
			payload = []byte(`{}`)
		}

		if _, err := s.db.ExecContext(ctx, query,
			turn.ID, turn.SessionID, string(turn.Type), promptID, correct, payload, turn.CreatedAt,
		); err != nil {
			log.Error("failed to append turn",
				slog.String("error", err.Error()),
				slog.String("session_id", turn.SessionID.String()),
				slog.String("type", string(turn.Type)))
			return MapError(err)
		}
	}
	return nil
}

// ListBySession implements store.TurnStore.ListBySession
func (s *PostgresTurnStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.Turn, error) {
	query := `
		SELECT id, session_id, type, prompt_id, correct, payload, created_at
		FROM turns
		WHERE session_id = $1
		ORDER BY seq
	`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	turns := []*domain.Turn{}
	for rows.Next() {
		var (
			turn     domain.Turn
			typ      string
			promptID uuid.NullUUID
			correct  sql.NullBool
			payload  []byte
		)
		if err := rows.Scan(&turn.ID, &turn.SessionID, &typ, &promptID, &correct, &payload, &turn.CreatedAt); err != nil {
			return nil, MapError(err)
		}
		turn.Type = domain.TurnType(typ)
		if promptID.Valid {
			id := promptID.UUID
			turn.PromptID = &id
		}
		if correct.Valid {
			c := correct.Bool
			turn.Correct = &c
		}
		turn.Payload = payload
		turns = append(turns, &turn)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return turns, nil
}
