package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/domain"
	"github.com/tinysteps/smart-explorer/internal/platform/logger"
	"github.com/tinysteps/smart-explorer/internal/store"
)

// PostgresPromptStore implements the store.PromptStore interface
type PostgresPromptStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPromptStore creates a new PostgreSQL implementation of the PromptStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresPromptStore(db store.DBTX, logger *slog.Logger) *PostgresPromptStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPromptStore{
		db:     db,
		logger: logger.With(slog.String("component", "prompt_store")),
	}
}

var _ store.PromptStore = (*PostgresPromptStore)(nil)

// WithTx implements store.PromptStore.WithTx
func (s *PostgresPromptStore) WithTx(tx *sql.Tx) store.PromptStore {
	return &PostgresPromptStore{db: tx, logger: s.logger}
}

const promptColumns = `id, scene_id, type, difficulty, payload, text`

func scanPrompt(row interface{ Scan(...any) error }) (*domain.Prompt, error) {
	var (
		p                 domain.Prompt
		typ, difficulty   string
		payload, textJSON []byte
	)
	if err := row.Scan(&p.ID, &p.SceneID, &typ, &difficulty, &payload, &textJSON); err != nil {
		return nil, err
	}
	p.Type = domain.PromptType(typ)
	p.Difficulty = domain.Tier(difficulty)

	if !p.Type.Valid() {
		return nil, store.NewStoreError("prompt", "decode", fmt.Sprintf("unknown type %q for %s", typ, p.ID), nil)
	}
	decoded, err := domain.DecodePromptPayload(p.Type, payload)
	if err != nil {
		// A stored row that fails to decode is corrupt, not bad input; keep
		// the message and drop the invalid-argument sentinel.
		return nil, store.NewStoreError("prompt", "decode", "payload column for "+p.ID.String()+": "+err.Error(), nil)
	}
	p.Payload = decoded
	if err := json.Unmarshal(textJSON, &p.Text); err != nil {
		return nil, store.NewStoreError("prompt", "decode", "text column for "+p.ID.String(), err)
	}
	return &p, nil
}

// GetByID implements store.PromptStore.GetByID
func (s *PostgresPromptStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Prompt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, `SELECT `+promptColumns+` FROM prompts WHERE id = $1`, id)
	p, err := scanPrompt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("prompt not found", slog.String("prompt_id", id.String()))
			return nil, store.ErrPromptNotFound
		}
		log.Error("failed to get prompt",
			slog.String("error", err.Error()),
			slog.String("prompt_id", id.String()))
		return nil, MapError(err)
	}
	return p, nil
}

// ListByScene implements store.PromptStore.ListByScene
func (s *PostgresPromptStore) ListByScene(ctx context.Context, sceneID uuid.UUID) ([]*domain.Prompt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+promptColumns+` FROM prompts WHERE scene_id = $1 ORDER BY difficulty, id`,
		sceneID,
	)
	if err != nil {
		log.Error("failed to list prompts",
			slog.String("error", err.Error()),
			slog.String("scene_id", sceneID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	prompts := []*domain.Prompt{}
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return prompts, nil
}

// SampleEligible implements store.PromptStore.SampleEligible. Sampling is
// uniform over the matching rows.
func (s *PostgresPromptStore) SampleEligible(
	ctx context.Context,
	sceneID uuid.UUID,
	tier domain.Tier,
	exclude []uuid.UUID,
) (*domain.Prompt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// A NULL array would make the predicate NULL and filter every row.
	excluded := make([]string, 0, len(exclude))
	for _, id := range exclude {
		excluded = append(excluded, id.String())
	}

	query := `
		SELECT ` + promptColumns + `
		FROM prompts
		WHERE scene_id = $1
		  AND difficulty = $2
		  AND NOT (id::text = ANY($3::text[]))
		ORDER BY random()
		LIMIT 1
	`
	p, err := scanPrompt(s.db.QueryRowContext(ctx, query, sceneID, string(tier), excluded))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		log.Error("failed to sample prompt",
			slog.String("error", err.Error()),
			slog.String("scene_id", sceneID.String()),
			slog.String("tier", string(tier)))
		return nil, MapError(err)
	}
	return p, nil
}

// Upsert implements store.PromptStore.Upsert
func (s *PostgresPromptStore) Upsert(ctx context.Context, prompt *domain.Prompt) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := prompt.Validate(); err != nil {
		return err
	}
	if prompt.ID == uuid.Nil {
		prompt.ID = uuid.New()
	}

	payload, err := json.Marshal(prompt.Payload)
	if err != nil {
		return fmt.Errorf("encode prompt payload: %w", err)
	}
	text, err := json.Marshal(prompt.Text)
	if err != nil {
		return fmt.Errorf("encode prompt text: %w", err)
	}

	query := `
		INSERT INTO prompts (id, scene_id, type, difficulty, payload, text)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET scene_id = EXCLUDED.scene_id, type = EXCLUDED.type,
		    difficulty = EXCLUDED.difficulty, payload = EXCLUDED.payload, text = EXCLUDED.text
	`
	_, err = s.db.ExecContext(ctx, query,
		prompt.ID, prompt.SceneID, string(prompt.Type), string(prompt.Difficulty), payload, text,
	)
	if err != nil {
		log.Error("failed to upsert prompt",
			slog.String("error", err.Error()),
			slog.String("prompt_id", prompt.ID.String()))
		return MapError(err)
	}
	return nil
}
