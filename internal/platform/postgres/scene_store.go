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

// PostgresSceneStore implements the store.SceneStore interface
type PostgresSceneStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSceneStore creates a new PostgreSQL implementation of the SceneStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresSceneStore(db store.DBTX, logger *slog.Logger) *PostgresSceneStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSceneStore{
		db:     db,
		logger: logger.With(slog.String("component", "scene_store")),
	}
}

var _ store.SceneStore = (*PostgresSceneStore)(nil)

// WithTx implements store.SceneStore.WithTx
func (s *PostgresSceneStore) WithTx(tx *sql.Tx) store.SceneStore {
	return &PostgresSceneStore{db: tx, logger: s.logger}
}

const sceneColumns = `id, slug, title, image_url, meta, created_at`

func scanScene(row interface{ Scan(...any) error }, extra ...any) (*domain.Scene, error) {
	var (
		scene domain.Scene
		meta  []byte
	)
	dest := append([]any{
		&scene.ID, &scene.Slug, &scene.Title, &scene.ImageURL, &meta, &scene.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(meta, &scene.Meta); err != nil {
		return nil, store.NewStoreError("scene", "decode", "meta column", err)
	}
	return &scene, nil
}

// GetBySlug implements store.SceneStore.GetBySlug
func (s *PostgresSceneStore) GetBySlug(ctx context.Context, slug string) (*domain.Scene, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, `SELECT `+sceneColumns+` FROM scenes WHERE slug = $1`, slug)
	scene, err := scanScene(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSceneNotFound
		}
		log.Error("failed to get scene by slug",
			slog.String("error", err.Error()),
			slog.String("slug", slug))
		return nil, MapError(err)
	}
	return scene, nil
}

// GetByID implements store.SceneStore.GetByID
func (s *PostgresSceneStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Scene, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, `SELECT `+sceneColumns+` FROM scenes WHERE id = $1`, id)
	scene, err := scanScene(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSceneNotFound
		}
		log.Error("failed to get scene by id",
			slog.String("error", err.Error()),
			slog.String("scene_id", id.String()))
		return nil, MapError(err)
	}
	return scene, nil
}

// List implements store.SceneStore.List
func (s *PostgresSceneStore) List(ctx context.Context) ([]domain.SceneSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT s.id, s.slug, s.title, s.image_url, s.meta, s.created_at,
		       (SELECT COUNT(*) FROM items i WHERE i.scene_id = s.id),
		       (SELECT COUNT(*) FROM prompts p WHERE p.scene_id = s.id)
		FROM scenes s
		ORDER BY s.title, s.slug
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list scenes", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	summaries := []domain.SceneSummary{}
	for rows.Next() {
		var items, prompts int
		scene, err := scanScene(rows, &items, &prompts)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, domain.SceneSummary{
			Scene:       *scene,
			ItemCount:   items,
			PromptCount: prompts,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return summaries, nil
}

// ListItems implements store.SceneStore.ListItems
func (s *PostgresSceneStore) ListItems(ctx context.Context, sceneID uuid.UUID) ([]domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, scene_id, label, bbox_x, bbox_y, bbox_w, bbox_h, alt_labels, tags, spoken
		FROM items
		WHERE scene_id = $1
		ORDER BY label, id
	`
	rows, err := s.db.QueryContext(ctx, query, sceneID)
	if err != nil {
		log.Error("failed to list items",
			slog.String("error", err.Error()),
			slog.String("scene_id", sceneID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	items := []domain.Item{}
	for rows.Next() {
		var (
			item                  domain.Item
			alt, tags, spokenJSON []byte
		)
		if err := rows.Scan(
			&item.ID, &item.SceneID, &item.Label,
			&item.BBox.X, &item.BBox.Y, &item.BBox.W, &item.BBox.H,
			&alt, &tags, &spokenJSON,
		); err != nil {
			return nil, MapError(err)
		}
		if err := decodeJSON(alt, &item.AltLabels); err != nil {
			return nil, err
		}
		if err := decodeJSON(tags, &item.Tags); err != nil {
			return nil, err
		}
		if err := decodeJSON(spokenJSON, &item.Spoken); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return items, nil
}

// Upsert implements store.SceneStore.Upsert
func (s *PostgresSceneStore) Upsert(ctx context.Context, scene *domain.Scene) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := scene.Validate(); err != nil {
		return err
	}
	if scene.ID == uuid.Nil {
		scene.ID = uuid.New()
	}
	if scene.CreatedAt.IsZero() {
		scene.CreatedAt = time.Now().UTC()
	}
	meta, err := json.Marshal(scene.Meta)
	if err != nil {
		return fmt.Errorf("encode scene meta: %w", err)
	}

	query := `
		INSERT INTO scenes (id, slug, title, image_url, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (slug) DO UPDATE
		SET title = EXCLUDED.title, image_url = EXCLUDED.image_url, meta = EXCLUDED.meta
		RETURNING id, created_at
	`
	err = s.db.QueryRowContext(ctx, query,
		scene.ID, scene.Slug, scene.Title, scene.ImageURL, meta, scene.CreatedAt,
	).Scan(&scene.ID, &scene.CreatedAt)
	if err != nil {
		log.Error("failed to upsert scene",
			slog.String("error", err.Error()),
			slog.String("slug", scene.Slug))
		return MapError(err)
	}

	log.Debug("scene upserted", slog.String("scene_id", scene.ID.String()), slog.String("slug", scene.Slug))
	return nil
}

// UpsertItem implements store.SceneStore.UpsertItem
func (s *PostgresSceneStore) UpsertItem(ctx context.Context, item *domain.Item) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		return err
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	alt, err := encodeJSON(item.AltLabels, "[]")
	if err != nil {
		return err
	}
	tags, err := encodeJSON(item.Tags, "[]")
	if err != nil {
		return err
	}
	spoken, err := encodeJSON(item.Spoken, "{}")
	if err != nil {
		return err
	}

	query := `
		INSERT INTO items (id, scene_id, label, bbox_x, bbox_y, bbox_w, bbox_h, alt_labels, tags, spoken)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE
		SET scene_id = EXCLUDED.scene_id, label = EXCLUDED.label,
		    bbox_x = EXCLUDED.bbox_x, bbox_y = EXCLUDED.bbox_y,
		    bbox_w = EXCLUDED.bbox_w, bbox_h = EXCLUDED.bbox_h,
		    alt_labels = EXCLUDED.alt_labels, tags = EXCLUDED.tags, spoken = EXCLUDED.spoken
	`
	_, err = s.db.ExecContext(ctx, query,
		item.ID, item.SceneID, item.Label,
		item.BBox.X, item.BBox.Y, item.BBox.W, item.BBox.H,
		alt, tags, spoken,
	)
	if err != nil {
		log.Error("failed to upsert item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return MapError(err)
	}
	return nil
}

// encodeJSON marshals v, substituting empty when v is a nil slice or map.
func encodeJSON(v any, empty string) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return []byte(empty), nil
	}
	return b, nil
}

func decodeJSON(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return store.NewStoreError("item", "decode", "json column", err)
	}
	return nil
}
