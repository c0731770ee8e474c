package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/domain"
)

// SceneStore persists scenes and their items. Scenes are reference data; the
// write methods are used by catalog seeding only.
type SceneStore interface {
	// GetBySlug returns ErrSceneNotFound if no scene has the slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Scene, error)

	// GetByID returns ErrSceneNotFound if the scene does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Scene, error)

	// List returns every scene with its item and prompt counts, ordered by title.
	List(ctx context.Context) ([]domain.SceneSummary, error)

	// ListItems returns a scene's items ordered by label.
	ListItems(ctx context.Context, sceneID uuid.UUID) ([]domain.Item, error)

	// Upsert inserts the scene or updates it by slug. On return scene.ID holds
	// the stored id.
	Upsert(ctx context.Context, scene *domain.Scene) error

	// UpsertItem inserts or replaces an item by id.
	UpsertItem(ctx context.Context, item *domain.Item) error

	// WithTx returns a SceneStore bound to tx.
	WithTx(tx *sql.Tx) SceneStore
}
