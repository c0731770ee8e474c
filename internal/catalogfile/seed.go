package catalogfile

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/tinysteps/smart-explorer/internal/store"
)

// Seeder writes bundles to the catalog stores.
type Seeder struct {
	tx      store.Transactor
	scenes  store.SceneStore
	prompts store.PromptStore
	logger  *slog.Logger
}

// NewSeeder creates a Seeder.
func NewSeeder(tx store.Transactor, scenes store.SceneStore, prompts store.PromptStore, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		tx:      tx,
		scenes:  scenes,
		prompts: prompts,
		logger:  logger.With(slog.String("component", "catalog_seeder")),
	}
}

// Seed upserts each bundle in its own transaction and returns how many scenes
// were written. It stops at the first failure.
func (s *Seeder) Seed(ctx context.Context, bundles []Bundle) (int, error) {
	for i := range bundles {
		if err := s.seedOne(ctx, &bundles[i]); err != nil {
			return i, fmt.Errorf("seed scene %q: %w", bundles[i].Scene.Slug, err)
		}
		s.logger.InfoContext(ctx, "seeded scene",
			slog.String("slug", bundles[i].Scene.Slug),
			slog.Int("items", len(bundles[i].Items)),
			slog.Int("prompts", len(bundles[i].Prompts)))
	}
	return len(bundles), nil
}

func (s *Seeder) seedOne(ctx context.Context, b *Bundle) error {
	return s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		scenes := s.scenes
		prompts := s.prompts
		if tx != nil {
			scenes = scenes.WithTx(tx)
			prompts = prompts.WithTx(tx)
		}

		if err := scenes.Upsert(ctx, &b.Scene); err != nil {
			return err
		}
		// A scene created before ids were derived keeps its stored id.
		for i := range b.Items {
			b.Items[i].SceneID = b.Scene.ID
			if err := scenes.UpsertItem(ctx, &b.Items[i]); err != nil {
				return err
			}
		}
		for _, p := range b.Prompts {
			p.SceneID = b.Scene.ID
			if err := prompts.Upsert(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
}
