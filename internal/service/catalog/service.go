// Package catalog serves the read-only scene catalog.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tinysteps/smart-explorer/internal/domain"
	"github.com/tinysteps/smart-explorer/internal/platform/cache"
	"github.com/tinysteps/smart-explorer/internal/platform/logger"
	"github.com/tinysteps/smart-explorer/internal/store"
)

// ScenesCacheKey holds the cached scene listing.
const ScenesCacheKey = "catalog:scenes"

// Service reads scenes, items and prompts.
type Service interface {
	// ListScenes returns every scene with item and prompt counts.
	ListScenes(ctx context.Context) ([]domain.SceneSummary, error)
	// GetScene returns a scene with its items and prompts.
	GetScene(ctx context.Context, slug string) (*domain.SceneDetail, error)
	// Invalidate drops cached listings after the catalog changes.
	Invalidate(ctx context.Context) error
}

type serviceImpl struct {
	scenes  store.SceneStore
	prompts store.PromptStore
	cache   cache.Cache
	ttl     time.Duration
	logger  *slog.Logger
}

// NewService creates a catalog service. A nil cache disables caching.
func NewService(
	scenes store.SceneStore,
	prompts store.PromptStore,
	c cache.Cache,
	ttl time.Duration,
	logger *slog.Logger,
) Service {
	if scenes == nil {
		panic("scenes cannot be nil")
	}
	if prompts == nil {
		panic("prompts cannot be nil")
	}
	if c == nil {
		c = cache.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &serviceImpl{
		scenes:  scenes,
		prompts: prompts,
		cache:   c,
		ttl:     ttl,
		logger:  logger.With(slog.String("component", "catalog_service")),
	}
}

// ListScenes implements Service.ListScenes. Cache failures are logged and the
// listing is read from the store.
func (s *serviceImpl) ListScenes(ctx context.Context) ([]domain.SceneSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if raw, ok, err := s.cache.Get(ctx, ScenesCacheKey); err != nil {
		log.Warn("scene cache read failed", slog.String("error", err.Error()))
	} else if ok {
		var cached []domain.SceneSummary
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		log.Warn("discarding undecodable scene cache entry")
	}

	scenes, err := s.scenes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenes: %w", err)
	}

	if raw, err := json.Marshal(scenes); err == nil {
		if err := s.cache.Set(ctx, ScenesCacheKey, raw, s.ttl); err != nil {
			log.Warn("scene cache write failed", slog.String("error", err.Error()))
		}
	}
	return scenes, nil
}

// GetScene implements Service.GetScene.
func (s *serviceImpl) GetScene(ctx context.Context, slug string) (*domain.SceneDetail, error) {
	if slug == "" {
		return nil, domain.NewValidationError("slug", "is required", nil)
	}

	scene, err := s.scenes.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrSceneNotFound) {
			return nil, domain.ErrSceneNotFound
		}
		return nil, fmt.Errorf("failed to get scene: %w", err)
	}

	items, err := s.scenes.ListItems(ctx, scene.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	prompts, err := s.prompts.ListByScene(ctx, scene.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}

	return &domain.SceneDetail{Scene: *scene, Items: items, Prompts: prompts}, nil
}

// Invalidate implements Service.Invalidate.
func (s *serviceImpl) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, ScenesCacheKey)
}
