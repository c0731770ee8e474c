package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tinysteps/smart-explorer/internal/api/shared"
	"github.com/tinysteps/smart-explorer/internal/domain"
	"github.com/tinysteps/smart-explorer/internal/platform/logger"
	"github.com/tinysteps/smart-explorer/internal/service/catalog"
)

// SceneHandler serves the scene catalog.
type SceneHandler struct {
	catalog catalog.Service
	logger  *slog.Logger
}

// NewSceneHandler creates a new SceneHandler.
func NewSceneHandler(catalog catalog.Service, logger *slog.Logger) *SceneHandler {
	if catalog == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("catalog cannot be nil for SceneHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SceneHandler{
		catalog: catalog,
		logger:  logger.With(slog.String("component", "scene_handler")),
	}
}

// ListScenes handles GET /api/scenes.
func (h *SceneHandler) ListScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := h.catalog.ListScenes(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list scenes")
		return
	}
	if scenes == nil {
		scenes = []domain.SceneSummary{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, scenes)
}

// GetScene handles GET /api/scenes/{slug}.
func (h *SceneHandler) GetScene(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	slug := chi.URLParam(r, "slug")

	detail, err := h.catalog.GetScene(r.Context(), slug)
	if err != nil {
		log.Debug("scene lookup failed", slog.String("slug", slug))
		HandleAPIError(w, r, err, "Failed to load scene")
		return
	}
	if detail.Items == nil {
		detail.Items = []domain.Item{}
	}
	if detail.Prompts == nil {
		detail.Prompts = []*domain.Prompt{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, detail)
}
