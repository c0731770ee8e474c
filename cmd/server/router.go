package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tinysteps/smart-explorer/internal/api"
	apiMiddleware "github.com/tinysteps/smart-explorer/internal/api/middleware"
)

// setupRouter creates the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(middleware.Recoverer)

	sessionHandler := api.NewSessionHandler(app.sessionService, app.logger)
	sceneHandler := api.NewSceneHandler(app.catalogService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService, app.identity)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/sessions/start", sessionHandler.StartSession)
		r.Post("/sessions/{id}/prompt", sessionHandler.ResolvePrompt)
		r.Post("/sessions/{id}/complete", sessionHandler.CompleteSession)

		r.Get("/scenes", sceneHandler.ListScenes)
		r.Get("/scenes/{slug}", sceneHandler.GetScene)

		r.Get("/rewards/me", sessionHandler.GetMyRewards)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
