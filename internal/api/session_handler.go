package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/api/shared"
	"github.com/tinysteps/smart-explorer/internal/domain"
	"github.com/tinysteps/smart-explorer/internal/platform/logger"
	"github.com/tinysteps/smart-explorer/internal/service/session"
)

// SessionHandler serves the session lifecycle and reward endpoints.
type SessionHandler struct {
	sessions session.Service
	logger   *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions session.Service, logger *slog.Logger) *SessionHandler {
	if sessions == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("sessions cannot be nil for SessionHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "session_handler")),
	}
}

// StartSession handles POST /api/sessions/start.
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req StartSessionRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	result, err := h.sessions.Start(r.Context(), userID, req.SceneSlug, domain.Mode(req.Mode))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start session")
		return
	}

	log.Debug("session started",
		slog.String("session_id", result.Session.ID.String()),
		slog.String("scene", req.SceneSlug),
		slog.String("mode", req.Mode))
	shared.RespondWithJSON(w, r, http.StatusCreated, StartSessionResponse{
		Session: toStartedSession(result.Session),
		Prompt:  result.Prompt,
	})
}

// ResolvePrompt handles POST /api/sessions/{id}/prompt.
func (h *SessionHandler) ResolvePrompt(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req ResolvePromptRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	input := session.ResolveInput{
		PromptID:       uuid.MustParse(req.PromptID),
		Correct:        *req.Correct,
		ResponseTimeMs: req.ResponseTimeMs,
		IncorrectTaps:  req.IncorrectTaps,
		HintsUsed:      req.HintsUsed,
		Events:         make([]domain.ClientEvent, 0, len(req.Events)),
	}
	for _, e := range req.Events {
		input.Events = append(input.Events, domain.ClientEvent{
			Type:    domain.TurnType(e.Type),
			Payload: e.Payload,
		})
	}

	result, err := h.sessions.ResolvePrompt(r.Context(), userID, sessionID, input)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record answer")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ResolvePromptResponse{
		Session:        toSessionProgress(result.Session),
		RewardSnapshot: result.Rewards,
		NextPrompt:     result.NextPrompt,
		ScoreDelta:     result.ScoreDelta,
	})
}

// CompleteSession handles POST /api/sessions/{id}/complete.
func (h *SessionHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	result, err := h.sessions.Complete(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to complete session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CompleteSessionResponse{
		Session:        toSessionSummary(result.Session),
		RewardSnapshot: result.Rewards,
	})
}

// GetMyRewards handles GET /api/rewards/me.
func (h *SessionHandler) GetMyRewards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	snapshot, err := h.sessions.Rewards(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load rewards")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, snapshot)
}
