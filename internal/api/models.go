package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/domain"
)

// StartSessionRequest is the body of POST /api/sessions/start.
type StartSessionRequest struct {
	SceneSlug string `json:"sceneSlug" validate:"required,max=64"`
	Mode      string `json:"mode"      validate:"required,oneof=learn play therapy"`
}

// ClientEventRequest is one analytics event sent with a prompt resolution.
type ClientEventRequest struct {
	Type    string          `json:"type"    validate:"required,oneof=tap hint_used"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ResolvePromptRequest is the body of POST /api/sessions/{id}/prompt.
type ResolvePromptRequest struct {
	PromptID       string               `json:"promptId"                 validate:"required,uuid"`
	Correct        *bool                `json:"correct"                  validate:"required"`
	ResponseTimeMs *int64               `json:"responseTimeMs,omitempty" validate:"omitempty,gte=0"`
	IncorrectTaps  int                  `json:"incorrectTaps"            validate:"gte=0,lte=1000"`
	HintsUsed      []string             `json:"hintsUsed"                validate:"max=32,dive,max=64"`
	Events         []ClientEventRequest `json:"events"                   validate:"max=256,dive"`
}

// SessionMeta describes how a new session was configured.
type SessionMeta struct {
	PromptCap       int         `json:"promptCap"`
	StartDifficulty domain.Tier `json:"startDifficulty"`
	StartedAt       time.Time   `json:"startedAt"`
}

// StartedSession is the session part of the start response.
type StartedSession struct {
	ID         uuid.UUID   `json:"id"`
	SceneID    uuid.UUID   `json:"sceneId"`
	Mode       domain.Mode `json:"mode"`
	Difficulty domain.Tier `json:"difficulty"`
	Meta       SessionMeta `json:"meta"`
}

// StartSessionResponse is returned by POST /api/sessions/start. Prompt is
// null when the scene has nothing to ask.
type StartSessionResponse struct {
	Session StartedSession `json:"session"`
	Prompt  *domain.Prompt `json:"prompt"`
}

// SessionProgress is the session part of the resolve response.
type SessionProgress struct {
	ID             uuid.UUID   `json:"id"`
	Score          int         `json:"score"`
	Accuracy       int         `json:"accuracy"`
	TotalPrompts   int         `json:"totalPrompts"`
	CorrectPrompts int         `json:"correctPrompts"`
	Difficulty     domain.Tier `json:"difficulty"`
	Ended          bool        `json:"ended"`
}

// ResolvePromptResponse is returned by POST /api/sessions/{id}/prompt.
type ResolvePromptResponse struct {
	Session        SessionProgress       `json:"session"`
	RewardSnapshot domain.RewardSnapshot `json:"rewardSnapshot"`
	NextPrompt     *domain.Prompt        `json:"nextPrompt"`
	ScoreDelta     int                   `json:"scoreDelta"`
}

// SessionSummary is the session part of the complete response.
type SessionSummary struct {
	ID             uuid.UUID `json:"id"`
	Score          int       `json:"score"`
	Accuracy       int       `json:"accuracy"`
	TotalPrompts   int       `json:"totalPrompts"`
	CorrectPrompts int       `json:"correctPrompts"`
	StreakAchieved int       `json:"streakAchieved"`
}

// CompleteSessionResponse is returned by POST /api/sessions/{id}/complete.
type CompleteSessionResponse struct {
	Session        SessionSummary        `json:"session"`
	RewardSnapshot domain.RewardSnapshot `json:"rewardSnapshot"`
}

func toStartedSession(s *domain.Session) StartedSession {
	return StartedSession{
		ID:         s.ID,
		SceneID:    s.SceneID,
		Mode:       s.Mode,
		Difficulty: s.State.Difficulty,
		Meta: SessionMeta{
			PromptCap:       s.State.PromptCap,
			StartDifficulty: s.StartDifficulty,
			StartedAt:       s.StartedAt,
		},
	}
}

func toSessionProgress(s *domain.Session) SessionProgress {
	return SessionProgress{
		ID:             s.ID,
		Score:          s.Score,
		Accuracy:       s.Accuracy,
		TotalPrompts:   s.TotalPrompts,
		CorrectPrompts: s.CorrectPrompts,
		Difficulty:     s.State.Difficulty,
		Ended:          s.Ended(),
	}
}

func toSessionSummary(s *domain.Session) SessionSummary {
	return SessionSummary{
		ID:             s.ID,
		Score:          s.Score,
		Accuracy:       s.Accuracy,
		TotalPrompts:   s.TotalPrompts,
		CorrectPrompts: s.CorrectPrompts,
		StreakAchieved: s.StreakAchieved,
	}
}
