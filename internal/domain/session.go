package domain

import (
	"time"

	"github.com/google/uuid"
)

// Mode governs how long a session runs.
type Mode string

// Session modes
const (
	ModeLearn   Mode = "learn"
	ModePlay    Mode = "play"
	ModeTherapy Mode = "therapy"
)

// Valid reports whether m is a known session mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeLearn, ModePlay, ModeTherapy:
		return true
	}
	return false
}

// ErrModeInvalid is returned when a session is started with an unknown mode.
var ErrModeInvalid = NewValidationError("mode", "must be one of learn, play, therapy", nil)

// SessionState is the engine's working state for a session.
type SessionState struct {
	Difficulty           Tier        `json:"difficulty"`
	ConsecutiveCorrect   int         `json:"consecutiveCorrect"`
	ConsecutiveIncorrect int         `json:"consecutiveIncorrect"`
	CurrentStreak        int         `json:"currentStreak"`
	History              []uuid.UUID `json:"history"`
	PromptCap            int         `json:"promptCap"`
}

// Session is one bounded play-through of prompts within a scene. Sessions are
// never deleted; an ended session is an audit record.
type Session struct {
	ID              uuid.UUID    `json:"id"`
	UserID          uuid.UUID    `json:"userId"`
	SceneID         uuid.UUID    `json:"sceneId"`
	Mode            Mode         `json:"mode"`
	StartedAt       time.Time    `json:"startedAt"`
	EndedAt         *time.Time   `json:"endedAt,omitempty"`
	StartDifficulty Tier         `json:"startDifficulty"`
	EndDifficulty   *Tier        `json:"endDifficulty,omitempty"`
	Accuracy        int          `json:"accuracy"`
	Score           int          `json:"score"`
	TotalPrompts    int          `json:"totalPrompts"`
	CorrectPrompts  int          `json:"correctPrompts"`
	StreakAchieved  int          `json:"streakAchieved"`
	State           SessionState `json:"state"`
	UpdatedAt       time.Time    `json:"updatedAt"`

	// Version is incremented on every write and used for optimistic
	// concurrency control.
	Version int `json:"-"`
}

// Ended reports whether the session has been finalized.
func (s *Session) Ended() bool {
	return s.EndedAt != nil
}

// RecordOutcome counts one resolved prompt and refreshes the derived accuracy.
func (s *Session) RecordOutcome(correct bool) {
	s.TotalPrompts++
	if correct {
		s.CorrectPrompts++
	}
	s.Accuracy = Accuracy(s.CorrectPrompts, s.TotalPrompts)
}

// End stamps the end time and ending tier. It does nothing if the session has
// already ended.
func (s *Session) End(at time.Time) {
	if s.Ended() {
		return
	}
	ended := at.UTC()
	tier := s.State.Difficulty
	if !tier.Valid() {
		tier = s.StartDifficulty
	}
	s.EndedAt = &ended
	s.EndDifficulty = &tier
}

// Accuracy returns round(100*correct/max(1,total)).
func Accuracy(correct, total int) int {
	if total < 1 {
		total = 1
	}
	// Integer rounding half away from zero; both operands are non-negative.
	return (200*correct + total) / (2 * total)
}
