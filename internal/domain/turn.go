package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TurnType names a session log event.
type TurnType string

// Turn types
const (
	TurnPromptShown    TurnType = "prompt_shown"
	TurnTap            TurnType = "tap"
	TurnHintUsed       TurnType = "hint_used"
	TurnPromptResolved TurnType = "prompt_resolved"
	TurnSceneComplete  TurnType = "scene_complete"
)

// Valid reports whether t is a known turn type.
func (t TurnType) Valid() bool {
	switch t {
	case TurnPromptShown, TurnTap, TurnHintUsed, TurnPromptResolved, TurnSceneComplete:
		return true
	}
	return false
}

// ClientSupplied reports whether clients may submit events of this type.
// The remaining types are synthesized by the session manager.
func (t TurnType) ClientSupplied() bool {
	return t == TurnTap || t == TurnHintUsed
}

// Turn is an immutable session log record.
type Turn struct {
	ID        uuid.UUID       `json:"id"`
	SessionID uuid.UUID       `json:"sessionId"`
	Type      TurnType        `json:"type"`
	PromptID  *uuid.UUID      `json:"promptId,omitempty"`
	Correct   *bool           `json:"correct,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewTurn builds a turn with a fresh id. A nil payload is stored as an empty
// JSON object.
func NewTurn(sessionID uuid.UUID, typ TurnType, promptID *uuid.UUID, payload json.RawMessage, at time.Time) *Turn {
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	return &Turn{
		ID:        uuid.New(),
		SessionID: sessionID,
		Type:      typ,
		PromptID:  promptID,
		Payload:   payload,
		CreatedAt: at.UTC(),
	}
}

// ClientEvent is an analytics event reported by the client alongside a
// prompt resolution.
type ClientEvent struct {
	Type    TurnType        `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Validate rejects events whose type the client may not submit.
func (e ClientEvent) Validate() error {
	if !e.Type.ClientSupplied() {
		return NewValidationError("events.type", "must be one of tap, hint_used", nil)
	}
	if len(e.Payload) > 0 && !json.Valid(e.Payload) {
		return NewValidationError("events.payload", "must be valid JSON", nil)
	}
	return nil
}
