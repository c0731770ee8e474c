package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// PromptType identifies the kind of challenge a prompt poses.
type PromptType string

// Prompt types
const (
	PromptTypeFind     PromptType = "find"
	PromptTypeLabel    PromptType = "label"
	PromptTypeCategory PromptType = "category"
	PromptTypeFunction PromptType = "function"
)

// Valid reports whether t is a known prompt type.
func (t PromptType) Valid() bool {
	switch t {
	case PromptTypeFind, PromptTypeLabel, PromptTypeCategory, PromptTypeFunction:
		return true
	}
	return false
}

// Prompt validation errors
var (
	ErrPromptSceneIDEmpty    = NewValidationError("sceneId", "cannot be empty", nil)
	ErrPromptTypeInvalid     = NewValidationError("type", "must be one of find, label, category, function", nil)
	ErrPromptTierInvalid     = NewValidationError("difficulty", "must be one of tierA, tierB, tierC, tierD", nil)
	ErrPromptPayloadMissing  = NewValidationError("payload", "is required", nil)
	ErrPromptPayloadMismatch = NewValidationError("payload", "does not match prompt type", nil)
	ErrPromptQuestionEmpty   = NewValidationError("text.question", "cannot be empty", nil)
)

// PromptPayload is the type-specific body of a prompt. Each prompt type has
// exactly one payload variant.
type PromptPayload interface {
	PromptType() PromptType
	validate() error
}

// FindPayload asks the child to tap one of the target items.
type FindPayload struct {
	TargetItemIDs []uuid.UUID `json:"targetItemIds" yaml:"targetItemIds"`
}

// PromptType implements PromptPayload.
func (FindPayload) PromptType() PromptType { return PromptTypeFind }

func (p FindPayload) validate() error {
	if len(p.TargetItemIDs) == 0 {
		return NewValidationError("payload.targetItemIds", "cannot be empty", nil)
	}
	return nil
}

// LabelPayload asks the child to name a single item.
type LabelPayload struct {
	TargetItemID   uuid.UUID `json:"targetItemId"             yaml:"targetItemId"`
	AcceptedLabels []string  `json:"acceptedLabels,omitempty" yaml:"acceptedLabels"`
}

// PromptType implements PromptPayload.
func (LabelPayload) PromptType() PromptType { return PromptTypeLabel }

func (p LabelPayload) validate() error {
	if p.TargetItemID == uuid.Nil {
		return NewValidationError("payload.targetItemId", "cannot be empty", nil)
	}
	return nil
}

// CategoryPayload asks the child to find items belonging to a category.
type CategoryPayload struct {
	Category      string      `json:"category"      yaml:"category"`
	TargetItemIDs []uuid.UUID `json:"targetItemIds" yaml:"targetItemIds"`
}

// PromptType implements PromptPayload.
func (CategoryPayload) PromptType() PromptType { return PromptTypeCategory }

func (p CategoryPayload) validate() error {
	if p.Category == "" {
		return NewValidationError("payload.category", "cannot be empty", nil)
	}
	if len(p.TargetItemIDs) == 0 {
		return NewValidationError("payload.targetItemIds", "cannot be empty", nil)
	}
	return nil
}

// FunctionPayload asks the child to find items that serve a function
// ("something you drink from").
type FunctionPayload struct {
	Function      string      `json:"function"      yaml:"function"`
	TargetItemIDs []uuid.UUID `json:"targetItemIds" yaml:"targetItemIds"`
}

// PromptType implements PromptPayload.
func (FunctionPayload) PromptType() PromptType { return PromptTypeFunction }

func (p FunctionPayload) validate() error {
	if p.Function == "" {
		return NewValidationError("payload.function", "cannot be empty", nil)
	}
	if len(p.TargetItemIDs) == 0 {
		return NewValidationError("payload.targetItemIds", "cannot be empty", nil)
	}
	return nil
}

// DecodePromptPayload decodes raw JSON into the payload variant for t.
func DecodePromptPayload(t PromptType, raw []byte) (PromptPayload, error) {
	var (
		p   PromptPayload
		err error
	)
	switch t {
	case PromptTypeFind:
		var v FindPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case PromptTypeLabel:
		var v LabelPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case PromptTypeCategory:
		var v CategoryPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case PromptTypeFunction:
		var v FunctionPayload
		err = json.Unmarshal(raw, &v)
		p = v
	default:
		return nil, ErrPromptTypeInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s payload: %v", ErrInvalidArgument, t, err)
	}
	return p, nil
}

// PromptText holds the spoken/displayed strings of a prompt.
type PromptText struct {
	Question LocalizedText `json:"question"`
	Hint     LocalizedText `json:"hint,omitempty"`
	Correct  LocalizedText `json:"correct,omitempty"`
	Retry    LocalizedText `json:"retry,omitempty"`
}

// Prompt is a single question template within a scene. Prompts are reference
// data; the engine selects them and never mutates them.
type Prompt struct {
	ID         uuid.UUID     `json:"id"`
	SceneID    uuid.UUID     `json:"sceneId"`
	Type       PromptType    `json:"type"`
	Difficulty Tier          `json:"difficulty"`
	Payload    PromptPayload `json:"payload"`
	Text       PromptText    `json:"text"`
}

// Validate checks if the Prompt has valid data.
func (p *Prompt) Validate() error {
	if p.SceneID == uuid.Nil {
		return ErrPromptSceneIDEmpty
	}
	if !p.Type.Valid() {
		return ErrPromptTypeInvalid
	}
	if !p.Difficulty.Valid() {
		return ErrPromptTierInvalid
	}
	if p.Payload == nil {
		return ErrPromptPayloadMissing
	}
	if p.Payload.PromptType() != p.Type {
		return ErrPromptPayloadMismatch
	}
	if err := p.Payload.validate(); err != nil {
		return err
	}
	if len(p.Text.Question) == 0 {
		return ErrPromptQuestionEmpty
	}
	return nil
}

// UnmarshalJSON decodes a prompt, resolving the payload variant from the type.
func (p *Prompt) UnmarshalJSON(data []byte) error {
	type alias Prompt
	aux := struct {
		*alias
		Payload json.RawMessage `json:"payload"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Payload) == 0 || string(aux.Payload) == "null" {
		p.Payload = nil
		return nil
	}
	payload, err := DecodePromptPayload(p.Type, aux.Payload)
	if err != nil {
		return err
	}
	p.Payload = payload
	return nil
}
