package domain

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Scene validation errors
var (
	ErrSceneSlugInvalid  = NewValidationError("slug", "must be lowercase letters, digits and dashes", nil)
	ErrSceneTitleEmpty   = NewValidationError("title", "cannot be empty", nil)
	ErrSceneAgeRange     = NewValidationError("meta.ageRange", "is invalid", nil)
	ErrItemSceneIDEmpty  = NewValidationError("sceneId", "cannot be empty", nil)
	ErrItemLabelEmpty    = NewValidationError("label", "cannot be empty", nil)
	ErrItemBoundingBox   = NewValidationError("bbox", "must lie within the unit square", nil)
	errLocalizedTextLang = errors.New("language tag cannot be empty")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// LocalizedText maps a language tag (e.g. "en", "es") to text in that language.
type LocalizedText map[string]string

// Get returns the text for lang, falling back to English and then to any
// available language.
func (t LocalizedText) Get(lang string) string {
	if s, ok := t[lang]; ok {
		return s
	}
	if s, ok := t["en"]; ok {
		return s
	}
	for _, s := range t {
		return s
	}
	return ""
}

func (t LocalizedText) validate() error {
	for lang := range t {
		if lang == "" {
			return errLocalizedTextLang
		}
	}
	return nil
}

// SceneMeta carries descriptive scene metadata.
type SceneMeta struct {
	AgeMin    int      `json:"ageMin,omitempty"    yaml:"ageMin"`
	AgeMax    int      `json:"ageMax,omitempty"    yaml:"ageMax"`
	Theme     string   `json:"theme,omitempty"     yaml:"theme"`
	Languages []string `json:"languages,omitempty" yaml:"languages"`
}

// Scene is an illustrated environment containing labeled items and prompts.
// Scenes are reference data: created by content seeding, never mutated by the
// session engine.
type Scene struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"imageUrl"`
	Meta      SceneMeta `json:"meta"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks if the Scene has valid data.
func (s *Scene) Validate() error {
	if !slugPattern.MatchString(s.Slug) {
		return ErrSceneSlugInvalid
	}
	if s.Title == "" {
		return ErrSceneTitleEmpty
	}
	if s.Meta.AgeMin < 0 || (s.Meta.AgeMax > 0 && s.Meta.AgeMax < s.Meta.AgeMin) {
		return ErrSceneAgeRange
	}
	return nil
}

// BoundingBox is a normalized rectangle; every coordinate lies in [0,1].
type BoundingBox struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
}

// Valid reports whether the box lies within the unit square.
func (b BoundingBox) Valid() bool {
	in := func(v float64) bool { return v >= 0 && v <= 1 }
	return in(b.X) && in(b.Y) && in(b.W) && in(b.H) && b.X+b.W <= 1 && b.Y+b.H <= 1
}

// Item is a labeled region of a scene.
type Item struct {
	ID        uuid.UUID     `json:"id"`
	SceneID   uuid.UUID     `json:"sceneId"`
	Label     string        `json:"label"`
	BBox      BoundingBox   `json:"bbox"`
	AltLabels []string      `json:"altLabels,omitempty"`
	Tags      []string      `json:"tags,omitempty"`
	Spoken    LocalizedText `json:"spoken,omitempty"`
}

// Validate checks if the Item has valid data.
func (i *Item) Validate() error {
	if i.SceneID == uuid.Nil {
		return ErrItemSceneIDEmpty
	}
	if i.Label == "" {
		return ErrItemLabelEmpty
	}
	if !i.BBox.Valid() {
		return ErrItemBoundingBox
	}
	if err := i.Spoken.validate(); err != nil {
		return NewValidationError("spoken", err.Error(), nil)
	}
	return nil
}

// SceneSummary is a catalog listing entry.
type SceneSummary struct {
	Scene
	ItemCount   int `json:"itemCount"`
	PromptCount int `json:"promptCount"`
}

// SceneDetail is a scene with all its content.
type SceneDetail struct {
	Scene   Scene     `json:"scene"`
	Items   []Item    `json:"items"`
	Prompts []*Prompt `json:"prompts"`
}
