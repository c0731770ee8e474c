package catalogfile

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/domain"
	"gopkg.in/yaml.v3"
)

// namespace seeds the derived ids.
var namespace = uuid.MustParse("8f0b7f3e-5d0c-4c52-9a55-2f1c0e7b6a41")

// File is the top-level document.
type File struct {
	Scenes []SceneSpec `yaml:"scenes"`
}

// SceneSpec describes one scene.
type SceneSpec struct {
	Slug     string           `yaml:"slug"`
	Title    string           `yaml:"title"`
	ImageURL string           `yaml:"imageUrl"`
	Meta     domain.SceneMeta `yaml:"meta"`
	Items    []ItemSpec       `yaml:"items"`
	Prompts  []PromptSpec     `yaml:"prompts"`
}

// ItemSpec describes one item. Key is unique within the scene.
type ItemSpec struct {
	Key       string               `yaml:"key"`
	Label     string               `yaml:"label"`
	BBox      domain.BoundingBox   `yaml:"bbox"`
	AltLabels []string             `yaml:"altLabels"`
	Tags      []string             `yaml:"tags"`
	Spoken    domain.LocalizedText `yaml:"spoken"`
}

// PromptSpec describes one prompt. Targets name item keys.
type PromptSpec struct {
	Key            string            `yaml:"key"`
	Type           domain.PromptType `yaml:"type"`
	Difficulty     domain.Tier       `yaml:"difficulty"`
	Targets        []string          `yaml:"targets"`
	Category       string            `yaml:"category"`
	Function       string            `yaml:"function"`
	AcceptedLabels []string          `yaml:"acceptedLabels"`
	Text           TextSpec          `yaml:"text"`
}

// TextSpec holds prompt strings per language.
type TextSpec struct {
	Question domain.LocalizedText `yaml:"question"`
	Hint     domain.LocalizedText `yaml:"hint"`
	Correct  domain.LocalizedText `yaml:"correct"`
	Retry    domain.LocalizedText `yaml:"retry"`
}

// Bundle is a scene resolved into domain values, ready to store.
type Bundle struct {
	Scene   domain.Scene
	Items   []domain.Item
	Prompts []*domain.Prompt
}

// Load decodes a catalog document. Unknown fields are rejected.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &File{}, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &f, nil
}

// LoadFile reads and decodes the catalog at path.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = fh.Close() }()
	return Load(fh)
}

// Build resolves every scene, validating ids, keys and references.
func (f *File) Build() ([]Bundle, error) {
	seen := make(map[string]bool, len(f.Scenes))
	bundles := make([]Bundle, 0, len(f.Scenes))
	for i, def := range f.Scenes {
		if seen[def.Slug] {
			return nil, fmt.Errorf("scenes[%d]: duplicate slug %q", i, def.Slug)
		}
		seen[def.Slug] = true

		b, err := def.build()
		if err != nil {
			return nil, fmt.Errorf("scene %q: %w", def.Slug, err)
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

// SceneID returns the id derived for a scene slug.
func SceneID(slug string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte("scene/"+slug))
}

func itemID(slug, key string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte("item/"+slug+"/"+key))
}

func promptID(slug, key string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte("prompt/"+slug+"/"+key))
}

func (s SceneSpec) build() (Bundle, error) {
	scene := domain.Scene{
		ID:       SceneID(s.Slug),
		Slug:     s.Slug,
		Title:    s.Title,
		ImageURL: s.ImageURL,
		Meta:     s.Meta,
	}
	if err := scene.Validate(); err != nil {
		return Bundle{}, err
	}

	items := make([]domain.Item, 0, len(s.Items))
	itemIDs := make(map[string]uuid.UUID, len(s.Items))
	for i, def := range s.Items {
		if def.Key == "" {
			return Bundle{}, fmt.Errorf("items[%d]: key is required", i)
		}
		if _, dup := itemIDs[def.Key]; dup {
			return Bundle{}, fmt.Errorf("items[%d]: duplicate key %q", i, def.Key)
		}
		item := domain.Item{
			ID:        itemID(s.Slug, def.Key),
			SceneID:   scene.ID,
			Label:     def.Label,
			BBox:      def.BBox,
			AltLabels: def.AltLabels,
			Tags:      def.Tags,
			Spoken:    def.Spoken,
		}
		if err := item.Validate(); err != nil {
			return Bundle{}, fmt.Errorf("item %q: %w", def.Key, err)
		}
		itemIDs[def.Key] = item.ID
		items = append(items, item)
	}

	prompts := make([]*domain.Prompt, 0, len(s.Prompts))
	promptKeys := make(map[string]bool, len(s.Prompts))
	for i, def := range s.Prompts {
		if def.Key == "" {
			return Bundle{}, fmt.Errorf("prompts[%d]: key is required", i)
		}
		if promptKeys[def.Key] {
			return Bundle{}, fmt.Errorf("prompts[%d]: duplicate key %q", i, def.Key)
		}
		promptKeys[def.Key] = true

		p, err := def.build(s.Slug, scene.ID, itemIDs)
		if err != nil {
			return Bundle{}, fmt.Errorf("prompt %q: %w", def.Key, err)
		}
		prompts = append(prompts, p)
	}

	return Bundle{Scene: scene, Items: items, Prompts: prompts}, nil
}

func (p PromptSpec) build(slug string, sceneID uuid.UUID, items map[string]uuid.UUID) (*domain.Prompt, error) {
	targets := make([]uuid.UUID, 0, len(p.Targets))
	for _, key := range p.Targets {
		id, ok := items[key]
		if !ok {
			return nil, fmt.Errorf("unknown target item %q", key)
		}
		targets = append(targets, id)
	}

	var payload domain.PromptPayload
	switch p.Type {
	case domain.PromptTypeFind:
		payload = domain.FindPayload{TargetItemIDs: targets}
	case domain.PromptTypeLabel:
		if len(targets) != 1 {
			return nil, fmt.Errorf("label prompts take exactly one target, got %d", len(targets))
		}
		payload = domain.LabelPayload{TargetItemID: targets[0], AcceptedLabels: p.AcceptedLabels}
	case domain.PromptTypeCategory:
		payload = domain.CategoryPayload{Category: p.Category, TargetItemIDs: targets}
	case domain.PromptTypeFunction:
		payload = domain.FunctionPayload{Function: p.Function, TargetItemIDs: targets}
	default:
		return nil, domain.ErrPromptTypeInvalid
	}

	prompt := &domain.Prompt{
		ID:         promptID(slug, p.Key),
		SceneID:    sceneID,
		Type:       p.Type,
		Difficulty: p.Difficulty,
		Payload:    payload,
		Text: domain.PromptText{
			Question: p.Text.Question,
			Hint:     p.Text.Hint,
			Correct:  p.Text.Correct,
			Retry:    p.Text.Retry,
		},
	}
	if err := prompt.Validate(); err != nil {
		return nil, err
	}
	return prompt, nil
}
