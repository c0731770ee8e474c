package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/domain"
)

// PromptSampler draws one prompt uniformly at random from a scene at exactly
// the given tier, skipping any id in exclude. It returns (nil, nil) when no
// prompt qualifies.
type PromptSampler interface {
	SampleEligible(
		ctx context.Context,
		sceneID uuid.UUID,
		tier domain.Tier,
		exclude []uuid.UUID,
	) (*domain.Prompt, error)
}

// SelectPrompt picks the next prompt for a scene. It samples at tier first and
// then walks down the ladder to tierA, returning the first hit. A nil prompt
// with a nil error means the scene is exhausted for this history.
func SelectPrompt(
	ctx context.Context,
	sampler PromptSampler,
	sceneID uuid.UUID,
	tier domain.Tier,
	exclude []uuid.UUID,
) (*domain.Prompt, error) {
	start := tier.Index()
	if start < 0 {
		return nil, fmt.Errorf("%w: unknown tier %q", domain.ErrInvalidArgument, tier)
	}

	for i := start; i >= 0; i-- {
		prompt, err := sampler.SampleEligible(ctx, sceneID, domain.Tiers[i], exclude)
		if err != nil {
			return nil, err
		}
		if prompt != nil {
			return prompt, nil
		}
	}
	return nil, nil
}

// AppendHistory appends id to history, dropping the oldest entries so that at
// most limit ids remain. The input slice is not modified.
func AppendHistory(history []uuid.UUID, id uuid.UUID, limit int) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(history)+1)
	out = append(out, history...)
	out = append(out, id)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
