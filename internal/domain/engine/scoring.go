package engine

import (
	"github.com/tinysteps/smart-explorer/internal/domain"
)

// Score returns the points earned for one resolved prompt. Every attempt earns
// at least MinPoints, including incorrect ones.
//
// The tier is the session's active tier, which sets the target time for the
// speed bonus; the prompt's own tier is not consulted.
func Score(
	correct bool,
	incorrectTaps int,
	responseTimeMs *int64,
	tier domain.Tier,
	params *Params,
) int {
	if incorrectTaps < 0 {
		incorrectTaps = 0
	}

	points := params.BasePoints - incorrectTaps*params.TapPenalty
	if correct && params.fast(tier, responseTimeMs) {
		points += params.SpeedBonus
	}

	if points < params.MinPoints {
		return params.MinPoints
	}
	return points
}
