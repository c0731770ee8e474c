package engine

import (
	"github.com/tinysteps/smart-explorer/internal/domain"
)

// DifficultyState is the slice of session state the difficulty controller
// reads and writes.
type DifficultyState struct {
	Tier                 domain.Tier
	ConsecutiveCorrect   int
	ConsecutiveIncorrect int
}

// NextDifficulty decides whether to escalate, hold or de-escalate after one
// resolved prompt.
//
// Rules, in order:
//   - correct increments the correct run and clears the incorrect run, and
//     incorrect does the opposite
//   - a correct, known-fast answer (under half the tier's target time) that
//     brings the correct run to EscalateAfter moves up one tier
//   - an incorrect answer that brings the incorrect run to DeescalateAfter
//     moves down one tier
//
// When either transition rule fires both counters reset to zero, including at
// the ends of the ladder where the tier itself cannot move.
func NextDifficulty(
	state DifficultyState,
	correct bool,
	responseTimeMs *int64,
	params *Params,
) DifficultyState {
	next := state
	if !next.Tier.Valid() {
		next.Tier = domain.TierA
	}

	if correct {
		next.ConsecutiveCorrect++
		next.ConsecutiveIncorrect = 0
	} else {
		next.ConsecutiveIncorrect++
		next.ConsecutiveCorrect = 0
	}

	switch {
	case correct && params.fast(next.Tier, responseTimeMs) &&
		next.ConsecutiveCorrect >= params.EscalateAfter:
		next.Tier = next.Tier.Up()
		next.ConsecutiveCorrect = 0
		next.ConsecutiveIncorrect = 0
	case !correct && next.ConsecutiveIncorrect >= params.DeescalateAfter:
		next.Tier = next.Tier.Down()
		next.ConsecutiveCorrect = 0
		next.ConsecutiveIncorrect = 0
	}

	return next
}
