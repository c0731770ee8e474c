package engine

import (
	"time"

	"github.com/tinysteps/smart-explorer/internal/domain"
)

// Badge is a mastery milestone awarded when the smoothed scene accuracy first
// reaches Threshold.
type Badge struct {
	Name      string
	Threshold float64
}

// Params defines all tunable constants of the adaptive engine
type Params struct {
	// Difficulty controller
	TargetTimes     map[domain.Tier]time.Duration
	EscalateAfter   int
	DeescalateAfter int

	// Scorer
	BasePoints int
	TapPenalty int
	SpeedBonus int
	MinPoints  int

	// Prompt selector
	HistoryCap int

	// Session sizing
	PromptCaps map[domain.Mode]int

	// Starting tier from lifetime accuracy (percent)
	TierCAccuracy int
	TierBAccuracy int

	// Reward ledger
	EWMAAlpha   float64
	Badges      []Badge
	DayLocation *time.Location
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	HistoryCap    int
	EWMAAlpha     float64
	PlayPromptCap int
	DayLocation   *time.Location

	TargetTimes map[domain.Tier]time.Duration
}

// unboundedPromptCap stands in for "no cap" in learn and therapy sessions.
const unboundedPromptCap = 1000

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		TargetTimes: map[domain.Tier]time.Duration{
			domain.TierA: 12 * time.Second,
			domain.TierB: 12 * time.Second,
			domain.TierC: 15 * time.Second,
			domain.TierD: 20 * time.Second,
		},
		EscalateAfter:   3,
		DeescalateAfter: 2,

		BasePoints: 100,
		TapPenalty: 25,
		SpeedBonus: 25,
		MinPoints:  25,

		HistoryCap: 50,

		PromptCaps: map[domain.Mode]int{
			domain.ModeLearn:   unboundedPromptCap,
			domain.ModePlay:    10,
			domain.ModeTherapy: unboundedPromptCap,
		},

		TierCAccuracy: 85,
		TierBAccuracy: 70,

		EWMAAlpha: 0.3,
		Badges: []Badge{
			{Name: "mastery_60", Threshold: 60},
			{Name: "mastery_75", Threshold: 75},
			{Name: "mastery_90", Threshold: 90},
		},
		DayLocation: time.UTC,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.HistoryCap > 0 {
		params.HistoryCap = config.HistoryCap
	}
	if config.EWMAAlpha > 0 && config.EWMAAlpha <= 1 {
		params.EWMAAlpha = config.EWMAAlpha
	}
	if config.PlayPromptCap > 0 {
		params.PromptCaps[domain.ModePlay] = config.PlayPromptCap
	}
	if config.DayLocation != nil {
		params.DayLocation = config.DayLocation
	}
	for tier, d := range config.TargetTimes {
		if tier.Valid() && d > 0 {
			params.TargetTimes[tier] = d
		}
	}

	return params
}

// PromptCap returns the maximum number of prompts a session in mode may serve.
func (p *Params) PromptCap(mode domain.Mode) int {
	return p.PromptCaps[mode]
}

// fast reports whether a known response time is under half the tier's target.
func (p *Params) fast(tier domain.Tier, responseTimeMs *int64) bool {
	if responseTimeMs == nil || *responseTimeMs < 0 {
		return false
	}
	target := p.TargetTimes[tier].Milliseconds()
	return *responseTimeMs*2 < target
}
