package engine

import (
	"time"

	"github.com/tinysteps/smart-explorer/internal/domain"
)

// Outcome is one resolved prompt as seen by the reward ledger.
type Outcome struct {
	SceneSlug  string
	Correct    bool
	ScoreDelta int
	// SessionTier is the session's tier after the difficulty update.
	SessionTier domain.Tier
	At          time.Time
}

// ApplyPromptOutcome folds a single resolved prompt into the user's reward
// aggregate. Call it exactly once per resolution.
func ApplyPromptOutcome(rewards *domain.UserRewards, outcome Outcome, params *Params) {
	if outcome.ScoreDelta > 0 {
		rewards.XP += outcome.ScoreDelta
	}

	if outcome.Correct {
		if rewards.Hearts > domain.MaxHearts {
			rewards.Hearts = domain.MaxHearts
		}
	} else if rewards.Hearts > 0 {
		rewards.Hearts--
	}

	rewards.LifetimeTotal++
	if outcome.Correct {
		rewards.LifetimeCorrect++
	}
	rewards.Accuracy = domain.Accuracy(rewards.LifetimeCorrect, rewards.LifetimeTotal)

	updateDailyStreak(rewards, outcome.At, params)
	updateMastery(rewards, outcome, params)

	rewards.UpdatedAt = outcome.At.UTC()
}

// ApplySessionCompletion records the session's best run streak against the
// scene. It is a no-op when the user has never resolved a prompt in the scene.
func ApplySessionCompletion(rewards *domain.UserRewards, sceneSlug string, session *domain.Session) {
	m, ok := rewards.Scenes[sceneSlug]
	if !ok {
		return
	}
	if session.StreakAchieved > m.BestStreak {
		m.BestStreak = session.StreakAchieved
		rewards.Scenes[sceneSlug] = m
	}
}

// StartingTier picks the tier a new session opens at: the scene's unlocked
// tier when one is recorded, otherwise a tier derived from lifetime accuracy.
func StartingTier(rewards *domain.UserRewards, sceneSlug string, params *Params) domain.Tier {
	if rewards == nil {
		return domain.TierA
	}
	if m, ok := rewards.Scenes[sceneSlug]; ok && m.TierUnlocked != nil && m.TierUnlocked.Valid() {
		return *m.TierUnlocked
	}
	if rewards.LifetimeTotal == 0 {
		return domain.TierA
	}

	switch acc := rewards.Accuracy; {
	case acc >= params.TierCAccuracy:
		return domain.TierC
	case acc >= params.TierBAccuracy:
		return domain.TierB
	default:
		return domain.TierA
	}
}

// calendarDay truncates t to midnight of its calendar day in loc, expressed
// as a UTC date.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func updateDailyStreak(rewards *domain.UserRewards, at time.Time, params *Params) {
	today := calendarDay(at, params.DayLocation)

	switch {
	case rewards.LastPlayedOn == nil:
		rewards.DailyStreak = 1
	default:
		last := calendarDay(*rewards.LastPlayedOn, time.UTC)
		switch days := int(today.Sub(last).Hours() / 24); {
		case days < 0:
			// The clock moved backwards; keep the later day and its streak.
			return
		case days == 0:
			// same day
		case days == 1:
			rewards.DailyStreak++
		default:
			rewards.DailyStreak = 1
		}
	}

	if rewards.DailyStreak < 1 {
		rewards.DailyStreak = 1
	}
	if rewards.DailyStreak > rewards.BestStreak {
		rewards.BestStreak = rewards.DailyStreak
	}
	rewards.LastPlayedOn = &today
}

func updateMastery(rewards *domain.UserRewards, outcome Outcome, params *Params) {
	if rewards.Scenes == nil {
		rewards.Scenes = make(map[string]domain.SceneMastery)
	}
	m, ok := rewards.Scenes[outcome.SceneSlug]

	sample := 0.0
	if outcome.Correct {
		sample = 100
	}
	if !ok || m.PromptsSeen == 0 {
		m.Accuracy = sample
	} else {
		m.Accuracy = params.EWMAAlpha*sample + (1-params.EWMAAlpha)*m.Accuracy
	}
	m.PromptsSeen++

	if outcome.SessionTier.Valid() && (m.TierUnlocked == nil || outcome.SessionTier.Higher(*m.TierUnlocked)) {
		tier := outcome.SessionTier
		m.TierUnlocked = &tier
	}

	for _, badge := range params.Badges {
		if m.Accuracy >= badge.Threshold && !m.HasBadge(badge.Name) {
			m.Badges = append(m.Badges, badge.Name)
		}
	}
	if m.Badges == nil {
		m.Badges = []string{}
	}

	rewards.Scenes[outcome.SceneSlug] = m
}
