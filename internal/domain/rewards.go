package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxHearts is the heart ceiling; new players start full.
const MaxHearts = 5

// SceneMastery is a player's smoothed performance record for one scene.
type SceneMastery struct {
	Accuracy     float64  `json:"accuracy"`
	PromptsSeen  int      `json:"promptsSeen"`
	TierUnlocked *Tier    `json:"tierUnlocked,omitempty"`
	Badges       []string `json:"badges"`
	BestStreak   int      `json:"bestStreak"`
}

// HasBadge reports whether the badge has already been earned.
func (m *SceneMastery) HasBadge(badge string) bool {
	for _, b := range m.Badges {
		if b == badge {
			return true
		}
	}
	return false
}

func (m SceneMastery) clone() SceneMastery {
	out := m
	if m.TierUnlocked != nil {
		t := *m.TierUnlocked
		out.TierUnlocked = &t
	}
	out.Badges = append([]string{}, m.Badges...)
	return out
}

// UserRewards is the persistent per-user reward aggregate. Scenes is keyed by
// scene slug.
type UserRewards struct {
	UserID          uuid.UUID               `json:"userId"`
	XP              int                     `json:"xp"`
	Coins           int                     `json:"coins"`
	Hearts          int                     `json:"hearts"`
	DailyStreak     int                     `json:"dailyStreak"`
	BestStreak      int                     `json:"bestStreak"`
	LastPlayedOn    *time.Time              `json:"lastPlayedOn,omitempty"`
	LifetimeCorrect int                     `json:"lifetimeCorrect"`
	LifetimeTotal   int                     `json:"lifetimeTotal"`
	Accuracy        int                     `json:"accuracy"`
	Scenes          map[string]SceneMastery `json:"scenes"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

// NewUserRewards returns the aggregate of a player who has never played.
func NewUserRewards(userID uuid.UUID) *UserRewards {
	return &UserRewards{
		UserID: userID,
		Hearts: MaxHearts,
		Scenes: make(map[string]SceneMastery),
	}
}

// Mastery returns the mastery record for a scene slug, if any.
func (r *UserRewards) Mastery(slug string) (SceneMastery, bool) {
	m, ok := r.Scenes[slug]
	return m, ok
}

// RewardSnapshot is the reward state returned to clients.
type RewardSnapshot struct {
	XP           int                     `json:"xp"`
	Coins        int                     `json:"coins"`
	Hearts       int                     `json:"hearts"`
	DailyStreak  int                     `json:"dailyStreak"`
	BestStreak   int                     `json:"bestStreak"`
	LastPlayedOn string                  `json:"lastPlayedOn,omitempty"`
	Accuracy     int                     `json:"accuracy"`
	Scenes       map[string]SceneMastery `json:"scenes"`
}

// Snapshot returns a deep copy of the client-visible reward state.
func (r *UserRewards) Snapshot() RewardSnapshot {
	s := RewardSnapshot{
		XP:          r.XP,
		Coins:       r.Coins,
		Hearts:      r.Hearts,
		DailyStreak: r.DailyStreak,
		BestStreak:  r.BestStreak,
		Accuracy:    r.Accuracy,
		Scenes:      make(map[string]SceneMastery, len(r.Scenes)),
	}
	if r.LastPlayedOn != nil {
		s.LastPlayedOn = r.LastPlayedOn.Format(time.DateOnly)
	}
	for slug, m := range r.Scenes {
		s.Scenes[slug] = m.clone()
	}
	return s
}
