package domain

// Tier is a difficulty level on the fixed four-step ladder.
type Tier string

// Difficulty tiers, easiest first.
const (
	TierA Tier = "tierA"
	TierB Tier = "tierB"
	TierC Tier = "tierC"
	TierD Tier = "tierD"
)

// Tiers is the ordered difficulty ladder.
var Tiers = []Tier{TierA, TierB, TierC, TierD}

// Index returns the position of t on the ladder, or -1 if t is not a tier.
func (t Tier) Index() int {
	for i, tier := range Tiers {
		if tier == t {
			return i
		}
	}
	return -1
}

// Valid reports whether t is one of the four tiers.
func (t Tier) Valid() bool {
	return t.Index() >= 0
}

// Up returns the next harder tier, capped at the top.
func (t Tier) Up() Tier {
	i := t.Index()
	if i < 0 {
		return TierA
	}
	if i+1 >= len(Tiers) {
		return Tiers[len(Tiers)-1]
	}
	return Tiers[i+1]
}

// Down returns the next easier tier, floored at the bottom.
func (t Tier) Down() Tier {
	i := t.Index()
	if i <= 0 {
		return TierA
	}
	return Tiers[i-1]
}

// Higher reports whether t is strictly harder than other.
func (t Tier) Higher(other Tier) bool {
	return t.Index() > other.Index()
}
