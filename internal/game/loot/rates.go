package loot

import (
	"github.com/cory-johannsen/lootengine/internal/config"
	"github.com/cory-johannsen/lootengine/internal/game/catalog"
)

// Rates holds the multipliers applied during resolution.
type Rates struct {
	Quality          [catalog.QualityCount]float64
	Referenced       float64
	ReferencedAmount float64
	Money            float64
}

// DefaultRates returns neutral multipliers.
func DefaultRates() Rates {
	r := Rates{Referenced: 1, ReferencedAmount: 1, Money: 1}
	for i := range r.Quality {
		r.Quality[i] = 1
	}
	return r
}

// RatesFromConfig converts the configured multipliers.
func RatesFromConfig(c config.RatesConfig) Rates {
	r := Rates{
		Referenced:       c.Referenced,
		ReferencedAmount: c.ReferencedAmount,
		Money:            c.Money,
	}
	copy(r.Quality[:], c.Qualities())
	return r
}

// ForQuality returns the multiplier for q; out-of-range tiers use 1.
func (r Rates) ForQuality(q catalog.Quality) float64 {
	if q >= catalog.QualityCount {
		return 1
	}
	return r.Quality[q]
}

// Limits bounds session pools and reference recursion.
type Limits struct {
	MaxLootItems      int
	MaxQuestItems     int
	MaxReferenceDepth int
	// MaxReferenceExpansions caps the reference templates processed by one
	// resolution, however wide the reference tree fans out.
	MaxReferenceExpansions int
}

// DefaultLimits returns the stock pool capacities.
func DefaultLimits() Limits {
	return Limits{MaxLootItems: 16, MaxQuestItems: 32, MaxReferenceDepth: 32, MaxReferenceExpansions: 1024}
}

// LimitsFromConfig converts the configured limits.
func LimitsFromConfig(c config.LimitsConfig) Limits {
	return Limits{
		MaxLootItems:           c.MaxLootItems,
		MaxQuestItems:          c.MaxQuestItems,
		MaxReferenceDepth:      c.MaxReferenceDepth,
		MaxReferenceExpansions: c.MaxReferenceExpansions,
	}
}
