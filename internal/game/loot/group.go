package loot

import "go.uber.org/zap"

// Group is a set of entries of which at most one drops per roll.
type Group struct {
	// Explicit holds entries with a non-zero chance, in load order.
	Explicit []Entry
	// Equal holds zero-chance entries sharing the remainder of the roll.
	Equal []Entry
}

func (g *Group) add(e Entry) {
	if e.Chance != 0 {
		g.Explicit = append(g.Explicit, e)
	} else {
		g.Equal = append(g.Equal, e)
	}
}

// RawTotalChance sums the explicit chances of non-quest entries.
func (g *Group) RawTotalChance() float64 {
	var total float64
	for i := range g.Explicit {
		if !g.Explicit[i].NeedsQuest {
			total += g.Explicit[i].Chance
		}
	}
	return total
}

// TotalChance is RawTotalChance, forced to 100 when equal-chance entries share the remainder.
func (g *Group) TotalChance() float64 {
	total := g.RawTotalChance()
	if len(g.Equal) > 0 && total < 100 {
		return 100
	}
	return total
}

func (g *Group) verify(logger *zap.Logger, entry uint32, id int) {
	chance := g.RawTotalChance()
	// Tolerate rounding in stored chances up to 101.
	if chance > 101 {
		logger.Error("group has total chance > 100%",
			zap.Uint32("entry", entry),
			zap.Int("group", id),
			zap.Float64("chance", chance),
		)
	}
	if chance >= 100 && len(g.Equal) > 0 {
		logger.Error("group has items with chance=0% but group total chance >= 100%",
			zap.Uint32("entry", entry),
			zap.Int("group", id),
			zap.Float64("chance", chance),
		)
	}
}

func (g *Group) each(fn func(*Entry) bool) bool {
	for i := range g.Explicit {
		if fn(&g.Explicit[i]) {
			return true
		}
	}
	for i := range g.Equal {
		if fn(&g.Equal[i]) {
			return true
		}
	}
	return false
}
