package condition

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/lootengine/internal/game/loot"
	"github.com/cory-johannsen/lootengine/internal/observability"
)

// Evaluate applies the predicate to v, honoring Negate.
func (d *ConditionDef) Evaluate(v loot.Viewer) bool {
	var ok bool
	switch d.Type {
	case TypeLevelMin:
		ok = v.Level() >= int(d.Value)
	case TypeLevelMax:
		ok = v.Level() <= int(d.Value)
	case TypeTeam:
		ok = v.Team() == d.Team
	case TypeQuestActive:
		ok = v.QuestStarted(d.Value)
	case TypeSkill:
		ok = v.HasSkill(d.Value)
	case TypeSpellKnown:
		ok = v.KnowsSpell(d.Value)
	}
	return ok != d.Negate
}

// Check evaluates every id against v. An unknown id fails the check.
//
// Postcondition: Returns true when ids is empty or every condition passes.
func (r *Registry) Check(ids []string, v loot.Viewer) bool {
	for _, id := range ids {
		d, ok := r.defs[id]
		if !ok || !d.Evaluate(v) {
			return false
		}
	}
	return true
}

// Attach binds every definition's attachments to the matching template entries
// in reg, replacing whatever conditions were attached before. Definitions are
// applied in ID order, so an entry's condition list is the same on every load.
//
// Postcondition: Returns the number of attachments that found their entry.
// Attachments naming an unknown table or entry are logged and skipped.
func (r *Registry) Attach(reg *loot.Registry, logger *zap.Logger) int {
	logger = observability.Component(logger, "condition", "")
	reg.ResetConditions()
	attached := 0
	for _, d := range r.All() {
		for _, a := range d.Attach {
			ok, err := reg.AddCondition(a.Table, a.Entry, a.Item, d.ID)
			if err != nil || !ok {
				logger.Warn("condition attachment has no matching loot entry",
					zap.String("condition", d.ID),
					zap.String("table", a.Table),
					zap.Uint32("entry", a.Entry),
					zap.Uint32("item", a.Item),
					zap.Error(err),
				)
				continue
			}
			attached++
		}
	}
	return attached
}
