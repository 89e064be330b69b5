package participant

import (
	"math"
	"sync"

	"github.com/cory-johannsen/lootengine/internal/game/loot"
)

// Position places a participant on a map.
type Position struct {
	Map uint32
	X   float64
	Y   float64
	Z   float64
}

// Participant is a player's loot-relevant state. It implements loot.Viewer.
// All methods are safe for concurrent use.
type Participant struct {
	id   uint64
	name string
	// Entity receives loot removal notifications.
	Entity *Entity

	mu             sync.RWMutex
	level          int
	team           string
	pos            Position
	rewardDistance float64
	skills         map[uint32]bool
	spells         map[uint32]bool
	quests         map[uint32][]uint32 // quest id -> items the quest still needs
	shown          map[uint32]bool
}

func newParticipant(id uint64, name string, level int, team string, pos Position, rewardDistance float64) *Participant {
	return &Participant{
		id:             id,
		name:           name,
		Entity:         NewEntity(id, 64),
		level:          level,
		team:           team,
		pos:            pos,
		rewardDistance: rewardDistance,
		skills:         make(map[uint32]bool),
		spells:         make(map[uint32]bool),
		quests:         make(map[uint32][]uint32),
		shown:          make(map[uint32]bool),
	}
}

// ID returns the participant id.
func (p *Participant) ID() uint64 { return p.id }

// Name returns the display name.
func (p *Participant) Name() string { return p.name }

// Level returns the current level.
func (p *Participant) Level() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.level
}

// SetLevel changes the current level.
func (p *Participant) SetLevel(level int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
}

// Team returns the team affiliation.
func (p *Participant) Team() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.team
}

// HasSkill reports whether the skill has been learned.
func (p *Participant) HasSkill(skill uint32) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.skills[skill]
}

// LearnSkill adds skill.
func (p *Participant) LearnSkill(skill uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.skills[skill] = true
}

// KnowsSpell reports whether the spell has been learned.
func (p *Participant) KnowsSpell(spell uint32) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.spells[spell]
}

// LearnSpell adds spell.
func (p *Participant) LearnSpell(spell uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spells[spell] = true
}

// StartQuest records quest as active, needing items.
func (p *Participant) StartQuest(quest uint32, items ...uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quests[quest] = append([]uint32(nil), items...)
}

// CompleteQuest drops quest and the item needs it carried.
func (p *Participant) CompleteQuest(quest uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.quests, quest)
}

// QuestStarted reports whether quest is active.
func (p *Participant) QuestStarted(quest uint32) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.quests[quest]
	return ok
}

// ShowInLoot keeps item visible in loot windows even when no quest needs it.
func (p *Participant) ShowInLoot(item uint32, show bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if show {
		p.shown[item] = true
		return
	}
	delete(p.shown, item)
}

// HasQuestForItem reports whether an active quest needs item, and otherwise
// whether the item is flagged to remain visible.
func (p *Participant) HasQuestForItem(item uint32) (needed, showInLoot bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, items := range p.quests {
		for _, it := range items {
			if it == item {
				return true, false
			}
		}
	}
	return false, p.shown[item]
}

// Position returns the current position.
func (p *Participant) Position() Position {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pos
}

func (p *Participant) moveTo(pos Position) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pos = pos
}

// InRewardRange reports whether o is on the same map and within the reward distance.
func (p *Participant) InRewardRange(o loot.Origin) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.pos.Map != o.Map {
		return false
	}
	dx, dy, dz := p.pos.X-o.X, p.pos.Y-o.Y, p.pos.Z-o.Z
	return math.Sqrt(dx*dx+dy*dy+dz*dz) <= p.rewardDistance
}
