package participant

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lootengine/internal/game/catalog"
	"github.com/cory-johannsen/lootengine/internal/game/loot"
	"github.com/cory-johannsen/lootengine/internal/observability"
)

// Notification opcodes pushed to a participant's Entity.
const (
	EventItemRemoved  byte = 0x01
	EventMoneyRemoved byte = 0x02
)

// Party is a group of participants looting together.
type Party struct {
	ID           uint64
	Leader       uint64
	Members      []uint64
	MasterLooter uint64
	Threshold    catalog.Quality
}

// Manager tracks all active participants and their parties. It implements
// loot.Directory, loot.Groups and loot.Notifier.
// All methods are safe for concurrent use.
type Manager struct {
	mu             sync.RWMutex
	participants   map[uint64]*Participant
	parties        map[uint64]*Party
	memberOf       map[uint64]uint64 // participant id -> party id
	nextParty      uint64
	rewardDistance float64
	logger         *zap.Logger
}

// NewManager creates an empty Manager.
//
// Precondition: rewardDistance > 0.
func NewManager(rewardDistance float64, logger *zap.Logger) *Manager {
	return &Manager{
		participants:   make(map[uint64]*Participant),
		parties:        make(map[uint64]*Party),
		memberOf:       make(map[uint64]uint64),
		rewardDistance: rewardDistance,
		logger:         observability.Component(logger, "participant", ""),
	}
}

// Add registers a new participant at pos.
//
// Precondition: id must be non-zero.
// Postcondition: Returns the created Participant, or an error if id is already registered.
func (m *Manager) Add(id uint64, name string, level int, team string, pos Position) (*Participant, error) {
	if id == 0 {
		return nil, fmt.Errorf("participant id must be non-zero")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.participants[id]; exists {
		return nil, fmt.Errorf("participant %d already registered", id)
	}
	p := newParticipant(id, name, level, team, pos, m.rewardDistance)
	m.participants[id] = p
	return p, nil
}

// Remove unregisters a participant, leaving any party and closing its Entity.
//
// Postcondition: Returns an error if id is not registered.
func (m *Manager) Remove(id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.participants[id]
	if !ok {
		return fmt.Errorf("participant %d not found", id)
	}
	m.leaveLocked(id)
	delete(m.participants, id)
	return p.Entity.Close()
}

// Get returns the participant for id.
func (m *Manager) Get(id uint64) (*Participant, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.participants[id]
	return p, ok
}

// Find implements loot.Directory.
func (m *Manager) Find(id uint64) (loot.Viewer, bool) {
	p, ok := m.Get(id)
	if !ok {
		return nil, false
	}
	return p, true
}

// Count returns the number of registered participants.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.participants)
}

// Move changes a participant's position.
//
// Postcondition: Returns an error if id is not registered.
func (m *Manager) Move(id uint64, pos Position) error {
	p, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("participant %d not found", id)
	}
	p.moveTo(pos)
	return nil
}

// InRange returns the ids of every participant within reward range of o, sorted.
func (m *Manager) InRange(o loot.Origin) []uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []uint64
	for id, p := range m.participants {
		if p.InRewardRange(o) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// FormParty groups leader and members. The leader starts as master looter
// with an uncommon threshold.
//
// Precondition: every id is registered and in no party.
// Postcondition: Returns the new party id, or an error leaving all parties unchanged.
func (m *Manager) FormParty(leader uint64, members ...uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := append([]uint64{leader}, members...)
	for i, id := range all {
		if _, ok := m.participants[id]; !ok {
			return 0, fmt.Errorf("participant %d not found", id)
		}
		if _, ok := m.memberOf[id]; ok {
			return 0, fmt.Errorf("participant %d already in a party", id)
		}
		if slices.Contains(all[:i], id) {
			return 0, fmt.Errorf("participant %d listed twice", id)
		}
	}
	m.nextParty++
	party := &Party{
		ID:           m.nextParty,
		Leader:       leader,
		Members:      all,
		MasterLooter: leader,
		Threshold:    catalog.QualityUncommon,
	}
	m.parties[party.ID] = party
	for _, id := range all {
		m.memberOf[id] = party.ID
	}
	return party.ID, nil
}

// Leave removes id from its party. A party left with one member is disbanded.
func (m *Manager) Leave(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveLocked(id)
}

func (m *Manager) leaveLocked(id uint64) {
	pid, ok := m.memberOf[id]
	if !ok {
		return
	}
	delete(m.memberOf, id)
	party := m.parties[pid]
	party.Members = slices.DeleteFunc(party.Members, func(x uint64) bool { return x == id })
	if len(party.Members) < 2 {
		for _, rest := range party.Members {
			delete(m.memberOf, rest)
		}
		delete(m.parties, pid)
		return
	}
	if party.Leader == id {
		party.Leader = party.Members[0]
	}
	if party.MasterLooter == id {
		party.MasterLooter = party.Leader
	}
}

// SetMasterLooter designates the party's distribution leader.
//
// Precondition: looter is a member of the party.
func (m *Manager) SetMasterLooter(partyID, looter uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	party, ok := m.parties[partyID]
	if !ok {
		return fmt.Errorf("party %d not found", partyID)
	}
	if !slices.Contains(party.Members, looter) {
		return fmt.Errorf("participant %d is not in party %d", looter, partyID)
	}
	party.MasterLooter = looter
	return nil
}

// SetThreshold changes the quality at or above which group items are distributed.
func (m *Manager) SetThreshold(partyID uint64, q catalog.Quality) error {
	if q >= catalog.QualityCount {
		return fmt.Errorf("quality %d out of range", q)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	party, ok := m.parties[partyID]
	if !ok {
		return fmt.Errorf("party %d not found", partyID)
	}
	party.Threshold = q
	return nil
}

// GroupOf implements loot.Groups.
func (m *Manager) GroupOf(id uint64) (loot.GroupInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pid, ok := m.memberOf[id]
	if !ok {
		return loot.GroupInfo{}, false
	}
	party := m.parties[pid]
	return loot.GroupInfo{
		Members:      slices.Clone(party.Members),
		MasterLooter: party.MasterLooter,
		Threshold:    party.Threshold,
	}, true
}

// ItemRemoved implements loot.Notifier.
func (m *Manager) ItemRemoved(viewer uint64, slot uint8) {
	m.push(viewer, []byte{EventItemRemoved, slot})
}

// MoneyRemoved implements loot.Notifier.
func (m *Manager) MoneyRemoved(viewer uint64) {
	m.push(viewer, []byte{EventMoneyRemoved})
}

func (m *Manager) push(id uint64, data []byte) {
	p, ok := m.Get(id)
	if !ok {
		return
	}
	if err := p.Entity.Push(data); err != nil {
		m.logger.Warn("dropping loot notification", zap.Uint64("participant", id), zap.Error(err))
	}
}
