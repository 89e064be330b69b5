package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/cory-johannsen/lootengine/internal/game/catalog"
	"github.com/cory-johannsen/lootengine/internal/game/loot"
	"github.com/cory-johannsen/lootengine/internal/game/participant"
)

// scenario describes what the simulator resolves and who loots it.
type scenario struct {
	Table  string
	LootID uint32
	Runs   int
	Party  int
	Level  int
	Team   string
	// Quests maps each quest every participant has started to the items it needs.
	Quests   map[uint32][]uint32
	MoneyMin uint32
	MoneyMax uint32
	Mode     loot.Mode
	Personal bool
	// Threshold names the party loot threshold quality; empty keeps the default.
	Threshold string
}

// tally aggregates the outcome of every run.
type tally struct {
	Runs     int
	Empty    int
	Currency uint64
	// Drops counts materialized stacks per item id; Units sums their counts.
	Drops map[uint32]int
	Units map[uint32]uint64
}

// origin is where the simulated source dies; the whole party stands on it.
var origin = loot.Origin{ID: 1, Map: 0}

// setupParty adds sc.Party participants, forms a party when there is more than
// one, and returns the owner.
//
// Precondition: sc.Party >= 1.
func setupParty(pm *participant.Manager, sc scenario) (*participant.Participant, error) {
	ids := make([]uint64, 0, sc.Party)
	for i := 1; i <= sc.Party; i++ {
		id := uint64(i)
		p, err := pm.Add(id, fmt.Sprintf("looter-%d", i), sc.Level, sc.Team, participant.Position{Map: origin.Map})
		if err != nil {
			return nil, err
		}
		for q, needs := range sc.Quests {
			p.StartQuest(q, needs...)
		}
		ids = append(ids, id)
	}
	if len(ids) > 1 {
		partyID, err := pm.FormParty(ids[0], ids[1:]...)
		if err != nil {
			return nil, err
		}
		if sc.Threshold != "" {
			q, err := catalog.ParseQuality(sc.Threshold)
			if err != nil {
				return nil, err
			}
			if err := pm.SetThreshold(partyID, q); err != nil {
				return nil, err
			}
		}
	}
	owner, _ := pm.Get(ids[0])
	return owner, nil
}

// fill resolves one session for owner.
func (w *world) fill(sc scenario, owner loot.Viewer) (*loot.Session, bool) {
	s := w.engine.NewSession(origin)
	ok := w.engine.Fill(s, sc.Table, sc.LootID, owner, loot.FillOptions{Personal: sc.Personal, Mode: sc.Mode})
	if ok && sc.MoneyMax > 0 {
		w.engine.GenerateCurrency(s, sc.MoneyMin, sc.MoneyMax)
	}
	return s, ok
}

// simulate runs sc.Runs resolutions and tallies them.
//
// Postcondition: Returns an error only if no template exists for the loot id.
func (w *world) simulate(sc scenario, owner loot.Viewer) (*tally, error) {
	t := &tally{Drops: make(map[uint32]int), Units: make(map[uint32]uint64)}
	for i := 0; i < sc.Runs; i++ {
		s, ok := w.fill(sc, owner)
		if !ok {
			return nil, fmt.Errorf("%s has no template %d", sc.Table, sc.LootID)
		}
		t.Runs++
		t.Currency += uint64(s.Currency)
		if len(s.Items)+len(s.QuestItems) == 0 {
			t.Empty++
		}
		for _, pool := range [][]*loot.Item{s.Items, s.QuestItems} {
			for _, it := range pool {
				t.Drops[it.ItemID]++
				t.Units[it.ItemID] += uint64(it.Count)
			}
		}
	}
	return t, nil
}

// report writes t as a table ordered by item id.
func report(out io.Writer, t *tally, items *catalog.Registry) {
	ids := make([]uint32, 0, len(t.Drops))
	for id := range t.Drops {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fmt.Fprintf(out, "%-8s %-32s %8s %8s %10s\n", "item", "name", "drops", "units", "rate")
	for _, id := range ids {
		name := "?"
		if it, ok := items.Lookup(id); ok {
			name = it.Name
		}
		fmt.Fprintf(out, "%-8d %-32s %8d %8d %9.2f%%\n",
			id, name, t.Drops[id], t.Units[id], 100*float64(t.Drops[id])/float64(t.Runs))
	}
	fmt.Fprintf(out, "runs %d  empty %d  currency avg %.1f\n",
		t.Runs, t.Empty, float64(t.Currency)/float64(t.Runs))
}

// dumpViews resolves one session and writes every party member's encoded
// window under perm as hex together with its decoded form.
func (w *world) dumpViews(out io.Writer, sc scenario, owner loot.Viewer, perm loot.Permission) error {
	s, ok := w.fill(sc, owner)
	if !ok {
		return fmt.Errorf("%s has no template %d", sc.Table, sc.LootID)
	}
	fmt.Fprintf(out, "session %s  items %d  quest items %d  currency %d\n",
		s.ID, len(s.Items), len(s.QuestItems), s.Currency)
	for i := 1; i <= sc.Party; i++ {
		v, ok := w.participants.Find(uint64(i))
		if !ok {
			continue
		}
		payload := w.engine.View(s, v, perm)
		view, err := loot.DecodeView(payload)
		if err != nil {
			return fmt.Errorf("decoding view of %d: %w", v.ID(), err)
		}
		fmt.Fprintf(out, "viewer %d %s\n  %s\n", v.ID(), perm, hex.EncodeToString(payload))
		for _, it := range view.Items {
			fmt.Fprintf(out, "  slot %-3d item %-8d x%-3d type %d\n", it.Slot, it.ItemID, it.Count, it.SlotType)
		}
	}
	return nil
}
