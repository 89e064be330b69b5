package loot

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lootengine/internal/observability"
)

// Standard collection table names.
const (
	TableCreature      = "creature_loot_template"
	TableDisenchant    = "disenchant_loot_template"
	TableFishing       = "fishing_loot_template"
	TableGameobject    = "gameobject_loot_template"
	TableItem          = "item_loot_template"
	TableMail          = "mail_loot_template"
	TableMilling       = "milling_loot_template"
	TablePickpocketing = "pickpocketing_loot_template"
	TableProspecting   = "prospecting_loot_template"
	TableReference     = "reference_loot_template"
	TableSkinning      = "skinning_loot_template"
	TableSpell         = "spell_loot_template"
	TablePlayer        = "player_loot_template"
)

// ErrUnknownTable is returned for a table name the registry does not hold.
var ErrUnknownTable = errors.New("unknown loot table")

type collection struct {
	table        string
	entryName    string
	ratesAllowed bool
}

var standardCollections = []collection{
	{TableCreature, "creature entry", true},
	{TableDisenchant, "item disenchant id", true},
	{TableFishing, "area id", true},
	{TableGameobject, "gameobject entry", true},
	{TableItem, "item entry", true},
	{TableMail, "mail template id", false},
	{TableMilling, "item entry (herb)", true},
	{TablePickpocketing, "creature pickpocket lootid", true},
	{TableProspecting, "item entry (ore)", true},
	{TableReference, "reference id", false},
	{TableSkinning, "creature skinning id", true},
	{TableSpell, "spell id (random item creating)", false},
	{TablePlayer, "team id", true},
}

// Tables returns the standard collection table names in load order.
func Tables() []string {
	out := make([]string, len(standardCollections))
	for i, c := range standardCollections {
		out[i] = c.table
	}
	return out
}

// IsTable reports whether name is a standard collection table.
func IsTable(name string) bool {
	for _, c := range standardCollections {
		if c.table == name {
			return true
		}
	}
	return false
}

// Registry holds every named template collection. A Registry is populated
// once and then only read; reload builds a new Registry and swaps it into a Handle.
type Registry struct {
	stores   map[string]*Store
	order    []string
	maxDepth int
	logger   *zap.Logger
}

// NewRegistry creates a Registry holding the standard collections, all empty.
//
// Postcondition: Store(TableReference) is non-nil.
func NewRegistry(logger *zap.Logger) *Registry {
	r := &Registry{
		stores:   make(map[string]*Store, len(standardCollections)),
		maxDepth: DefaultLimits().MaxReferenceDepth,
		logger:   observability.Component(logger, "loot.registry", ""),
	}
	for _, c := range standardCollections {
		r.stores[c.table] = NewStore(c.table, c.entryName, c.ratesAllowed, logger)
		r.order = append(r.order, c.table)
	}
	return r
}

// Store returns the collection for table.
func (r *Registry) Store(table string) (*Store, bool) {
	s, ok := r.stores[table]
	return s, ok
}

// SetMaxReferenceDepth sets how deep quest-drop queries follow references.
//
// Precondition: depth >= 1.
func (r *Registry) SetMaxReferenceDepth(depth int) {
	r.maxDepth = depth
}

// Reference returns the reference collection.
func (r *Registry) Reference() *Store {
	return r.stores[TableReference]
}

// Load loads one collection from src.
//
// Postcondition: Returns the number of accepted rows or an error wrapping ErrUnknownTable or the source error.
func (r *Registry) Load(ctx context.Context, table string, src RowSource, cat Catalog) (int, error) {
	s, ok := r.stores[table]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	n, err := s.Load(ctx, src, cat)
	if err != nil {
		return 0, err
	}
	r.logger.Info("loaded loot templates",
		zap.String("table", table),
		zap.Int("rows", n),
		zap.Int("templates", s.Len()),
	)
	return n, nil
}

// LoadAll loads every collection from src, then checks references.
//
// Postcondition: Returns the total accepted rows or the first source error.
func (r *Registry) LoadAll(ctx context.Context, src RowSource, cat Catalog) (int, error) {
	total := 0
	for _, table := range r.order {
		n, err := r.Load(ctx, table, src, cat)
		if err != nil {
			return total, err
		}
		total += n
	}
	r.ReportUnusedReferences()
	return total, nil
}

// CheckReferences logs references to missing reference templates in every
// collection and removes used reference ids from unused when it is non-nil.
func (r *Registry) CheckReferences(unused map[uint32]struct{}) {
	ref := r.Reference()
	for _, table := range r.order {
		s := r.stores[table]
		for _, id := range s.IDs() {
			s.templates[id].each(func(e *Entry) bool {
				if !e.IsReference() {
					return false
				}
				target := e.ReferencedID()
				if _, ok := ref.Get(target); !ok {
					ref.ReportNonExistingID(target, "Reference", e.ItemID)
				} else if unused != nil {
					delete(unused, target)
				}
				return false
			})
		}
	}
}

// ReportUnusedReferences logs reference templates no collection uses.
func (r *Registry) ReportUnusedReferences() {
	unused := r.Reference().CollectIDs()
	r.CheckReferences(unused)
	r.Reference().ReportUnusedIDs(unused)
}

// AddCondition attaches a condition id to the first entry of template entry
// naming item.
//
// Postcondition: Returns an error wrapping ErrUnknownTable, or false when no entry matched.
func (r *Registry) AddCondition(table string, entry, item uint32, cond string) (bool, error) {
	s, ok := r.stores[table]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return s.addCondition(entry, item, cond), nil
}

// ResetConditions detaches every condition from every collection.
func (r *Registry) ResetConditions() {
	for _, s := range r.stores {
		s.resetConditions()
	}
}

// HasQuestDrop reports whether template id of table can drop a quest item,
// following references.
func (r *Registry) HasQuestDrop(table string, id uint32) bool {
	return r.questDrop(table, id, func(e *Entry) bool { return e.NeedsQuest })
}

// HasQuestDropFor reports whether template id of table can drop an item an
// active quest of v needs, following references.
func (r *Registry) HasQuestDropFor(table string, id uint32, v Viewer) bool {
	return r.questDrop(table, id, func(e *Entry) bool {
		needed, _ := v.HasQuestForItem(e.ItemID)
		return needed
	})
}

func (r *Registry) questDrop(table string, id uint32, match func(*Entry) bool) bool {
	s, ok := r.stores[table]
	if !ok {
		return false
	}
	t, ok := s.Get(id)
	if !ok {
		return false
	}
	return r.templateQuestDrop(t, 0, match, 0, make(map[questDropKey]int))
}

type questDropKey struct {
	t     *Template
	group uint8
}

// templateQuestDrop walks t and its references. seen records the shallowest
// depth each (template, group) pair was searched at; a pair is searched again
// only from a shallower depth, which bounds the walk on shared or cyclic
// references.
func (r *Registry) templateQuestDrop(t *Template, group uint8, match func(*Entry) bool, depth int, seen map[questDropKey]int) bool {
	if depth > r.maxDepth {
		return false
	}
	key := questDropKey{t, group}
	if d, ok := seen[key]; ok && d <= depth {
		return false
	}
	seen[key] = depth
	visit := func(e *Entry) bool {
		if !e.IsReference() {
			return match(e)
		}
		ref, ok := r.Reference().Get(e.ReferencedID())
		if !ok {
			return false
		}
		return r.templateQuestDrop(ref, e.groupOverride(), match, depth+1, seen)
	}
	if group != 0 {
		g := t.Group(group)
		return g != nil && g.each(visit)
	}
	return t.each(visit)
}

// Handle publishes the current Registry to concurrent readers.
type Handle struct {
	p atomic.Pointer[Registry]
}

// NewHandle creates a Handle publishing r.
func NewHandle(r *Registry) *Handle {
	h := &Handle{}
	h.p.Store(r)
	return h
}

// Load returns the current Registry.
func (h *Handle) Load() *Registry {
	return h.p.Load()
}

// Swap publishes next and returns the previous Registry.
func (h *Handle) Swap(next *Registry) *Registry {
	return h.p.Swap(next)
}
