package loot

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lootengine/internal/observability"
)

// Store is one named template collection keyed by owner entry.
type Store struct {
	name         string
	entryName    string
	ratesAllowed bool
	templates    map[uint32]*Template
	logger       *zap.Logger
}

// NewStore creates an empty collection.
//
// Precondition: name is the source table name.
// Postcondition: Returns a Store with no templates.
func NewStore(name, entryName string, ratesAllowed bool, logger *zap.Logger) *Store {
	return &Store{
		name:         name,
		entryName:    entryName,
		ratesAllowed: ratesAllowed,
		templates:    make(map[uint32]*Template),
		logger:       observability.Component(logger, "loot.store", name),
	}
}

// Name returns the table name.
func (s *Store) Name() string { return s.name }

// EntryName describes what owns an entry of this collection.
func (s *Store) EntryName() string { return s.entryName }

// RatesAllowed reports whether quality and reference rates apply to rolls.
func (s *Store) RatesAllowed() bool { return s.ratesAllowed }

// Len returns the number of templates.
func (s *Store) Len() int { return len(s.templates) }

// Get returns the template for id.
func (s *Store) Get(id uint32) (*Template, bool) {
	t, ok := s.templates[id]
	return t, ok
}

// Load replaces the collection's contents with the rows of its table.
// Invalid rows are logged and skipped.
//
// Precondition: src and cat must be non-nil.
// Postcondition: Returns the number of accepted rows, or an error if the rows could not be read.
func (s *Store) Load(ctx context.Context, src RowSource, cat Catalog) (int, error) {
	rows, err := src.LoadRows(ctx, s.name)
	if err != nil {
		return 0, fmt.Errorf("loading %s: %w", s.name, err)
	}
	s.templates = make(map[uint32]*Template)

	count := 0
	for _, row := range rows {
		if !s.accept(row, cat) {
			continue
		}
		t, ok := s.templates[row.Entry]
		if !ok {
			t = &Template{}
			s.templates[row.Entry] = t
		}
		t.addEntry(entryFromRow(row))
		count++
	}
	s.verify()
	return count, nil
}

func (s *Store) accept(row Row, cat Catalog) bool {
	if row.LootMode == 0 {
		s.logger.Error("loot mode is 0, item will never drop - setting mode 1",
			zap.Uint32("entry", row.Entry),
			zap.Uint32("item", row.Item),
		)
		row.LootMode = uint16(ModeDefault)
	}
	if err := validateRow(row, cat); err != nil {
		s.logger.Error("skipping loot row",
			zap.Uint32("entry", row.Entry),
			zap.Uint32("item", row.Item),
			zap.String("reason", err.Error()),
		)
		return false
	}
	if row.Reference != 0 && row.QuestRequired {
		s.logger.Error("quest required will be ignored",
			zap.Uint32("entry", row.Entry),
			zap.Uint32("item", row.Item),
			zap.Int32("reference", row.Reference),
		)
	}
	return true
}

func (s *Store) verify() {
	for _, id := range s.IDs() {
		for i, g := range s.templates[id].Groups {
			if g != nil {
				g.verify(s.logger, id, i+1)
			}
		}
	}
}

// IDs returns every template id in ascending order.
func (s *Store) IDs() []uint32 {
	ids := make([]uint32, 0, len(s.templates))
	for id := range s.templates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CollectIDs returns the set of loaded template ids.
func (s *Store) CollectIDs() map[uint32]struct{} {
	set := make(map[uint32]struct{}, len(s.templates))
	for id := range s.templates {
		set[id] = struct{}{}
	}
	return set
}

// ReportNonExistingID logs a template id used by content but absent from the collection.
func (s *Store) ReportNonExistingID(id uint32, ownerType string, ownerID uint32) {
	s.logger.Error("entry does not exist but it is used",
		zap.Uint32("entry", id),
		zap.String("owner_type", ownerType),
		zap.Uint32("owner", ownerID),
	)
}

// ReportUnusedIDs logs every id still present in unused.
func (s *Store) ReportUnusedIDs(unused map[uint32]struct{}) {
	ids := make([]uint32, 0, len(unused))
	for id := range unused {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		s.logger.Error("entry is not referenced from loot, and thus useless",
			zap.Uint32("entry", id),
			zap.String("owner_type", s.entryName),
		)
	}
}

// CrossCheck logs every owner id that has no template.
//
// Postcondition: returns the template ids no owner claims.
func (s *Store) CrossCheck(ownerType string, owners []uint32) map[uint32]struct{} {
	unused := s.CollectIDs()
	for _, id := range owners {
		if _, ok := s.templates[id]; !ok {
			s.ReportNonExistingID(id, ownerType, id)
			continue
		}
		delete(unused, id)
	}
	return unused
}

// addCondition attaches a condition id to the first entry naming item.
func (s *Store) addCondition(entry, item uint32, cond string) bool {
	t, ok := s.templates[entry]
	if !ok {
		return false
	}
	return t.each(func(e *Entry) bool {
		if e.ItemID != item {
			return false
		}
		e.Conditions = append(e.Conditions, cond)
		return true
	})
}

func (s *Store) resetConditions() {
	for _, t := range s.templates {
		t.each(func(e *Entry) bool {
			e.Conditions = nil
			return false
		})
	}
}
