package condition

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Predicate types understood by ConditionDef.Type.
const (
	TypeLevelMin    = "level_min"
	TypeLevelMax    = "level_max"
	TypeTeam        = "team"
	TypeQuestActive = "quest_active"
	TypeSkill       = "skill"
	TypeSpellKnown  = "spell_known"
)

// Attachment names the template entry a condition guards.
type Attachment struct {
	Table string `yaml:"table"`
	Entry uint32 `yaml:"entry"`
	Item  uint32 `yaml:"item"`
}

// ConditionDef is the static definition of a loot condition, loaded from YAML.
type ConditionDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Type        string `yaml:"type"`
	// Value is the level, quest, skill or spell id the predicate compares against.
	Value uint32 `yaml:"value"`
	// Team is compared against the viewer's team for TypeTeam.
	Team   string       `yaml:"team"`
	Negate bool         `yaml:"negate"`
	Attach []Attachment `yaml:"attach"`
}

// Validate reports whether def is well formed.
//
// Postcondition: Returns nil, or an error naming the first problem found.
func (d *ConditionDef) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("condition id must not be empty")
	}
	switch d.Type {
	case TypeLevelMin, TypeLevelMax:
	case TypeQuestActive, TypeSkill, TypeSpellKnown:
		if d.Value == 0 {
			return fmt.Errorf("condition %q: %s requires a non-zero value", d.ID, d.Type)
		}
	case TypeTeam:
		if d.Team == "" {
			return fmt.Errorf("condition %q: team requires a team name", d.ID)
		}
	default:
		return fmt.Errorf("condition %q: unknown type %q", d.ID, d.Type)
	}
	for _, a := range d.Attach {
		if a.Table == "" || a.Entry == 0 || a.Item == 0 {
			return fmt.Errorf("condition %q: attachment needs table, entry and item", d.ID)
		}
	}
	return nil
}

// Registry holds all known ConditionDefs keyed by ID.
type Registry struct {
	defs map[string]*ConditionDef
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*ConditionDef)}
}

// Register adds def to the registry, overwriting any existing entry with the same ID.
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *ConditionDef) {
	r.defs[def.ID] = def
}

// Get returns the ConditionDef for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*ConditionDef, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns a snapshot slice of all registered ConditionDefs ordered by ID.
func (r *Registry) All() []*ConditionDef {
	out := make([]*ConditionDef, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses and validates each as a
// ConditionDef, and returns a populated Registry.
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading condition dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def ConditionDef
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		reg.Register(&def)
	}
	return reg, nil
}
