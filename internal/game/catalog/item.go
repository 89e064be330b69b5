// Package catalog holds the static item metadata consulted by loot resolution:
// quality, stack size, display id, and the flags that drive loot visibility.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Quality is an item's rarity tier.
type Quality uint8

// Quality tiers, lowest first.
const (
	QualityPoor Quality = iota
	QualityNormal
	QualityUncommon
	QualityRare
	QualityEpic
	QualityLegendary
	QualityArtifact
	// QualityCount is the number of quality tiers.
	QualityCount
)

var qualityNames = map[string]Quality{
	"poor":      QualityPoor,
	"normal":    QualityNormal,
	"uncommon":  QualityUncommon,
	"rare":      QualityRare,
	"epic":      QualityEpic,
	"legendary": QualityLegendary,
	"artifact":  QualityArtifact,
}

// ParseQuality converts a quality name to a Quality.
func ParseQuality(name string) (Quality, error) {
	q, ok := qualityNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown quality %q", name)
	}
	return q, nil
}

// Flags is a bitmask of loot-relevant item properties.
type Flags uint32

// Item flags.
const (
	// FlagMultiDrop makes the item free-for-all: every eligible viewer gets a copy.
	FlagMultiDrop Flags = 1 << iota
	// FlagHideUnusableRecipe hides the recipe from viewers lacking the skill or knowing the spell.
	FlagHideUnusableRecipe
	// FlagCurrencyToken marks free-for-all items stored automatically when the view is built.
	FlagCurrencyToken
	// FlagFollowLootRules makes quest and conditional copies obey group distribution.
	FlagFollowLootRules
	// FlagIgnoreQuestStatus skips quest requirement checks.
	FlagIgnoreQuestStatus
	// FlagHasLoot marks items that own an item loot template.
	FlagHasLoot
)

var flagNames = map[string]Flags{
	"multi_drop":           FlagMultiDrop,
	"hide_unusable_recipe": FlagHideUnusableRecipe,
	"currency_token":       FlagCurrencyToken,
	"follow_loot_rules":    FlagFollowLootRules,
	"ignore_quest_status":  FlagIgnoreQuestStatus,
	"has_loot":             FlagHasLoot,
}

// Item class and bonding values with loot semantics.
const (
	ClassRecipe       = "recipe"
	BondingOnPickup   = "pickup"
	BondingOnEquip    = "equip"
	InventoryNonEquip = 0
)

// Item defines the static properties of an item loaded from YAML.
type Item struct {
	ID            uint32   `yaml:"id"`
	Name          string   `yaml:"name"`
	QualityName   string   `yaml:"quality"`
	MaxStack      uint32   `yaml:"max_stack"`
	DisplayID     uint32   `yaml:"display_id"`
	InventoryType uint8    `yaml:"inventory_type"`
	Class         string   `yaml:"class"`
	Bonding       string   `yaml:"bonding"`
	RecipeSpell   uint32   `yaml:"recipe_spell"`
	RequiredSkill uint32   `yaml:"required_skill"`
	StartQuest    uint32   `yaml:"start_quest"`
	Team          string   `yaml:"team"`
	RandomSuffix  uint32   `yaml:"random_suffix"`
	RandomProp    uint32   `yaml:"random_property"`
	FlagNames     []string `yaml:"flags"`

	Quality Quality `yaml:"-"`
	Flags   Flags   `yaml:"-"`
}

// Has reports whether every bit of f is set on the item.
func (it *Item) Has(f Flags) bool {
	return it.Flags&f == f
}

// Equippable reports whether the item occupies an equipment slot.
func (it *Item) Equippable() bool {
	return it.InventoryType != InventoryNonEquip
}

// SoulboundRecipe reports whether the item teaches a spell and binds on pickup.
func (it *Item) SoulboundRecipe() bool {
	return it.Class == ClassRecipe && it.Bonding == BondingOnPickup && it.RecipeSpell != 0
}

// StackSize returns the maximum stack size, treating zero as one.
func (it *Item) StackSize() uint32 {
	if it.MaxStack == 0 {
		return 1
	}
	return it.MaxStack
}

// Validate checks the item and resolves QualityName and FlagNames.
//
// Precondition: it is non-nil.
// Postcondition: returns nil iff all fields are valid; Quality and Flags are set on success.
func (it *Item) Validate() error {
	var errs []error
	if it.ID == 0 {
		errs = append(errs, errors.New("id must be > 0"))
	}
	if it.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if it.MaxStack < 1 {
		errs = append(errs, errors.New("max_stack must be >= 1"))
	}
	if it.QualityName != "" {
		q, err := ParseQuality(it.QualityName)
		if err != nil {
			errs = append(errs, err)
		}
		it.Quality = q
	}
	it.Flags = 0
	for _, name := range it.FlagNames {
		f, ok := flagNames[name]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown flag %q", name))
			continue
		}
		it.Flags |= f
	}
	if it.Team != "" && it.Team != "horde" && it.Team != "alliance" {
		errs = append(errs, fmt.Errorf("team must be empty, horde or alliance; got %q", it.Team))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item %d validation failed: %v", it.ID, errs)
	}
	return nil
}

type itemFile struct {
	Items []*Item `yaml:"items"`
}

// LoadItems reads all *.yaml and *.yml files from dir, parses each as a list of
// items under an "items" key, validates them, and returns the collected slice.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid Items or the first encountered error.
func LoadItems(dir string) ([]*Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadItems: cannot read directory %q: %w", dir, err)
	}

	var items []*Item
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: cannot read file %q: %w", path, err)
		}
		var f itemFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("LoadItems: cannot parse file %q: %w", path, err)
		}
		for _, it := range f.Items {
			if err := it.Validate(); err != nil {
				return nil, fmt.Errorf("LoadItems: invalid item in %q: %w", path, err)
			}
			items = append(items, it)
		}
	}
	return items, nil
}
