package importer_test

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/lootengine/internal/game/loot"
	"github.com/cory-johannsen/lootengine/internal/importer"
)

func TestNameToID_Lowercase(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringOf(rapid.RuneFrom(nil, unicode.Letter, unicode.Digit)).Draw(t, "name")
		id := importer.NameToID(name)
		for _, r := range id {
			assert.True(t, r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'),
				"unexpected char %q in id %q", r, id)
		}
	})
}

func TestNameToID_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringOf(rapid.RuneFrom(nil, unicode.Letter, unicode.Digit)).Draw(t, "name")
		id := importer.NameToID(name)
		assert.Equal(t, id, importer.NameToID(id))
	})
}

func TestNameToID_NoSpacesOrApostrophes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringOf(rapid.RuneFrom(nil, unicode.Letter, unicode.Space)).Draw(t, "name")
		id := importer.NameToID(name)
		assert.NotContains(t, id, " ")
		assert.NotContains(t, id, "'")
	})
}

func TestNameToID_KnownValues(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Creature", "creature"},
		{"Game Object", "game_object"},
		{"Pick's Pocketing", "picks_pocketing"},
		{"reference_loot_template", "reference_loot_template"},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, importer.NameToID(tc.input))
		})
	}
}

func TestTableFor(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Creature", loot.TableCreature},
		{"gameobject", loot.TableGameobject},
		{"reference_loot_template", loot.TableReference},
		{"Pickpocketing", loot.TablePickpocketing},
	}
	for _, tc := range cases {
		got, err := importer.TableFor(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.want, got)
	}
	for _, bad := range []string{"", "Game Object", "accounts"} {
		_, err := importer.TableFor(bad)
		assert.ErrorIs(t, err, loot.ErrUnknownTable, bad)
	}
}

func TestToRows_Defaults(t *testing.T) {
	mode := uint16(0x8000)
	three := 3
	rows := importer.ToRows([]importer.RowSpec{
		{Entry: 1, Item: 2, Chance: 50},
		{Entry: 1, Item: 3, Chance: 10, LootMode: &mode, MaxCount: &three, GroupID: 2, QuestRequired: true},
	})
	assert.Equal(t, []loot.Row{
		{Entry: 1, Item: 2, Chance: 50, LootMode: 1, MinCount: 1, MaxCount: 1},
		{Entry: 1, Item: 3, Chance: 10, LootMode: 0x8000, GroupID: 2, QuestRequired: true, MinCount: 1, MaxCount: 3},
	}, rows)
}
