package importer_test

import (
	"testing"
	"unicode"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/importer"
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
		{"Thrall", "thrall"},
		{"Jaina Proudmoore", "jaina_proudmoore"},
		{"Vol'jin", "voljin"},
		{"Ogre 2", "ogre_2"},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, importer.NameToID(tc.input))
		})
	}
}

func TestHeroSpec_ToHero(t *testing.T) {
	id := uuid.New()
	h, err := importer.HeroSpec{
		UUID:    id,
		ChatID:  11,
		Name:    "Jaina Proudmoore",
		Faction: "Alliance",
		Scores:  hero.Scores{Wisdom: 3},
	}.ToHero()
	require.NoError(t, err)
	assert.Equal(t, id, h.UUID)
	assert.Equal(t, hero.Alliance, h.Faction)
	assert.Equal(t, 1, h.LevelID)
	assert.Equal(t, 3, h.Wisdom)
	assert.True(t, h.FirstLevelUp)
	assert.Equal(t, "heroes/jaina_proudmoore.png", h.Image)
	assert.Equal(t, "qr/jaina_proudmoore.png", h.QRImage)
}

func TestHeroSpec_ToHero_UnknownFaction(t *testing.T) {
	_, err := importer.HeroSpec{Name: "Illidan", Faction: "legion"}.ToHero()
	assert.ErrorIs(t, err, hero.ErrUnknownFaction)
}

func TestMonsterSpec_ToMonster(t *testing.T) {
	m := importer.MonsterSpec{Name: "Ogre", XP: 12, Level: 3, Scores: hero.Scores{Strength: 4}}.ToMonster()
	assert.Equal(t, 3, m.LevelID)
	assert.Equal(t, 12, m.XP)
	assert.Equal(t, 4, m.Strength)
}
