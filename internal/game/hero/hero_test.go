package hero_test

import (
	"testing"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFactionOpponent(t *testing.T) {
	assert.Equal(t, hero.Alliance, hero.Horde.Opponent())
	assert.Equal(t, hero.Horde, hero.Alliance.Opponent())
}

func TestParseFaction(t *testing.T) {
	f, err := hero.ParseFaction(" Horde ")
	require.NoError(t, err)
	assert.Equal(t, hero.Horde, f)

	_, err = hero.ParseFaction("scourge")
	assert.ErrorIs(t, err, hero.ErrUnknownFaction)
}

func TestParseAbility(t *testing.T) {
	for _, a := range hero.Abilities {
		got, err := hero.ParseAbility(string(a))
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	_, err := hero.ParseAbility("charisma")
	assert.ErrorIs(t, err, hero.ErrUnknownAbility)
}

func TestScoresAddClampsAtZero(t *testing.T) {
	s := hero.Scores{Wisdom: 0, Strength: 3}
	assert.Equal(t, 0, s.Add(hero.Wisdom, -1))
	assert.Equal(t, 0, s.Wisdom)
	assert.Equal(t, 4, s.Add(hero.Strength, 4))
	assert.Equal(t, 7, s.Get(hero.Strength))
}

func TestScoresAdd_Property_NeverNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := hero.Scores{
			Constitution: rapid.IntRange(0, 20).Draw(t, "con"),
			Strength:     rapid.IntRange(0, 20).Draw(t, "str"),
			Dexterity:    rapid.IntRange(0, 20).Draw(t, "dex"),
			Wisdom:       rapid.IntRange(0, 20).Draw(t, "wis"),
		}
		a := rapid.SampledFrom(hero.Abilities).Draw(t, "ability")
		delta := rapid.IntRange(-30, 30).Draw(t, "delta")
		before := s.Get(a)
		applied := s.Add(a, delta)
		if s.Get(a) < 0 {
			t.Fatalf("%s went negative", a)
		}
		if s.Get(a) != before+applied {
			t.Fatalf("applied %d does not match change %d -> %d", applied, before, s.Get(a))
		}
	})
}

func TestFightLogSide(t *testing.T) {
	var row hero.FightLog
	row.Side(hero.Horde).Health = hero.Ptr(12)
	row.Side(hero.Alliance).Victory = hero.Ptr(true)
	require.NotNil(t, row.Horde.Health)
	assert.Equal(t, 12, *row.Horde.Health)
	assert.Nil(t, row.Horde.Victory)
	assert.True(t, *row.Alliance.Victory)

	var p hero.Projection
	p.Side(hero.Alliance).Icon = "shield"
	assert.Equal(t, "shield", p.Alliance.Icon)
}

func TestKnownVulnerabilitySelfLoop(t *testing.T) {
	assert.True(t, hero.KnownVulnerability{WiseHeroID: 3, TargetHeroID: 3}.SelfLoop())
	assert.False(t, hero.KnownVulnerability{WiseHeroID: 3, TargetHeroID: 4}.SelfLoop())
}
