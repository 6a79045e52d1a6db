package fight_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dragonfair/internal/game/fight"
	"github.com/cory-johannsen/dragonfair/internal/game/hero"
)

func TestStartingHealth(t *testing.T) {
	assert.Equal(t, 15, fight.StartingHealth(5))
	assert.Equal(t, 10, fight.StartingHealth(0))
}

func TestDexterityPenalty(t *testing.T) {
	assert.Equal(t, 5, fight.DexterityPenalty(true, false))
	assert.Equal(t, 2, fight.DexterityPenalty(true, true))
	assert.Equal(t, 0, fight.DexterityPenalty(false, true))
	assert.Equal(t, 0, fight.DexterityPenalty(false, false))
}

func TestInitiative_Criticals(t *testing.T) {
	assert.Equal(t, 1, fight.Initiative(1, 4))
	assert.Equal(t, 28, fight.Initiative(20, 4))
	assert.Equal(t, 20, fight.Initiative(20, -3), "a negative dexterity adds nothing on a 20")
	assert.Equal(t, 9, fight.Initiative(12, -3))
}

func TestAttackAndDefense(t *testing.T) {
	assert.Equal(t, 1, fight.Attack(1, 6))
	assert.Equal(t, 26, fight.Attack(20, 3))
	assert.Equal(t, 13, fight.Attack(10, 3))
	assert.Equal(t, 30, fight.Defense(20, 5))
	assert.Equal(t, 7, fight.Defense(2, 5))
}

func TestFirstAttacker_TieGoesToHorde(t *testing.T) {
	assert.Equal(t, hero.Horde, fight.FirstAttacker(12, 12))
	assert.Equal(t, hero.Horde, fight.FirstAttacker(13, 12))
	assert.Equal(t, hero.Alliance, fight.FirstAttacker(11, 12))
}

func TestStrike(t *testing.T) {
	blocked := fight.Strike(8, 9, 15)
	assert.False(t, blocked.Hit())
	assert.Equal(t, 15, blocked.Health)

	hit := fight.Strike(12, 9, 15)
	assert.True(t, hit.Hit())
	assert.Equal(t, 3, hit.Damage)
	assert.Equal(t, 12, hit.Health)
	assert.False(t, hit.Defeated)

	// con=5 gives 15 health; a 20 with no defense takes it all.
	final := fight.Strike(20, 0, fight.StartingHealth(5))
	assert.True(t, final.Defeated)
	assert.Equal(t, 0, final.Health)
	assert.Equal(t, 15, final.Damage)
}

func TestStrike_Property_HealthNeverNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		attack := rapid.IntRange(-10, 80).Draw(t, "attack")
		defense := rapid.IntRange(-10, 80).Draw(t, "defense")
		health := rapid.IntRange(1, 60).Draw(t, "health")
		b := fight.Strike(attack, defense, health)
		if b.Health < 0 || b.Health > health {
			t.Fatalf("health %d out of [0, %d]", b.Health, health)
		}
		if b.Defeated != (b.Health == 0) {
			t.Fatalf("defeated=%v with health %d", b.Defeated, b.Health)
		}
		if b.Damage != health-b.Health {
			t.Fatalf("damage %d does not match health loss %d", b.Damage, health-b.Health)
		}
	})
}

func TestFirstAttacker_Property_HigherInitiativeWins(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := rapid.IntRange(-20, 80).Draw(t, "horde")
		a := rapid.IntRange(-20, 80).Draw(t, "alliance")
		got := fight.FirstAttacker(h, a)
		if h >= a && got != hero.Horde {
			t.Fatalf("horde %d >= alliance %d but %s attacks", h, a, got)
		}
		if h < a && got != hero.Alliance {
			t.Fatalf("alliance %d > horde %d but %s attacks", a, h, got)
		}
	})
}

func TestDieIcon(t *testing.T) {
	assert.Equal(t, "7-square", fight.DieIcon(7))
	assert.Equal(t, "2-square\n0-square", fight.DieIcon(20))
	assert.Equal(t, fight.ColorBad, fight.DieColor(1))
	assert.Equal(t, fight.ColorGood, fight.DieColor(20))
	assert.Equal(t, fight.ColorNeutral, fight.DieColor(11))
}
