// Package fight runs the Horde against Alliance duel: the pure combat rules
// and the conversation that drives a duel step by step from the master
// channel.
package fight

import (
	"github.com/cory-johannsen/dragonfair/internal/game/challenge"
	"github.com/cory-johannsen/dragonfair/internal/game/hero"
)

const (
	// BaseHealth is added to constitution for the starting health.
	BaseHealth = 10
	// ExploitPenalty is the dexterity lost to an undefended exploit.
	ExploitPenalty = 5
	// DefendedPenalty is the dexterity lost to a defended exploit.
	DefendedPenalty = 2
)

// StartingHealth returns the health a fighter enters the arena with.
func StartingHealth(constitution int) int { return constitution + BaseHealth }

// DexterityPenalty returns the dexterity a side loses for the rest of the
// fight.
func DexterityPenalty(opponentExploits, defends bool) int {
	switch {
	case opponentExploits && !defends:
		return ExploitPenalty
	case opponentExploits:
		return DefendedPenalty
	default:
		return 0
	}
}

// Initiative returns the initiative of a roll. A critical success doubles
// only a positive dexterity.
func Initiative(die, dexterity int) int {
	return check(die, dexterity, max(dexterity, 0))
}

// Attack returns the attack value of a roll.
func Attack(die, strength int) int { return check(die, strength, strength) }

// Defense returns the defense value of a roll.
func Defense(die, constitution int) int { return check(die, constitution, constitution) }

func check(die, modifier, critical int) int {
	switch challenge.Classify(die) {
	case challenge.Fail:
		return die
	case challenge.Success:
		return die + 2*critical
	default:
		return die + modifier
	}
}

// FirstAttacker returns the side that attacks first. Ties go to the Horde.
func FirstAttacker(hordeInitiative, allianceInitiative int) hero.Faction {
	if hordeInitiative >= allianceInitiative {
		return hero.Horde
	}
	return hero.Alliance
}

// Blow is the result of one attack against one defense.
type Blow struct {
	// Damage is the health actually lost.
	Damage int
	// Health is the defender's health afterwards, never negative.
	Health   int
	Defeated bool
}

// Hit reports whether the attack got through.
func (b Blow) Hit() bool { return b.Damage > 0 }

// Strike resolves attack against defense for a defender at health.
//
// Precondition: health > 0.
// Postcondition: 0 <= Health <= health; Defeated iff Health == 0.
func Strike(attack, defense, health int) Blow {
	raw := attack - defense
	if raw <= 0 {
		return Blow{Health: health}
	}
	if raw >= health {
		return Blow{Damage: health, Health: 0, Defeated: true}
	}
	return Blow{Damage: raw, Health: health - raw}
}
