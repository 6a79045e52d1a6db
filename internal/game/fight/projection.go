package fight

import (
	"strconv"

	"github.com/cory-johannsen/dragonfair/internal/game/challenge"
	"github.com/cory-johannsen/dragonfair/internal/game/hero"
)

// Projection icons.
const (
	IconWaiting      = "clock"
	IconInspired     = "stars"
	IconPenalized    = "slash-circle"
	IconAttacker     = "magic"
	IconDefender     = "shield"
	IconWounded      = "heartbreak"
	IconDefeated     = "emoji-dizzy"
	IconBlocked      = "shield-check"
	IconAttackResult = "magic\ncheck"
)

// Projection colors.
const (
	ColorNeutral = "#2d2d2d"
	ColorInfo    = "blue"
	ColorBad     = "red"
	ColorGood    = "green"
)

// DieIcon renders a face as square digit icons, tens first.
func DieIcon(face int) string {
	ones := strconv.Itoa(face%10) + "-square"
	if tens := face / 10; tens > 0 {
		return strconv.Itoa(tens) + "-square\n" + ones
	}
	return ones
}

// DieColor is the projection color of a submitted face.
func DieColor(face int) string {
	switch challenge.Classify(face) {
	case challenge.Fail:
		return ColorBad
	case challenge.Success:
		return ColorGood
	default:
		return ColorNeutral
	}
}

// Introduce resets the projection for a new duel.
func Introduce(p *hero.Projection, h *hero.Hero, health int) {
	side := p.Side(h.Faction)
	*side = hero.ProjectionSide{
		Name:   h.Name,
		Level:  h.LevelID,
		Health: health,
		Scores: h.Scores,
		Icon:   IconWaiting,
		Color:  ColorNeutral,
	}
}

func mark(p *hero.Projection, f hero.Faction, icon, color string) {
	s := p.Side(f)
	s.Icon, s.Color = icon, color
}

// roles marks attacker and defender at the start of an exchange.
func roles(p *hero.Projection, attacker hero.Faction) {
	mark(p, attacker, IconAttacker, ColorGood)
	mark(p, attacker.Opponent(), IconDefender, ColorNeutral)
}
