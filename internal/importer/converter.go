package importer

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
)

// NameToID converts a display name to a stable snake_case identifier.
//
// Postcondition: result is lowercase, contains only [a-z0-9_], and is
// idempotent (NameToID(NameToID(s)) == NameToID(s)).
func NameToID(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "_")
	var b strings.Builder
	for _, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ToHero converts a spec into a fresh hero at its starting level. Missing
// blob names default to heroes/<id>.png and qr/<id>.png.
func (s HeroSpec) ToHero() (*hero.Hero, error) {
	faction, err := hero.ParseFaction(s.Faction)
	if err != nil {
		return nil, fmt.Errorf("hero %q: %w", s.Name, err)
	}
	id := NameToID(s.Name)
	h := &hero.Hero{
		ChatID:        s.ChatID,
		UUID:          s.UUID,
		Name:          s.Name,
		Description:   s.Description,
		Faction:       faction,
		Vulnerability: s.Vulnerability,
		Image:         s.Image,
		QRImage:       s.QRImage,
		LevelID:       max(s.Level, 1),
		Scores:        s.Scores,
		FirstLevelUp:  true,
	}
	if h.Image == "" {
		h.Image = "heroes/" + id + ".png"
	}
	if h.QRImage == "" {
		h.QRImage = "qr/" + id + ".png"
	}
	return h, nil
}

// ToMonster converts a spec into a monster.
func (s MonsterSpec) ToMonster() *hero.Monster {
	return &hero.Monster{
		UUID:        s.UUID,
		Name:        s.Name,
		Description: s.Description,
		LevelID:     max(s.Level, 1),
		XP:          s.XP,
		Scores:      s.Scores,
	}
}
