// Package hero defines the durable entities of a live event: heroes, the
// level ladder, monsters, stations, onboarding questions and the
// vulnerability graph edges between heroes.
package hero

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrHeroNotFound is returned when a hero lookup has no match.
	ErrHeroNotFound = errors.New("hero not found")
	// ErrMonsterNotFound is returned when a monster lookup has no match.
	ErrMonsterNotFound = errors.New("monster not found")
	// ErrStationNotFound is returned when no station is bound to a chat.
	ErrStationNotFound = errors.New("station not found")
	// ErrQuestionNotFound is returned when a question lookup has no match.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNoNextLevel is returned when the level ladder is exhausted. It is a
	// configuration fault and must never be swallowed.
	ErrNoNextLevel = errors.New("level ladder exhausted")
	// ErrUnknownAbility is returned by ParseAbility.
	ErrUnknownAbility = errors.New("unknown ability")
	// ErrUnknownFaction is returned by ParseFaction.
	ErrUnknownFaction = errors.New("unknown faction")
)

// Faction is one of the two mutually exclusive sides.
type Faction string

const (
	Horde    Faction = "horde"
	Alliance Faction = "alliance"
)

// Opponent returns the other faction.
func (f Faction) Opponent() Faction {
	if f == Horde {
		return Alliance
	}
	return Horde
}

// ParseFaction accepts "horde" or "alliance" in any case.
func ParseFaction(s string) (Faction, error) {
	switch Faction(strings.ToLower(strings.TrimSpace(s))) {
	case Horde:
		return Horde, nil
	case Alliance:
		return Alliance, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFaction, s)
}

// Ability names one of the four ability scores.
type Ability string

const (
	Constitution Ability = "constitution"
	Strength     Ability = "strength"
	Dexterity    Ability = "dexterity"
	Wisdom       Ability = "wisdom"
)

// Abilities lists every ability in display order.
var Abilities = []Ability{Constitution, Strength, Dexterity, Wisdom}

// ParseAbility accepts an ability name in any case.
func ParseAbility(s string) (Ability, error) {
	a := Ability(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Abilities {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAbility, s)
}

// Scores holds the four ability scores. Scores are never negative.
type Scores struct {
	Constitution int `yaml:"constitution" json:"constitution"`
	Strength     int `yaml:"strength" json:"strength"`
	Dexterity    int `yaml:"dexterity" json:"dexterity"`
	Wisdom       int `yaml:"wisdom" json:"wisdom"`
}

// Get returns the score for a.
func (s Scores) Get(a Ability) int {
	switch a {
	case Constitution:
		return s.Constitution
	case Strength:
		return s.Strength
	case Dexterity:
		return s.Dexterity
	case Wisdom:
		return s.Wisdom
	}
	return 0
}

// Add adds delta to a and returns the applied change.
//
// Postcondition: the score is >= 0; the returned value may be smaller in
// magnitude than delta when the score was clamped.
func (s *Scores) Add(a Ability, delta int) int {
	var p *int
	switch a {
	case Constitution:
		p = &s.Constitution
	case Strength:
		p = &s.Strength
	case Dexterity:
		p = &s.Dexterity
	case Wisdom:
		p = &s.Wisdom
	default:
		return 0
	}
	before := *p
	*p = max(before+delta, 0)
	return *p - before
}

// Level is an entry of the ordered level ladder.
type Level struct {
	ID       int `yaml:"id" json:"id"`
	XPToGain int `yaml:"xp_to_gain" json:"xp_to_gain"`
}

// Hero is an event participant.
type Hero struct {
	ID     int64
	ChatID int64
	UUID   uuid.UUID

	Name        string
	Description string
	Faction     Faction
	// Vulnerability is the hero's persistent weakness, revealed by gossip.
	Vulnerability string
	// Image and QRImage are blob names in the media library.
	Image   string
	QRImage string

	LevelID int
	XP      int
	Scores

	AvailablePoints   int
	StaffVisits       int
	ColorsVisits      int
	FirstLevelUp      bool
	HasBeenInFight    bool
	CurrentQuestionID *int
	TestDone          bool
}

// Monster is a read-only NPC opponent met behind a door.
type Monster struct {
	ID          int64
	UUID        uuid.UUID
	Name        string
	Description string
	LevelID     int
	XP          int
	Scores
}

// Station is an XP station bound to one chat.
type Station struct {
	ID     int64
	ChatID int64
	Name   string
	XP     int
}

// Question is an onboarding test question. Audio is a blob name.
type Question struct {
	ID      int
	Text    string
	Audio   string
	Answers string
}

// KnownVulnerability is a directed edge: Wise knows Target's weakness. A
// self-loop means the hero knows their own weakness.
type KnownVulnerability struct {
	WiseHeroID   int64
	TargetHeroID int64
}

// SelfLoop reports whether the edge records awareness of one's own weakness.
func (k KnownVulnerability) SelfLoop() bool { return k.WiseHeroID == k.TargetHeroID }

// Phase is the event-wide phase.
type Phase string

const (
	PhaseFair  Phase = "fair"
	PhaseFight Phase = "fight"
)
