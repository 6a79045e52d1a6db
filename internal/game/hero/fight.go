package hero

import "time"

// FightSide is the sparse per-faction part of a FightLog row. A nil field
// did not change at that step.
type FightSide struct {
	Health            *int  `json:"health,omitempty"`
	Inspiration       *bool `json:"inspiration,omitempty"`
	KnowVulnerability *bool `json:"know_vulnerability,omitempty"`
	OwnVulnerability  *bool `json:"own_vulnerability,omitempty"`
	UseVulnerability  *bool `json:"use_vulnerability,omitempty"`
	DefVulnerability  *bool `json:"def_vulnerability,omitempty"`
	DiceRoll          *int  `json:"dice_roll,omitempty"`
	Victory           *bool `json:"victory,omitempty"`
}

// FightLog is one append-only, sparse record of a fight step, keyed by the
// pair of fighters.
type FightLog struct {
	ID             int64
	At             time.Time
	HordeHeroID    int64
	AllianceHeroID int64
	Horde          FightSide
	Alliance       FightSide
}

// Side returns the part of the row for f.
func (l *FightLog) Side(f Faction) *FightSide {
	if f == Horde {
		return &l.Horde
	}
	return &l.Alliance
}

// ProjectionSide is the displayed state of one fighter.
type ProjectionSide struct {
	Name   string `json:"name"`
	Level  int    `json:"level"`
	Health int    `json:"health"`
	Scores
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// Projection is the latest denormalized view of the current fight. It is a
// single row overwritten at every step.
type Projection struct {
	Horde    ProjectionSide `json:"horde"`
	Alliance ProjectionSide `json:"alliance"`
}

// Side returns the projection of f.
func (p *Projection) Side(f Faction) *ProjectionSide {
	if f == Horde {
		return &p.Horde
	}
	return &p.Alliance
}
