package hero

import "time"

// XPReason says what produced an XP gain.
type XPReason string

const (
	ReasonStation  XPReason = "station"
	ReasonMonster  XPReason = "monster"
	ReasonQuestion XPReason = "question"
	ReasonFight    XPReason = "fight"
)

// XPGainLog is the single row written per XP gain. LevelUpID is the last
// level reached, and LevelsCrossed lists every level reached in order.
type XPGainLog struct {
	At            time.Time
	HeroID        int64
	Reason        XPReason
	StationID     *int64
	MonsterID     *int64
	XPGained      int
	LevelUpID     *int
	LevelsCrossed []int
}

// LevelUpLog records one ability point spent.
type LevelUpLog struct {
	At               time.Time
	HeroID           int64
	IncreasedAbility Ability
}

// SpecialStationLog records a staff or colors visit.
type SpecialStationLog struct {
	At          time.Time
	Station     string
	HeroID      int64
	Wisdom      int
	Die         int
	Ability     *Ability
	AbilityPlus *int
}

// DoorLog records what a hero found behind a door.
type DoorLog struct {
	At          time.Time
	HeroID      int64
	IsQuestion  *bool
	IsStaff     *bool
	MonsterID   *int64
	Ability     *Ability
	HeroVictory *bool
}

// TestAnswerLog records one onboarding answer.
type TestAnswerLog struct {
	At         time.Time
	HeroID     int64
	QuestionID int
	Answer     string
}

// Ptr returns a pointer to v. It builds the optional fields of sparse rows.
func Ptr[T any](v T) *T { return &v }
