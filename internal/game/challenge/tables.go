package challenge

import "errors"

// StaffOutcome is the staff station result: a message key and the bonus
// added to the chosen ability.
type StaffOutcome struct {
	Key   string
	Bonus int
}

// StaffTable is the staff station table, checked with the wisdom modifier.
var StaffTable = Table[StaffOutcome]{
	Name:            "staff",
	CriticalFail:    StaffOutcome{Key: "d1", Bonus: -1},
	CriticalSuccess: StaffOutcome{Key: "d20", Bonus: 4},
	Tiers: []Tier[StaffOutcome]{
		{Min: 17, Outcome: StaffOutcome{Key: "d17plus", Bonus: 3}},
		{Min: 11, Outcome: StaffOutcome{Key: "d11to16", Bonus: 2}},
		{Min: 8, Outcome: StaffOutcome{Key: "d8to10", Bonus: 1}},
		{Min: 2, Outcome: StaffOutcome{Key: "d2to7", Bonus: 0}},
	},
}

// ColorsTable is the colors station table, checked with the wisdom
// modifier. Outcomes are message keys.
var ColorsTable = Table[string]{
	Name:            "colors",
	CriticalFail:    "d1",
	CriticalSuccess: "d20",
	Tiers: []Tier[string]{
		{Min: 15, Outcome: "d15plus"},
		{Min: 10, Outcome: "d10to14"},
		{Min: 2, Outcome: "d2to9"},
	},
}

// GossipOutcome says which vulnerability edges a gossip check produces.
type GossipOutcome struct {
	Key string
	// Own means the hero learns their own weakness.
	Own bool
	// Counterpart means the hero learns an opponent's weakness.
	Counterpart bool
	// Exposed means an opponent learns the hero's weakness.
	Exposed bool
}

// GossipTable is the gossip station table, checked with the wisdom modifier.
var GossipTable = Table[GossipOutcome]{
	Name:            "gossip",
	CriticalFail:    GossipOutcome{Key: "d1", Exposed: true},
	CriticalSuccess: GossipOutcome{Key: "d20", Own: true, Counterpart: true},
	Tiers: []Tier[GossipOutcome]{
		{Min: 17, Outcome: GossipOutcome{Key: "d17plus", Counterpart: true}},
		{Min: 11, Outcome: GossipOutcome{Key: "d11to16", Own: true}},
		{Min: 2, Outcome: GossipOutcome{Key: "d2to10"}},
	},
}

// ValidateTables validates every named table and joins the failures.
func ValidateTables() error {
	return errors.Join(
		StaffTable.Validate(),
		ColorsTable.Validate(),
		GossipTable.Validate(),
	)
}
