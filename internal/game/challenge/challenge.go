// Package challenge resolves d20 checks against tiered outcome tables.
//
// A face of 1 or 20 bypasses the table entirely. Any other face is added to
// the modifier and matched against tiers from the highest threshold down.
// Nothing in this package performs I/O; callers apply the outcome.
package challenge

import (
	"errors"
	"fmt"
)

// ErrDieOutOfRange is returned when a die face is outside 1..20.
var ErrDieOutOfRange = errors.New("challenge: die out of range")

// ErrInvalidTable is returned by Table.Validate.
var ErrInvalidTable = errors.New("challenge: invalid tier table")

const (
	minFace = 1
	maxFace = 20
	// coverageFloor is the smallest non-critical total every table must cover.
	coverageFloor = 2
)

// Critical classifies a raw die face.
type Critical int

const (
	// None means the face went through the tier table.
	None Critical = iota
	// Fail means the face was 1.
	Fail
	// Success means the face was 20.
	Success
)

// String returns a human-readable label.
func (c Critical) String() string {
	switch c {
	case Fail:
		return "critical fail"
	case Success:
		return "critical success"
	default:
		return "none"
	}
}

// Classify reports whether face is a critical.
//
// Postcondition: Fail iff face == 1; Success iff face == 20.
func Classify(face int) Critical {
	switch face {
	case minFace:
		return Fail
	case maxFace:
		return Success
	default:
		return None
	}
}

// Tier maps every total >= Min (and below the next tier up) to Outcome.
type Tier[O any] struct {
	Min     int
	Outcome O
}

// Table is a tier table plus its two fixed critical outcomes.
type Table[O any] struct {
	Name            string
	CriticalFail    O
	CriticalSuccess O
	// Tiers must be ordered by Min, strictly descending.
	Tiers []Tier[O]
}

// Validate checks that tiers are strictly descending and that the lowest
// tier covers every total >= 2.
func (t Table[O]) Validate() error {
	if len(t.Tiers) == 0 {
		return fmt.Errorf("%w: %s has no tiers", ErrInvalidTable, t.Name)
	}
	for i := 1; i < len(t.Tiers); i++ {
		if t.Tiers[i].Min >= t.Tiers[i-1].Min {
			return fmt.Errorf("%w: %s tier %d (min %d) not below tier %d (min %d)",
				ErrInvalidTable, t.Name, i, t.Tiers[i].Min, i-1, t.Tiers[i-1].Min)
		}
	}
	if lowest := t.Tiers[len(t.Tiers)-1].Min; lowest > coverageFloor {
		return fmt.Errorf("%w: %s lowest tier %d leaves totals from %d uncovered",
			ErrInvalidTable, t.Name, lowest, coverageFloor)
	}
	return nil
}

// Result is the resolved outcome of one check.
type Result[O any] struct {
	Face     int
	Modifier int
	// Total is Face+Modifier. It is informational for criticals.
	Total    int
	Critical Critical
	Outcome  O
	// Tier is the index into Table.Tiers, or -1 for criticals.
	Tier int
}

// Resolve maps a die face and modifier to an outcome of t.
//
// Precondition: t passes Validate.
// Postcondition: face 1 yields t.CriticalFail and face 20 yields
// t.CriticalSuccess regardless of modifier. Otherwise the outcome is the
// first tier (highest Min) whose Min <= face+modifier; totals below every
// tier resolve to the lowest tier.
func Resolve[O any](face, modifier int, t Table[O]) (Result[O], error) {
	if face < minFace || face > maxFace {
		return Result[O]{}, fmt.Errorf("%w: %d", ErrDieOutOfRange, face)
	}
	res := Result[O]{
		Face:     face,
		Modifier: modifier,
		Total:    face + modifier,
		Critical: Classify(face),
		Tier:     -1,
	}
	switch res.Critical {
	case Fail:
		res.Outcome = t.CriticalFail
		return res, nil
	case Success:
		res.Outcome = t.CriticalSuccess
		return res, nil
	}
	if len(t.Tiers) == 0 {
		return Result[O]{}, fmt.Errorf("%w: %s has no tiers", ErrInvalidTable, t.Name)
	}
	for i, tier := range t.Tiers {
		if tier.Min <= res.Total {
			res.Tier = i
			res.Outcome = tier.Outcome
			return res, nil
		}
	}
	// A negative modifier can push the total under the floor.
	res.Tier = len(t.Tiers) - 1
	res.Outcome = t.Tiers[res.Tier].Outcome
	return res, nil
}
