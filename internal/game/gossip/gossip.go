// Package gossip implements counterpart selection and knowledge spreading
// over the vulnerability graph.
package gossip

import (
	"context"
	"errors"
	"fmt"

	"github.com/cory-johannsen/dragonfair/internal/game/challenge"
	"github.com/cory-johannsen/dragonfair/internal/game/dice"
	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/storage"
)

// ErrNoCandidate is returned when no opposing hero is eligible.
var ErrNoCandidate = errors.New("no eligible counterpart")

// Direction says which way knowledge flows in a gossip exchange.
type Direction int

const (
	// LearnCounterpart picks an opponent whose weakness the hero does not
	// know yet.
	LearnCounterpart Direction = iota
	// Exposed picks an opponent who does not know the hero's weakness yet.
	Exposed
)

func (d Direction) String() string {
	if d == Exposed {
		return "exposed"
	}
	return "learn_counterpart"
}

// DirectionFor returns the selection direction an outcome needs.
func DirectionFor(o challenge.GossipOutcome) Direction {
	if o.Exposed {
		return Exposed
	}
	return LearnCounterpart
}

// Graph is the slice of a transaction gossip needs.
type Graph interface {
	storage.HeroRepo
	storage.GraphRepo
}

// Candidates returns the opposing heroes eligible for dir, ordered by id.
func Candidates(ctx context.Context, g Graph, h *hero.Hero, dir Direction) ([]*hero.Hero, error) {
	var (
		excluded []int64
		err      error
	)
	switch dir {
	case Exposed:
		excluded, err = g.KnownBy(ctx, h.ID)
	default:
		excluded, err = g.KnownTargets(ctx, h.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading graph for hero %d: %w", h.ID, err)
	}
	skip := make(map[int64]struct{}, len(excluded))
	for _, id := range excluded {
		skip[id] = struct{}{}
	}
	opponents, err := g.Opponents(ctx, h.Faction)
	if err != nil {
		return nil, fmt.Errorf("loading opponents of hero %d: %w", h.ID, err)
	}
	out := opponents[:0]
	for _, o := range opponents {
		if _, ok := skip[o.ID]; !ok {
			out = append(out, o)
		}
	}
	return out, nil
}

// Select picks a uniformly random candidate for dir.
//
// Postcondition: returns ErrNoCandidate iff the candidate pool is empty.
func Select(ctx context.Context, g Graph, src dice.Source, h *hero.Hero, dir Direction) (*hero.Hero, error) {
	pool, err := Candidates(ctx, g, h, dir)
	if err != nil {
		return nil, err
	}
	pick, ok := dice.Pick(src, pool)
	if !ok {
		return nil, fmt.Errorf("%w: hero %d %s", ErrNoCandidate, h.ID, dir)
	}
	return pick, nil
}

// Applied reports which edges an Apply call inserted. An edge that already
// existed is reported as false.
type Applied struct {
	Own         bool
	Counterpart bool
	Exposed     bool
}

// Apply inserts the edges o calls for between h and counterpart.
//
// Precondition: counterpart is non-nil when o.Counterpart or o.Exposed.
func Apply(ctx context.Context, g storage.GraphRepo, h, counterpart *hero.Hero, o challenge.GossipOutcome) (Applied, error) {
	var (
		res Applied
		err error
	)
	add := func(wise, target int64) (bool, error) {
		inserted, err := g.AddEdge(ctx, hero.KnownVulnerability{WiseHeroID: wise, TargetHeroID: target})
		if err != nil {
			return false, fmt.Errorf("adding edge %d->%d: %w", wise, target, err)
		}
		return inserted, nil
	}
	if o.Own {
		if res.Own, err = add(h.ID, h.ID); err != nil {
			return res, err
		}
	}
	if o.Counterpart {
		if res.Counterpart, err = add(h.ID, counterpart.ID); err != nil {
			return res, err
		}
	}
	if o.Exposed {
		if res.Exposed, err = add(counterpart.ID, h.ID); err != nil {
			return res, err
		}
	}
	return res, nil
}
