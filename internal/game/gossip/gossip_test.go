package gossip_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dragonfair/internal/game/challenge"
	"github.com/cory-johannsen/dragonfair/internal/game/gossip"
	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/storage"
	"github.com/cory-johannsen/dragonfair/internal/storage/memory"
)

type firstSource struct{}

func (firstSource) Intn(int) int { return 0 }

type seqSource struct{ next func(n int) int }

func (s seqSource) Intn(n int) int { return s.next(n) }

// world seeds one horde hero and n alliance heroes.
func world(t *testing.T, n int) (*memory.Store, *hero.Hero, []*hero.Hero) {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	me := &hero.Hero{ChatID: 1, UUID: uuid.New(), Name: "Thrall", Faction: hero.Horde, LevelID: 1}
	var others []*hero.Hero
	require.NoError(t, s.InTx(ctx, func(tx storage.Tx) error {
		if err := tx.UpsertHero(ctx, me); err != nil {
			return err
		}
		if err := tx.UpsertHero(ctx, &hero.Hero{ChatID: 2, UUID: uuid.New(), Name: "Garrosh", Faction: hero.Horde, LevelID: 1}); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			o := &hero.Hero{ChatID: int64(100 + i), UUID: uuid.New(), Name: "Alliance", Faction: hero.Alliance, LevelID: 1}
			if err := tx.UpsertHero(ctx, o); err != nil {
				return err
			}
			others = append(others, o)
		}
		return nil
	}))
	return s, me, others
}

func TestSelect_OnlyOpponents(t *testing.T) {
	s, me, others := world(t, 2)
	ctx := context.Background()
	require.NoError(t, s.InTx(ctx, func(tx storage.Tx) error {
		got, err := gossip.Candidates(ctx, tx, me, gossip.LearnCounterpart)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, others[0].ID, got[0].ID)
		assert.Equal(t, others[1].ID, got[1].ID)
		return nil
	}))
}

func TestSelect_ExcludesKnownTargets(t *testing.T) {
	s, me, others := world(t, 2)
	ctx := context.Background()
	require.NoError(t, s.InTx(ctx, func(tx storage.Tx) error {
		_, err := tx.AddEdge(ctx, hero.KnownVulnerability{WiseHeroID: me.ID, TargetHeroID: others[0].ID})
		require.NoError(t, err)
		got, err := gossip.Select(ctx, tx, firstSource{}, me, gossip.LearnCounterpart)
		require.NoError(t, err)
		assert.Equal(t, others[1].ID, got.ID)
		return nil
	}))
}

func TestSelect_NoNewGossip(t *testing.T) {
	s, me, others := world(t, 1)
	ctx := context.Background()
	require.NoError(t, s.InTx(ctx, func(tx storage.Tx) error {
		_, err := tx.AddEdge(ctx, hero.KnownVulnerability{WiseHeroID: me.ID, TargetHeroID: others[0].ID})
		require.NoError(t, err)
		_, err = gossip.Select(ctx, tx, firstSource{}, me, gossip.LearnCounterpart)
		assert.ErrorIs(t, err, gossip.ErrNoCandidate)
		return nil
	}))
}

func TestSelect_AllAlreadyKnow(t *testing.T) {
	s, me, others := world(t, 2)
	ctx := context.Background()
	require.NoError(t, s.InTx(ctx, func(tx storage.Tx) error {
		for _, o := range others {
			_, err := tx.AddEdge(ctx, hero.KnownVulnerability{WiseHeroID: o.ID, TargetHeroID: me.ID})
			require.NoError(t, err)
		}
		_, err := gossip.Select(ctx, tx, firstSource{}, me, gossip.Exposed)
		assert.ErrorIs(t, err, gossip.ErrNoCandidate)

		// knowing them does not matter for exposure
		got, err := gossip.Select(ctx, tx, firstSource{}, me, gossip.LearnCounterpart)
		require.NoError(t, err)
		assert.Equal(t, others[0].ID, got.ID)
		return nil
	}))
}

func TestApply_Edges(t *testing.T) {
	s, me, others := world(t, 1)
	ctx := context.Background()
	o := others[0]
	require.NoError(t, s.InTx(ctx, func(tx storage.Tx) error {
		res, err := gossip.Apply(ctx, tx, me, o, challenge.GossipTable.CriticalSuccess)
		require.NoError(t, err)
		assert.Equal(t, gossip.Applied{Own: true, Counterpart: true}, res)

		res, err = gossip.Apply(ctx, tx, me, o, challenge.GossipTable.CriticalFail)
		require.NoError(t, err)
		assert.Equal(t, gossip.Applied{Exposed: true}, res)

		res, err = gossip.Apply(ctx, tx, me, o, challenge.GossipTable.CriticalSuccess)
		require.NoError(t, err)
		assert.Equal(t, gossip.Applied{}, res, "edges already exist")

		mine, err := tx.EdgesFrom(ctx, me.ID)
		require.NoError(t, err)
		assert.Len(t, mine, 2)
		known, err := tx.KnownBy(ctx, me.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{me.ID, o.ID}, known)
		return nil
	}))
}

func TestDirectionFor(t *testing.T) {
	assert.Equal(t, gossip.Exposed, gossip.DirectionFor(challenge.GossipTable.CriticalFail))
	assert.Equal(t, gossip.LearnCounterpart, gossip.DirectionFor(challenge.GossipTable.CriticalSuccess))
	assert.Equal(t, gossip.LearnCounterpart, gossip.DirectionFor(challenge.GossipOutcome{Key: "d2to10"}))
}

// Repeated counterpart gossip never learns the same target twice and stops
// with ErrNoCandidate once every opponent is known.
func TestProperty_NoDuplicateCounterparts(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "opponents")
		s, me, _ := world(t, n)
		ctx := context.Background()
		src := seqSource{next: func(k int) int { return rapid.IntRange(0, k-1).Draw(rt, "pick") }}
		seen := map[int64]bool{}
		for i := 0; i <= n; i++ {
			err := s.InTx(ctx, func(tx storage.Tx) error {
				c, err := gossip.Select(ctx, tx, src, me, gossip.LearnCounterpart)
				if err != nil {
					return err
				}
				if seen[c.ID] {
					rt.Fatalf("hero %d selected twice", c.ID)
				}
				seen[c.ID] = true
				_, err = gossip.Apply(ctx, tx, me, c, challenge.GossipOutcome{Counterpart: true})
				return err
			})
			if i < n && err != nil {
				rt.Fatalf("round %d: %v", i, err)
			}
			if i == n && !errors.Is(err, gossip.ErrNoCandidate) {
				rt.Fatalf("expected exhaustion after %d rounds", n)
			}
		}
	})
}
