package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/storage"
	"github.com/cory-johannsen/dragonfair/internal/storage/memory"
)

func seed(t *testing.T, s *memory.Store) (horde, alliance *hero.Hero) {
	t.Helper()
	ctx := context.Background()
	horde = &hero.Hero{ChatID: 11, UUID: uuid.New(), Name: "Grom", Faction: hero.Horde, LevelID: 1}
	alliance = &hero.Hero{ChatID: 12, UUID: uuid.New(), Name: "Jaina", Faction: hero.Alliance, LevelID: 1}
	require.NoError(t, s.InTx(ctx, func(tx storage.Tx) error {
		for _, l := range []hero.Level{{ID: 1}, {ID: 2, XPToGain: 10}, {ID: 3, XPToGain: 20}} {
			if err := tx.UpsertLevel(ctx, l); err != nil {
				return err
			}
		}
		if err := tx.UpsertHero(ctx, horde); err != nil {
			return err
		}
		return tx.UpsertHero(ctx, alliance)
	}))
	return horde, alliance
}

func TestInTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	h, _ := seed(t, s)

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx storage.Tx) error {
		got, err := tx.HeroByID(ctx, h.ID)
		require.NoError(t, err)
		got.XP = 99
		require.NoError(t, tx.SaveHero(ctx, got))
		require.NoError(t, tx.AppendXPGain(ctx, hero.XPGainLog{HeroID: h.ID, XPGained: 99}))
		_, err = tx.AddEdge(ctx, hero.KnownVulnerability{WiseHeroID: h.ID, TargetHeroID: h.ID})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.InTx(ctx, func(tx storage.Tx) error {
		got, err := tx.HeroByID(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.XP)
		rows, err := tx.XPGains(ctx, h.ID)
		require.NoError(t, err)
		assert.Empty(t, rows)
		has, err := tx.HasEdge(ctx, h.ID, h.ID)
		require.NoError(t, err)
		assert.False(t, has)
		return nil
	}))
}

func TestAddEdge_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	h, a := seed(t, s)
	require.NoError(t, s.InTx(ctx, func(tx storage.Tx) error {
		e := hero.KnownVulnerability{WiseHeroID: h.ID, TargetHeroID: a.ID}
		inserted, err := tx.AddEdge(ctx, e)
		require.NoError(t, err)
		assert.True(t, inserted)
		inserted, err = tx.AddEdge(ctx, e)
		require.NoError(t, err)
		assert.False(t, inserted)

		edges, err := tx.EdgesFrom(ctx, h.ID)
		require.NoError(t, err)
		assert.Len(t, edges, 1)
		known, err := tx.KnownBy(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{h.ID}, known)
		return nil
	}))
}

func TestNextLevel(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	seed(t, s)
	require.NoError(t, s.InTx(ctx, func(tx storage.Tx) error {
		l, err := tx.NextLevel(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, hero.Level{ID: 2, XPToGain: 10}, l)
		_, err = tx.NextLevel(ctx, 3)
		assert.ErrorIs(t, err, hero.ErrNoNextLevel)
		return nil
	}))
}

func TestHeroQueries(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	h, a := seed(t, s)
	require.NoError(t, s.InTx(ctx, func(tx storage.Tx) error {
		got, err := tx.HeroByChat(ctx, 12)
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)

		_, err = tx.HeroByUUID(ctx, uuid.New())
		assert.ErrorIs(t, err, hero.ErrHeroNotFound)

		opp, err := tx.Opponents(ctx, hero.Horde)
		require.NoError(t, err)
		require.Len(t, opp, 1)
		assert.Equal(t, a.ID, opp[0].ID)

		got, err = tx.HeroByID(ctx, h.ID)
		require.NoError(t, err)
		got.HasBeenInFight = true
		require.NoError(t, tx.SaveHero(ctx, got))
		eligible, err := tx.EligibleFighters(ctx, hero.Horde)
		require.NoError(t, err)
		assert.Empty(t, eligible)
		return nil
	}))
}

func TestUpsertHero_KeyedByUUID(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	h, _ := seed(t, s)
	again := *h
	again.ID = 0
	again.Name = "Grommash"
	require.NoError(t, s.InTx(ctx, func(tx storage.Tx) error {
		require.NoError(t, tx.UpsertHero(ctx, &again))
		assert.Equal(t, h.ID, again.ID)
		all, err := tx.Heroes(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
		return nil
	}))
}

func TestFightLogAndProjection(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	h, a := seed(t, s)
	require.NoError(t, s.InTx(ctx, func(tx storage.Tx) error {
		row := &hero.FightLog{HordeHeroID: h.ID, AllianceHeroID: a.ID}
		row.Horde.Health = hero.Ptr(15)
		require.NoError(t, tx.AppendFightLog(ctx, row))
		assert.Equal(t, int64(1), row.ID)
		assert.False(t, row.At.IsZero())

		p := hero.Projection{}
		p.Horde.Name = "Grom"
		require.NoError(t, tx.SaveProjection(ctx, p))
		p.Horde.Health = 3
		require.NoError(t, tx.SaveProjection(ctx, p))
		got, err := tx.Projection(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Horde.Health)
		return nil
	}))
}

func TestChannels(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	ch := storage.Channel{ChatID: 7, Persona: storage.PersonaGossip, Label: "tavern"}
	require.NoError(t, s.Channels().Grant(ctx, ch, "s3cret"))

	got, err := s.Channels().Authenticate(ctx, 7, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, ch, got)

	_, err = s.Channels().Authenticate(ctx, 7, "wrong")
	assert.ErrorIs(t, err, storage.ErrInvalidAccessCode)
	_, err = s.Channels().Authenticate(ctx, 8, "s3cret")
	assert.ErrorIs(t, err, storage.ErrChannelNotFound)

	list, err := s.Channels().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []storage.Channel{ch}, list)
}
