// Package progression applies XP gains to heroes, cascading through as many
// level-ups as the gain covers, and spends the ability points they grant.
package progression

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/storage"
)

const (
	// StaffUnlockEvery grants a staff visit on every level divisible by it.
	StaffUnlockEvery = 3
	// ColorsUnlockEvery grants a colors visit on every level divisible by it.
	ColorsUnlockEvery = 5
)

var (
	// ErrNegativeXP is returned for a negative gain.
	ErrNegativeXP = errors.New("progression: negative xp gain")
	// ErrNoPoints is returned when a hero has no ability point to spend.
	ErrNoPoints = errors.New("progression: no available points")
)

// NextLevelFunc returns the ladder entry after levelID, or an error wrapping
// hero.ErrNoNextLevel.
type NextLevelFunc func(levelID int) (hero.Level, error)

// Gain describes what one XP gain did to a hero.
type Gain struct {
	Amount int
	// LevelsCrossed lists the levels reached, in order.
	LevelsCrossed []int
	PointsGranted int
	StaffUnlocks  int
	ColorsUnlocks int
	// NextLevel is the ladder entry the hero is now working towards.
	NextLevel hero.Level
}

// LeveledUp reports whether at least one level was crossed.
func (g Gain) LeveledUp() bool { return len(g.LevelsCrossed) > 0 }

// LastLevel returns the last level reached, or nil when none was.
func (g Gain) LastLevel() *int {
	if !g.LeveledUp() {
		return nil
	}
	return hero.Ptr(g.LevelsCrossed[len(g.LevelsCrossed)-1])
}

// Apply adds amount to h.XP and cascades level-ups. It mutates h only.
//
// Precondition: amount >= 0; next must be deterministic for the duration
// of the call.
// Postcondition: on success h.XP < Gain.NextLevel.XPToGain. On error h may
// be partially updated and must be discarded with its transaction.
func Apply(h *hero.Hero, amount int, next NextLevelFunc) (Gain, error) {
	if amount < 0 {
		return Gain{}, fmt.Errorf("%w: %d", ErrNegativeXP, amount)
	}
	g := Gain{Amount: amount}
	lvl, err := next(h.LevelID)
	if err != nil {
		return Gain{}, fmt.Errorf("hero %d at level %d: %w", h.ID, h.LevelID, err)
	}
	h.XP += amount
	for h.XP >= lvl.XPToGain {
		h.XP -= lvl.XPToGain
		h.LevelID = lvl.ID
		h.AvailablePoints++
		g.PointsGranted++
		g.LevelsCrossed = append(g.LevelsCrossed, lvl.ID)
		if lvl.ID%StaffUnlockEvery == 0 {
			h.StaffVisits++
			g.StaffUnlocks++
		}
		if lvl.ID%ColorsUnlockEvery == 0 {
			h.ColorsVisits++
			g.ColorsUnlocks++
		}
		if lvl, err = next(h.LevelID); err != nil {
			return Gain{}, fmt.Errorf("hero %d cascading past level %d: %w", h.ID, h.LevelID, err)
		}
	}
	g.NextLevel = lvl
	return g, nil
}

// Meta is the log metadata of an XP gain.
type Meta struct {
	Reason    hero.XPReason
	StationID *int64
	MonsterID *int64
}

// Engine applies gains through a storage transaction.
type Engine struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine creates an Engine.
//
// Precondition: logger must be non-nil.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger, now: time.Now}
}

// ApplyXPGain applies amount to h, saves h and appends exactly one XP gain
// log row carrying every level crossed.
//
// Precondition: tx is the caller's open transaction; h was read through it.
// Postcondition: on error nothing must be committed; the caller returns the
// error from its InTx function. hero.ErrNoNextLevel is never swallowed.
func (e *Engine) ApplyXPGain(ctx context.Context, tx storage.Tx, h *hero.Hero, amount int, meta Meta) (Gain, error) {
	g, err := Apply(h, amount, func(levelID int) (hero.Level, error) {
		return tx.NextLevel(ctx, levelID)
	})
	if err != nil {
		if errors.Is(err, hero.ErrNoNextLevel) {
			e.logger.Error("level ladder exhausted", zap.Int64("hero_id", h.ID), zap.Error(err))
		}
		return Gain{}, err
	}
	if err := tx.SaveHero(ctx, h); err != nil {
		return Gain{}, fmt.Errorf("saving hero after xp gain: %w", err)
	}
	row := hero.XPGainLog{
		At:            e.now(),
		HeroID:        h.ID,
		Reason:        meta.Reason,
		StationID:     meta.StationID,
		MonsterID:     meta.MonsterID,
		XPGained:      amount,
		LevelUpID:     g.LastLevel(),
		LevelsCrossed: g.LevelsCrossed,
	}
	if err := tx.AppendXPGain(ctx, row); err != nil {
		return Gain{}, fmt.Errorf("logging xp gain: %w", err)
	}
	e.logger.Info("xp gained",
		zap.Int64("hero_id", h.ID),
		zap.Int("xp_gained", amount),
		zap.String("reason", string(meta.Reason)),
		zap.Ints("levels_crossed", g.LevelsCrossed),
		zap.Int("level", h.LevelID),
	)
	return g, nil
}

// IncreaseAbility spends one ability point on a.
//
// Postcondition: returns ErrNoPoints when h has none; otherwise h is saved
// with the ability raised by one and a level-up log row is appended.
func (e *Engine) IncreaseAbility(ctx context.Context, tx storage.Tx, h *hero.Hero, a hero.Ability) error {
	if h.AvailablePoints <= 0 {
		return ErrNoPoints
	}
	h.AvailablePoints--
	h.Add(a, 1)
	if err := tx.SaveHero(ctx, h); err != nil {
		return fmt.Errorf("saving hero after ability increase: %w", err)
	}
	if err := tx.AppendLevelUp(ctx, hero.LevelUpLog{At: e.now(), HeroID: h.ID, IncreasedAbility: a}); err != nil {
		return fmt.Errorf("logging ability increase: %w", err)
	}
	e.logger.Info("ability increased",
		zap.Int64("hero_id", h.ID),
		zap.String("ability", string(a)),
		zap.Int("points_left", h.AvailablePoints),
	)
	return nil
}
