package gameserver

import (
	"context"

	"github.com/cory-johannsen/dragonfair/internal/conversation"
	"github.com/cory-johannsen/dragonfair/internal/game/challenge"
	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/game/progression"
	"github.com/cory-johannsen/dragonfair/internal/storage"
)

const (
	stateDoor         conversation.State = "door"
	stateQuestion     conversation.State = "question"
	stateMonsterPhoto conversation.State = "monster_photo"
	stateHeroDice     conversation.State = "hero_dice"
	stateMonsterDice  conversation.State = "monster_dice"
)

type doorVisit struct {
	HeroID    int64
	MonsterID int64
	Ability   hero.Ability
	HeroDie   int
}

// doorsPersona records what a hero met behind a door: a staff member, a
// question or a monster duel.
type doorsPersona struct {
	*kit
}

func registerDoors(e *conversation.Engine, k *kit) error {
	p := &doorsPersona{k}
	help := func(context.Context, int64) (string, any, error) { return "help", nil, nil }
	if err := conversation.Register(e, helpDefinition(k, help)); err != nil {
		return err
	}
	return conversation.Register(e, conversation.Definition[doorVisit]{
		Name:  "doors",
		Entry: []conversation.Route[doorVisit]{on(k, k.Catalog.Matcher("hero_qr"), askPhoto[doorVisit](k))},
		States: map[conversation.State][]conversation.Route[doorVisit]{
			statePhoto: {on(k, conversation.IsPhoto, p.scan)},
			stateDoor: {
				on(k, k.Catalog.Matcher("staff"), p.staff),
				on(k, k.Catalog.Matcher("question"), p.question),
				on(k, k.Catalog.Matcher("monster"), p.monster),
			},
			stateQuestion: {
				on(k, k.Catalog.Matcher("correct"), p.answered(true)),
				on(k, k.Catalog.Matcher("incorrect"), p.answered(false)),
			},
			stateMonsterPhoto: {on(k, conversation.IsPhoto, p.scanMonster)},
			stateAbility:      {on(k, abilityMatcher(k), p.ability)},
			stateHeroDice:     {on(k, conversation.IsDie, p.heroRoll)},
			stateMonsterDice:  {on(k, conversation.IsDie, p.monsterRoll)},
		},
		Fallbacks: []conversation.Route[doorVisit]{cancelRoute[doorVisit](k, "hero_qr")},
	})
}

func (p *doorsPersona) scan(ctx context.Context, t *conversation.Turn[doorVisit]) (conversation.State, error) {
	id, err := scanned(ctx, p.kit, t)
	if err != nil {
		return "", err
	}
	var h *hero.Hero
	err = p.Store.InTx(ctx, func(tx storage.Tx) error {
		h, err = heroByUUID(ctx, tx, id)
		return err
	})
	if err != nil {
		return "", err
	}
	t.Ctx.HeroID = h.ID
	return stateDoor, say(p.kit, t, "visit", map[string]any{"hero": h})
}

func (p *doorsPersona) staff(ctx context.Context, t *conversation.Turn[doorVisit]) (conversation.State, error) {
	err := p.Store.InTx(ctx, func(tx storage.Tx) error {
		return tx.AppendDoor(ctx, hero.DoorLog{At: p.now(), HeroID: t.Ctx.HeroID, IsStaff: hero.Ptr(true)})
	})
	if err != nil {
		return "", err
	}
	return conversation.End, say(p.kit, t, "staff", nil)
}

func (p *doorsPersona) question(_ context.Context, t *conversation.Turn[doorVisit]) (conversation.State, error) {
	return stateQuestion, say(p.kit, t, "question", nil)
}

// answered logs the question door and grants the question xp on a correct
// answer.
func (p *doorsPersona) answered(correct bool) conversation.Handler[doorVisit] {
	return func(ctx context.Context, t *conversation.Turn[doorVisit]) (conversation.State, error) {
		var (
			h    *hero.Hero
			gain progression.Gain
		)
		err := p.Store.InTx(ctx, func(tx storage.Tx) error {
			var err error
			if h, err = heroByID(ctx, tx, t.Ctx.HeroID); err != nil {
				return err
			}
			if correct {
				if gain, err = p.Progression.ApplyXPGain(ctx, tx, h, p.Event.QuestionXP, progression.Meta{Reason: hero.ReasonQuestion}); err != nil {
					return err
				}
			}
			return tx.AppendDoor(ctx, hero.DoorLog{
				At:          p.now(),
				HeroID:      h.ID,
				IsQuestion:  hero.Ptr(true),
				HeroVictory: hero.Ptr(correct),
			})
		})
		if err != nil {
			return "", err
		}
		if !correct {
			return conversation.End, say(p.kit, t, "incorrect", map[string]any{"hero": h})
		}
		if err := say(p.kit, t, "correct", map[string]any{"hero": h, "xp": p.Event.QuestionXP}); err != nil {
			return "", err
		}
		return conversation.End, progression.Notify(t, p.Catalog, p.Event.MasterChatID, h, gain)
	}
}

func (p *doorsPersona) monster(_ context.Context, t *conversation.Turn[doorVisit]) (conversation.State, error) {
	return stateMonsterPhoto, say(p.kit, t, "monster_qr", nil)
}

func (p *doorsPersona) scanMonster(ctx context.Context, t *conversation.Turn[doorVisit]) (conversation.State, error) {
	id, err := scanned(ctx, p.kit, t)
	if err != nil {
		return "", err
	}
	var (
		h *hero.Hero
		m *hero.Monster
	)
	err = p.Store.InTx(ctx, func(tx storage.Tx) error {
		if h, err = heroByID(ctx, tx, t.Ctx.HeroID); err != nil {
			return err
		}
		m, err = tx.MonsterByUUID(ctx, id)
		if err != nil {
			return unknown(err, hero.ErrMonsterNotFound, "monster "+id.String())
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	t.Ctx.MonsterID = m.ID
	if err := say(p.kit, t, "hero", map[string]any{"hero": h}); err != nil {
		return "", err
	}
	return stateAbility, say(p.kit, t, "monster", map[string]any{"monster": m})
}

// duel loads both sides of the monster fight.
func (p *doorsPersona) duel(ctx context.Context, tx storage.Tx, d *doorVisit) (*hero.Hero, *hero.Monster, error) {
	h, err := heroByID(ctx, tx, d.HeroID)
	if err != nil {
		return nil, nil, err
	}
	m, err := monsterByID(ctx, tx, d.MonsterID)
	if err != nil {
		return nil, nil, err
	}
	return h, m, nil
}

func (p *doorsPersona) ability(ctx context.Context, t *conversation.Turn[doorVisit]) (conversation.State, error) {
	a, err := chosenAbility(p.kit, t.Input)
	if err != nil {
		return "", err
	}
	var (
		h *hero.Hero
		m *hero.Monster
	)
	err = p.Store.InTx(ctx, func(tx storage.Tx) error {
		h, m, err = p.duel(ctx, tx, t.Ctx)
		return err
	})
	if err != nil {
		return "", err
	}
	t.Ctx.Ability = a
	return stateHeroDice, say(p.kit, t, "ability_hero_dice", map[string]any{
		"ability":         p.Catalog.Label(string(a)),
		"hero_ability":    h.Get(a),
		"monster_ability": m.Get(a),
	})
}

// heroRoll settles the duel on a critical; otherwise the monster rolls next.
func (p *doorsPersona) heroRoll(ctx context.Context, t *conversation.Turn[doorVisit]) (conversation.State, error) {
	face, err := p.Roller.Record("door_hero", t.Input.Text, 0)
	if err != nil {
		return "", err
	}
	switch challenge.Classify(face) {
	case challenge.Fail:
		return conversation.End, p.settle(ctx, t, false, "d1", nil)
	case challenge.Success:
		return conversation.End, p.settle(ctx, t, true, "d20", nil)
	}
	var h *hero.Hero
	err = p.Store.InTx(ctx, func(tx storage.Tx) error {
		h, err = heroByID(ctx, tx, t.Ctx.HeroID)
		return err
	})
	if err != nil {
		return "", err
	}
	t.Ctx.HeroDie = face
	return stateMonsterDice, say(p.kit, t, "hero_result_monster_dice", map[string]any{"hero": h, "hero_dice": face})
}

// monsterRoll compares both totals on the chosen ability. Ties go to the
// hero.
func (p *doorsPersona) monsterRoll(ctx context.Context, t *conversation.Turn[doorVisit]) (conversation.State, error) {
	face, err := p.Roller.Record("door_monster", t.Input.Text, 0)
	if err != nil {
		return "", err
	}
	fill := func(h *hero.Hero, m *hero.Monster) (bool, map[string]any) {
		a := t.Ctx.Ability
		heroResult := t.Ctx.HeroDie + h.Get(a)
		monsterResult := face + m.Get(a)
		return heroResult >= monsterResult, map[string]any{
			"hero_dice":       t.Ctx.HeroDie,
			"hero_ability":    h.Get(a),
			"hero_result":     heroResult,
			"monster_dice":    face,
			"monster_ability": m.Get(a),
			"monster_result":  monsterResult,
		}
	}
	return conversation.End, p.settle(ctx, t, false, "", fill)
}

// settle logs the door, grants the monster xp on a victory and replies with
// key, or with victory or defeat when decide is given.
func (p *doorsPersona) settle(ctx context.Context, t *conversation.Turn[doorVisit], victory bool, key string,
	decide func(h *hero.Hero, m *hero.Monster) (bool, map[string]any)) error {
	var (
		h    *hero.Hero
		m    *hero.Monster
		gain progression.Gain
		data = map[string]any{}
	)
	err := p.Store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		if h, m, err = p.duel(ctx, tx, t.Ctx); err != nil {
			return err
		}
		if decide != nil {
			victory, data = decide(h, m)
		}
		if victory {
			gain, err = p.Progression.ApplyXPGain(ctx, tx, h, m.XP, progression.Meta{
				Reason:    hero.ReasonMonster,
				MonsterID: hero.Ptr(m.ID),
			})
			if err != nil {
				return err
			}
		}
		return tx.AppendDoor(ctx, hero.DoorLog{
			At:          p.now(),
			HeroID:      h.ID,
			MonsterID:   hero.Ptr(m.ID),
			Ability:     hero.Ptr(t.Ctx.Ability),
			HeroVictory: hero.Ptr(victory),
		})
	})
	if err != nil {
		return err
	}
	if key == "" {
		key = "defeat"
		if victory {
			key = "victory"
		}
	}
	data["hero"] = h
	data["monster"] = m
	if err := say(p.kit, t, key, data); err != nil {
		return err
	}
	if err := tell(p.kit, t, h, key, data); err != nil {
		return err
	}
	if !victory {
		return nil
	}
	return progression.Notify(t, p.Catalog, p.Event.MasterChatID, h, gain)
}
