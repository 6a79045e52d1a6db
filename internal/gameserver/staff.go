package gameserver

import (
	"context"

	"github.com/cory-johannsen/dragonfair/internal/conversation"
	"github.com/cory-johannsen/dragonfair/internal/game/challenge"
	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/storage"
)

const stateAbility conversation.State = "ability"

type staffVisit struct {
	HeroID  int64
	Ability hero.Ability
}

// staffPersona spends a staff visit to train one ability.
type staffPersona struct {
	*kit
}

func registerStaff(e *conversation.Engine, k *kit) error {
	p := &staffPersona{k}
	help := func(context.Context, int64) (string, any, error) { return "help", nil, nil }
	if err := conversation.Register(e, helpDefinition(k, help)); err != nil {
		return err
	}
	return conversation.Register(e, conversation.Definition[staffVisit]{
		Name:  "staff",
		Entry: []conversation.Route[staffVisit]{on(k, k.Catalog.Matcher("hero_qr"), askPhoto[staffVisit](k))},
		States: map[conversation.State][]conversation.Route[staffVisit]{
			statePhoto:   {on(k, conversation.IsPhoto, p.scan)},
			stateAbility: {on(k, abilityMatcher(k), p.ability)},
			stateDice:    {on(k, conversation.IsDie, p.roll)},
		},
		Fallbacks: []conversation.Route[staffVisit]{cancelRoute[staffVisit](k, "hero_qr")},
	})
}

func (p *staffPersona) scan(ctx context.Context, t *conversation.Turn[staffVisit]) (conversation.State, error) {
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
	data := map[string]any{"hero": h}
	if h.StaffVisits <= 0 {
		return conversation.End, say(p.kit, t, "no_visit", data)
	}
	t.Ctx.HeroID = h.ID
	return stateAbility, say(p.kit, t, "visit", data)
}

func (p *staffPersona) ability(ctx context.Context, t *conversation.Turn[staffVisit]) (conversation.State, error) {
	a, err := chosenAbility(p.kit, t.Input)
	if err != nil {
		return "", err
	}
	t.Ctx.Ability = a
	var h *hero.Hero
	err = p.Store.InTx(ctx, func(tx storage.Tx) error {
		h, err = heroByID(ctx, tx, t.Ctx.HeroID)
		return err
	})
	if err != nil {
		return "", err
	}
	return stateDice, say(p.kit, t, "dice", map[string]any{"hero": h, "ability": p.Catalog.Label(string(a))})
}

// roll applies the staff table with the wisdom modifier to the chosen
// ability and spends the visit.
func (p *staffPersona) roll(ctx context.Context, t *conversation.Turn[staffVisit]) (conversation.State, error) {
	var (
		h   *hero.Hero
		res challenge.Result[challenge.StaffOutcome]
	)
	a := t.Ctx.Ability
	err := p.Store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		if h, err = heroByID(ctx, tx, t.Ctx.HeroID); err != nil {
			return err
		}
		if h.StaffVisits <= 0 {
			return nil
		}
		face, err := p.Roller.Record("staff", t.Input.Text, h.Wisdom)
		if err != nil {
			return err
		}
		if res, err = challenge.Resolve(face, h.Wisdom, challenge.StaffTable); err != nil {
			return err
		}
		plus := h.Scores.Add(a, res.Outcome.Bonus)
		h.StaffVisits--
		if err := tx.SaveHero(ctx, h); err != nil {
			return err
		}
		return tx.AppendSpecialStation(ctx, hero.SpecialStationLog{
			At:          p.now(),
			Station:     "staff",
			HeroID:      h.ID,
			Wisdom:      h.Wisdom,
			Die:         face,
			Ability:     hero.Ptr(a),
			AbilityPlus: hero.Ptr(plus),
		})
	})
	if err != nil {
		return "", err
	}
	if res.Face == 0 {
		// the visit was spent elsewhere while this one was open
		return conversation.End, say(p.kit, t, "no_visit", map[string]any{"hero": h})
	}

	data := map[string]any{
		"hero":    h,
		"ability": p.Catalog.Label(string(a)),
		"dice":    res.Face,
		"result":  res.Total,
		"value":   h.Get(a),
	}
	if err := say(p.kit, t, res.Outcome.Key, data); err != nil {
		return "", err
	}
	if err := tell(p.kit, t, h, res.Outcome.Key, data); err != nil {
		return "", err
	}
	if h.StaffVisits > 0 {
		if err := heroNotice(p.kit, t, h, "still_time_to_visit_staff", data); err != nil {
			return "", err
		}
	}
	return conversation.End, nil
}
