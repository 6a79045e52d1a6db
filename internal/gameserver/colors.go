package gameserver

import (
	"context"

	"github.com/cory-johannsen/dragonfair/internal/conversation"
	"github.com/cory-johannsen/dragonfair/internal/game/challenge"
	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/storage"
)

type colorsVisit struct {
	HeroID int64
}

// colorsPersona spends a colors visit on a wisdom check.
type colorsPersona struct {
	*kit
}

func registerColors(e *conversation.Engine, k *kit) error {
	p := &colorsPersona{k}
	help := func(context.Context, int64) (string, any, error) { return "help", nil, nil }
	if err := conversation.Register(e, helpDefinition(k, help)); err != nil {
		return err
	}
	return conversation.Register(e, conversation.Definition[colorsVisit]{
		Name:  "colors",
		Entry: []conversation.Route[colorsVisit]{on(k, k.Catalog.Matcher("hero_qr"), askPhoto[colorsVisit](k))},
		States: map[conversation.State][]conversation.Route[colorsVisit]{
			statePhoto: {on(k, conversation.IsPhoto, p.scan)},
			stateDice:  {on(k, conversation.IsDie, p.roll)},
		},
		Fallbacks: []conversation.Route[colorsVisit]{cancelRoute[colorsVisit](k, "hero_qr")},
	})
}

func (p *colorsPersona) scan(ctx context.Context, t *conversation.Turn[colorsVisit]) (conversation.State, error) {
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
	if h.ColorsVisits <= 0 {
		return conversation.End, say(p.kit, t, "no_visit", data)
	}
	t.Ctx.HeroID = h.ID
	return stateDice, say(p.kit, t, "dice", data)
}

func (p *colorsPersona) roll(ctx context.Context, t *conversation.Turn[colorsVisit]) (conversation.State, error) {
	var (
		h   *hero.Hero
		res challenge.Result[string]
	)
	err := p.Store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		if h, err = heroByID(ctx, tx, t.Ctx.HeroID); err != nil {
			return err
		}
		if h.ColorsVisits <= 0 {
			return nil
		}
		face, err := p.Roller.Record("colors", t.Input.Text, h.Wisdom)
		if err != nil {
			return err
		}
		if res, err = challenge.Resolve(face, h.Wisdom, challenge.ColorsTable); err != nil {
			return err
		}
		h.ColorsVisits--
		if err := tx.SaveHero(ctx, h); err != nil {
			return err
		}
		return tx.AppendSpecialStation(ctx, hero.SpecialStationLog{
			At:      p.now(),
			Station: "colors",
			HeroID:  h.ID,
			Wisdom:  h.Wisdom,
			Die:     face,
		})
	})
	if err != nil {
		return "", err
	}
	if res.Face == 0 {
		return conversation.End, say(p.kit, t, "no_visit", map[string]any{"hero": h})
	}

	data := map[string]any{"hero": h, "dice": res.Face, "result": res.Total}
	if err := say(p.kit, t, res.Outcome, data); err != nil {
		return "", err
	}
	if err := tell(p.kit, t, h, res.Outcome, data); err != nil {
		return "", err
	}
	if h.ColorsVisits > 0 {
		if err := heroNotice(p.kit, t, h, "still_time_to_visit_colors", data); err != nil {
			return "", err
		}
	}
	return conversation.End, nil
}
