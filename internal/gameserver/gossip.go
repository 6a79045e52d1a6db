package gameserver

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dragonfair/internal/conversation"
	"github.com/cory-johannsen/dragonfair/internal/game/challenge"
	"github.com/cory-johannsen/dragonfair/internal/game/gossip"
	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/storage"
)

const stateAccept conversation.State = "accept"

type gossipVisit struct {
	HeroID int64
}

// gossipPersona trades one wisdom point for a roll on the gossip table.
type gossipPersona struct {
	*kit
}

func registerGossip(e *conversation.Engine, k *kit) error {
	p := &gossipPersona{k}
	help := func(context.Context, int64) (string, any, error) { return "help", nil, nil }
	if err := conversation.Register(e, helpDefinition(k, help)); err != nil {
		return err
	}
	return conversation.Register(e, conversation.Definition[gossipVisit]{
		Name:  "gossip",
		Entry: []conversation.Route[gossipVisit]{on(k, k.Catalog.Matcher("hero_qr"), askPhoto[gossipVisit](k))},
		States: map[conversation.State][]conversation.Route[gossipVisit]{
			statePhoto:  {on(k, conversation.IsPhoto, p.scan)},
			stateAccept: {on(k, k.Catalog.Matcher("accept"), p.accept)},
			stateDice:   {on(k, conversation.IsDie, p.roll)},
		},
		Fallbacks: []conversation.Route[gossipVisit]{cancelRoute[gossipVisit](k, "hero_qr")},
	})
}

func (p *gossipPersona) scan(ctx context.Context, t *conversation.Turn[gossipVisit]) (conversation.State, error) {
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
	if h.Wisdom <= 0 {
		return conversation.End, say(p.kit, t, "no_visit", data)
	}
	t.Ctx.HeroID = h.ID
	return stateAccept, say(p.kit, t, "visit", data)
}

// accept spends the wisdom point. It commits on its own: a hero who walks
// away before rolling has still paid.
func (p *gossipPersona) accept(ctx context.Context, t *conversation.Turn[gossipVisit]) (conversation.State, error) {
	var (
		h    *hero.Hero
		paid bool
	)
	err := p.Store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		if h, err = heroByID(ctx, tx, t.Ctx.HeroID); err != nil {
			return err
		}
		if h.Wisdom <= 0 {
			return nil
		}
		h.Add(hero.Wisdom, -1)
		paid = true
		return tx.SaveHero(ctx, h)
	})
	if err != nil {
		return "", err
	}
	data := map[string]any{"hero": h}
	if !paid {
		return conversation.End, say(p.kit, t, "no_visit", data)
	}
	if err := heroNotice(p.kit, t, h, "wisdom_decreased", data); err != nil {
		return "", err
	}
	return stateDice, say(p.kit, t, "dice", data)
}

// roll resolves the gossip table with the reduced wisdom and records the
// vulnerability edges it produces.
func (p *gossipPersona) roll(ctx context.Context, t *conversation.Turn[gossipVisit]) (conversation.State, error) {
	var (
		h, counterpart *hero.Hero
		res            challenge.Result[challenge.GossipOutcome]
		applied        gossip.Applied
		missing        bool
	)
	err := p.Store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		if h, err = heroByID(ctx, tx, t.Ctx.HeroID); err != nil {
			return err
		}
		face, err := p.Roller.Record("gossip", t.Input.Text, h.Wisdom)
		if err != nil {
			return err
		}
		if res, err = challenge.Resolve(face, h.Wisdom, challenge.GossipTable); err != nil {
			return err
		}
		o := res.Outcome
		if o.Counterpart || o.Exposed {
			counterpart, err = gossip.Select(ctx, tx, p.Roller.Source(), h, gossip.DirectionFor(o))
			switch {
			case errors.Is(err, gossip.ErrNoCandidate):
				// Nothing new to learn or to leak: no edge at all.
				missing = true
				return nil
			case err != nil:
				return err
			}
		}
		applied, err = gossip.Apply(ctx, tx, h, counterpart, o)
		return err
	})
	if err != nil {
		return "", err
	}
	p.logger.Info("gossip resolved",
		zap.Int64("hero_id", h.ID),
		zap.Int("face", res.Face),
		zap.Int("total", res.Total),
		zap.String("outcome", res.Outcome.Key),
		zap.Bool("own", applied.Own),
		zap.Bool("counterpart", applied.Counterpart),
		zap.Bool("exposed", applied.Exposed),
	)

	if missing {
		key := "no_new_gossip"
		if res.Outcome.Exposed {
			key = "all_already_know"
		}
		return conversation.End, say(p.kit, t, key, map[string]any{"hero": h})
	}
	data := map[string]any{
		"hero":        h,
		"counterpart": counterpart,
		"result":      res.Total,
		"dice":        res.Face,
	}
	if err := say(p.kit, t, res.Outcome.Key, data); err != nil {
		return "", err
	}
	if err := tell(p.kit, t, h, res.Outcome.Key, data); err != nil {
		return "", err
	}
	if res.Outcome.Exposed {
		msg, err := p.Catalog.Message(p.persona, "counterpart_known_vulnerability", data)
		if err != nil {
			return "", err
		}
		t.Notify(counterpart.ChatID, msg)
	}
	return conversation.End, nil
}
