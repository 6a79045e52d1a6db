package gameserver

import (
	"context"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dragonfair/internal/conversation"
	"github.com/cory-johannsen/dragonfair/internal/game/fight"
	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/storage"
)

// masterPersona is the game master: it opens the fight phase and runs the
// duels.
type masterPersona struct {
	*kit
}

func registerMaster(e *conversation.Engine, k *kit) error {
	p := &masterPersona{k}
	if err := conversation.Register(e, helpDefinition(k, p.help)); err != nil {
		return err
	}
	err := conversation.Register(e, conversation.Definition[none]{
		Name:  "start_fights",
		Entry: []conversation.Route[none]{on(k, k.Catalog.Matcher("start_fights"), p.confirm)},
		States: map[conversation.State][]conversation.Route[none]{
			stateAccept: {on(k, k.Catalog.Matcher("accept"), p.startFights)},
		},
		Fallbacks: []conversation.Route[none]{cancelRoute[none](k, "start_fights")},
	})
	if err != nil {
		return err
	}

	opts := []fight.Option{fight.WithPause(k.Pause)}
	if k.Publisher != nil {
		opts = append(opts, fight.WithPublisher(k.Publisher))
	}
	duels := fight.NewOrchestrator(k.Store, k.Progression, k.Catalog, k.Roller, fight.Config{
		MasterChatID:   k.Event.MasterChatID,
		HordeChatID:    k.Event.HordeChatID,
		AllianceChatID: k.Event.AllianceChatID,
		VictoryXP:      k.Event.FightVictoryXP,
		RevealDelay:    k.Event.RevealDelay,
		ResetDelay:     k.Event.ResetDelay,
	}, k.logger, opts...)
	return conversation.Register(e, duels.Definition())
}

func (p *masterPersona) phase(ctx context.Context) (hero.Phase, error) {
	var phase hero.Phase
	err := p.Store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		phase, err = tx.Phase(ctx)
		return err
	})
	return phase, err
}

func (p *masterPersona) help(ctx context.Context, _ int64) (string, any, error) {
	phase, err := p.phase(ctx)
	if err != nil {
		return "", nil, err
	}
	if phase == hero.PhaseFight {
		return "fights_started", nil, nil
	}
	return "help", nil, nil
}

func (p *masterPersona) confirm(ctx context.Context, t *conversation.Turn[none]) (conversation.State, error) {
	phase, err := p.phase(ctx)
	if err != nil {
		return "", err
	}
	if phase == hero.PhaseFight {
		return conversation.End, say(p.kit, t, "fights_started", nil)
	}
	return stateAccept, say(p.kit, t, "start_fights", nil)
}

// startFights switches the event to the fight phase, announces it to every
// hero and, after a pause, sends them the fight tutorial.
func (p *masterPersona) startFights(ctx context.Context, t *conversation.Turn[none]) (conversation.State, error) {
	var heroes []*hero.Hero
	err := p.Store.InTx(ctx, func(tx storage.Tx) error {
		if err := tx.SetPhase(ctx, hero.PhaseFight); err != nil {
			return err
		}
		var err error
		heroes, err = tx.Heroes(ctx)
		return err
	})
	if err != nil {
		return "", err
	}
	p.logger.Info("fight phase started", zap.Int("heroes", len(heroes)))

	if err := p.broadcast(t, heroes, "fight_start"); err != nil {
		return "", err
	}
	t.Flush(ctx)
	if err := p.Pause(ctx, p.Event.AnnounceDelay); err != nil {
		return "", err
	}
	if err := p.broadcast(t, heroes, "tutor_fight"); err != nil {
		return "", err
	}
	return conversation.End, say(p.kit, t, "fights_started", nil)
}

// broadcast queues a hero persona notice to every hero with a chat.
func (p *masterPersona) broadcast(t *conversation.Turn[none], heroes []*hero.Hero, key string) error {
	for _, h := range heroes {
		if h.ChatID == 0 {
			continue
		}
		if err := heroNotice(p.kit, t, h, key, map[string]any{"hero": h}); err != nil {
			return err
		}
	}
	return nil
}
