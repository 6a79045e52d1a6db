package gameserver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dragonfair/internal/conversation"
	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/game/progression"
	"github.com/cory-johannsen/dragonfair/internal/storage"
)

// stationPersona grants the xp of the station bound to the chat to every
// scanned hero.
type stationPersona struct {
	*kit
}

func registerStation(e *conversation.Engine, k *kit) error {
	p := &stationPersona{k}
	if err := conversation.Register(e, helpDefinition(k, p.help)); err != nil {
		return err
	}
	return conversation.Register(e, conversation.Definition[none]{
		Name:  "station",
		Entry: []conversation.Route[none]{on(k, k.Catalog.Matcher("hero_qr"), askPhoto[none](k))},
		States: map[conversation.State][]conversation.Route[none]{
			statePhoto: {on(k, conversation.IsPhoto, p.scan)},
		},
		Fallbacks: []conversation.Route[none]{cancelRoute[none](k, "hero_qr")},
	})
}

// station returns the station bound to chatID, or nil.
func (p *stationPersona) station(ctx context.Context, tx storage.Tx, chatID int64) (*hero.Station, error) {
	st, err := tx.StationByChat(ctx, chatID)
	if errors.Is(err, hero.ErrStationNotFound) {
		p.logger.Warn("no station bound to chat", zap.Int64("chat_id", chatID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading station of chat %d: %w", chatID, err)
	}
	return st, nil
}

func (p *stationPersona) help(ctx context.Context, chatID int64) (string, any, error) {
	var st *hero.Station
	err := p.Store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		st, err = p.station(ctx, tx, chatID)
		return err
	})
	if err != nil || st == nil {
		return "", nil, err
	}
	return "help", map[string]any{"station": st}, nil
}

// scan gives the scanned hero the station xp.
//
// Postcondition: exactly one xp gain row is written, or nothing when the
// chat has no station.
func (p *stationPersona) scan(ctx context.Context, t *conversation.Turn[none]) (conversation.State, error) {
	id, err := scanned(ctx, p.kit, t)
	if err != nil {
		return "", err
	}
	var (
		st   *hero.Station
		h    *hero.Hero
		gain progression.Gain
	)
	err = p.Store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		if st, err = p.station(ctx, tx, t.Actor); err != nil || st == nil {
			return err
		}
		if h, err = heroByUUID(ctx, tx, id); err != nil {
			return err
		}
		gain, err = p.Progression.ApplyXPGain(ctx, tx, h, st.XP, progression.Meta{
			Reason:    hero.ReasonStation,
			StationID: hero.Ptr(st.ID),
		})
		return err
	})
	if err != nil {
		return "", err
	}
	if st == nil {
		return conversation.End, nil
	}
	if err := say(p.kit, t, "success", map[string]any{"hero": h, "station": st}); err != nil {
		return "", err
	}
	if err := progression.Notify(t, p.Catalog, p.Event.MasterChatID, h, gain); err != nil {
		return "", err
	}
	return conversation.End, nil
}
