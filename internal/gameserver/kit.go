package gameserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dragonfair/internal/conversation"
	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/storage"
	"github.com/cory-johannsen/dragonfair/internal/transport"
)

// Shared state names.
const (
	statePhoto conversation.State = "photo"
	stateDice  conversation.State = "dice"
)

// none is the context of single-step conversations.
type none struct{}

// kit holds what the handlers of one persona share.
type kit struct {
	*Deps
	persona string
	logger  *zap.Logger
}

func newKit(d *Deps, p storage.Persona) *kit {
	return &kit{Deps: d, persona: string(p), logger: d.Logger.With(zap.String("persona", string(p)))}
}

func (k *kit) now() time.Time { return k.Now() }

// logged logs every step of h on entry.
func logged[C any](k *kit, h conversation.Handler[C]) conversation.Handler[C] {
	return func(ctx context.Context, t *conversation.Turn[C]) (conversation.State, error) {
		k.logger.Info("step",
			zap.Int64("chat_id", t.Actor),
			zap.String("state", string(t.State)),
			zap.String("input", t.Input.Kind.String()),
		)
		return h(ctx, t)
	}
}

// on builds a logged route.
func on[C any](k *kit, m conversation.Matcher, h conversation.Handler[C]) conversation.Route[C] {
	return conversation.On(m, logged(k, h))
}

// say queues the persona message key to the actor.
func say[C any](k *kit, t *conversation.Turn[C], key string, data any) error {
	msg, err := k.Catalog.Message(k.persona, key, data)
	if err != nil {
		return err
	}
	t.Reply(msg)
	return nil
}

// tell queues the hero companion text of key to the hero chat, if any.
func tell[C any](k *kit, t *conversation.Turn[C], h *hero.Hero, key string, data any) error {
	text, err := k.Catalog.HeroText(k.persona, key, data)
	if err != nil {
		return err
	}
	if text != "" {
		t.Notify(h.ChatID, transport.Message{Text: text})
	}
	return nil
}

// heroNotice queues a hero persona message to h.
func heroNotice[C any](k *kit, t *conversation.Turn[C], h *hero.Hero, key string, data any) error {
	text, err := k.Catalog.Text(string(storage.PersonaHero), key, data)
	if err != nil {
		return err
	}
	t.Notify(h.ChatID, transport.Message{Text: text})
	return nil
}

// cancelRoute ends the conversation with the cancel text and a keyboard of
// buttons.
func cancelRoute[C any](k *kit, buttons ...string) conversation.Route[C] {
	return on(k, k.Catalog.Matcher("cancel"), func(_ context.Context, t *conversation.Turn[C]) (conversation.State, error) {
		msg := transport.Message{Text: k.Catalog.CancelText(), Keyboard: k.Catalog.Layout(buttons)}
		if len(buttons) == 0 {
			msg.RemoveKeyboard = true
		}
		t.Reply(msg)
		return conversation.End, nil
	})
}

// askPhoto prompts for a hero scan.
func askPhoto[C any](k *kit) conversation.Handler[C] {
	return func(_ context.Context, t *conversation.Turn[C]) (conversation.State, error) {
		if err := say(k, t, "qr", nil); err != nil {
			return "", err
		}
		return statePhoto, nil
	}
}

// scanned decodes the photo of t and acknowledges it. An unreadable code is
// an unknown entity.
func scanned[C any](ctx context.Context, k *kit, t *conversation.Turn[C]) (uuid.UUID, error) {
	t.ReplyText(k.Catalog.QRProcessing())
	t.Flush(ctx)
	id, ok := k.Scanner.Decode(t.Input.Payload)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: unreadable code", conversation.ErrUnknownEntity)
	}
	return id, nil
}

func unknown(err error, notFound error, what string) error {
	if errors.Is(err, notFound) {
		return fmt.Errorf("%w: %s: %w", conversation.ErrUnknownEntity, what, err)
	}
	return fmt.Errorf("loading %s: %w", what, err)
}

func heroByUUID(ctx context.Context, tx storage.Tx, id uuid.UUID) (*hero.Hero, error) {
	h, err := tx.HeroByUUID(ctx, id)
	if err != nil {
		return nil, unknown(err, hero.ErrHeroNotFound, "hero "+id.String())
	}
	return h, nil
}

func heroByID(ctx context.Context, tx storage.Tx, id int64) (*hero.Hero, error) {
	h, err := tx.HeroByID(ctx, id)
	if err != nil {
		return nil, unknown(err, hero.ErrHeroNotFound, fmt.Sprintf("hero %d", id))
	}
	return h, nil
}

func monsterByID(ctx context.Context, tx storage.Tx, id int64) (*hero.Monster, error) {
	m, err := tx.MonsterByID(ctx, id)
	if err != nil {
		return nil, unknown(err, hero.ErrMonsterNotFound, fmt.Sprintf("monster %d", id))
	}
	return m, nil
}

// chosenAbility decodes an ability button.
func chosenAbility(k *kit, in transport.Input) (hero.Ability, error) {
	key, _ := k.Catalog.Key(in)
	return hero.ParseAbility(key)
}

// abilityMatcher matches the four ability buttons.
func abilityMatcher(k *kit) conversation.Matcher {
	keys := make([]string, len(hero.Abilities))
	for i, a := range hero.Abilities {
		keys[i] = string(a)
	}
	return k.Catalog.Matcher(keys...)
}

// helpDefinition answers /help or the help button with the message chosen
// by pick. An empty key answers nothing.
func helpDefinition(k *kit, pick func(ctx context.Context, chatID int64) (key string, data any, err error)) conversation.Definition[none] {
	return conversation.Definition[none]{
		Name: "help",
		Entry: []conversation.Route[none]{
			on(k, conversation.Or(conversation.IsCommand("help"), k.Catalog.Matcher("help")),
				func(ctx context.Context, t *conversation.Turn[none]) (conversation.State, error) {
					key, data, err := pick(ctx, t.Actor)
					if err != nil || key == "" {
						return conversation.End, err
					}
					return conversation.End, say(k, t, key, data)
				}),
		},
	}
}
