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
	"github.com/cory-johannsen/dragonfair/internal/transport"
)

var answerKeys = []string{"answer_1", "answer_2", "answer_3", "answer_4"}

type levelUp struct {
	HeroID int64
}

// heroPersona is the private chat of one hero: the onboarding test, hero
// info, known weaknesses and spending ability points. Chats without a hero
// are ignored.
type heroPersona struct {
	*kit
}

func registerHero(e *conversation.Engine, k *kit) error {
	p := &heroPersona{k}
	defs := []conversation.Definition[none]{
		helpDefinition(k, p.help),
		p.single("info", k.Catalog.Matcher("hero"), p.info),
		p.single("qr", k.Catalog.Matcher("qr"), p.qr),
		p.single("known_vulnerabilities", k.Catalog.Matcher("known_vulnerabilities"), p.known),
		p.single("test", conversation.Or(conversation.IsCommand("start"), k.Catalog.Matcher("start")), p.startTest),
		p.single("answer", k.Catalog.Matcher(answerKeys...), p.answer),
	}
	for _, d := range defs {
		if err := conversation.Register(e, d); err != nil {
			return err
		}
	}
	cancel := on(k, k.Catalog.Matcher("cancel"), func(_ context.Context, t *conversation.Turn[levelUp]) (conversation.State, error) {
		return conversation.End, say(k, t, "cancel", nil)
	})
	return conversation.Register(e, conversation.Definition[levelUp]{
		Name: "level_up",
		Entry: []conversation.Route[levelUp]{
			on(k, conversation.Or(conversation.IsCallback("ability_increase"), k.Catalog.Matcher("ability_increase")), p.levelUpStart),
		},
		States: map[conversation.State][]conversation.Route[levelUp]{
			stateAbility: {on(k, abilityMatcher(k), p.levelUpAbility)},
		},
		Fallbacks: []conversation.Route[levelUp]{cancel},
	})
}

// single builds a one-step conversation that runs h for the hero of the
// chat.
func (p *heroPersona) single(name string, m conversation.Matcher,
	h func(ctx context.Context, t *conversation.Turn[none], me *hero.Hero) error) conversation.Definition[none] {
	return conversation.Definition[none]{
		Name: name,
		Entry: []conversation.Route[none]{on(p.kit, m, func(ctx context.Context, t *conversation.Turn[none]) (conversation.State, error) {
			me, err := p.me(ctx, t.Actor)
			if err != nil || me == nil {
				return conversation.End, err
			}
			return conversation.End, h(ctx, t, me)
		})},
	}
}

// me returns the hero bound to chatID, or nil when there is none.
func (p *heroPersona) me(ctx context.Context, chatID int64) (*hero.Hero, error) {
	var h *hero.Hero
	err := p.Store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		h, err = tx.HeroByChat(ctx, chatID)
		return err
	})
	if errors.Is(err, hero.ErrHeroNotFound) {
		p.logger.Debug("chat has no hero", zap.Int64("chat_id", chatID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading hero of chat %d: %w", chatID, err)
	}
	return h, nil
}

// nextLevel returns the level after the hero's, or the zero level at the
// top of the ladder.
func nextLevel(ctx context.Context, tx storage.Tx, h *hero.Hero) (hero.Level, error) {
	l, err := tx.NextLevel(ctx, h.LevelID)
	if errors.Is(err, hero.ErrNoNextLevel) {
		return hero.Level{}, nil
	}
	return l, err
}

func (p *heroPersona) help(ctx context.Context, chatID int64) (string, any, error) {
	h, err := p.me(ctx, chatID)
	if err != nil || h == nil {
		return "", nil, err
	}
	data := map[string]any{"hero": h}
	if !h.TestDone {
		if h.CurrentQuestionID != nil {
			return "test", data, nil
		}
		return "greeting", data, nil
	}
	var phase hero.Phase
	err = p.Store.InTx(ctx, func(tx storage.Tx) error {
		phase, err = tx.Phase(ctx)
		return err
	})
	if err != nil {
		return "", nil, err
	}
	if phase == hero.PhaseFight {
		return "fight", data, nil
	}
	return "fair", data, nil
}

// info sends the hero picture with the hero sheet as caption.
func (p *heroPersona) info(ctx context.Context, t *conversation.Turn[none], h *hero.Hero) error {
	var next hero.Level
	err := p.Store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		next, err = nextLevel(ctx, tx, h)
		return err
	})
	if err != nil {
		return err
	}
	msg, err := p.Catalog.Message(p.persona, "hero", map[string]any{"hero": h, "next_level": next})
	if err != nil {
		return err
	}
	t.Flush(ctx)
	return p.Media.SendPhoto(ctx, p.Sender, h.ChatID, h.Image, msg)
}

func (p *heroPersona) qr(ctx context.Context, t *conversation.Turn[none], h *hero.Hero) error {
	msg, err := p.Catalog.Message(p.persona, "qr", map[string]any{"hero": h})
	if err != nil {
		return err
	}
	t.Flush(ctx)
	return p.Media.SendPhoto(ctx, p.Sender, h.ChatID, h.QRImage, msg)
}

func (p *heroPersona) known(ctx context.Context, t *conversation.Turn[none], h *hero.Hero) error {
	var (
		own   bool
		known []*hero.Hero
	)
	err := p.Store.InTx(ctx, func(tx storage.Tx) error {
		edges, err := tx.EdgesFrom(ctx, h.ID)
		if err != nil {
			return err
		}
		for _, e := range edges {
			if e.SelfLoop() {
				own = true
				continue
			}
			target, err := heroByID(ctx, tx, e.TargetHeroID)
			if err != nil {
				return err
			}
			known = append(known, target)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return say(p.kit, t, "known_vulnerabilities", map[string]any{"hero": h, "own": own, "known": known})
}

// ask sends the audio of q followed by the answer keyboard.
func (p *heroPersona) ask(ctx context.Context, t *conversation.Turn[none], h *hero.Hero, q *hero.Question) error {
	prompt, err := p.Catalog.Message(p.persona, "test", nil)
	if err != nil {
		return err
	}
	if q.Audio != "" {
		t.Flush(ctx)
		if err := p.Media.SendVoice(ctx, p.Sender, h.ChatID, q.Audio, prompt); err != nil {
			return err
		}
	} else {
		t.Reply(prompt)
	}
	return say(p.kit, t, "answers", map[string]any{"question": q})
}

// startTest asks the first question, or repeats the current one.
func (p *heroPersona) startTest(ctx context.Context, t *conversation.Turn[none], h *hero.Hero) error {
	if h.TestDone {
		return say(p.kit, t, "fair", map[string]any{"hero": h})
	}
	var q *hero.Question
	err := p.Store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		if h.CurrentQuestionID != nil {
			q, err = tx.QuestionByID(ctx, *h.CurrentQuestionID)
			return err
		}
		if q, err = tx.FirstQuestion(ctx); err != nil {
			return err
		}
		h.CurrentQuestionID = hero.Ptr(q.ID)
		return tx.SaveHero(ctx, h)
	})
	if err != nil {
		return err
	}
	if err := p.master(t, "test_started", map[string]any{"hero": h}); err != nil {
		return err
	}
	return p.ask(ctx, t, h, q)
}

// answer logs the answer to the current question and moves to the next.
// After the last question the hero is revealed.
func (p *heroPersona) answer(ctx context.Context, t *conversation.Turn[none], h *hero.Hero) error {
	key, _ := p.Catalog.Key(t.Input)
	data := map[string]any{"hero": h}
	switch {
	case h.TestDone:
		return p.master(t, "test_already_done", data)
	case h.CurrentQuestionID == nil:
		return p.master(t, "test_unknown_question", data)
	}
	answered := *h.CurrentQuestionID
	var next *hero.Question
	err := p.Store.InTx(ctx, func(tx storage.Tx) error {
		err := tx.AppendTestAnswer(ctx, hero.TestAnswerLog{At: p.now(), HeroID: h.ID, QuestionID: answered, Answer: key})
		if err != nil {
			return err
		}
		next, err = tx.NextQuestion(ctx, answered)
		switch {
		case errors.Is(err, hero.ErrQuestionNotFound):
			next = nil
			h.CurrentQuestionID = nil
			h.TestDone = true
		case err != nil:
			return err
		default:
			h.CurrentQuestionID = hero.Ptr(next.ID)
		}
		return tx.SaveHero(ctx, h)
	})
	if err != nil {
		return err
	}
	if err := p.master(t, "test_answered", map[string]any{"hero": h, "question_id": answered}); err != nil {
		return err
	}
	if next != nil {
		return p.ask(ctx, t, h, next)
	}

	if err := say(p.kit, t, "last_test", data); err != nil {
		return err
	}
	if err := p.info(ctx, t, h); err != nil {
		return err
	}
	if err := p.master(t, "test_finished", data); err != nil {
		return err
	}
	return say(p.kit, t, "tutorial_first_level", data)
}

// master queues a hero persona text to the master chat.
func (p *heroPersona) master(t *conversation.Turn[none], key string, data any) error {
	text, err := p.Catalog.Text(p.persona, key, data)
	if err != nil {
		return err
	}
	t.Notify(p.Event.MasterChatID, transport.Message{Text: text})
	return nil
}

func (p *heroPersona) levelUpStart(ctx context.Context, t *conversation.Turn[levelUp]) (conversation.State, error) {
	h, err := p.me(ctx, t.Actor)
	if err != nil || h == nil {
		return conversation.End, err
	}
	if h.FirstLevelUp {
		h.FirstLevelUp = false
		err := p.Store.InTx(ctx, func(tx storage.Tx) error { return tx.SaveHero(ctx, h) })
		if err != nil {
			return "", err
		}
	}
	data := map[string]any{"hero": h}
	if h.AvailablePoints <= 0 {
		return conversation.End, say(p.kit, t, "no_available_points", data)
	}
	t.Ctx.HeroID = h.ID
	return stateAbility, say(p.kit, t, "ability_increase_start", data)
}

func (p *heroPersona) levelUpAbility(ctx context.Context, t *conversation.Turn[levelUp]) (conversation.State, error) {
	a, err := chosenAbility(p.kit, t.Input)
	if err != nil {
		return "", err
	}
	var (
		h    *hero.Hero
		next hero.Level
	)
	err = p.Store.InTx(ctx, func(tx storage.Tx) error {
		if h, err = heroByID(ctx, tx, t.Ctx.HeroID); err != nil {
			return err
		}
		if err = p.Progression.IncreaseAbility(ctx, tx, h, a); err != nil {
			return err
		}
		next, err = nextLevel(ctx, tx, h)
		return err
	})
	if errors.Is(err, progression.ErrNoPoints) {
		return conversation.End, say(p.kit, t, "no_available_points", map[string]any{"hero": h})
	}
	if err != nil {
		return "", err
	}
	data := map[string]any{"hero": h, "ability": p.Catalog.Label(string(a)), "next_level": next}
	if err := say(p.kit, t, "ability_increase_end", data); err != nil {
		return "", err
	}
	if h.AvailablePoints > 0 {
		if err := say(p.kit, t, "points_still_available", data); err != nil {
			return "", err
		}
	}
	return conversation.End, nil
}
