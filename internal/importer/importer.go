// Package importer loads event content (level ladder, heroes, monsters,
// stations, questions and channel grants) into the entity store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/storage"
)

// ErrInvalidContent is returned when content fails validation.
var ErrInvalidContent = errors.New("invalid content")

// Summary counts what a run imported.
type Summary struct {
	Levels    int
	Heroes    int
	Monsters  int
	Stations  int
	Questions int
	Channels  int
}

// Importer orchestrates content import from a Source into a Store.
type Importer struct {
	source Source
	store  storage.Store
	logger *zap.Logger
}

// New constructs an Importer.
//
// Precondition: every argument must be non-nil.
// Postcondition: returns a non-nil Importer.
func New(source Source, store storage.Store, logger *zap.Logger) *Importer {
	return &Importer{source: source, store: store, logger: logger}
}

// Run loads content from dir, validates it and upserts it in one
// transaction. Channel grants are applied after the commit.
//
// Precondition: dir must satisfy the source's layout requirements.
// Postcondition: either all entities are upserted or none is.
func (imp *Importer) Run(ctx context.Context, dir string) (Summary, error) {
	start := time.Now()
	c, err := imp.source.Load(dir)
	if err != nil {
		return Summary{}, fmt.Errorf("loading source: %w", err)
	}
	if err := Validate(c); err != nil {
		return Summary{}, err
	}

	heroes := make([]*hero.Hero, 0, len(c.Heroes))
	for _, s := range c.Heroes {
		h, err := s.ToHero()
		if err != nil {
			return Summary{}, fmt.Errorf("%w: %w", ErrInvalidContent, err)
		}
		heroes = append(heroes, h)
	}
	channels := make([]storage.Channel, 0, len(c.Channels))
	for _, s := range c.Channels {
		p, err := storage.ParsePersona(s.Persona)
		if err != nil {
			return Summary{}, fmt.Errorf("%w: channel %d: %w", ErrInvalidContent, s.ChatID, err)
		}
		channels = append(channels, storage.Channel{ChatID: s.ChatID, Persona: p, Label: s.Label})
	}

	err = imp.store.InTx(ctx, func(tx storage.Tx) error {
		for _, l := range c.Levels {
			if err := tx.UpsertLevel(ctx, l); err != nil {
				return fmt.Errorf("level %d: %w", l.ID, err)
			}
		}
		for _, h := range heroes {
			if err := tx.UpsertHero(ctx, h); err != nil {
				return fmt.Errorf("hero %q: %w", h.Name, err)
			}
		}
		for _, s := range c.Monsters {
			if err := tx.UpsertMonster(ctx, s.ToMonster()); err != nil {
				return fmt.Errorf("monster %q: %w", s.Name, err)
			}
		}
		for _, s := range c.Stations {
			st := &hero.Station{ChatID: s.ChatID, Name: s.Name, XP: s.XP}
			if err := tx.UpsertStation(ctx, st); err != nil {
				return fmt.Errorf("station %q: %w", s.Name, err)
			}
		}
		for _, s := range c.Questions {
			q := &hero.Question{ID: s.ID, Text: s.Text, Audio: s.Audio, Answers: s.Answers}
			if err := tx.UpsertQuestion(ctx, q); err != nil {
				return fmt.Errorf("question %d: %w", s.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("importing content: %w", err)
	}

	for i, ch := range channels {
		if err := imp.store.Channels().Grant(ctx, ch, c.Channels[i].Code); err != nil {
			return Summary{}, fmt.Errorf("granting channel %d: %w", ch.ChatID, err)
		}
	}

	sum := Summary{
		Levels:    len(c.Levels),
		Heroes:    len(heroes),
		Monsters:  len(c.Monsters),
		Stations:  len(c.Stations),
		Questions: len(c.Questions),
		Channels:  len(channels),
	}
	imp.logger.Info("content imported",
		zap.String("dir", dir),
		zap.Int("levels", sum.Levels),
		zap.Int("heroes", sum.Heroes),
		zap.Int("monsters", sum.Monsters),
		zap.Int("stations", sum.Stations),
		zap.Int("questions", sum.Questions),
		zap.Int("channels", sum.Channels),
		zap.Duration("took", time.Since(start)),
	)
	return sum, nil
}

// Validate checks the cross-entity rules of c and reports every violation.
//
// Postcondition: returns nil or an error wrapping ErrInvalidContent.
func Validate(c *Content) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	levels := make(map[int]bool, len(c.Levels))
	for i, l := range c.Levels {
		if l.ID != i+1 {
			fail("levels must be numbered 1..n in order, got %d at position %d", l.ID, i+1)
		}
		if i > 0 && l.XPToGain <= 0 {
			fail("level %d: xp_to_gain must be positive", l.ID)
		}
		levels[l.ID] = true
	}
	if len(c.Levels) < 2 {
		fail("the ladder needs at least two levels")
	}

	uuids := make(map[uuid.UUID]string)
	chats := make(map[int64]string)
	claim := func(id uuid.UUID, what string) {
		if id == uuid.Nil {
			fail("%s: uuid is required", what)
			return
		}
		if prev, ok := uuids[id]; ok {
			fail("%s: uuid %s already used by %s", what, id, prev)
		}
		uuids[id] = what
	}
	bind := func(chat int64, what string) {
		if chat == 0 {
			fail("%s: chat_id is required", what)
			return
		}
		if prev, ok := chats[chat]; ok {
			fail("%s: chat %d already used by %s", what, chat, prev)
		}
		chats[chat] = what
	}

	for _, h := range c.Heroes {
		what := fmt.Sprintf("hero %q", h.Name)
		claim(h.UUID, what)
		bind(h.ChatID, what)
		if _, err := hero.ParseFaction(h.Faction); err != nil {
			fail("%s: %w", what, err)
		}
		if h.Level != 0 && !levels[h.Level] {
			fail("%s: unknown level %d", what, h.Level)
		}
	}
	for _, m := range c.Monsters {
		claim(m.UUID, fmt.Sprintf("monster %q", m.Name))
	}
	for _, s := range c.Stations {
		what := fmt.Sprintf("station %q", s.Name)
		bind(s.ChatID, what)
		if s.XP < 0 {
			fail("%s: xp must not be negative", what)
		}
	}
	questions := make(map[int]bool)
	for _, q := range c.Questions {
		if questions[q.ID] {
			fail("question %d: duplicate id", q.ID)
		}
		questions[q.ID] = true
	}
	for _, ch := range c.Channels {
		if _, err := storage.ParsePersona(ch.Persona); err != nil {
			fail("channel %d: %w", ch.ChatID, err)
		}
		if ch.Code == "" {
			fail("channel %d: code is required", ch.ChatID)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidContent, errors.Join(errs...))
}
