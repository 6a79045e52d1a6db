// Package memory is an in-process storage.Store used by tests and the dev
// server. Transactions are serialized and roll back by restoring a snapshot.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/storage"
)

type edgeKey struct{ wise, target int64 }

type state struct {
	levels    map[int]hero.Level
	heroes    map[int64]hero.Hero
	monsters  map[int64]hero.Monster
	stations  map[int64]hero.Station
	questions map[int]hero.Question
	edges     map[edgeKey]struct{}
	edgeOrder []edgeKey

	xpGains      []hero.XPGainLog
	levelUps     []hero.LevelUpLog
	specialVisit []hero.SpecialStationLog
	doors        []hero.DoorLog
	answers      []hero.TestAnswerLog
	fights       []hero.FightLog

	projection hero.Projection
	phase      hero.Phase
	media      map[string]string

	nextHeroID    int64
	nextMonsterID int64
	nextStationID int64
	nextFightID   int64
}

func newState() *state {
	return &state{
		levels:    map[int]hero.Level{},
		heroes:    map[int64]hero.Hero{},
		monsters:  map[int64]hero.Monster{},
		stations:  map[int64]hero.Station{},
		questions: map[int]hero.Question{},
		edges:     map[edgeKey]struct{}{},
		media:     map[string]string{},
		phase:     hero.PhaseFair,
	}
}

// clone copies everything a transaction can mutate. Hero values hold a
// pointer field, which is copied by SaveHero.
func (s *state) clone() *state {
	c := *s
	c.levels = maps.Clone(s.levels)
	c.heroes = maps.Clone(s.heroes)
	c.monsters = maps.Clone(s.monsters)
	c.stations = maps.Clone(s.stations)
	c.questions = maps.Clone(s.questions)
	c.edges = maps.Clone(s.edges)
	c.edgeOrder = slices.Clone(s.edgeOrder)
	c.xpGains = slices.Clone(s.xpGains)
	c.levelUps = slices.Clone(s.levelUps)
	c.specialVisit = slices.Clone(s.specialVisit)
	c.doors = slices.Clone(s.doors)
	c.answers = slices.Clone(s.answers)
	c.fights = slices.Clone(s.fights)
	c.media = maps.Clone(s.media)
	return &c
}

var _ storage.Store = (*Store)(nil)

// Store is an in-memory storage.Store.
type Store struct {
	mu       sync.Mutex
	st       *state
	channels *channels
	now      func() time.Time
}

// New returns an empty Store in the fair phase.
func New() *Store {
	return &Store{st: newState(), channels: newChannels(), now: time.Now}
}

// InTx runs fn against a working copy and publishes it iff fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(&tx{st: work, now: s.now}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Channels returns the channel repository.
func (s *Store) Channels() storage.Channels { return s.channels }

// Close is a no-op.
func (s *Store) Close() {}

// Logs is a copy of the committed audit rows.
type Logs struct {
	XPGains         []hero.XPGainLog
	LevelUps        []hero.LevelUpLog
	SpecialStations []hero.SpecialStationLog
	Doors           []hero.DoorLog
	TestAnswers     []hero.TestAnswerLog
	Fights          []hero.FightLog
}

// Logs returns the audit rows committed so far.
func (s *Store) Logs() Logs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Logs{
		XPGains:         slices.Clone(s.st.xpGains),
		LevelUps:        slices.Clone(s.st.levelUps),
		SpecialStations: slices.Clone(s.st.specialVisit),
		Doors:           slices.Clone(s.st.doors),
		TestAnswers:     slices.Clone(s.st.answers),
		Fights:          slices.Clone(s.st.fights),
	}
}

type tx struct {
	st  *state
	now func() time.Time
}

func copyHero(h hero.Hero) *hero.Hero {
	if h.CurrentQuestionID != nil {
		h.CurrentQuestionID = hero.Ptr(*h.CurrentQuestionID)
	}
	return &h
}

func (t *tx) sortedHeroes(keep func(hero.Hero) bool) []*hero.Hero {
	out := make([]*hero.Hero, 0, len(t.st.heroes))
	for _, h := range t.st.heroes {
		if keep(h) {
			out = append(out, copyHero(h))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *tx) HeroByID(_ context.Context, id int64) (*hero.Hero, error) {
	h, ok := t.st.heroes[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", hero.ErrHeroNotFound, id)
	}
	return copyHero(h), nil
}

func (t *tx) HeroByUUID(_ context.Context, id uuid.UUID) (*hero.Hero, error) {
	for _, h := range t.st.heroes {
		if h.UUID == id {
			return copyHero(h), nil
		}
	}
	return nil, fmt.Errorf("%w: uuid %s", hero.ErrHeroNotFound, id)
}

func (t *tx) HeroByChat(_ context.Context, chatID int64) (*hero.Hero, error) {
	for _, h := range t.st.heroes {
		if h.ChatID == chatID {
			return copyHero(h), nil
		}
	}
	return nil, fmt.Errorf("%w: chat %d", hero.ErrHeroNotFound, chatID)
}

func (t *tx) Heroes(context.Context) ([]*hero.Hero, error) {
	return t.sortedHeroes(func(hero.Hero) bool { return true }), nil
}

func (t *tx) EligibleFighters(_ context.Context, f hero.Faction) ([]*hero.Hero, error) {
	return t.sortedHeroes(func(h hero.Hero) bool { return h.Faction == f && !h.HasBeenInFight }), nil
}

func (t *tx) Opponents(_ context.Context, f hero.Faction) ([]*hero.Hero, error) {
	return t.sortedHeroes(func(h hero.Hero) bool { return h.Faction != f }), nil
}

func (t *tx) SaveHero(_ context.Context, h *hero.Hero) error {
	if _, ok := t.st.heroes[h.ID]; !ok {
		return fmt.Errorf("%w: id %d", hero.ErrHeroNotFound, h.ID)
	}
	t.st.heroes[h.ID] = *copyHero(*h)
	return nil
}

func (t *tx) NextLevel(_ context.Context, levelID int) (hero.Level, error) {
	var (
		next  hero.Level
		found bool
	)
	for id, l := range t.st.levels {
		if id > levelID && (!found || id < next.ID) {
			next, found = l, true
		}
	}
	if !found {
		return hero.Level{}, fmt.Errorf("%w: after level %d", hero.ErrNoNextLevel, levelID)
	}
	return next, nil
}

func (t *tx) MonsterByID(_ context.Context, id int64) (*hero.Monster, error) {
	m, ok := t.st.monsters[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", hero.ErrMonsterNotFound, id)
	}
	return &m, nil
}

func (t *tx) MonsterByUUID(_ context.Context, id uuid.UUID) (*hero.Monster, error) {
	for _, m := range t.st.monsters {
		if m.UUID == id {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("%w: uuid %s", hero.ErrMonsterNotFound, id)
}

func (t *tx) StationByChat(_ context.Context, chatID int64) (*hero.Station, error) {
	for _, s := range t.st.stations {
		if s.ChatID == chatID {
			return &s, nil
		}
	}
	return nil, fmt.Errorf("%w: chat %d", hero.ErrStationNotFound, chatID)
}

func (t *tx) FirstQuestion(ctx context.Context) (*hero.Question, error) {
	return t.NextQuestion(ctx, 0)
}

func (t *tx) NextQuestion(_ context.Context, afterID int) (*hero.Question, error) {
	var (
		next  hero.Question
		found bool
	)
	for id, q := range t.st.questions {
		if id > afterID && (!found || id < next.ID) {
			next, found = q, true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: after %d", hero.ErrQuestionNotFound, afterID)
	}
	return &next, nil
}

func (t *tx) QuestionByID(_ context.Context, id int) (*hero.Question, error) {
	q, ok := t.st.questions[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", hero.ErrQuestionNotFound, id)
	}
	return &q, nil
}
