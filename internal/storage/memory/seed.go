package memory

import (
	"context"
	"fmt"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
)

func (t *tx) UpsertLevel(_ context.Context, l hero.Level) error {
	t.st.levels[l.ID] = l
	return nil
}

func (t *tx) UpsertHero(_ context.Context, h *hero.Hero) error {
	for id, existing := range t.st.heroes {
		if existing.UUID == h.UUID {
			h.ID = id
			t.st.heroes[id] = *copyHero(*h)
			return nil
		}
		if existing.ChatID == h.ChatID {
			return fmt.Errorf("upserting hero %s: chat %d already bound to hero %d", h.Name, h.ChatID, id)
		}
	}
	t.st.nextHeroID++
	h.ID = t.st.nextHeroID
	t.st.heroes[h.ID] = *copyHero(*h)
	return nil
}

func (t *tx) UpsertMonster(_ context.Context, m *hero.Monster) error {
	for id, existing := range t.st.monsters {
		if existing.UUID == m.UUID {
			m.ID = id
			t.st.monsters[id] = *m
			return nil
		}
	}
	t.st.nextMonsterID++
	m.ID = t.st.nextMonsterID
	t.st.monsters[m.ID] = *m
	return nil
}

func (t *tx) UpsertStation(_ context.Context, s *hero.Station) error {
	for id, existing := range t.st.stations {
		if existing.ChatID == s.ChatID {
			s.ID = id
			t.st.stations[id] = *s
			return nil
		}
	}
	t.st.nextStationID++
	s.ID = t.st.nextStationID
	t.st.stations[s.ID] = *s
	return nil
}

func (t *tx) UpsertQuestion(_ context.Context, q *hero.Question) error {
	t.st.questions[q.ID] = *q
	return nil
}
