package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
)

func (t *tx) AppendXPGain(_ context.Context, row hero.XPGainLog) error {
	if row.At.IsZero() {
		row.At = t.now()
	}
	row.LevelsCrossed = slices.Clone(row.LevelsCrossed)
	t.st.xpGains = append(t.st.xpGains, row)
	return nil
}

func (t *tx) XPGains(_ context.Context, heroID int64) ([]hero.XPGainLog, error) {
	var out []hero.XPGainLog
	for _, row := range t.st.xpGains {
		if row.HeroID == heroID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (t *tx) AppendLevelUp(_ context.Context, row hero.LevelUpLog) error {
	if row.At.IsZero() {
		row.At = t.now()
	}
	t.st.levelUps = append(t.st.levelUps, row)
	return nil
}

func (t *tx) AppendSpecialStation(_ context.Context, row hero.SpecialStationLog) error {
	if row.At.IsZero() {
		row.At = t.now()
	}
	t.st.specialVisit = append(t.st.specialVisit, row)
	return nil
}

func (t *tx) AppendDoor(_ context.Context, row hero.DoorLog) error {
	if row.At.IsZero() {
		row.At = t.now()
	}
	t.st.doors = append(t.st.doors, row)
	return nil
}

func (t *tx) AppendTestAnswer(_ context.Context, row hero.TestAnswerLog) error {
	if row.At.IsZero() {
		row.At = t.now()
	}
	t.st.answers = append(t.st.answers, row)
	return nil
}

func (t *tx) AppendFightLog(_ context.Context, row *hero.FightLog) error {
	if row.HordeHeroID == 0 || row.AllianceHeroID == 0 {
		return fmt.Errorf("fight log needs both fighters")
	}
	if row.At.IsZero() {
		row.At = t.now()
	}
	t.st.nextFightID++
	row.ID = t.st.nextFightID
	t.st.fights = append(t.st.fights, *row)
	return nil
}

func (t *tx) FightLogs(context.Context) ([]hero.FightLog, error) {
	return slices.Clone(t.st.fights), nil
}

func (t *tx) Projection(context.Context) (hero.Projection, error) {
	return t.st.projection, nil
}

func (t *tx) SaveProjection(_ context.Context, p hero.Projection) error {
	t.st.projection = p
	return nil
}

func (t *tx) Phase(context.Context) (hero.Phase, error) {
	return t.st.phase, nil
}

func (t *tx) SetPhase(_ context.Context, p hero.Phase) error {
	t.st.phase = p
	return nil
}

func (t *tx) MediaHandle(_ context.Context, name string) (string, bool, error) {
	h, ok := t.st.media[name]
	return h, ok, nil
}

func (t *tx) SaveMediaHandle(_ context.Context, name, handle string) error {
	t.st.media[name] = handle
	return nil
}
