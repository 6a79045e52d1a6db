package postgres

import (
	"context"
	"fmt"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
)

func (t *tx) UpsertLevel(ctx context.Context, l hero.Level) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO levels (id, xp_to_gain) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET xp_to_gain = EXCLUDED.xp_to_gain`, l.ID, l.XPToGain)
	if err != nil {
		return fmt.Errorf("upserting level %d: %w", l.ID, err)
	}
	return nil
}

// UpsertHero is keyed by uuid. Progress columns (xp, level, points, visits,
// flags) are only written on insert so that re-importing content does not
// reset a running event.
func (t *tx) UpsertHero(ctx context.Context, h *hero.Hero) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO heroes (chat_id, uuid, name, description, faction, vulnerability, image, qr_image,
			level_id, xp, constitution, strength, dexterity, wisdom,
			available_points, staff_visits, colors_visits, first_level_up, has_been_in_fight,
			current_question_id, test_done)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		ON CONFLICT (uuid) DO UPDATE SET
			chat_id = EXCLUDED.chat_id, name = EXCLUDED.name, description = EXCLUDED.description,
			faction = EXCLUDED.faction, vulnerability = EXCLUDED.vulnerability,
			image = EXCLUDED.image, qr_image = EXCLUDED.qr_image
		RETURNING id`,
		h.ChatID, h.UUID.String(), h.Name, h.Description, string(h.Faction), h.Vulnerability, h.Image, h.QRImage,
		h.LevelID, h.XP, h.Constitution, h.Strength, h.Dexterity, h.Wisdom,
		h.AvailablePoints, h.StaffVisits, h.ColorsVisits, h.FirstLevelUp, h.HasBeenInFight,
		h.CurrentQuestionID, h.TestDone,
	).Scan(&h.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("upserting hero %s: chat %d already bound: %w", h.Name, h.ChatID, err)
		}
		return fmt.Errorf("upserting hero %s: %w", h.Name, err)
	}
	return nil
}

func (t *tx) UpsertMonster(ctx context.Context, m *hero.Monster) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO monsters (uuid, name, description, level_id, xp, constitution, strength, dexterity, wisdom)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (uuid) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description, level_id = EXCLUDED.level_id,
			xp = EXCLUDED.xp, constitution = EXCLUDED.constitution, strength = EXCLUDED.strength,
			dexterity = EXCLUDED.dexterity, wisdom = EXCLUDED.wisdom
		RETURNING id`,
		m.UUID.String(), m.Name, m.Description, m.LevelID, m.XP,
		m.Constitution, m.Strength, m.Dexterity, m.Wisdom,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("upserting monster %s: %w", m.Name, err)
	}
	return nil
}

func (t *tx) UpsertStation(ctx context.Context, s *hero.Station) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO stations (chat_id, name, xp) VALUES ($1, $2, $3)
		ON CONFLICT (chat_id) DO UPDATE SET name = EXCLUDED.name, xp = EXCLUDED.xp
		RETURNING id`, s.ChatID, s.Name, s.XP,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("upserting station %s: %w", s.Name, err)
	}
	return nil
}

func (t *tx) UpsertQuestion(ctx context.Context, q *hero.Question) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO questions (id, text, audio, answers) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET text = EXCLUDED.text, audio = EXCLUDED.audio, answers = EXCLUDED.answers`,
		q.ID, q.Text, q.Audio, q.Answers)
	if err != nil {
		return fmt.Errorf("upserting question %d: %w", q.ID, err)
	}
	return nil
}
