package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
)

const heroColumns = `id, chat_id, uuid, name, description, faction, vulnerability, image, qr_image,
	level_id, xp, constitution, strength, dexterity, wisdom,
	available_points, staff_visits, colors_visits, first_level_up, has_been_in_fight,
	current_question_id, test_done`

func scanHero(row pgx.Row) (*hero.Hero, error) {
	var (
		h       hero.Hero
		rawUUID string
		faction string
	)
	err := row.Scan(
		&h.ID, &h.ChatID, &rawUUID, &h.Name, &h.Description, &faction, &h.Vulnerability,
		&h.Image, &h.QRImage,
		&h.LevelID, &h.XP, &h.Constitution, &h.Strength, &h.Dexterity, &h.Wisdom,
		&h.AvailablePoints, &h.StaffVisits, &h.ColorsVisits, &h.FirstLevelUp, &h.HasBeenInFight,
		&h.CurrentQuestionID, &h.TestDone,
	)
	if err != nil {
		return nil, err
	}
	if h.UUID, err = uuid.Parse(rawUUID); err != nil {
		return nil, fmt.Errorf("hero %d has malformed uuid %q: %w", h.ID, rawUUID, err)
	}
	h.Faction = hero.Faction(faction)
	return &h, nil
}

func (t *tx) heroWhere(ctx context.Context, where string, arg any) (*hero.Hero, error) {
	h, err := scanHero(t.tx.QueryRow(ctx, `SELECT `+heroColumns+` FROM heroes WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %v", hero.ErrHeroNotFound, arg)
		}
		return nil, fmt.Errorf("querying hero: %w", err)
	}
	return h, nil
}

func (t *tx) heroList(ctx context.Context, where string, args ...any) ([]*hero.Hero, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+heroColumns+` FROM heroes WHERE `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing heroes: %w", err)
	}
	defer rows.Close()
	var out []*hero.Hero
	for rows.Next() {
		h, err := scanHero(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning hero: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (t *tx) HeroByID(ctx context.Context, id int64) (*hero.Hero, error) {
	return t.heroWhere(ctx, "id = $1", id)
}

func (t *tx) HeroByUUID(ctx context.Context, id uuid.UUID) (*hero.Hero, error) {
	return t.heroWhere(ctx, "uuid = $1", id.String())
}

func (t *tx) HeroByChat(ctx context.Context, chatID int64) (*hero.Hero, error) {
	return t.heroWhere(ctx, "chat_id = $1", chatID)
}

func (t *tx) Heroes(ctx context.Context) ([]*hero.Hero, error) {
	return t.heroList(ctx, "TRUE")
}

func (t *tx) EligibleFighters(ctx context.Context, f hero.Faction) ([]*hero.Hero, error) {
	return t.heroList(ctx, "faction = $1 AND NOT has_been_in_fight", string(f))
}

func (t *tx) Opponents(ctx context.Context, f hero.Faction) ([]*hero.Hero, error) {
	return t.heroList(ctx, "faction <> $1", string(f))
}

// SaveHero writes every mutable hero field.
//
// Postcondition: Returns hero.ErrHeroNotFound when no row has h.ID.
func (t *tx) SaveHero(ctx context.Context, h *hero.Hero) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE heroes SET
			level_id = $2, xp = $3,
			constitution = $4, strength = $5, dexterity = $6, wisdom = $7,
			available_points = $8, staff_visits = $9, colors_visits = $10,
			first_level_up = $11, has_been_in_fight = $12,
			current_question_id = $13, test_done = $14
		WHERE id = $1`,
		h.ID, h.LevelID, h.XP,
		h.Constitution, h.Strength, h.Dexterity, h.Wisdom,
		h.AvailablePoints, h.StaffVisits, h.ColorsVisits,
		h.FirstLevelUp, h.HasBeenInFight,
		h.CurrentQuestionID, h.TestDone,
	)
	if err != nil {
		return fmt.Errorf("updating hero %d: %w", h.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", hero.ErrHeroNotFound, h.ID)
	}
	return nil
}
