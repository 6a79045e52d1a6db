package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
)

func (t *tx) NextLevel(ctx context.Context, levelID int) (hero.Level, error) {
	var l hero.Level
	err := t.tx.QueryRow(ctx,
		`SELECT id, xp_to_gain FROM levels WHERE id > $1 ORDER BY id LIMIT 1`, levelID,
	).Scan(&l.ID, &l.XPToGain)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return hero.Level{}, fmt.Errorf("%w: after level %d", hero.ErrNoNextLevel, levelID)
		}
		return hero.Level{}, fmt.Errorf("querying next level: %w", err)
	}
	return l, nil
}

const monsterColumns = `id, uuid, name, description, level_id, xp, constitution, strength, dexterity, wisdom`

func (t *tx) monsterWhere(ctx context.Context, where string, arg any) (*hero.Monster, error) {
	var (
		m       hero.Monster
		rawUUID string
	)
	err := t.tx.QueryRow(ctx, `SELECT `+monsterColumns+` FROM monsters WHERE `+where, arg).Scan(
		&m.ID, &rawUUID, &m.Name, &m.Description, &m.LevelID, &m.XP,
		&m.Constitution, &m.Strength, &m.Dexterity, &m.Wisdom,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %v", hero.ErrMonsterNotFound, arg)
		}
		return nil, fmt.Errorf("querying monster: %w", err)
	}
	if m.UUID, err = uuid.Parse(rawUUID); err != nil {
		return nil, fmt.Errorf("monster %d has malformed uuid %q: %w", m.ID, rawUUID, err)
	}
	return &m, nil
}

func (t *tx) MonsterByID(ctx context.Context, id int64) (*hero.Monster, error) {
	return t.monsterWhere(ctx, "id = $1", id)
}

func (t *tx) MonsterByUUID(ctx context.Context, id uuid.UUID) (*hero.Monster, error) {
	return t.monsterWhere(ctx, "uuid = $1", id.String())
}

func (t *tx) StationByChat(ctx context.Context, chatID int64) (*hero.Station, error) {
	var s hero.Station
	err := t.tx.QueryRow(ctx,
		`SELECT id, chat_id, name, xp FROM stations WHERE chat_id = $1`, chatID,
	).Scan(&s.ID, &s.ChatID, &s.Name, &s.XP)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: chat %d", hero.ErrStationNotFound, chatID)
		}
		return nil, fmt.Errorf("querying station: %w", err)
	}
	return &s, nil
}

func (t *tx) questionWhere(ctx context.Context, query string, arg any) (*hero.Question, error) {
	var q hero.Question
	err := t.tx.QueryRow(ctx, query, arg).Scan(&q.ID, &q.Text, &q.Audio, &q.Answers)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %v", hero.ErrQuestionNotFound, arg)
		}
		return nil, fmt.Errorf("querying question: %w", err)
	}
	return &q, nil
}

func (t *tx) FirstQuestion(ctx context.Context) (*hero.Question, error) {
	return t.NextQuestion(ctx, 0)
}

func (t *tx) NextQuestion(ctx context.Context, afterID int) (*hero.Question, error) {
	return t.questionWhere(ctx,
		`SELECT id, text, audio, answers FROM questions WHERE id > $1 ORDER BY id LIMIT 1`, afterID)
}

func (t *tx) QuestionByID(ctx context.Context, id int) (*hero.Question, error) {
	return t.questionWhere(ctx, `SELECT id, text, audio, answers FROM questions WHERE id = $1`, id)
}
