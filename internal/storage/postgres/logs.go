package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
)

func abilityArg(a *hero.Ability) *string {
	if a == nil {
		return nil
	}
	s := string(*a)
	return &s
}

func (t *tx) AppendXPGain(ctx context.Context, row hero.XPGainLog) error {
	crossed := row.LevelsCrossed
	if crossed == nil {
		crossed = []int{}
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO xp_gain_logs (hero_id, reason, station_id, monster_id, xp_gained, level_up_id, levels_crossed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		row.HeroID, string(row.Reason), row.StationID, row.MonsterID, row.XPGained, row.LevelUpID, crossed,
	)
	if err != nil {
		return fmt.Errorf("inserting xp gain log: %w", err)
	}
	return nil
}

func (t *tx) XPGains(ctx context.Context, heroID int64) ([]hero.XPGainLog, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT created_at, hero_id, reason, station_id, monster_id, xp_gained, level_up_id, levels_crossed
		FROM xp_gain_logs WHERE hero_id = $1 ORDER BY id`, heroID)
	if err != nil {
		return nil, fmt.Errorf("listing xp gain logs: %w", err)
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (hero.XPGainLog, error) {
		var (
			row    hero.XPGainLog
			reason string
		)
		err := r.Scan(&row.At, &row.HeroID, &reason, &row.StationID, &row.MonsterID,
			&row.XPGained, &row.LevelUpID, &row.LevelsCrossed)
		row.Reason = hero.XPReason(reason)
		return row, err
	})
}

func (t *tx) AppendLevelUp(ctx context.Context, row hero.LevelUpLog) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO level_up_logs (hero_id, increased_ability) VALUES ($1, $2)`,
		row.HeroID, string(row.IncreasedAbility),
	)
	if err != nil {
		return fmt.Errorf("inserting level up log: %w", err)
	}
	return nil
}

func (t *tx) AppendSpecialStation(ctx context.Context, row hero.SpecialStationLog) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO special_station_logs (station, hero_id, wisdom, die, ability, ability_plus)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		row.Station, row.HeroID, row.Wisdom, row.Die, abilityArg(row.Ability), row.AbilityPlus,
	)
	if err != nil {
		return fmt.Errorf("inserting special station log: %w", err)
	}
	return nil
}

func (t *tx) AppendDoor(ctx context.Context, row hero.DoorLog) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO door_logs (hero_id, is_question, is_staff, monster_id, ability, hero_victory)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		row.HeroID, row.IsQuestion, row.IsStaff, row.MonsterID, abilityArg(row.Ability), row.HeroVictory,
	)
	if err != nil {
		return fmt.Errorf("inserting door log: %w", err)
	}
	return nil
}

func (t *tx) AppendTestAnswer(ctx context.Context, row hero.TestAnswerLog) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO test_answer_logs (hero_id, question_id, answer) VALUES ($1, $2, $3)`,
		row.HeroID, row.QuestionID, row.Answer,
	)
	if err != nil {
		return fmt.Errorf("inserting test answer log: %w", err)
	}
	return nil
}

const fightColumns = `horde_hero_id, alliance_hero_id,
	horde_health, alliance_health,
	horde_inspiration, alliance_inspiration,
	horde_know_vulnerability, alliance_know_vulnerability,
	horde_own_vulnerability, alliance_own_vulnerability,
	horde_use_vulnerability, alliance_use_vulnerability,
	horde_def_vulnerability, alliance_def_vulnerability,
	horde_dice_roll, alliance_dice_roll,
	horde_victory, alliance_victory`

func (t *tx) AppendFightLog(ctx context.Context, row *hero.FightLog) error {
	h, a := &row.Horde, &row.Alliance
	err := t.tx.QueryRow(ctx, `
		INSERT INTO fight_logs (`+fightColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING id, created_at`,
		row.HordeHeroID, row.AllianceHeroID,
		h.Health, a.Health,
		h.Inspiration, a.Inspiration,
		h.KnowVulnerability, a.KnowVulnerability,
		h.OwnVulnerability, a.OwnVulnerability,
		h.UseVulnerability, a.UseVulnerability,
		h.DefVulnerability, a.DefVulnerability,
		h.DiceRoll, a.DiceRoll,
		h.Victory, a.Victory,
	).Scan(&row.ID, &row.At)
	if err != nil {
		return fmt.Errorf("inserting fight log: %w", err)
	}
	return nil
}

func (t *tx) FightLogs(ctx context.Context) ([]hero.FightLog, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, created_at, `+fightColumns+` FROM fight_logs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing fight logs: %w", err)
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (hero.FightLog, error) {
		var row hero.FightLog
		h, a := &row.Horde, &row.Alliance
		err := r.Scan(&row.ID, &row.At,
			&row.HordeHeroID, &row.AllianceHeroID,
			&h.Health, &a.Health,
			&h.Inspiration, &a.Inspiration,
			&h.KnowVulnerability, &a.KnowVulnerability,
			&h.OwnVulnerability, &a.OwnVulnerability,
			&h.UseVulnerability, &a.UseVulnerability,
			&h.DefVulnerability, &a.DefVulnerability,
			&h.DiceRoll, &a.DiceRoll,
			&h.Victory, &a.Victory,
		)
		return row, err
	})
}
