package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
)

func (t *tx) ids(ctx context.Context, query string, arg int64) ([]int64, error) {
	rows, err := t.tx.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("querying vulnerability edges: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (t *tx) KnownTargets(ctx context.Context, wise int64) ([]int64, error) {
	return t.ids(ctx, `SELECT target_hero_id FROM known_vulnerabilities WHERE wise_hero_id = $1 ORDER BY id`, wise)
}

func (t *tx) KnownBy(ctx context.Context, target int64) ([]int64, error) {
	return t.ids(ctx, `SELECT wise_hero_id FROM known_vulnerabilities WHERE target_hero_id = $1 ORDER BY id`, target)
}

func (t *tx) HasEdge(ctx context.Context, wise, target int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM known_vulnerabilities WHERE wise_hero_id = $1 AND target_hero_id = $2)`,
		wise, target,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking vulnerability edge: %w", err)
	}
	return exists, nil
}

// AddEdge relies on the (wise, target) unique constraint.
func (t *tx) AddEdge(ctx context.Context, e hero.KnownVulnerability) (bool, error) {
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO known_vulnerabilities (wise_hero_id, target_hero_id)
		VALUES ($1, $2)
		ON CONFLICT (wise_hero_id, target_hero_id) DO NOTHING`,
		e.WiseHeroID, e.TargetHeroID,
	)
	if err != nil {
		return false, fmt.Errorf("inserting vulnerability edge: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *tx) EdgesFrom(ctx context.Context, wise int64) ([]hero.KnownVulnerability, error) {
	targets, err := t.KnownTargets(ctx, wise)
	if err != nil {
		return nil, err
	}
	out := make([]hero.KnownVulnerability, len(targets))
	for i, target := range targets {
		out[i] = hero.KnownVulnerability{WiseHeroID: wise, TargetHeroID: target}
	}
	return out, nil
}
