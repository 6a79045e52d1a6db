package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
)

// Projection reads the single projection row. The state column is JSONB
// and is decoded by pgx.
func (t *tx) Projection(ctx context.Context) (hero.Projection, error) {
	var p hero.Projection
	if err := t.tx.QueryRow(ctx, `SELECT state FROM fight_projection WHERE id = 1`).Scan(&p); err != nil {
		return hero.Projection{}, fmt.Errorf("reading fight projection: %w", err)
	}
	return p, nil
}

func (t *tx) SaveProjection(ctx context.Context, p hero.Projection) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO fight_projection (id, state, updated_at) VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		p,
	)
	if err != nil {
		return fmt.Errorf("saving fight projection: %w", err)
	}
	return nil
}

func (t *tx) Phase(ctx context.Context) (hero.Phase, error) {
	var phase string
	if err := t.tx.QueryRow(ctx, `SELECT phase FROM event_state WHERE id = 1`).Scan(&phase); err != nil {
		return "", fmt.Errorf("reading event phase: %w", err)
	}
	return hero.Phase(phase), nil
}

func (t *tx) SetPhase(ctx context.Context, p hero.Phase) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO event_state (id, phase) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET phase = EXCLUDED.phase`, string(p))
	if err != nil {
		return fmt.Errorf("setting event phase: %w", err)
	}
	return nil
}

func (t *tx) MediaHandle(ctx context.Context, name string) (string, bool, error) {
	var handle string
	err := t.tx.QueryRow(ctx, `SELECT handle FROM media_handles WHERE name = $1`, name).Scan(&handle)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading media handle: %w", err)
	}
	return handle, true, nil
}

func (t *tx) SaveMediaHandle(ctx context.Context, name, handle string) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO media_handles (name, handle) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET handle = EXCLUDED.handle`, name, handle)
	if err != nil {
		return fmt.Errorf("saving media handle: %w", err)
	}
	return nil
}
