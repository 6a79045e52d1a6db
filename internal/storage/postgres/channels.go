package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/dragonfair/internal/storage"
)

// ChannelRepository stores chat-to-persona grants with bcrypt-hashed
// access codes.
type ChannelRepository struct {
	db *pgxpool.Pool
}

// NewChannelRepository creates a ChannelRepository backed by db.
//
// Precondition: db must be a valid, open connection pool.
func NewChannelRepository(db *pgxpool.Pool) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// Authenticate verifies code against the stored hash for chatID.
//
// Postcondition: Returns the Channel, storage.ErrChannelNotFound, or
// storage.ErrInvalidAccessCode.
func (r *ChannelRepository) Authenticate(ctx context.Context, chatID int64, code string) (storage.Channel, error) {
	var (
		ch      storage.Channel
		persona string
		hash    string
	)
	err := r.db.QueryRow(ctx,
		`SELECT chat_id, persona, label, access_hash FROM channels WHERE chat_id = $1`, chatID,
	).Scan(&ch.ChatID, &persona, &ch.Label, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Channel{}, storage.ErrChannelNotFound
		}
		return storage.Channel{}, fmt.Errorf("querying channel: %w", err)
	}
	if !storage.CheckAccessCode(code, hash) {
		return storage.Channel{}, storage.ErrInvalidAccessCode
	}
	ch.Persona = storage.Persona(persona)
	return ch, nil
}

// Grant creates or replaces the grant for ch.ChatID.
//
// Precondition: code must be non-empty.
func (r *ChannelRepository) Grant(ctx context.Context, ch storage.Channel, code string) error {
	hash, err := storage.HashAccessCode(code)
	if err != nil {
		return fmt.Errorf("hashing access code: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO channels (chat_id, persona, label, access_hash) VALUES ($1, $2, $3, $4)
		ON CONFLICT (chat_id) DO UPDATE SET
			persona = EXCLUDED.persona, label = EXCLUDED.label, access_hash = EXCLUDED.access_hash`,
		ch.ChatID, string(ch.Persona), ch.Label, hash)
	if err != nil {
		return fmt.Errorf("granting channel %d: %w", ch.ChatID, err)
	}
	return nil
}

// List returns every granted channel ordered by chat id.
func (r *ChannelRepository) List(ctx context.Context) ([]storage.Channel, error) {
	rows, err := r.db.Query(ctx, `SELECT chat_id, persona, label FROM channels ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (storage.Channel, error) {
		var (
			ch      storage.Channel
			persona string
		)
		err := row.Scan(&ch.ChatID, &persona, &ch.Label)
		ch.Persona = storage.Persona(persona)
		return ch, err
	})
}
