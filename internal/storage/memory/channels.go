package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cory-johannsen/dragonfair/internal/storage"
)

type grant struct {
	ch   storage.Channel
	hash string
}

type channels struct {
	mu     sync.RWMutex
	grants map[int64]grant
}

func newChannels() *channels {
	return &channels{grants: map[int64]grant{}}
}

func (c *channels) Authenticate(_ context.Context, chatID int64, code string) (storage.Channel, error) {
	c.mu.RLock()
	g, ok := c.grants[chatID]
	c.mu.RUnlock()
	if !ok {
		return storage.Channel{}, storage.ErrChannelNotFound
	}
	if !storage.CheckAccessCode(code, g.hash) {
		return storage.Channel{}, storage.ErrInvalidAccessCode
	}
	return g.ch, nil
}

func (c *channels) Grant(_ context.Context, ch storage.Channel, code string) error {
	hash, err := storage.HashAccessCode(code)
	if err != nil {
		return fmt.Errorf("hashing access code: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grants[ch.ChatID] = grant{ch: ch, hash: hash}
	return nil
}

func (c *channels) List(context.Context) ([]storage.Channel, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]storage.Channel, 0, len(c.grants))
	for _, g := range c.grants {
		out = append(out, g.ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out, nil
}
