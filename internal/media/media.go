// Package media sends named blobs (hero portraits, QR codes, question audio)
// through a transport and caches the handle the transport returns, so each
// blob is uploaded at most once per transport.
package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dragonfair/internal/transport"
)

// ErrBlobNotFound is returned when a fetcher has no blob for a name.
var ErrBlobNotFound = errors.New("blob not found")

// Fetcher loads blob bytes by name.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// DirFetcher reads blobs from files under Root.
type DirFetcher struct {
	Root string
}

// Fetch reads Root/name. Names cannot escape Root.
func (f DirFetcher) Fetch(_ context.Context, name string) ([]byte, error) {
	clean := filepath.Clean("/" + strings.TrimSpace(name))
	if clean == "/" {
		return nil, fmt.Errorf("%w: empty name", ErrBlobNotFound)
	}
	data, err := os.ReadFile(filepath.Join(f.Root, clean))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", name, err)
	}
	return data, nil
}

// Cache stores transport handles by blob name.
type Cache interface {
	Handle(ctx context.Context, name string) (handle string, ok bool, err error)
	SaveHandle(ctx context.Context, name, handle string) error
}

// Library sends blobs by name.
type Library struct {
	fetcher Fetcher
	cache   Cache
	logger  *zap.Logger
}

// NewLibrary creates a Library.
//
// Precondition: fetcher, cache and logger must be non-nil.
func NewLibrary(fetcher Fetcher, cache Cache, logger *zap.Logger) *Library {
	return &Library{fetcher: fetcher, cache: cache, logger: logger}
}

// SendPhoto sends blob name as a photo with msg.Text as its caption.
func (l *Library) SendPhoto(ctx context.Context, s transport.Sender, chatID int64, name string, msg transport.Message) error {
	return l.send(ctx, s, chatID, transport.PhotoMedia, name, msg)
}

// SendVoice sends blob name as a voice message.
func (l *Library) SendVoice(ctx context.Context, s transport.Sender, chatID int64, name string, msg transport.Message) error {
	return l.send(ctx, s, chatID, transport.VoiceMedia, name, msg)
}

// send sends by cached handle when one exists. Otherwise it fetches the
// bytes, sends them and caches the receipt handle. A cache failure is
// logged and never returned.
func (l *Library) send(ctx context.Context, s transport.Sender, chatID int64, kind transport.MediaKind, name string, msg transport.Message) error {
	handle, ok, err := l.cache.Handle(ctx, name)
	if err != nil {
		l.logger.Warn("media cache lookup failed", zap.String("name", name), zap.Error(err))
		ok = false
	}
	if ok && handle != "" {
		msg.Media = &transport.Media{Kind: kind, Handle: handle, Name: name}
		if _, err := s.Send(ctx, chatID, msg); err != nil {
			return fmt.Errorf("sending %s by handle: %w", name, err)
		}
		return nil
	}

	data, err := l.fetcher.Fetch(ctx, name)
	if err != nil {
		return err
	}
	msg.Media = &transport.Media{Kind: kind, Name: name, Data: data}
	receipt, err := s.Send(ctx, chatID, msg)
	if err != nil {
		return fmt.Errorf("sending %s: %w", name, err)
	}
	if receipt.MediaHandle == "" {
		return nil
	}
	if err := l.cache.SaveHandle(ctx, name, receipt.MediaHandle); err != nil {
		l.logger.Warn("media handle not cached",
			zap.String("name", name),
			zap.String("handle", receipt.MediaHandle),
			zap.Error(err),
		)
	}
	return nil
}
