package media_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dragonfair/internal/media"
	"github.com/cory-johannsen/dragonfair/internal/storage"
	"github.com/cory-johannsen/dragonfair/internal/storage/memory"
	"github.com/cory-johannsen/dragonfair/internal/testutil"
	"github.com/cory-johannsen/dragonfair/internal/transport"
)

type mapCache struct {
	mu      sync.Mutex
	handles map[string]string
	saveErr error
}

func (c *mapCache) Handle(_ context.Context, name string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.handles[name]
	return h, ok, nil
}

func (c *mapCache) SaveHandle(_ context.Context, name, handle string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saveErr != nil {
		return c.saveErr
	}
	c.handles[name] = handle
	return nil
}

func blobDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "heroes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "heroes", "thrall.png"), []byte("png"), 0o644))
	return dir
}

func TestSendPhoto_UploadsOnceThenSendsByHandle(t *testing.T) {
	ctx := context.Background()
	cache := &mapCache{handles: map[string]string{}}
	lib := media.NewLibrary(media.DirFetcher{Root: blobDir(t)}, cache, zaptest.NewLogger(t))
	sender := testutil.NewRecordingSender()

	require.NoError(t, lib.SendPhoto(ctx, sender, 7, "heroes/thrall.png", transport.Message{Text: "Thrall"}))
	require.NoError(t, lib.SendPhoto(ctx, sender, 7, "heroes/thrall.png", transport.Message{Text: "Thrall"}))

	sent := sender.To(7)
	require.Len(t, sent, 2)
	assert.Equal(t, []byte("png"), sent[0].Media.Data)
	assert.Equal(t, "Thrall", sent[0].Text)
	assert.Equal(t, "media-1", sent[1].Media.Handle)
	assert.Nil(t, sent[1].Media.Data)
	assert.Equal(t, "media-1", cache.handles["heroes/thrall.png"])
}

func TestSendVoice_Kind(t *testing.T) {
	ctx := context.Background()
	cache := &mapCache{handles: map[string]string{"q1.ogg": "voice-1"}}
	lib := media.NewLibrary(media.DirFetcher{Root: t.TempDir()}, cache, zaptest.NewLogger(t))
	sender := testutil.NewRecordingSender()

	require.NoError(t, lib.SendVoice(ctx, sender, 7, "q1.ogg", transport.Message{}))
	last, ok := sender.Last(7)
	require.True(t, ok)
	assert.Equal(t, transport.VoiceMedia, last.Media.Kind)
	assert.Equal(t, "voice-1", last.Media.Handle)
}

func TestSend_CacheFailureIsNotSurfaced(t *testing.T) {
	ctx := context.Background()
	cache := &mapCache{handles: map[string]string{}, saveErr: errors.New("disk full")}
	lib := media.NewLibrary(media.DirFetcher{Root: blobDir(t)}, cache, zaptest.NewLogger(t))
	sender := testutil.NewRecordingSender()

	assert.NoError(t, lib.SendPhoto(ctx, sender, 7, "heroes/thrall.png", transport.Message{}))
	assert.Len(t, sender.To(7), 1)
}

func TestSend_MissingBlob(t *testing.T) {
	ctx := context.Background()
	lib := media.NewLibrary(media.DirFetcher{Root: t.TempDir()}, &mapCache{handles: map[string]string{}}, zaptest.NewLogger(t))
	err := lib.SendPhoto(ctx, testutil.NewRecordingSender(), 7, "nope.png", transport.Message{})
	assert.ErrorIs(t, err, media.ErrBlobNotFound)
}

func TestSend_SenderFailure(t *testing.T) {
	ctx := context.Background()
	lib := media.NewLibrary(media.DirFetcher{Root: blobDir(t)}, &mapCache{handles: map[string]string{}}, zaptest.NewLogger(t))
	sender := testutil.NewRecordingSender()
	sender.FailFor(7, errors.New("offline"))
	assert.Error(t, lib.SendPhoto(ctx, sender, 7, "heroes/thrall.png", transport.Message{}))
}

func TestDirFetcher_StaysUnderRoot(t *testing.T) {
	root := blobDir(t)
	outside := filepath.Join(filepath.Dir(root), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	_, err := media.DirFetcher{Root: root}.Fetch(context.Background(), "../secret.txt")
	assert.ErrorIs(t, err, media.ErrBlobNotFound)
	_, err = media.DirFetcher{Root: root}.Fetch(context.Background(), "  ")
	assert.ErrorIs(t, err, media.ErrBlobNotFound)
}

func TestLibrary_StoreBackedCache(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	lib := media.NewLibrary(media.DirFetcher{Root: blobDir(t)}, storage.MediaCache{Store: store}, zaptest.NewLogger(t))
	sender := testutil.NewRecordingSender()

	require.NoError(t, lib.SendPhoto(ctx, sender, 7, "heroes/thrall.png", transport.Message{}))
	handle, ok, err := storage.MediaCache{Store: store}.Handle(ctx, "heroes/thrall.png")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "media-1", handle)
}
