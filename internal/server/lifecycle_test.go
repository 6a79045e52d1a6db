package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// blockingService blocks in Start until Stop is called and records the
// order in which it was stopped.
type blockingService struct {
	name    string
	stop    chan struct{}
	once    sync.Once
	stopped *[]string
	mu      *sync.Mutex
}

func newBlocking(name string, order *[]string, mu *sync.Mutex) *blockingService {
	return &blockingService{name: name, stop: make(chan struct{}), stopped: order, mu: mu}
}

func (b *blockingService) Start() error {
	<-b.stop
	return nil
}

func (b *blockingService) Stop() {
	b.once.Do(func() {
		b.mu.Lock()
		*b.stopped = append(*b.stopped, b.name)
		b.mu.Unlock()
		close(b.stop)
	})
}

func TestLifecycle_StopsInReverseOrderOnCancel(t *testing.T) {
	var order []string
	var mu sync.Mutex
	lc := NewLifecycle(zaptest.NewLogger(t))
	lc.Add("gateway", newBlocking("gateway", &order, &mu))
	lc.Add("projection", newBlocking("projection", &order, &mu))

	var hooked []string
	lc.OnShutdown("pool", func(context.Context) error { hooked = append(hooked, "pool"); return nil })
	lc.OnShutdown("tracer", func(context.Context) error { hooked = append(hooked, "tracer"); return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("lifecycle did not shut down")
	}
	assert.Equal(t, []string{"projection", "gateway"}, order)
	assert.Equal(t, []string{"tracer", "pool"}, hooked)
}

func TestLifecycle_ServiceFailureStopsOthers(t *testing.T) {
	var order []string
	var mu sync.Mutex
	lc := NewLifecycle(zaptest.NewLogger(t))
	healthy := newBlocking("announcer", &order, &mu)
	lc.Add("announcer", healthy)
	lc.Add("gateway", &FuncService{StartFn: func() error { return errors.New("bind: address in use") }})

	err := lc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service gateway")
	assert.Equal(t, []string{"announcer"}, order)
}

func TestLifecycle_HookErrorIsReturned(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	lc.OnShutdown("tracer", func(context.Context) error { return errors.New("flush failed") })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := lc.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown tracer")
}

func TestFuncService_NilStop(t *testing.T) {
	svc := &FuncService{StartFn: func() error { return nil }}
	assert.NotPanics(t, svc.Stop)
	assert.NoError(t, svc.Start())
}
