// Package server runs the long-lived pieces of a game master process
// (telnet gateway, projection feed, announcer) and tears them down in
// reverse order on signal or failure.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// DefaultShutdownTimeout bounds the time spent in shutdown hooks.
const DefaultShutdownTimeout = 10 * time.Second

// Service is a component that blocks in Start until Stop is called or it fails.
type Service interface {
	Start() error
	Stop()
}

// FuncService adapts a start/stop function pair into the Service interface.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls StartFn.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls StopFn when set.
func (f *FuncService) Stop() {
	if f.StopFn != nil {
		f.StopFn()
	}
}

// ShutdownHook releases a resource once every service has stopped.
type ShutdownHook func(ctx context.Context) error

// Lifecycle starts registered services in order and stops them in reverse.
type Lifecycle struct {
	logger          *zap.Logger
	mu              sync.Mutex
	services        []namedService
	hooks           []namedHook
	shutdownTimeout time.Duration
}

type namedService struct {
	name    string
	service Service
}

type namedHook struct {
	name string
	hook ShutdownHook
}

// NewLifecycle creates an empty Lifecycle.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger, shutdownTimeout: DefaultShutdownTimeout}
}

// Add registers a named service. Services start in registration order.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// OnShutdown registers a hook run after all services stopped, in reverse
// registration order.
func (l *Lifecycle) OnShutdown(name string, hook ShutdownHook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, namedHook{name: name, hook: hook})
}

// Run starts every service and blocks until SIGINT/SIGTERM, context
// cancellation, or the first service failure.
//
// Postcondition: All services are stopped and all hooks have run when Run
// returns. The returned error is the first service failure, if any, joined
// with any hook failures.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()

	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	hooks := append([]namedHook(nil), l.hooks...)
	l.mu.Unlock()

	errCh := make(chan error, len(services))
	for _, ns := range services {
		go func() {
			l.logger.Info("starting service", zap.String("service", ns.name))
			if err := ns.service.Start(); err != nil {
				l.logger.Error("service failed",
					zap.String("service", ns.name),
					zap.Error(err),
					zap.Duration("uptime", time.Since(start)),
				)
				errCh <- fmt.Errorf("service %s: %w", ns.name, err)
			}
		}()
	}
	l.logger.Info("services started", zap.Int("count", len(services)))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		l.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		l.logger.Error("service error, shutting down", zap.Error(runErr))
	case <-ctx.Done():
		l.logger.Info("context cancelled, shutting down")
	}

	for i := len(services) - 1; i >= 0; i-- {
		ns := services[i]
		stopStart := time.Now()
		ns.service.Stop()
		l.logger.Info("service stopped",
			zap.String("service", ns.name),
			zap.Duration("elapsed", time.Since(stopStart)),
		)
	}

	hookCtx, cancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer cancel()
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		if err := h.hook(hookCtx); err != nil {
			l.logger.Warn("shutdown hook failed", zap.String("hook", h.name), zap.Error(err))
			runErr = errors.Join(runErr, fmt.Errorf("shutdown %s: %w", h.name, err))
		}
	}

	l.logger.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))
	return runErr
}
