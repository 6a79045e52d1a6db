package projection

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server serves a Hub over HTTP. It implements the lifecycle Service
// interface.
type Server struct {
	srv    *http.Server
	hub    *Hub
	logger *zap.Logger
}

// NewServer creates a Server listening on addr.
func NewServer(addr string, hub *Hub, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle(Path, hub)
	mux.HandleFunc("/projection.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if latest := hub.Latest(); latest != nil {
			_, _ = w.Write(latest)
			return
		}
		_, _ = w.Write([]byte("null"))
	})
	return &Server{
		srv:    &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second},
		hub:    hub,
		logger: logger,
	}
}

// Start blocks serving until Stop.
func (s *Server) Start() error {
	s.logger.Info("projection feed listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop closes subscribers and shuts the listener down.
func (s *Server) Stop() {
	s.hub.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("projection feed shutdown", zap.Error(err))
	}
}
