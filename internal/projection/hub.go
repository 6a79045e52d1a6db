// Package projection broadcasts the live fight projection to websocket
// subscribers, typically the arena screen.
package projection

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Path is where Hub serves the websocket upgrade.
const Path = "/projection"

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) write(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

// Hub keeps the latest projection and fans it out to subscribers.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	latest []byte
	subs   map[*subscriber]struct{}
}

// NewHub creates a Hub.
//
// Precondition: logger must be non-nil.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		subs: make(map[*subscriber]struct{}),
	}
}

// Publish stores p as the snapshot and sends it to every subscriber.
// Subscribers that fail a write are dropped.
func (h *Hub) Publish(p hero.Projection) {
	data, err := json.Marshal(p)
	if err != nil {
		h.logger.Error("encoding projection", zap.Error(err))
		return
	}
	h.mu.Lock()
	h.latest = data
	subs := make([]*subscriber, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		if err := s.write(websocket.TextMessage, data); err != nil {
			h.logger.Debug("projection subscriber dropped", zap.Error(err))
			h.drop(s)
		}
	}
}

// Latest returns the last published projection as JSON, or nil.
func (h *Hub) Latest() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) drop(s *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[s]
	delete(h.subs, s)
	h.mu.Unlock()
	if ok {
		_ = s.conn.Close()
	}
}

// ServeHTTP upgrades the request and sends the current snapshot at once.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("projection upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	s := &subscriber{conn: conn}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	snapshot := h.latest
	h.mu.Unlock()
	h.logger.Info("projection subscriber connected", zap.String("remote", r.RemoteAddr))

	if snapshot != nil {
		if err := s.write(websocket.TextMessage, snapshot); err != nil {
			h.drop(s)
			return
		}
	}
	go h.pump(s)
}

// pump reads until the peer goes away and keeps the connection alive.
func (h *Hub) pump(s *subscriber) {
	defer h.drop(s)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := s.write(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[*subscriber]struct{})
	h.mu.Unlock()
	for s := range subs {
		_ = s.conn.Close()
	}
}
