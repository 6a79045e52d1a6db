package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/cory-johannsen/dragonfair/internal/transport"
)

// RecordingSender is a transport.Sender that keeps every message it is
// asked to deliver.
type RecordingSender struct {
	mu      sync.Mutex
	sent    []transport.Envelope
	fail    map[int64]error
	handles int
}

// NewRecordingSender creates an empty RecordingSender.
func NewRecordingSender() *RecordingSender {
	return &RecordingSender{fail: make(map[int64]error)}
}

// FailFor makes every send to chatID return err.
func (s *RecordingSender) FailFor(chatID int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[chatID] = err
}

// Send records msg. Media sent as bytes gets a fresh handle.
func (s *RecordingSender) Send(_ context.Context, chatID int64, msg transport.Message) (transport.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[chatID]; err != nil {
		return transport.Receipt{}, err
	}
	s.sent = append(s.sent, transport.Envelope{ChatID: chatID, Msg: msg})
	var r transport.Receipt
	if msg.Media != nil {
		if msg.Media.Handle != "" {
			r.MediaHandle = msg.Media.Handle
		} else {
			s.handles++
			r.MediaHandle = fmt.Sprintf("media-%d", s.handles)
		}
	}
	return r, nil
}

// Sent returns every recorded envelope in order.
func (s *RecordingSender) Sent() []transport.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]transport.Envelope(nil), s.sent...)
}

// To returns the messages sent to chatID.
func (s *RecordingSender) To(chatID int64) []transport.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []transport.Message
	for _, env := range s.sent {
		if env.ChatID == chatID {
			out = append(out, env.Msg)
		}
	}
	return out
}

// Texts returns the text of every message sent to chatID.
func (s *RecordingSender) Texts(chatID int64) []string {
	var out []string
	for _, m := range s.To(chatID) {
		out = append(out, m.Text)
	}
	return out
}

// Last returns the most recent message sent to chatID.
func (s *RecordingSender) Last(chatID int64) (transport.Message, bool) {
	msgs := s.To(chatID)
	if len(msgs) == 0 {
		return transport.Message{}, false
	}
	return msgs[len(msgs)-1], true
}

// Reset forgets every recorded message.
func (s *RecordingSender) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
}
