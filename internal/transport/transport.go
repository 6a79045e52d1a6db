// Package transport defines the boundary to the chat transport: classified
// inbound input and the outbound message primitive.
package transport

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// MaxMessageLen is the largest text a single message may carry.
const MaxMessageLen = 4096

// InputKind classifies an inbound event.
type InputKind int

const (
	Text InputKind = iota
	Photo
	Callback
	Command
)

// String returns the kind name used in logs.
func (k InputKind) String() string {
	switch k {
	case Text:
		return "text"
	case Photo:
		return "photo"
	case Callback:
		return "callback"
	case Command:
		return "command"
	default:
		return "unknown"
	}
}

// Input is one inbound event from a chat.
type Input struct {
	Kind InputKind
	// Text is the message text, the callback data or the command name.
	Text string
	// Payload is the photo content for Photo input.
	Payload []byte
}

// TextInput builds a Text input.
func TextInput(s string) Input { return Input{Kind: Text, Text: s} }

// CommandInput builds a Command input; a leading slash is dropped.
func CommandInput(name string) Input {
	return Input{Kind: Command, Text: strings.TrimPrefix(name, "/")}
}

// CallbackInput builds a Callback input.
func CallbackInput(data string) Input { return Input{Kind: Callback, Text: data} }

// PhotoInput builds a Photo input.
func PhotoInput(payload []byte) Input { return Input{Kind: Photo, Payload: payload} }

// Button is an inline button: a label and the callback data it sends.
type Button struct {
	Label string
	Data  string
}

// MediaKind says how an attachment is presented.
type MediaKind int

const (
	PhotoMedia MediaKind = iota
	VoiceMedia
)

// Media is an attachment: either a transport handle from an earlier send or
// raw bytes.
type Media struct {
	Kind   MediaKind
	Handle string
	Name   string
	Data   []byte
}

// Message is one outbound message.
type Message struct {
	Text string
	// Media is sent with Text as its caption.
	Media    *Media
	Keyboard [][]string
	Inline   [][]Button
	// RemoveKeyboard clears any reply keyboard shown to the chat.
	RemoveKeyboard bool
}

// Receipt is what the transport reports after a send.
type Receipt struct {
	// MediaHandle is the transport-native handle of a sent attachment.
	MediaHandle string
}

// Sender delivers messages to chats.
type Sender interface {
	Send(ctx context.Context, chatID int64, msg Message) (Receipt, error)
}

// Envelope is a message addressed to a chat.
type Envelope struct {
	ChatID int64
	Msg    Message
}

// Outbox collects notifications during a step so they are sent only after
// the step's transaction committed.
type Outbox struct {
	items []Envelope
}

// Add queues msg for chatID.
func (o *Outbox) Add(chatID int64, msg Message) {
	o.items = append(o.items, Envelope{ChatID: chatID, Msg: msg})
}

// AddText queues a text-only message.
func (o *Outbox) AddText(chatID int64, text string) {
	o.Add(chatID, Message{Text: text})
}

// Len returns the number of queued messages.
func (o *Outbox) Len() int { return len(o.items) }

// Reset drops every queued message.
func (o *Outbox) Reset() { o.items = nil }

// Flush sends every queued message once, in order, and empties the outbox.
// Delivery is at-most-once: failures are logged and not retried.
func (o *Outbox) Flush(ctx context.Context, s Sender, logger *zap.Logger) {
	items := o.items
	o.items = nil
	for _, env := range items {
		if _, err := s.Send(ctx, env.ChatID, env.Msg); err != nil {
			logger.Warn("notification dropped", zap.Int64("chat_id", env.ChatID), zap.Error(err))
		}
	}
}

// Chunk splits text into pieces of at most limit runes.
//
// Precondition: limit > 0.
func Chunk(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	var out []string
	for len(runes) > 0 {
		n := min(limit, len(runes))
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}
