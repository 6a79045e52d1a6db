// Package conversation is the finite-state dispatcher shared by every
// persona. A Definition maps states to ordered routes; the Engine keeps one
// session per (actor, conversation) and runs the first route whose matcher
// accepts the input.
package conversation

import (
	"context"
	"errors"
	"strings"

	"github.com/cory-johannsen/dragonfair/internal/game/dice"
	"github.com/cory-johannsen/dragonfair/internal/transport"
)

// ErrUnknownEntity marks a lookup of an entity referenced by a session
// context that no longer resolves. The engine answers it with the generic
// error text and ends the conversation.
var ErrUnknownEntity = errors.New("unknown entity")

// State names a node of a conversation. End is the single terminal state.
type State string

// End terminates the conversation and discards its context.
const End State = "END"

// Matcher decides whether a route accepts an input.
type Matcher func(in transport.Input) bool

// Handler runs one step and returns the next state.
type Handler[C any] func(ctx context.Context, t *Turn[C]) (State, error)

// Route pairs a matcher with its handler.
type Route[C any] struct {
	Match  Matcher
	Handle Handler[C]
}

// On builds a Route.
func On[C any](m Matcher, h Handler[C]) Route[C] {
	return Route[C]{Match: m, Handle: h}
}

// Definition describes one conversation over a typed context C.
type Definition[C any] struct {
	Name string
	// Entry routes are tried only when the actor has no session for this
	// conversation.
	Entry []Route[C]
	// States maps each non-terminal state to its routes.
	States map[State][]Route[C]
	// Fallbacks are tried after the current state's routes.
	Fallbacks []Route[C]
	// NewContext creates the context at an entry transition. Nil means the
	// zero value of C.
	NewContext func() *C
	// AfterError runs after the generic error reply for ErrUnknownEntity.
	AfterError func(ctx context.Context, t *Turn[C])
}

// Turn is what a handler sees of one inbound event.
type Turn[C any] struct {
	Actor int64
	Input transport.Input
	State State
	// Ctx is the session context; handlers mutate it in place.
	Ctx *C

	out *transport.Outbox
	e   *Engine
}

// Reply queues a message to the actor.
func (t *Turn[C]) Reply(msg transport.Message) { t.out.Add(t.Actor, msg) }

// ReplyText queues a text message to the actor.
func (t *Turn[C]) ReplyText(text string) { t.out.AddText(t.Actor, text) }

// Notify queues a message to another chat.
func (t *Turn[C]) Notify(chatID int64, msg transport.Message) { t.out.Add(chatID, msg) }

// Flush sends everything queued so far. Handlers call it after a commit
// when later output is delayed, such as a presentation pause.
func (t *Turn[C]) Flush(ctx context.Context) { t.out.Flush(ctx, t.e.sender, t.e.logger) }

// Discard drops everything queued so far.
func (t *Turn[C]) Discard() { t.out.Reset() }

// Any matches every input.
func Any(transport.Input) bool { return true }

// IsPhoto matches photo input.
func IsPhoto(in transport.Input) bool { return in.Kind == transport.Photo }

// IsDie matches text that parses as a die face.
func IsDie(in transport.Input) bool { return in.Kind == transport.Text && dice.IsFace(in.Text) }

// IsCommand matches the named command, case-insensitively.
func IsCommand(name string) Matcher {
	name = strings.TrimPrefix(name, "/")
	return func(in transport.Input) bool {
		return in.Kind == transport.Command && strings.EqualFold(in.Text, name)
	}
}

// IsCallback matches inline button data exactly.
func IsCallback(data string) Matcher {
	return func(in transport.Input) bool {
		return in.Kind == transport.Callback && in.Text == data
	}
}

// IsCallbackPrefix matches inline button data starting with prefix.
func IsCallbackPrefix(prefix string) Matcher {
	return func(in transport.Input) bool {
		return in.Kind == transport.Callback && strings.HasPrefix(in.Text, prefix)
	}
}

// Or matches when any of ms matches.
func Or(ms ...Matcher) Matcher {
	return func(in transport.Input) bool {
		for _, m := range ms {
			if m(in) {
				return true
			}
		}
		return false
	}
}
