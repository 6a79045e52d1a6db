package conversation

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dragonfair/internal/observability"
	"github.com/cory-johannsen/dragonfair/internal/transport"
)

// ErrPanic wraps a value recovered from a panicking handler.
var ErrPanic = errors.New("handler panicked")

const tracerName = "github.com/cory-johannsen/dragonfair/internal/conversation"

// ErrorTexts are the replies used when a step fails.
type ErrorTexts struct {
	// Generic answers an unknown entity.
	Generic string
	// Apology answers any other failure.
	Apology string
}

// Event is one inbound input from an actor.
type Event struct {
	Actor int64
	Input transport.Input
}

// Outcome describes what Dispatch did.
type Outcome struct {
	Matched      bool
	Conversation string
	From         State
	To           State
}

// Option configures an Engine.
type Option func(*Engine)

// WithReporter sends unhandled failures to r.
func WithReporter(r *Reporter) Option {
	return func(e *Engine) { e.reporter = r }
}

// WithErrorTexts sets the failure replies.
func WithErrorTexts(t ErrorTexts) Option {
	return func(e *Engine) { e.texts = t }
}

type sessionKey struct {
	actor int64
	conv  string
}

type session struct {
	state State
	data  any
}

type registration interface {
	name() string
	step(ctx context.Context, e *Engine, ev Event, s *session) (matched bool, from, to State, err error)
}

// Engine dispatches events to the registered conversations of one persona.
// Events of one actor are handled one at a time; different actors run
// concurrently.
type Engine struct {
	persona  string
	logger   *zap.Logger
	sender   transport.Sender
	reporter *Reporter
	texts    ErrorTexts
	tracer   trace.Tracer
	regs     []registration

	mu       sync.Mutex
	actors   map[int64]*sync.Mutex
	sessions map[sessionKey]*session
}

// NewEngine creates an Engine for persona.
//
// Precondition: logger and sender must be non-nil.
func NewEngine(persona string, logger *zap.Logger, sender transport.Sender, opts ...Option) *Engine {
	e := &Engine{
		persona:  persona,
		logger:   observability.PersonaLogger(logger, persona),
		sender:   sender,
		texts:    ErrorTexts{Generic: "Something went wrong.", Apology: "Sorry, something broke. Please start again."},
		tracer:   otel.Tracer(tracerName),
		actors:   make(map[int64]*sync.Mutex),
		sessions: make(map[sessionKey]*session),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Persona returns the persona name.
func (e *Engine) Persona() string { return e.persona }

// Register adds def after every previously registered conversation.
//
// Precondition: def.Name is unique within e; End has no routes.
func Register[C any](e *Engine, def Definition[C]) error {
	if def.Name == "" {
		return errors.New("conversation: definition without a name")
	}
	for _, r := range e.regs {
		if r.name() == def.Name {
			return fmt.Errorf("conversation: duplicate definition %q", def.Name)
		}
	}
	if _, ok := def.States[End]; ok {
		return fmt.Errorf("conversation: %s declares routes for the terminal state", def.Name)
	}
	check := func(where string, routes []Route[C]) error {
		for i, r := range routes {
			if r.Match == nil || r.Handle == nil {
				return fmt.Errorf("conversation: %s %s route %d is incomplete", def.Name, where, i)
			}
		}
		return nil
	}
	if err := check("entry", def.Entry); err != nil {
		return err
	}
	if err := check("fallback", def.Fallbacks); err != nil {
		return err
	}
	for st, routes := range def.States {
		if err := check(string(st), routes); err != nil {
			return err
		}
	}
	e.regs = append(e.regs, &typed[C]{def: def})
	return nil
}

// MustRegister is Register that panics on an invalid definition.
func MustRegister[C any](e *Engine, def Definition[C]) {
	if err := Register(e, def); err != nil {
		panic(err)
	}
}

// Dispatch routes ev through the registered conversations in order. For a
// conversation with an active session, the current state's routes and then
// the fallbacks are tried; otherwise its entry routes. The first match
// runs. No match is a silent no-op.
//
// Postcondition: a non-nil error means the step failed unexpectedly, was
// reported to the operator and its session was dropped.
func (e *Engine) Dispatch(ctx context.Context, ev Event) (Outcome, error) {
	lock := e.actorLock(ev.Actor)
	lock.Lock()
	defer lock.Unlock()

	ctx, span := e.tracer.Start(ctx, "conversation.dispatch", trace.WithAttributes(
		attribute.String("persona", e.persona),
		attribute.Int64("actor", ev.Actor),
		attribute.String("input.kind", ev.Input.Kind.String()),
	))
	defer span.End()

	for _, reg := range e.regs {
		matched, from, to, err := reg.step(ctx, e, ev, e.session(ev.Actor, reg.name()))
		if !matched {
			continue
		}
		span.SetAttributes(
			attribute.String("conversation", reg.name()),
			attribute.String("state.from", string(from)),
			attribute.String("state.to", string(to)),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return Outcome{Matched: true, Conversation: reg.name(), From: from, To: to}, err
	}
	return Outcome{}, nil
}

// Active returns the state of the actor's session for conv.
func (e *Engine) Active(actor int64, conv string) (State, bool) {
	s := e.session(actor, conv)
	if s == nil {
		return "", false
	}
	return s.state, true
}

// Reset drops every session of actor.
func (e *Engine) Reset(actor int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k := range e.sessions {
		if k.actor == actor {
			delete(e.sessions, k)
		}
	}
}

func (e *Engine) actorLock(actor int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.actors[actor]
	if !ok {
		l = &sync.Mutex{}
		e.actors[actor] = l
	}
	return l
}

func (e *Engine) session(actor int64, conv string) *session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[sessionKey{actor, conv}]
}

func (e *Engine) store(actor int64, conv string, next State, data any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	k := sessionKey{actor, conv}
	if next == End {
		delete(e.sessions, k)
		return
	}
	e.sessions[k] = &session{state: next, data: data}
}

type typed[C any] struct {
	def Definition[C]
}

func (r *typed[C]) name() string { return r.def.Name }

func firstMatch[C any](in transport.Input, sets ...[]Route[C]) Handler[C] {
	for _, routes := range sets {
		for _, route := range routes {
			if route.Match(in) {
				return route.Handle
			}
		}
	}
	return nil
}

func (r *typed[C]) newContext() *C {
	if r.def.NewContext != nil {
		return r.def.NewContext()
	}
	return new(C)
}

func (r *typed[C]) step(ctx context.Context, e *Engine, ev Event, s *session) (bool, State, State, error) {
	var (
		handler Handler[C]
		data    *C
		from    State
	)
	if s != nil {
		from = s.state
		data, _ = s.data.(*C)
		handler = firstMatch(ev.Input, r.def.States[s.state], r.def.Fallbacks)
	} else {
		handler = firstMatch(ev.Input, r.def.Entry)
	}
	if handler == nil {
		return false, from, from, nil
	}
	if data == nil {
		data = r.newContext()
	}

	turn := &Turn[C]{Actor: ev.Actor, Input: ev.Input, State: from, Ctx: data, out: &transport.Outbox{}, e: e}
	log := e.logger.With(append(observability.TraceFields(ctx),
		zap.String("conversation", r.def.Name),
		zap.Int64("chat_id", ev.Actor),
		zap.String("state", string(from)),
	)...)

	next, err, stack := run(ctx, handler, turn)
	if err == nil && next != End {
		if _, ok := r.def.States[next]; !ok {
			err = fmt.Errorf("handler returned undeclared state %q", next)
		}
	}

	switch {
	case err == nil:
		turn.Flush(ctx)
		e.store(ev.Actor, r.def.Name, next, data)
		log.Debug("step", zap.String("next", string(next)))
		return true, from, next, nil

	case errors.Is(err, ErrUnknownEntity):
		turn.Discard()
		log.Warn("unknown entity", zap.Error(err))
		turn.ReplyText(e.texts.Generic)
		if r.def.AfterError != nil {
			r.def.AfterError(ctx, turn)
		}
		turn.Flush(ctx)
		e.store(ev.Actor, r.def.Name, End, nil)
		return true, from, End, nil

	default:
		turn.Discard()
		log.Error("step failed", zap.Error(err), zap.String("stack", stack))
		if e.reporter != nil {
			e.reporter.Report(ctx, Report{
				Persona:      e.persona,
				Conversation: r.def.Name,
				Actor:        ev.Actor,
				State:        from,
				Input:        ev.Input,
				Context:      fmt.Sprintf("%+v", *data),
				Err:          err,
				Stack:        stack,
			})
		}
		turn.ReplyText(e.texts.Apology)
		turn.Flush(ctx)
		e.store(ev.Actor, r.def.Name, End, nil)
		return true, from, End, fmt.Errorf("%s/%s in state %q: %w", e.persona, r.def.Name, from, err)
	}
}

func run[C any](ctx context.Context, h Handler[C], t *Turn[C]) (next State, err error, stack string) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, p)
			stack = string(debug.Stack())
		}
	}()
	next, err = h(ctx, t)
	if err != nil {
		stack = fmt.Sprintf("%+v", err)
	}
	return next, err, stack
}
