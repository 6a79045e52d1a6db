package telnet

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dragonfair/internal/storage"
	"github.com/cory-johannsen/dragonfair/internal/transport"
)

// DefaultMaxAuthAttempts applies when the configured bound is not positive.
const DefaultMaxAuthAttempts = 3

const banner = "\r\n" + Bold + BrightYellow + "  Dragonfair" + Reset + "\r\n\r\n" +
	"  Enter your channel number and access code.\r\n" +
	"  Type " + Green + "/photo <code>" + Reset + " to send a scan, " +
	Green + "/cb <data>" + Reset + " to press an inline button, " +
	Green + "/quit" + Reset + " to leave.\r\n\r\n"

// Dispatcher routes input from an authenticated channel to its persona.
type Dispatcher interface {
	Handle(ctx context.Context, ch storage.Channel, in transport.Input) error
}

// Gateway authenticates telnet clients against granted channels, feeds
// their input to a Dispatcher and delivers outbound messages to every
// client connected to the target chat. Delivery is at most once: a message
// to a chat nobody is connected to is dropped.
type Gateway struct {
	channels    storage.Channels
	maxAttempts int
	logger      *zap.Logger

	mu         sync.RWMutex
	dispatcher Dispatcher
	conns      map[int64]map[*Conn]struct{}
}

var (
	_ SessionHandler   = (*Gateway)(nil)
	_ transport.Sender = (*Gateway)(nil)
)

// NewGateway creates a Gateway. Bind must be called before clients connect.
//
// Precondition: channels and logger must be non-nil.
func NewGateway(channels storage.Channels, maxAttempts int, logger *zap.Logger) *Gateway {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAuthAttempts
	}
	return &Gateway{
		channels:    channels,
		maxAttempts: maxAttempts,
		logger:      logger,
		conns:       make(map[int64]map[*Conn]struct{}),
	}
}

// Bind sets the dispatcher that receives input.
func (g *Gateway) Bind(d Dispatcher) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dispatcher = d
}

// HandleSession authenticates the client and relays its input until it
// quits, disconnects or ctx ends.
func (g *Gateway) HandleSession(ctx context.Context, conn *Conn) error {
	if err := conn.Write([]byte(banner)); err != nil {
		return fmt.Errorf("sending banner: %w", err)
	}
	ch, ok, err := g.authenticate(ctx, conn)
	if err != nil || !ok {
		return err
	}
	g.attach(ch.ChatID, conn)
	defer g.detach(ch.ChatID, conn)

	log := g.logger.With(zap.Int64("chat_id", ch.ChatID), zap.String("persona", string(ch.Persona)))
	log.Info("channel connected", zap.String("remote_addr", conn.RemoteAddr().String()))
	if err := conn.WriteLine(Colorf(BrightGreen, "Connected to %s channel %q (chat %d).", ch.Persona, ch.Label, ch.ChatID)); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			_ = conn.WriteLine(Colorize(Yellow, "Server shutting down. Goodbye!"))
			return err
		}
		line, err := conn.ReadLine()
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		in, ok := ParseInput(line)
		if !ok {
			continue
		}
		if in.Kind == transport.Command && strings.EqualFold(in.Text, "quit") {
			_ = conn.WriteLine(Colorize(Cyan, "Goodbye!"))
			return nil
		}
		if err := g.dispatch(ctx, ch, in); err != nil {
			// Already reported to the master chat by the engine.
			log.Debug("dispatch failed", zap.Error(err))
		}
	}
}

func (g *Gateway) dispatch(ctx context.Context, ch storage.Channel, in transport.Input) error {
	g.mu.RLock()
	d := g.dispatcher
	g.mu.RUnlock()
	if d == nil {
		return errors.New("gateway has no dispatcher")
	}
	return d.Handle(ctx, ch, in)
}

// authenticate asks for a channel and its access code.
//
// Postcondition: ok is false when the client used up its attempts.
func (g *Gateway) authenticate(ctx context.Context, conn *Conn) (ch storage.Channel, ok bool, err error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := conn.WritePrompt(Colorize(BrightWhite, "Channel: ")); err != nil {
			return ch, false, err
		}
		line, err := conn.ReadLine()
		if err != nil {
			return ch, false, fmt.Errorf("reading channel: %w", err)
		}
		chatID, perr := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
		if perr != nil {
			_ = conn.WriteLine(Colorize(Red, "The channel is a number."))
			continue
		}
		if err := conn.WritePrompt(Colorize(BrightWhite, "Access code: ")); err != nil {
			return ch, false, err
		}
		code, err := conn.ReadSecret()
		if err != nil {
			return ch, false, fmt.Errorf("reading access code: %w", err)
		}

		ch, err = g.channels.Authenticate(ctx, chatID, code)
		switch {
		case err == nil:
			return ch, true, nil
		case errors.Is(err, storage.ErrChannelNotFound), errors.Is(err, storage.ErrInvalidAccessCode):
			g.logger.Warn("channel access denied",
				zap.Int64("chat_id", chatID),
				zap.Int("attempt", attempt),
				zap.String("remote_addr", conn.RemoteAddr().String()),
			)
			_ = conn.WriteLine(Colorize(Red, "Access denied."))
		default:
			g.logger.Error("channel authentication failed", zap.Int64("chat_id", chatID), zap.Error(err))
			_ = conn.WriteLine(Colorize(Red, "An internal error occurred. Please try again."))
		}
	}
	_ = conn.WriteLine(Colorize(Red, "Too many attempts. Goodbye."))
	return storage.Channel{}, false, nil
}

func (g *Gateway) attach(chatID int64, conn *Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	set, ok := g.conns[chatID]
	if !ok {
		set = make(map[*Conn]struct{})
		g.conns[chatID] = set
	}
	set[conn] = struct{}{}
}

func (g *Gateway) detach(chatID int64, conn *Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.conns[chatID], conn)
	if len(g.conns[chatID]) == 0 {
		delete(g.conns, chatID)
	}
}

// Connected reports how many clients are connected to chatID.
func (g *Gateway) Connected(chatID int64) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.conns[chatID])
}

// Send renders msg to every client of chatID. An attachment sent as bytes
// is given a fresh handle, returned in the receipt. A message for a chat
// with no client is dropped and yields an empty receipt.
func (g *Gateway) Send(_ context.Context, chatID int64, msg transport.Message) (transport.Receipt, error) {
	g.mu.RLock()
	targets := make([]*Conn, 0, len(g.conns[chatID]))
	for c := range g.conns[chatID] {
		targets = append(targets, c)
	}
	g.mu.RUnlock()
	if len(targets) == 0 {
		g.logger.Debug("no client connected, message dropped", zap.Int64("chat_id", chatID))
		return transport.Receipt{}, nil
	}

	var receipt transport.Receipt
	if msg.Media != nil {
		media := *msg.Media
		if media.Handle == "" {
			media.Handle = uuid.NewString()
		}
		media.Data = nil
		msg.Media = &media
		receipt.MediaHandle = media.Handle
	}

	out := []byte(Render(msg))
	var errs []error
	for _, c := range targets {
		if err := c.Write(out); err != nil {
			errs = append(errs, fmt.Errorf("writing to %s: %w", c.RemoteAddr(), err))
		}
	}
	return receipt, errors.Join(errs...)
}
