package conversation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dragonfair/internal/transport"
)

// Report is the operator view of an unhandled step failure.
type Report struct {
	Persona      string
	Conversation string
	Actor        int64
	State        State
	Input        transport.Input
	Context      string
	Err          error
	Stack        string
}

// Reporter sends failure reports to the operator chat.
type Reporter struct {
	sender transport.Sender
	chatID int64
	limit  int
	logger *zap.Logger
}

// NewReporter creates a Reporter posting to chatID.
//
// Precondition: sender and logger must be non-nil.
func NewReporter(sender transport.Sender, chatID int64, logger *zap.Logger) *Reporter {
	return &Reporter{sender: sender, chatID: chatID, limit: transport.MaxMessageLen, logger: logger}
}

// Report sends r as one or more messages.
func (rep *Reporter) Report(ctx context.Context, r Report) {
	for _, msg := range rep.Messages(r) {
		if _, err := rep.sender.Send(ctx, rep.chatID, transport.Message{Text: msg}); err != nil {
			rep.logger.Error("operator report dropped", zap.Error(err))
			return
		}
	}
}

// Messages packs the header, input, context and stack of r into messages
// no longer than the transport limit. Parts are appended to the previous
// message while they fit; a part longer than the limit is split.
func (rep *Reporter) Messages(r Report) []string {
	input := r.Input.Text
	if r.Input.Kind == transport.Photo {
		input = fmt.Sprintf("<%d bytes>", len(r.Input.Payload))
	}
	parts := []string{
		fmt.Sprintf("An exception was raised while handling an update\npersona=%s conversation=%s chat=%d state=%q\n%v",
			r.Persona, r.Conversation, r.Actor, r.State, r.Err),
		fmt.Sprintf("input = %s %q", r.Input.Kind, input),
		"context = " + r.Context,
		r.Stack,
	}
	return Pack(parts, rep.limit)
}

// Pack joins parts into as few messages of at most limit runes as the
// greedy order allows.
//
// Precondition: limit > 0.
func Pack(parts []string, limit int) []string {
	var out []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		block := part + "\n"
		size := len([]rune(block))
		switch {
		case len(out) > 0 && len([]rune(out[len(out)-1]))+size <= limit:
			out[len(out)-1] += block
		case size <= limit:
			out = append(out, block)
		default:
			out = append(out, transport.Chunk(strings.TrimSuffix(block, "\n"), limit)...)
		}
	}
	return out
}
