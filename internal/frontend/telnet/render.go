package telnet

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/dragonfair/internal/transport"
)

// Render lays out msg for a terminal: the attachment line, the text, then
// one line per keyboard row and per inline row. Lines end in CRLF.
func Render(msg transport.Message) string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteString("\r\n")
	}
	if m := msg.Media; m != nil {
		kind := "photo"
		if m.Kind == transport.VoiceMedia {
			kind = "voice"
		}
		line(Colorf(Dim, "[%s %s #%s]", kind, m.Name, m.Handle))
	}
	if msg.Text != "" {
		line(crlf(msg.Text))
	}
	for _, row := range msg.Keyboard {
		keys := make([]string, len(row))
		for i, label := range row {
			keys[i] = Colorize(Cyan, "[ "+label+" ]")
		}
		line(strings.Join(keys, " "))
	}
	for _, row := range msg.Inline {
		buttons := make([]string, len(row))
		for i, btn := range row {
			buttons[i] = Colorize(BrightCyan, fmt.Sprintf("[ %s -> /cb %s ]", btn.Label, btn.Data))
		}
		line(strings.Join(buttons, " "))
	}
	return b.String()
}
