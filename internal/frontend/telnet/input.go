package telnet

import (
	"strings"

	"github.com/cory-johannsen/dragonfair/internal/transport"
)

// ParseInput turns a typed line into chat input:
//
//	/photo <payload>  a photo whose content is payload
//	/cb <data>        an inline button press
//	/<name>           a command
//	anything else     text
//
// Blank lines report false.
func ParseInput(line string) (transport.Input, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return transport.Input{}, false
	}
	if !strings.HasPrefix(line, "/") || len(line) == 1 {
		return transport.TextInput(line), true
	}
	name, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(name) {
	case "photo":
		return transport.PhotoInput([]byte(rest)), true
	case "cb":
		if rest == "" {
			return transport.Input{}, false
		}
		return transport.CallbackInput(rest), true
	}
	return transport.CommandInput(name), true
}
