// Package scan turns the opaque payload of a scanned code into the UUID of
// a hero or monster.
package scan

import (
	"strings"

	"github.com/google/uuid"
)

const urnPrefix = "urn:uuid:"

// Decoder extracts entity identities from scan payloads.
type Decoder struct{}

// Decode returns the UUID carried by payload. A bare UUID (with or without
// braces) and the urn:uuid: form are accepted; anything else reports false.
func (Decoder) Decode(payload []byte) (uuid.UUID, bool) {
	s := strings.TrimSpace(string(payload))
	if len(s) >= len(urnPrefix) && strings.EqualFold(s[:len(urnPrefix)], urnPrefix) {
		s = s[len(urnPrefix):]
	} else if strings.HasPrefix(strings.ToLower(s), "urn:") {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
