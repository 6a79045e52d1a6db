package dice

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFace is returned when submitted text is not a die face.
var ErrInvalidFace = errors.New("dice: invalid face")

// ParseFace parses a physical die result submitted as text.
//
// Accepts "17", " 17 ", "d20=17" and "d20:17".
// Postcondition: Returns a face in [1, Sides] or an error wrapping ErrInvalidFace.
func ParseFace(text string) (int, error) {
	s := strings.TrimSpace(strings.ToLower(text))
	if rest, ok := strings.CutPrefix(s, "d20"); ok {
		s = strings.TrimLeft(rest, "=: ")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFace, text)
	}
	if n < 1 || n > Sides {
		return 0, fmt.Errorf("%w: %d out of range 1-%d", ErrInvalidFace, n, Sides)
	}
	return n, nil
}

// IsFace reports whether text parses as a die face.
func IsFace(text string) bool {
	_, err := ParseFace(text)
	return err == nil
}
