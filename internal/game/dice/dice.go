// Package dice provides the randomness abstraction and d20 face handling
// shared by every check in the event.
package dice

// Sides is the number of faces on the event die.
const Sides = 20

// Source is the randomness provider for rolls and random selection.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Pick returns a uniformly random element of items.
//
// Postcondition: ok is false iff items is empty.
func Pick[T any](src Source, items []T) (item T, ok bool) {
	if len(items) == 0 {
		return item, false
	}
	return items[src.Intn(len(items))], true
}

// Faces returns the die faces 1..Sides as strings, in order.
func Faces() []string {
	faces := make([]string, Sides)
	for i := range faces {
		faces[i] = itoa(i + 1)
	}
	return faces
}

func itoa(n int) string {
	if n < 10 {
		return string(rune('0' + n))
	}
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}
