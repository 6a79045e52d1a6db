package scan_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dragonfair/internal/scan"
)

func TestDecode(t *testing.T) {
	id := uuid.MustParse("6f1c2a3e-8f4b-4d2a-9c1e-2b3a4c5d6e7f")
	cases := []struct {
		name    string
		payload string
		ok      bool
	}{
		{"bare", id.String(), true},
		{"padded", "  " + id.String() + "\n", true},
		{"urn", "urn:uuid:" + id.String(), true},
		{"urn upper", "URN:UUID:" + id.String(), true},
		{"braces", "{" + id.String() + "}", true},
		{"other urn", "urn:isbn:0451450523", false},
		{"nil uuid", uuid.Nil.String(), false},
		{"text", "hello", false},
		{"empty", "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := scan.Decoder{}.Decode([]byte(c.payload))
			assert.Equal(t, c.ok, ok)
			if c.ok {
				assert.Equal(t, id, got)
			}
		})
	}
}

func TestDecode_Property_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := rapid.SliceOfN(rapid.Byte(), 16, 16).Draw(t, "bytes")
		id, err := uuid.FromBytes(b)
		if err != nil || id == uuid.Nil {
			t.Skip("nil uuid")
		}
		got, ok := scan.Decoder{}.Decode([]byte(id.String()))
		if !ok || got != id {
			t.Fatalf("decode(%s) = %s, %v", id, got, ok)
		}
	})
}
