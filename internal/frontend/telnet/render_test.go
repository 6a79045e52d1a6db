package telnet_test

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dragonfair/internal/frontend/telnet"
	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/messages"
	"github.com/cory-johannsen/dragonfair/internal/transport"
)

func TestRender_Golden(t *testing.T) {
	cat := messages.Default()
	dice, err := cat.Message("master", "horde_initiative", nil)
	require.NoError(t, err)
	levelUp, err := cat.Message("hero", "level_up", map[string]any{
		"hero":  &hero.Hero{AvailablePoints: 2},
		"level": 3,
	})
	require.NoError(t, err)

	cases := []struct {
		name string
		msg  transport.Message
	}{
		{"dice_keyboard", dice},
		{"inline_button", levelUp},
		{"photo_caption", transport.Message{
			Text:     "Show this code at the stations.",
			Media:    &transport.Media{Kind: transport.PhotoMedia, Name: "qr/thrall.png", Handle: "h-1"},
			Keyboard: cat.Layout([]string{"hero", "qr", "known_vulnerabilities"}),
		}},
		{"voice_multiline", transport.Message{
			Text:           "Answer the question\nyou just heard.",
			Media:          &transport.Media{Kind: transport.VoiceMedia, Name: "audio/1.ogg", Handle: "h-2"},
			RemoveKeyboard: true,
		}},
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g.Assert(t, tc.name, []byte(telnet.StripANSI(telnet.Render(tc.msg))))
		})
	}
}

func TestRender_ColorsButtons(t *testing.T) {
	out := telnet.Render(transport.Message{Keyboard: [][]string{{"Cancel"}}})
	assert.Equal(t, telnet.Cyan+"[ Cancel ]"+telnet.Reset+"\r\n", out)
}

func TestRender_EmptyMessage(t *testing.T) {
	assert.Empty(t, telnet.Render(transport.Message{RemoveKeyboard: true}))
}

func TestStripANSI(t *testing.T) {
	in := telnet.Colorize(telnet.Red, "red") + " plain " + telnet.Bold + telnet.Colorize(telnet.Green, "bold")
	assert.Equal(t, "red plain bold", telnet.StripANSI(in))
	assert.Equal(t, "no escapes", telnet.StripANSI("no escapes"))
}
