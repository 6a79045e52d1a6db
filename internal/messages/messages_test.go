package messages_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/messages"
	"github.com/cory-johannsen/dragonfair/internal/transport"
)

func TestDefaultCatalogParses(t *testing.T) {
	c, err := messages.Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ErrorTexts().Generic)
	assert.NotEmpty(t, c.ErrorTexts().Apology)
	assert.Equal(t, "Cancel", c.Label("cancel"))
	assert.Equal(t, "nope", c.Label("nope"))
}

func TestMessage_Keyboards(t *testing.T) {
	c := messages.Default()
	h := &hero.Hero{Name: "Thrall", Scores: hero.Scores{Wisdom: 3}}

	msg, err := c.Message("staff", "visit", map[string]any{"hero": h})
	require.NoError(t, err)
	assert.Equal(t, "Thrall may train one ability. Which one?", msg.Text)
	assert.Equal(t, [][]string{{"Constitution", "Strength"}, {"Dexterity", "Wisdom"}, {"Cancel"}}, msg.Keyboard)

	msg, err = c.Message("gossip", "visit", map[string]any{"hero": h})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Accept"}, {"Cancel"}}, msg.Keyboard)

	msg, err = c.Message("colors", "dice", map[string]any{"hero": h})
	require.NoError(t, err)
	assert.Contains(t, msg.Text, "+3")
	require.Len(t, msg.Keyboard, 5)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, msg.Keyboard[0])
	assert.Equal(t, []string{"16", "17", "18", "19", "20"}, msg.Keyboard[3])
	assert.Equal(t, []string{"Cancel"}, msg.Keyboard[4])

	msg, err = c.Message("hero", "level_up", map[string]any{"hero": h, "level": 3})
	require.NoError(t, err)
	assert.Equal(t, [][]transport.Button{{{Label: "Raise an ability", Data: "ability_increase"}}}, msg.Inline)

	msg, err = c.Message("master", "inspiration", map[string]any{
		"horde_inspiration": true, "alliance_inspiration": false,
	})
	require.NoError(t, err)
	assert.Equal(t, "Inspiration: Horde yes, Alliance no.", msg.Text)
	assert.True(t, msg.RemoveKeyboard)
}

func TestMessage_Errors(t *testing.T) {
	c := messages.Default()
	_, err := c.Message("staff", "nope", nil)
	assert.ErrorIs(t, err, messages.ErrUnknownMessage)

	_, err = c.Message("staff", "visit", map[string]any{})
	assert.Error(t, err, "missing template data")
}

func TestHeroText(t *testing.T) {
	c := messages.Default()
	text, err := c.HeroText("colors", "d20", nil)
	require.NoError(t, err)
	assert.Equal(t, "Your colors are legendary.", text)

	text, err = c.HeroText("staff", "help", nil)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestKeyAndMatcher(t *testing.T) {
	c := messages.Default()

	k, ok := c.Key(transport.TextInput("  horde INSPIRED "))
	require.True(t, ok)
	assert.Equal(t, "horde_inspiration", k)

	k, ok = c.Key(transport.TextInput("wisdom"))
	require.True(t, ok)
	assert.Equal(t, "wisdom", k)

	k, ok = c.Key(transport.CallbackInput("ability_increase"))
	require.True(t, ok)
	assert.Equal(t, "ability_increase", k)

	_, ok = c.Key(transport.CallbackInput("bogus"))
	assert.False(t, ok)
	_, ok = c.Key(transport.PhotoInput([]byte("x")))
	assert.False(t, ok)

	m := c.Matcher("constitution", "strength")
	assert.True(t, m(transport.TextInput("Strength")))
	assert.False(t, m(transport.TextInput("Wisdom")))
	assert.False(t, m(transport.CommandInput("strength")))
}

func TestLayout(t *testing.T) {
	c := messages.Default()
	assert.Nil(t, c.Layout(nil))
	assert.Equal(t, [][]string{{"Accept"}, {"Cancel"}}, c.Layout([]string{"accept", "cancel"}))
	assert.Equal(t, [][]string{{"Accept", "Cancel"}, {"Help"}}, c.Layout([]string{"accept", "cancel", "help"}))
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown field":  "bogus: 1\nbuttons: {cancel: C}\n",
		"missing cancel": "buttons: {ok: OK}\n",
		"unlabelled":     "buttons: {cancel: C}\npersonas: {p: {k: {text: x, buttons: [ok]}}}\n",
		"bad template":   "buttons: {cancel: C}\npersonas: {p: {k: {text: '{{.x'}}}\n",
		"shared label":   "buttons: {cancel: C, other: c}\n",
	}
	for name, doc := range cases {
		_, err := messages.Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
errors: {generic: G, apology: A}
buttons: {cancel: Stop}
personas:
  p:
    k: {text: "hi {{.name}}", buttons: [cancel]}
`), 0o644))
	c, err := messages.Load(path)
	require.NoError(t, err)
	msg, err := c.Message("p", "k", map[string]any{"name": "x"})
	require.NoError(t, err)
	assert.Equal(t, "hi x", msg.Text)
	assert.Equal(t, [][]string{{"Stop"}}, msg.Keyboard)
	assert.Equal(t, "G", c.ErrorTexts().Generic)

	_, err = messages.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
