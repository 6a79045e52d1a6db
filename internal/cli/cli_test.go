package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dragonfair/internal/cli"
	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/storage"
	"github.com/cory-johannsen/dragonfair/internal/storage/memory"
)

func run(t *testing.T, store *memory.Store, args ...string) (string, error) {
	t.Helper()
	open := func(context.Context, string) (storage.Store, error) { return store, nil }
	cmd := cli.NewRootCommand(open, zaptest.NewLogger(t))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func contentDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"levels.yaml": "- id: 1\n  xp_to_gain: 0\n- id: 2\n  xp_to_gain: 5\n",
		"heroes.yaml": `
- uuid: 6f1c2a3e-8f4b-4d2a-9c1e-2b3a4c5d6e7f
  chat_id: 1
  name: Thrall
  faction: horde
  vulnerability: ice
- uuid: 7a2d3b4f-9a5c-4e3b-8d2f-3c4b5d6e7f80
  chat_id: 2
  name: Jaina
  faction: alliance
  vulnerability: fire
`,
		"channels.yaml": "- chat_id: 100\n  persona: master\n  label: Game master\n  code: s3cret\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestImport(t *testing.T) {
	store := memory.New()
	out, err := run(t, store, "import", "--dir", contentDir(t))
	require.NoError(t, err)
	assert.Equal(t, "imported 2 levels, 2 heroes, 0 monsters, 0 stations, 0 questions, 1 channels\n", out)

	ch, err := store.Channels().Authenticate(context.Background(), 100, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, storage.PersonaMaster, ch.Persona)
}

func TestImport_MissingDirFails(t *testing.T) {
	_, err := run(t, memory.New(), "import", "--dir", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestChannelGrantAndList(t *testing.T) {
	store := memory.New()
	out, err := run(t, store, "channel", "grant", "--chat", "11", "--persona", "Staff", "--label", "Staff tent", "--code", "oak")
	require.NoError(t, err)
	assert.Equal(t, "chat 11 -> staff (Staff tent)\n", out)

	_, err = run(t, store, "channel", "grant", "--chat", "12", "--persona", "wizard", "--code", "x")
	require.ErrorIs(t, err, storage.ErrUnknownPersona)

	out, err = run(t, store, "channel", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "CHAT")
	assert.Contains(t, out, "11    staff")

	out, err = run(t, store, "--format", "json", "channel", "list")
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Staff tent", rows[0]["label"])
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, memory.New(), "--format", "xml", "channel", "list")
	require.ErrorContains(t, err, "invalid format")
}

func TestReportFights(t *testing.T) {
	store := memory.New()
	_, err := run(t, store, "import", "--dir", contentDir(t))
	require.NoError(t, err)

	ten, win := 10, true
	require.NoError(t, store.InTx(context.Background(), func(tx storage.Tx) error {
		h, err := tx.HeroByChat(context.Background(), 1)
		if err != nil {
			return err
		}
		a, err := tx.HeroByChat(context.Background(), 2)
		if err != nil {
			return err
		}
		if err := tx.AppendFightLog(context.Background(), &hero.FightLog{
			HordeHeroID: h.ID, AllianceHeroID: a.ID,
			Horde: hero.FightSide{Health: &ten}, Alliance: hero.FightSide{Health: &ten},
		}); err != nil {
			return err
		}
		return tx.AppendFightLog(context.Background(), &hero.FightLog{
			HordeHeroID: h.ID, AllianceHeroID: a.ID,
			Horde: hero.FightSide{Victory: &win},
		})
	}))

	path := filepath.Join(t.TempDir(), "fights.pdf")
	out, err := run(t, store, "report", "fights", "--out", path)
	require.NoError(t, err)
	assert.Equal(t, "1 fights written to "+path+"\n", out)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestProjectionShow(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.InTx(context.Background(), func(tx storage.Tx) error {
		var p hero.Projection
		p.Horde = hero.ProjectionSide{Name: "Thrall", Level: 2, Health: 14, Scores: hero.Scores{Constitution: 4}}
		return tx.SaveProjection(context.Background(), p)
	}))

	out, err := run(t, store, "projection", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "horde    Thrall, level 2, health 14, CON 4")
	assert.Contains(t, out, "alliance (empty)")

	out, err = run(t, store, "--format", "json", "projection", "show")
	require.NoError(t, err)
	var p hero.Projection
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "Thrall", p.Horde.Name)
}
