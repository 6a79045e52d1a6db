package fight_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dragonfair/internal/conversation"
	"github.com/cory-johannsen/dragonfair/internal/game/dice"
	"github.com/cory-johannsen/dragonfair/internal/game/fight"
	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/game/progression"
	"github.com/cory-johannsen/dragonfair/internal/messages"
	"github.com/cory-johannsen/dragonfair/internal/storage"
	"github.com/cory-johannsen/dragonfair/internal/storage/memory"
	"github.com/cory-johannsen/dragonfair/internal/testutil"
	"github.com/cory-johannsen/dragonfair/internal/transport"
)

const (
	masterChat   = int64(100)
	hordeChat    = int64(200)
	allianceChat = int64(300)
)

type firstSource struct{}

func (firstSource) Intn(int) int { return 0 }

type projections struct {
	mu   sync.Mutex
	seen []hero.Projection
}

func (p *projections) Publish(pr hero.Projection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, pr)
}

func (p *projections) last() hero.Projection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seen[len(p.seen)-1]
}

type arena struct {
	t       *testing.T
	store   *memory.Store
	sender  *testutil.RecordingSender
	engine  *conversation.Engine
	catalog *messages.Catalog
	feed    *projections
	pauses  []time.Duration
	horde   *hero.Hero
	ally    *hero.Hero
}

func newArena(t *testing.T, horde, ally *hero.Hero) *arena {
	t.Helper()
	ctx := context.Background()
	a := &arena{
		t:       t,
		store:   memory.New(),
		sender:  testutil.NewRecordingSender(),
		catalog: messages.Default(),
		feed:    &projections{},
		horde:   horde,
		ally:    ally,
	}
	require.NoError(t, a.store.InTx(ctx, func(tx storage.Tx) error {
		for _, l := range []hero.Level{{ID: 1}, {ID: 2, XPToGain: 5}, {ID: 3, XPToGain: 50}} {
			if err := tx.UpsertLevel(ctx, l); err != nil {
				return err
			}
		}
		for _, h := range []*hero.Hero{horde, ally} {
			if h == nil {
				continue
			}
			if err := tx.UpsertHero(ctx, h); err != nil {
				return err
			}
		}
		return nil
	}))

	logger := zaptest.NewLogger(t)
	orch := fight.NewOrchestrator(
		a.store,
		progression.NewEngine(logger),
		a.catalog,
		dice.NewLoggedRoller(firstSource{}, logger),
		fight.Config{
			MasterChatID:   masterChat,
			HordeChatID:    hordeChat,
			AllianceChatID: allianceChat,
			VictoryXP:      10,
			RevealDelay:    3 * time.Second,
			ResetDelay:     5 * time.Second,
		},
		logger,
		fight.WithPublisher(a.feed),
		fight.WithPause(func(_ context.Context, d time.Duration) error {
			a.pauses = append(a.pauses, d)
			return nil
		}),
	)
	a.engine = conversation.NewEngine("master", logger, a.sender)
	conversation.MustRegister(a.engine, orch.Definition())
	return a
}

func fighters() (*hero.Hero, *hero.Hero) {
	horde := &hero.Hero{
		ChatID: 1, UUID: uuid.New(), Name: "Thrall", Faction: hero.Horde, LevelID: 1,
		Scores: hero.Scores{Constitution: 5, Strength: 3, Dexterity: 2},
	}
	ally := &hero.Hero{
		ChatID: 2, UUID: uuid.New(), Name: "Jaina", Faction: hero.Alliance, LevelID: 1,
	}
	return horde, ally
}

// press sends the label of a master button.
func (a *arena) press(key string) conversation.Outcome {
	a.t.Helper()
	return a.send(transport.TextInput(a.catalog.Label(key)))
}

func (a *arena) roll(face string) conversation.Outcome {
	a.t.Helper()
	return a.send(transport.TextInput(face))
}

func (a *arena) send(in transport.Input) conversation.Outcome {
	a.t.Helper()
	out, err := a.engine.Dispatch(context.Background(), conversation.Event{Actor: masterChat, Input: in})
	require.NoError(a.t, err)
	require.True(a.t, out.Matched, "input %q not matched", in.Text)
	return out
}

func (a *arena) logs() []hero.FightLog {
	a.t.Helper()
	var rows []hero.FightLog
	ctx := context.Background()
	require.NoError(a.t, a.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		rows, err = tx.FightLogs(ctx)
		return err
	}))
	return rows
}

func (a *arena) hero(id int64) *hero.Hero {
	a.t.Helper()
	var h *hero.Hero
	ctx := context.Background()
	require.NoError(a.t, a.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		h, err = tx.HeroByID(ctx, id)
		return err
	}))
	return h
}

// prelude runs the duel up to the horde initiative roll with no
// inspiration, exploit or defense.
func (a *arena) prelude() {
	a.t.Helper()
	assert.Equal(a.t, fight.StateInspiration, a.press("start_new_fight").To)
	assert.Equal(a.t, fight.StateVulnerabilityUse, a.press("none_inspiration").To)
	assert.Equal(a.t, fight.StateVulnerabilityDef, a.press("none_use_vulnerability").To)
	assert.Equal(a.t, fight.StateHordeInitiative, a.press("none_def_vulnerability").To)
}

func TestDuel_SingleBlowVictory(t *testing.T) {
	horde, ally := fighters()
	a := newArena(t, horde, ally)
	a.prelude()

	setup := a.logs()[0]
	assert.Equal(t, 15, *setup.Horde.Health)
	assert.Equal(t, 10, *setup.Alliance.Health)
	assert.True(t, a.hero(horde.ID).HasBeenInFight)
	assert.True(t, a.hero(ally.ID).HasBeenInFight)

	assert.Equal(t, fight.StateAllianceInitiative, a.roll("10").To)
	assert.Equal(t, fight.StateHordeAttack, a.roll("5").To)
	assert.Equal(t, fight.StateAllianceDefense, a.roll("20").To)
	out := a.roll("2")
	assert.Equal(t, conversation.End, out.To)

	_, active := a.engine.Active(masterChat, fight.Name)
	assert.False(t, active)

	rows := a.logs()
	last := rows[len(rows)-1]
	require.NotNil(t, last.Alliance.Health)
	assert.Equal(t, 0, *last.Alliance.Health)
	require.NotNil(t, last.Horde.Victory)
	assert.True(t, *last.Horde.Victory)
	assert.Nil(t, last.Horde.Health)
	assert.Len(t, rows, 11)

	p := a.feed.last()
	assert.Equal(t, fight.IconDefeated, p.Alliance.Icon)
	assert.Equal(t, 0, p.Alliance.Health)
	assert.Equal(t, fight.IconAttackResult, p.Horde.Icon)

	winner := a.hero(horde.ID)
	assert.Equal(t, 2, winner.LevelID)
	assert.Equal(t, 5, winner.XP)
	assert.Equal(t, 1, winner.AvailablePoints)

	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second}, a.pauses)

	final, ok := a.sender.Last(masterChat)
	require.True(t, ok)
	assert.Equal(t, "The Horde wins!", final.Text)
	assert.Contains(t, a.sender.Texts(hordeChat), "Thrall strikes true: critical success!")
	assert.Contains(t, a.sender.Texts(allianceChat), "Defense 2 (rolled 2). Jaina falls.")
}

func TestDuel_RolesSwapAfterRound(t *testing.T) {
	horde, ally := fighters()
	a := newArena(t, horde, ally)
	a.prelude()

	a.roll("10")
	a.roll("5")
	a.roll("5")
	// attack 8 against defense 3 leaves Jaina at 5
	assert.Equal(t, fight.StateAllianceAttack, a.roll("3").To)
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second, 5 * time.Second}, a.pauses)

	p := a.feed.last()
	assert.Equal(t, 5, p.Alliance.Health)
	assert.Equal(t, fight.IconAttacker, p.Alliance.Icon)
	assert.Equal(t, fight.ColorGood, p.Alliance.Color)
	assert.Equal(t, fight.IconDefender, p.Horde.Icon)

	assert.Equal(t, fight.StateHordeDefense, a.roll("20").To)
	// attack 20 against defense 7 leaves Thrall at 2
	assert.Equal(t, fight.StateHordeAttack, a.roll("2").To)
	assert.Equal(t, 2, a.feed.last().Horde.Health)

	a.roll("10")
	assert.Equal(t, conversation.End, a.roll("2").To)
	assert.Equal(t, 0, a.feed.last().Alliance.Health)
}

func TestDuel_ExploitedWeaknessCostsDexterity(t *testing.T) {
	horde, ally := fighters()
	a := newArena(t, horde, ally)
	ctx := context.Background()
	require.NoError(t, a.store.InTx(ctx, func(tx storage.Tx) error {
		_, err := tx.AddEdge(ctx, hero.KnownVulnerability{WiseHeroID: ally.ID, TargetHeroID: horde.ID})
		return err
	}))

	a.press("start_new_fight")
	a.press("alliance_inspiration")
	rows := a.logs()
	know := rows[len(rows)-1]
	assert.True(t, *know.Alliance.KnowVulnerability)
	assert.False(t, *know.Horde.KnowVulnerability)

	a.press("alliance_use_vulnerability")
	a.press("none_def_vulnerability")

	p := a.feed.last()
	assert.Equal(t, -3, p.Horde.Dexterity)
	assert.Equal(t, fight.IconPenalized, p.Horde.Icon)
	assert.Equal(t, 0, p.Alliance.Dexterity)
	assert.Equal(t, "", p.Alliance.Icon)
	assert.Contains(t, a.sender.Texts(hordeChat), "Jaina exploits your weakness. Dexterity: -3.")

	// initiative 12-3=9 against 10: the alliance attacks first
	a.roll("12")
	assert.Equal(t, fight.StateAllianceAttack, a.roll("10").To)
}

func TestDuel_NoFightPossible(t *testing.T) {
	horde, _ := fighters()
	a := newArena(t, horde, nil)
	out := a.press("start_new_fight")
	assert.Equal(t, conversation.End, out.To)
	last, ok := a.sender.Last(masterChat)
	require.True(t, ok)
	assert.Contains(t, last.Text, "No fight is possible")
	assert.Empty(t, a.logs())
	assert.False(t, a.hero(horde.ID).HasBeenInFight)
}

func TestDuel_Cancel(t *testing.T) {
	horde, ally := fighters()
	a := newArena(t, horde, ally)
	a.press("start_new_fight")
	assert.Equal(t, conversation.End, a.press("cancel").To)
	_, active := a.engine.Active(masterChat, fight.Name)
	assert.False(t, active)
}

func TestDuel_FightersAreNotPickedTwice(t *testing.T) {
	horde, ally := fighters()
	a := newArena(t, horde, ally)
	a.press("start_new_fight")
	a.press("cancel")
	assert.Equal(t, conversation.End, a.press("start_new_fight").To)
	last, _ := a.sender.Last(masterChat)
	assert.Contains(t, last.Text, "No fight is possible")
}
