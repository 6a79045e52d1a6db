package fight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dragonfair/internal/conversation"
	"github.com/cory-johannsen/dragonfair/internal/game/challenge"
	"github.com/cory-johannsen/dragonfair/internal/game/dice"
	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/game/progression"
	"github.com/cory-johannsen/dragonfair/internal/messages"
	"github.com/cory-johannsen/dragonfair/internal/storage"
	"github.com/cory-johannsen/dragonfair/internal/transport"
)

// Name is the conversation name of the duel.
const Name = "fight"

// Duel states in the order a duel visits them.
const (
	StateInspiration        conversation.State = "inspiration"
	StateVulnerabilityUse   conversation.State = "vulnerability_use"
	StateVulnerabilityDef   conversation.State = "vulnerability_def"
	StateHordeInitiative    conversation.State = "horde_initiative"
	StateAllianceInitiative conversation.State = "alliance_initiative"
	StateHordeAttack        conversation.State = "horde_attack"
	StateAllianceAttack     conversation.State = "alliance_attack"
	StateHordeDefense       conversation.State = "horde_defense"
	StateAllianceDefense    conversation.State = "alliance_defense"
)

const (
	masterPersona = "master"
	fightPersona  = "fight"
)

// Fighter is the transient state of one side of a duel.
type Fighter struct {
	HeroID      int64
	Health      int
	Dexterity   int
	Inspiration bool
	Know        bool
	Own         bool
	Use         bool
	Def         bool
	Die         int
	Initiative  int
	Attack      int
}

// Duel is the session context of a running fight.
type Duel struct {
	Horde    Fighter
	Alliance Fighter
	Attacker hero.Faction
}

// Side returns the fighter of f.
func (d *Duel) Side(f hero.Faction) *Fighter {
	if f == hero.Horde {
		return &d.Horde
	}
	return &d.Alliance
}

// Config holds the channels and timings a duel uses.
type Config struct {
	MasterChatID   int64
	HordeChatID    int64
	AllianceChatID int64
	VictoryXP      int
	RevealDelay    time.Duration
	ResetDelay     time.Duration
}

// Channel returns the chat of faction f.
func (c Config) Channel(f hero.Faction) int64 {
	if f == hero.Horde {
		return c.HordeChatID
	}
	return c.AllianceChatID
}

// Publisher receives every committed projection.
type Publisher interface {
	Publish(p hero.Projection)
}

// PauseFunc blocks for d or until ctx is done.
type PauseFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default PauseFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPublisher sets the projection feed.
func WithPublisher(p Publisher) Option { return func(o *Orchestrator) { o.publisher = p } }

// WithPause replaces Sleep.
func WithPause(p PauseFunc) Option { return func(o *Orchestrator) { o.pause = p } }

// Orchestrator drives duels from the master channel.
type Orchestrator struct {
	store       storage.Store
	progression *progression.Engine
	catalog     *messages.Catalog
	roller      *dice.Roller
	cfg         Config
	publisher   Publisher
	pause       PauseFunc
	logger      *zap.Logger
	now         func() time.Time
}

// NewOrchestrator creates an Orchestrator.
//
// Precondition: every argument must be non-nil.
func NewOrchestrator(store storage.Store, prog *progression.Engine, catalog *messages.Catalog, roller *dice.Roller, cfg Config, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:       store,
		progression: prog,
		catalog:     catalog,
		roller:      roller,
		cfg:         cfg,
		pause:       Sleep,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// choices returns the four buttons of a per-side decision.
func choices(suffix string) []string {
	return []string{"horde_" + suffix, "alliance_" + suffix, "both_" + suffix, "none_" + suffix}
}

// chosen decodes a per-side decision button.
func chosen(key string) (horde, alliance bool) {
	switch {
	case strings.HasPrefix(key, "both_"):
		return true, true
	case strings.HasPrefix(key, "horde_"):
		return true, false
	case strings.HasPrefix(key, "alliance_"):
		return false, true
	}
	return false, false
}

// Definition returns the duel conversation for the master persona.
func (o *Orchestrator) Definition() conversation.Definition[Duel] {
	on := conversation.On[Duel]
	die := conversation.IsDie
	return conversation.Definition[Duel]{
		Name:  Name,
		Entry: []conversation.Route[Duel]{on(o.catalog.Matcher("start_new_fight"), o.setup)},
		States: map[conversation.State][]conversation.Route[Duel]{
			StateInspiration:        {on(o.catalog.Matcher(choices("inspiration")...), o.inspiration)},
			StateVulnerabilityUse:   {on(o.catalog.Matcher(choices("use_vulnerability")...), o.vulnerabilityUse)},
			StateVulnerabilityDef:   {on(o.catalog.Matcher(choices("def_vulnerability")...), o.vulnerabilityDef)},
			StateHordeInitiative:    {on(die, o.hordeInitiative)},
			StateAllianceInitiative: {on(die, o.allianceInitiative)},
			StateHordeAttack:        {on(die, o.attack(hero.Horde))},
			StateAllianceAttack:     {on(die, o.attack(hero.Alliance))},
			StateHordeDefense:       {on(die, o.defense(hero.Horde))},
			StateAllianceDefense:    {on(die, o.defense(hero.Alliance))},
		},
		Fallbacks: []conversation.Route[Duel]{on(o.catalog.Matcher("cancel"), o.cancel)},
	}
}

func (o *Orchestrator) cancel(_ context.Context, t *conversation.Turn[Duel]) (conversation.State, error) {
	t.Reply(transport.Message{Text: o.catalog.CancelText(), RemoveKeyboard: true})
	return conversation.End, nil
}

// step is the unit of work of one duel transition.
type step struct {
	tx       storage.Tx
	duel     *Duel
	horde    *hero.Hero
	alliance *hero.Hero
	proj     hero.Projection
	rows     []hero.FightLog
}

func (s *step) hero(f hero.Faction) *hero.Hero {
	if f == hero.Horde {
		return s.horde
	}
	return s.alliance
}

// log appends a sparse row filled by fill.
func (s *step) log(fill func(l *hero.FightLog)) {
	l := hero.FightLog{HordeHeroID: s.duel.Horde.HeroID, AllianceHeroID: s.duel.Alliance.HeroID}
	fill(&l)
	s.rows = append(s.rows, l)
}

// commit loads both fighters and the projection, runs fn, then appends the
// rows fn logged and overwrites the projection in one transaction. The
// projection is published only after the commit.
func (o *Orchestrator) commit(ctx context.Context, d *Duel, fn func(s *step) error) error {
	var proj hero.Projection
	err := o.store.InTx(ctx, func(tx storage.Tx) error {
		s := &step{tx: tx, duel: d}
		var err error
		if s.horde, err = fighter(ctx, tx, d.Horde.HeroID); err != nil {
			return err
		}
		if s.alliance, err = fighter(ctx, tx, d.Alliance.HeroID); err != nil {
			return err
		}
		if s.proj, err = tx.Projection(ctx); err != nil {
			return fmt.Errorf("loading projection: %w", err)
		}
		if err := fn(s); err != nil {
			return err
		}
		at := o.now()
		for i := range s.rows {
			s.rows[i].At = at
			if err := tx.AppendFightLog(ctx, &s.rows[i]); err != nil {
				return fmt.Errorf("appending fight log: %w", err)
			}
		}
		if err := tx.SaveProjection(ctx, s.proj); err != nil {
			return fmt.Errorf("saving projection: %w", err)
		}
		proj = s.proj
		return nil
	})
	if err != nil {
		return err
	}
	o.publish(proj)
	return nil
}

func (o *Orchestrator) publish(p hero.Projection) {
	if o.publisher != nil {
		o.publisher.Publish(p)
	}
}

func fighter(ctx context.Context, tx storage.Tx, id int64) (*hero.Hero, error) {
	h, err := tx.HeroByID(ctx, id)
	if errors.Is(err, hero.ErrHeroNotFound) {
		return nil, fmt.Errorf("%w: fighter %d", conversation.ErrUnknownEntity, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading fighter %d: %w", id, err)
	}
	return h, nil
}

// reply queues a master message.
func (o *Orchestrator) reply(t *conversation.Turn[Duel], key string, data any) error {
	msg, err := o.catalog.Message(masterPersona, key, data)
	if err != nil {
		return err
	}
	t.Reply(msg)
	return nil
}

// announce queues a fight notice to the channel of f.
func (o *Orchestrator) announce(t *conversation.Turn[Duel], f hero.Faction, key string, data any) error {
	text, err := o.catalog.Text(fightPersona, key, data)
	if err != nil {
		return err
	}
	t.Notify(o.cfg.Channel(f), transport.Message{Text: text})
	return nil
}

// criticals announces a natural 1 or 20 to the roller's faction.
func (o *Orchestrator) criticals(t *conversation.Turn[Duel], f hero.Faction, h *hero.Hero, die int) error {
	switch challenge.Classify(die) {
	case challenge.Fail:
		return o.announce(t, f, "d1", map[string]any{"hero": h})
	case challenge.Success:
		return o.announce(t, f, "d20", map[string]any{"hero": h})
	}
	return nil
}

// setup picks one never-fought hero per faction and opens the duel.
func (o *Orchestrator) setup(ctx context.Context, t *conversation.Turn[Duel]) (conversation.State, error) {
	var horde, alliance *hero.Hero
	var proj hero.Projection
	err := o.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		if horde, err = o.pick(ctx, tx, hero.Horde); err != nil || horde == nil {
			return err
		}
		if alliance, err = o.pick(ctx, tx, hero.Alliance); err != nil || alliance == nil {
			return err
		}
		*t.Ctx = Duel{
			Horde:    Fighter{HeroID: horde.ID, Health: StartingHealth(horde.Constitution), Dexterity: horde.Dexterity},
			Alliance: Fighter{HeroID: alliance.ID, Health: StartingHealth(alliance.Constitution), Dexterity: alliance.Dexterity},
		}
		for _, h := range []*hero.Hero{horde, alliance} {
			h.HasBeenInFight = true
			if err := tx.SaveHero(ctx, h); err != nil {
				return fmt.Errorf("saving fighter %d: %w", h.ID, err)
			}
		}
		row := hero.FightLog{
			At:             o.now(),
			HordeHeroID:    horde.ID,
			AllianceHeroID: alliance.ID,
			Horde:          hero.FightSide{Health: hero.Ptr(t.Ctx.Horde.Health)},
			Alliance:       hero.FightSide{Health: hero.Ptr(t.Ctx.Alliance.Health)},
		}
		if err := tx.AppendFightLog(ctx, &row); err != nil {
			return fmt.Errorf("appending fight log: %w", err)
		}
		Introduce(&proj, horde, t.Ctx.Horde.Health)
		Introduce(&proj, alliance, t.Ctx.Alliance.Health)
		if err := tx.SaveProjection(ctx, proj); err != nil {
			return fmt.Errorf("saving projection: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if horde == nil || alliance == nil {
		o.logger.Info("no fight is possible")
		if err := o.reply(t, "no_fight_is_possible", nil); err != nil {
			return "", err
		}
		return conversation.End, nil
	}
	o.publish(proj)
	o.logger.Info("fight started",
		zap.Int64("horde", horde.ID),
		zap.Int64("alliance", alliance.ID),
	)

	for _, h := range []*hero.Hero{horde, alliance} {
		data := map[string]any{"hero": h, "health": t.Ctx.Side(h.Faction).Health}
		if err := o.announce(t, h.Faction, "introduction", data); err != nil {
			return "", err
		}
	}
	if err := o.reply(t, "new_fight_started", map[string]any{"horde": horde, "alliance": alliance}); err != nil {
		return "", err
	}
	return StateInspiration, nil
}

// pick returns a random eligible hero of f, or nil when none is left.
func (o *Orchestrator) pick(ctx context.Context, tx storage.Tx, f hero.Faction) (*hero.Hero, error) {
	pool, err := tx.EligibleFighters(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listing %s fighters: %w", f, err)
	}
	h, _ := dice.Pick(o.roller.Source(), pool)
	return h, nil
}

func (o *Orchestrator) inspiration(ctx context.Context, t *conversation.Turn[Duel]) (conversation.State, error) {
	key, _ := o.catalog.Key(t.Input)
	d := t.Ctx
	d.Horde.Inspiration, d.Alliance.Inspiration = chosen(key)

	err := o.commit(ctx, d, func(s *step) error {
		s.log(func(l *hero.FightLog) {
			l.Horde.Inspiration = hero.Ptr(d.Horde.Inspiration)
			l.Alliance.Inspiration = hero.Ptr(d.Alliance.Inspiration)
		})
		for _, f := range []hero.Faction{hero.Horde, hero.Alliance} {
			if d.Side(f).Inspiration {
				mark(&s.proj, f, IconInspired, ColorInfo)
			} else {
				mark(&s.proj, f, "", ColorInfo)
			}
		}

		for _, f := range []hero.Faction{hero.Horde, hero.Alliance} {
			know, err := s.tx.HasEdge(ctx, s.hero(f).ID, s.hero(f.Opponent()).ID)
			if err != nil {
				return fmt.Errorf("checking known vulnerability: %w", err)
			}
			d.Side(f).Know = know
		}
		s.log(func(l *hero.FightLog) {
			l.Horde.KnowVulnerability = hero.Ptr(d.Horde.Know)
			l.Alliance.KnowVulnerability = hero.Ptr(d.Alliance.Know)
		})

		if err := o.reply(t, "inspiration", map[string]any{
			"horde_inspiration":    d.Horde.Inspiration,
			"alliance_inspiration": d.Alliance.Inspiration,
		}); err != nil {
			return err
		}
		for _, f := range []hero.Faction{hero.Horde, hero.Alliance} {
			data := map[string]any{"hero": s.hero(f), "inspiration": d.Side(f).Inspiration}
			if err := o.announce(t, f, "inspiration", data); err != nil {
				return err
			}
			data = map[string]any{"hero": s.hero(f), "enemy": s.hero(f.Opponent()), "know": d.Side(f).Know}
			if err := o.announce(t, f, "vulnerability_use", data); err != nil {
				return err
			}
		}
		return o.reply(t, "vulnerability_use", map[string]any{
			"horde": s.horde, "alliance": s.alliance,
			"horde_know": d.Horde.Know, "alliance_know": d.Alliance.Know,
		})
	})
	if err != nil {
		return "", err
	}
	return StateVulnerabilityUse, nil
}

func (o *Orchestrator) vulnerabilityUse(ctx context.Context, t *conversation.Turn[Duel]) (conversation.State, error) {
	key, _ := o.catalog.Key(t.Input)
	d := t.Ctx
	d.Horde.Use, d.Alliance.Use = chosen(key)

	err := o.commit(ctx, d, func(s *step) error {
		s.log(func(l *hero.FightLog) {
			l.Horde.UseVulnerability = hero.Ptr(d.Horde.Use)
			l.Alliance.UseVulnerability = hero.Ptr(d.Alliance.Use)
		})
		for _, f := range []hero.Faction{hero.Horde, hero.Alliance} {
			id := s.hero(f).ID
			own, err := s.tx.HasEdge(ctx, id, id)
			if err != nil {
				return fmt.Errorf("checking own vulnerability: %w", err)
			}
			d.Side(f).Own = own
		}
		s.log(func(l *hero.FightLog) {
			l.Horde.OwnVulnerability = hero.Ptr(d.Horde.Own)
			l.Alliance.OwnVulnerability = hero.Ptr(d.Alliance.Own)
		})

		for _, f := range []hero.Faction{hero.Horde, hero.Alliance} {
			data := map[string]any{"hero": s.hero(f), "own": d.Side(f).Own}
			if err := o.announce(t, f, "vulnerability_def", data); err != nil {
				return err
			}
		}
		return o.reply(t, "vulnerability_def", map[string]any{
			"horde": s.horde, "alliance": s.alliance,
			"horde_own": d.Horde.Own, "alliance_own": d.Alliance.Own,
		})
	})
	if err != nil {
		return "", err
	}
	return StateVulnerabilityDef, nil
}

func (o *Orchestrator) vulnerabilityDef(ctx context.Context, t *conversation.Turn[Duel]) (conversation.State, error) {
	key, _ := o.catalog.Key(t.Input)
	d := t.Ctx
	d.Horde.Def, d.Alliance.Def = chosen(key)

	err := o.commit(ctx, d, func(s *step) error {
		s.log(func(l *hero.FightLog) {
			l.Horde.DefVulnerability = hero.Ptr(d.Horde.Def)
			l.Alliance.DefVulnerability = hero.Ptr(d.Alliance.Def)
		})
		for _, f := range []hero.Faction{hero.Horde, hero.Alliance} {
			side, enemy := d.Side(f), d.Side(f.Opponent())
			penalty := DexterityPenalty(enemy.Use, side.Def)
			side.Dexterity = s.hero(f).Dexterity - penalty

			ps := s.proj.Side(f)
			ps.Dexterity = side.Dexterity
			icon := ""
			if penalty > 0 {
				icon = IconPenalized
			}
			mark(&s.proj, f, icon, ColorBad)

			data := map[string]any{
				"enemy":     s.hero(f.Opponent()),
				"enemy_use": enemy.Use,
				"defend":    side.Def,
				"dexterity": side.Dexterity,
			}
			if err := o.announce(t, f, "vulnerability_result", data); err != nil {
				return err
			}
		}
		return o.reply(t, "horde_initiative", nil)
	})
	if err != nil {
		return "", err
	}
	return StateHordeInitiative, nil
}

// roll records a submitted face for f, logs it and shows it on the
// projection.
func (o *Orchestrator) roll(t *conversation.Turn[Duel], s *step, f hero.Faction, check string, modifier int) (int, error) {
	face, err := o.roller.Record(check, t.Input.Text, modifier)
	if err != nil {
		return 0, err
	}
	t.Ctx.Side(f).Die = face
	s.log(func(l *hero.FightLog) { l.Side(f).DiceRoll = hero.Ptr(face) })
	mark(&s.proj, f, DieIcon(face), DieColor(face))
	if err := o.criticals(t, f, s.hero(f), face); err != nil {
		return 0, err
	}
	return face, nil
}

func (o *Orchestrator) hordeInitiative(ctx context.Context, t *conversation.Turn[Duel]) (conversation.State, error) {
	d := t.Ctx
	err := o.commit(ctx, d, func(s *step) error {
		face, err := o.roll(t, s, hero.Horde, "horde initiative", d.Horde.Dexterity)
		if err != nil {
			return err
		}
		d.Horde.Initiative = Initiative(face, d.Horde.Dexterity)
		return o.reply(t, "alliance_initiative", nil)
	})
	if err != nil {
		return "", err
	}
	return StateAllianceInitiative, nil
}

func (o *Orchestrator) allianceInitiative(ctx context.Context, t *conversation.Turn[Duel]) (conversation.State, error) {
	d := t.Ctx
	err := o.commit(ctx, d, func(s *step) error {
		face, err := o.roll(t, s, hero.Alliance, "alliance initiative", d.Alliance.Dexterity)
		if err != nil {
			return err
		}
		d.Alliance.Initiative = Initiative(face, d.Alliance.Dexterity)
		return nil
	})
	if err != nil {
		return "", err
	}

	t.Flush(ctx)
	if err := o.pause(ctx, o.cfg.RevealDelay); err != nil {
		return "", err
	}

	d.Attacker = FirstAttacker(d.Horde.Initiative, d.Alliance.Initiative)
	err = o.commit(ctx, d, func(s *step) error {
		roles(&s.proj, d.Attacker)
		for _, f := range []hero.Faction{hero.Horde, hero.Alliance} {
			key := "initiative_lose"
			if f == d.Attacker {
				key = "initiative_win"
			}
			side := d.Side(f)
			data := map[string]any{"hero": s.hero(f), "dice": side.Die, "dexterity": side.Dexterity, "result": side.Initiative}
			if err := o.announce(t, f, key, data); err != nil {
				return err
			}
		}
		return o.reply(t, string(d.Attacker)+"_attack", nil)
	})
	if err != nil {
		return "", err
	}
	return attackState(d.Attacker), nil
}

func attackState(f hero.Faction) conversation.State {
	if f == hero.Horde {
		return StateHordeAttack
	}
	return StateAllianceAttack
}

func defenseState(f hero.Faction) conversation.State {
	if f == hero.Horde {
		return StateHordeDefense
	}
	return StateAllianceDefense
}

func (o *Orchestrator) attack(f hero.Faction) conversation.Handler[Duel] {
	return func(ctx context.Context, t *conversation.Turn[Duel]) (conversation.State, error) {
		d := t.Ctx
		err := o.commit(ctx, d, func(s *step) error {
			str := s.hero(f).Strength
			face, err := o.roll(t, s, f, string(f)+" attack", str)
			if err != nil {
				return err
			}
			d.Side(f).Attack = Attack(face, str)
			return o.reply(t, string(f.Opponent())+"_defense", nil)
		})
		if err != nil {
			return "", err
		}
		return defenseState(f.Opponent()), nil
	}
}

// defense resolves the exchange once defender f has rolled.
func (o *Orchestrator) defense(f hero.Faction) conversation.Handler[Duel] {
	attacker := f.Opponent()
	return func(ctx context.Context, t *conversation.Turn[Duel]) (conversation.State, error) {
		d := t.Ctx
		var value int
		err := o.commit(ctx, d, func(s *step) error {
			con := s.hero(f).Constitution
			face, err := o.roll(t, s, f, string(f)+" defense", con)
			if err != nil {
				return err
			}
			value = Defense(face, con)
			return nil
		})
		if err != nil {
			return "", err
		}

		t.Flush(ctx)
		if err := o.pause(ctx, o.cfg.RevealDelay); err != nil {
			return "", err
		}

		def, att := d.Side(f), d.Side(attacker)
		blow := Strike(att.Attack, value, def.Health)
		def.Health = blow.Health
		err = o.commit(ctx, d, func(s *step) error {
			s.log(func(l *hero.FightLog) {
				l.Side(f).Health = hero.Ptr(blow.Health)
				l.Side(attacker).Victory = hero.Ptr(blow.Defeated)
			})
			s.proj.Side(f).Health = blow.Health
			switch {
			case blow.Defeated:
				mark(&s.proj, f, IconDefeated, ColorBad)
				mark(&s.proj, attacker, IconAttackResult, ColorGood)
			case blow.Hit():
				mark(&s.proj, f, IconWounded, ColorBad)
				mark(&s.proj, attacker, IconAttackResult, ColorGood)
			default:
				mark(&s.proj, f, IconBlocked, ColorGood)
				mark(&s.proj, attacker, IconAttackResult, ColorBad)
			}
			if blow.Defeated {
				return o.victory(ctx, t, s, attacker, value)
			}

			attackKey, defenseKey := "attack_lose", "defense_win"
			if blow.Hit() {
				attackKey, defenseKey = "attack_win", "defense_lose"
			}
			if err := o.announce(t, attacker, attackKey, map[string]any{
				"result": att.Attack, "dice": att.Die, "damage": blow.Damage,
			}); err != nil {
				return err
			}
			if err := o.announce(t, f, defenseKey, map[string]any{
				"result": value, "dice": def.Die, "health": blow.Health, "damage": blow.Damage,
			}); err != nil {
				return err
			}
			return o.reply(t, string(f)+"_attack", nil)
		})
		if err != nil {
			return "", err
		}
		if blow.Defeated {
			return conversation.End, nil
		}

		t.Flush(ctx)
		if err := o.pause(ctx, o.cfg.ResetDelay); err != nil {
			return "", err
		}
		d.Attacker = f
		err = o.commit(ctx, d, func(s *step) error {
			roles(&s.proj, f)
			return nil
		})
		if err != nil {
			return "", err
		}
		return attackState(f), nil
	}
}

// victory awards the winner inside the final transaction and queues the
// closing notices.
func (o *Orchestrator) victory(ctx context.Context, t *conversation.Turn[Duel], s *step, winner hero.Faction, defense int) error {
	loser := winner.Opponent()
	w, l := s.duel.Side(winner), s.duel.Side(loser)
	h := s.hero(winner)

	gain, err := o.progression.ApplyXPGain(ctx, s.tx, h, o.cfg.VictoryXP, progression.Meta{Reason: hero.ReasonFight})
	if err != nil {
		return err
	}
	if err := progression.Notify(t, o.catalog, o.cfg.MasterChatID, h, gain); err != nil {
		return err
	}
	if err := o.announce(t, winner, "victory", map[string]any{"hero": h, "result": w.Attack, "dice": w.Die}); err != nil {
		return err
	}
	if err := o.announce(t, loser, "defeat", map[string]any{"hero": s.hero(loser), "result": defense, "dice": l.Die}); err != nil {
		return err
	}
	o.logger.Info("fight won",
		zap.Int64("winner", h.ID),
		zap.Int64("loser", s.hero(loser).ID),
		zap.Int("xp", o.cfg.VictoryXP),
	)
	return o.reply(t, string(winner)+"_win", nil)
}
