// Package storage defines the transactional entity store shared by every
// persona. Implementations live in storage/postgres and storage/memory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
)

var (
	// ErrChannelNotFound is returned when no channel is granted for a chat.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrInvalidAccessCode is returned when a channel access code does not match.
	ErrInvalidAccessCode = errors.New("invalid access code")
	// ErrUnknownPersona is returned by ParsePersona.
	ErrUnknownPersona = errors.New("unknown persona")
)

// Store runs units of work against the entity store.
type Store interface {
	// InTx runs fn in one transaction. The transaction commits iff fn
	// returns nil; otherwise no write made through tx is visible.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	// Channels returns the channel access repository.
	Channels() Channels
	Close()
}

// Tx is the set of reads and writes available inside one transaction.
type Tx interface {
	HeroRepo
	CatalogRepo
	GraphRepo
	LogRepo
	EventRepo
	SeedRepo
}

// HeroRepo reads and writes heroes.
type HeroRepo interface {
	HeroByID(ctx context.Context, id int64) (*hero.Hero, error)
	HeroByUUID(ctx context.Context, id uuid.UUID) (*hero.Hero, error)
	HeroByChat(ctx context.Context, chatID int64) (*hero.Hero, error)
	// Heroes returns every hero ordered by id.
	Heroes(ctx context.Context) ([]*hero.Hero, error)
	// EligibleFighters returns heroes of f that have never been in a fight.
	EligibleFighters(ctx context.Context, f hero.Faction) ([]*hero.Hero, error)
	// Opponents returns every hero not of faction f, ordered by id.
	Opponents(ctx context.Context, f hero.Faction) ([]*hero.Hero, error)
	SaveHero(ctx context.Context, h *hero.Hero) error
}

// CatalogRepo reads the static content loaded at event setup.
type CatalogRepo interface {
	// NextLevel returns the ladder entry after levelID, or hero.ErrNoNextLevel.
	NextLevel(ctx context.Context, levelID int) (hero.Level, error)
	MonsterByID(ctx context.Context, id int64) (*hero.Monster, error)
	MonsterByUUID(ctx context.Context, id uuid.UUID) (*hero.Monster, error)
	StationByChat(ctx context.Context, chatID int64) (*hero.Station, error)
	FirstQuestion(ctx context.Context) (*hero.Question, error)
	// NextQuestion returns the question after afterID, or hero.ErrQuestionNotFound.
	NextQuestion(ctx context.Context, afterID int) (*hero.Question, error)
	QuestionByID(ctx context.Context, id int) (*hero.Question, error)
}

// GraphRepo reads and extends the vulnerability graph.
type GraphRepo interface {
	// KnownTargets returns the ids whose weakness wise knows.
	KnownTargets(ctx context.Context, wise int64) ([]int64, error)
	// KnownBy returns the ids that know target's weakness.
	KnownBy(ctx context.Context, target int64) ([]int64, error)
	HasEdge(ctx context.Context, wise, target int64) (bool, error)
	// AddEdge inserts e unless it exists and reports whether it inserted.
	AddEdge(ctx context.Context, e hero.KnownVulnerability) (bool, error)
	EdgesFrom(ctx context.Context, wise int64) ([]hero.KnownVulnerability, error)
}

// LogRepo appends to the audit logs.
type LogRepo interface {
	AppendXPGain(ctx context.Context, row hero.XPGainLog) error
	XPGains(ctx context.Context, heroID int64) ([]hero.XPGainLog, error)
	AppendLevelUp(ctx context.Context, row hero.LevelUpLog) error
	AppendSpecialStation(ctx context.Context, row hero.SpecialStationLog) error
	AppendDoor(ctx context.Context, row hero.DoorLog) error
	AppendTestAnswer(ctx context.Context, row hero.TestAnswerLog) error
	// AppendFightLog inserts row and sets row.ID.
	AppendFightLog(ctx context.Context, row *hero.FightLog) error
	// FightLogs returns every fight log row ordered by id.
	FightLogs(ctx context.Context) ([]hero.FightLog, error)
}

// EventRepo holds the event-wide singletons.
type EventRepo interface {
	Projection(ctx context.Context) (hero.Projection, error)
	// SaveProjection overwrites the projection in place.
	SaveProjection(ctx context.Context, p hero.Projection) error
	Phase(ctx context.Context) (hero.Phase, error)
	SetPhase(ctx context.Context, p hero.Phase) error
	// MediaHandle returns the cached transport handle for a blob name.
	MediaHandle(ctx context.Context, name string) (string, bool, error)
	SaveMediaHandle(ctx context.Context, name, handle string) error
}

// SeedRepo loads event content. Upserts are keyed by natural identity:
// level id, hero and monster uuid, station chat, question id.
type SeedRepo interface {
	UpsertLevel(ctx context.Context, l hero.Level) error
	UpsertHero(ctx context.Context, h *hero.Hero) error
	UpsertMonster(ctx context.Context, m *hero.Monster) error
	UpsertStation(ctx context.Context, s *hero.Station) error
	UpsertQuestion(ctx context.Context, q *hero.Question) error
}

// Persona names a bot persona a channel can be bound to.
type Persona string

const (
	PersonaStation  Persona = "station"
	PersonaStaff    Persona = "staff"
	PersonaColors   Persona = "colors"
	PersonaGossip   Persona = "gossip"
	PersonaDoors    Persona = "doors"
	PersonaHero     Persona = "hero"
	PersonaMaster   Persona = "master"
	PersonaHorde    Persona = "horde"
	PersonaAlliance Persona = "alliance"
)

// Personas lists every persona.
var Personas = []Persona{
	PersonaStation, PersonaStaff, PersonaColors, PersonaGossip, PersonaDoors,
	PersonaHero, PersonaMaster, PersonaHorde, PersonaAlliance,
}

// ParsePersona accepts a persona name in any case.
func ParsePersona(s string) (Persona, error) {
	p := Persona(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Personas {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPersona, s)
}

// Channel binds a transport chat to a persona.
type Channel struct {
	ChatID  int64
	Persona Persona
	Label   string
}

// Channels manages which chats may talk to which persona.
type Channels interface {
	// Authenticate returns the channel for chatID if code matches its
	// access hash, ErrChannelNotFound or ErrInvalidAccessCode otherwise.
	Authenticate(ctx context.Context, chatID int64, code string) (Channel, error)
	// Grant creates or replaces the channel for chatID.
	Grant(ctx context.Context, ch Channel, code string) error
	List(ctx context.Context) ([]Channel, error)
}

// MediaCache adapts a Store to the handle cache used by the media library.
type MediaCache struct {
	Store Store
}

// Handle returns the cached handle for name.
func (c MediaCache) Handle(ctx context.Context, name string) (handle string, ok bool, err error) {
	err = c.Store.InTx(ctx, func(tx Tx) error {
		handle, ok, err = tx.MediaHandle(ctx, name)
		return err
	})
	return handle, ok, err
}

// SaveHandle stores handle for name.
func (c MediaCache) SaveHandle(ctx context.Context, name, handle string) error {
	return c.Store.InTx(ctx, func(tx Tx) error {
		return tx.SaveMediaHandle(ctx, name, handle)
	})
}
