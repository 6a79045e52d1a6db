// Package gameserver wires the event personas (stations, doors, heroes and
// the game master) onto conversation engines and routes inbound chat input
// to them.
package gameserver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dragonfair/internal/config"
	"github.com/cory-johannsen/dragonfair/internal/conversation"
	"github.com/cory-johannsen/dragonfair/internal/game/challenge"
	"github.com/cory-johannsen/dragonfair/internal/game/dice"
	"github.com/cory-johannsen/dragonfair/internal/game/fight"
	"github.com/cory-johannsen/dragonfair/internal/game/progression"
	"github.com/cory-johannsen/dragonfair/internal/media"
	"github.com/cory-johannsen/dragonfair/internal/messages"
	"github.com/cory-johannsen/dragonfair/internal/scan"
	"github.com/cory-johannsen/dragonfair/internal/storage"
	"github.com/cory-johannsen/dragonfair/internal/transport"
)

// Deps bundles what the personas share.
type Deps struct {
	Store       storage.Store
	Catalog     *messages.Catalog
	Progression *progression.Engine
	Roller      *dice.Roller
	Media       *media.Library
	Scanner     scan.Decoder
	Sender      transport.Sender
	Event       config.EventConfig
	Logger      *zap.Logger
	// Publisher receives fight projections. Optional.
	Publisher fight.Publisher
	// Pause waits between fight reveals and announcements. Nil means
	// fight.Sleep.
	Pause fight.PauseFunc
	// Now stamps log rows. Nil means time.Now.
	Now func() time.Time
}

// Server owns one conversation engine per interactive persona.
type Server struct {
	deps    *Deps
	engines map[storage.Persona]*conversation.Engine
	logger  *zap.Logger
}

type registrar func(e *conversation.Engine, k *kit) error

// New builds every persona engine.
//
// Precondition: every Deps field except Publisher and Pause is set.
func New(d Deps) (*Server, error) {
	if err := challenge.ValidateTables(); err != nil {
		return nil, fmt.Errorf("outcome tables: %w", err)
	}
	if d.Pause == nil {
		d.Pause = fight.Sleep
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	s := &Server{
		deps:    &d,
		engines: make(map[storage.Persona]*conversation.Engine),
		logger:  d.Logger,
	}
	reporter := conversation.NewReporter(d.Sender, d.Event.MasterChatID, d.Logger)
	personas := []struct {
		persona  storage.Persona
		register registrar
	}{
		{storage.PersonaStation, registerStation},
		{storage.PersonaStaff, registerStaff},
		{storage.PersonaColors, registerColors},
		{storage.PersonaGossip, registerGossip},
		{storage.PersonaDoors, registerDoors},
		{storage.PersonaHero, registerHero},
		{storage.PersonaMaster, registerMaster},
	}
	for _, p := range personas {
		e := conversation.NewEngine(string(p.persona), d.Logger, d.Sender,
			conversation.WithReporter(reporter),
			conversation.WithErrorTexts(d.Catalog.ErrorTexts()),
		)
		if err := p.register(e, newKit(s.deps, p.persona)); err != nil {
			return nil, fmt.Errorf("registering persona %s: %w", p.persona, err)
		}
		s.engines[p.persona] = e
	}
	return s, nil
}

// Engine returns the engine of p. Display-only personas have none.
func (s *Server) Engine(p storage.Persona) (*conversation.Engine, bool) {
	e, ok := s.engines[p]
	return e, ok
}

// Handle dispatches input from the chat of ch to its persona. Input to a
// display-only channel is ignored.
//
// Postcondition: a non-nil error was already reported to the master chat.
func (s *Server) Handle(ctx context.Context, ch storage.Channel, in transport.Input) error {
	e, ok := s.engines[ch.Persona]
	if !ok {
		s.logger.Debug("input to display-only channel ignored",
			zap.Int64("chat_id", ch.ChatID),
			zap.String("persona", string(ch.Persona)),
		)
		return nil
	}
	_, err := e.Dispatch(ctx, conversation.Event{Actor: ch.ChatID, Input: in})
	return err
}
