// Package main provides the all-in-one development server. It seeds the
// in-memory store from a content directory and serves the personas over
// the telnet gateway, with no database.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dragonfair/internal/config"
	"github.com/cory-johannsen/dragonfair/internal/frontend/telnet"
	"github.com/cory-johannsen/dragonfair/internal/game/dice"
	"github.com/cory-johannsen/dragonfair/internal/game/progression"
	"github.com/cory-johannsen/dragonfair/internal/gameserver"
	"github.com/cory-johannsen/dragonfair/internal/importer"
	"github.com/cory-johannsen/dragonfair/internal/media"
	"github.com/cory-johannsen/dragonfair/internal/messages"
	"github.com/cory-johannsen/dragonfair/internal/observability"
	"github.com/cory-johannsen/dragonfair/internal/projection"
	"github.com/cory-johannsen/dragonfair/internal/scan"
	"github.com/cory-johannsen/dragonfair/internal/server"
	"github.com/cory-johannsen/dragonfair/internal/storage"
	"github.com/cory-johannsen/dragonfair/internal/storage/memory"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	contentDir := flag.String("content", "content", "path to event content YAML directory")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting development server", zap.String("content", *contentDir))

	catalog := messages.Default()
	if cfg.Event.MessagesFile != "" {
		if catalog, err = messages.Load(cfg.Event.MessagesFile); err != nil {
			logger.Fatal("loading messages", zap.String("path", cfg.Event.MessagesFile), zap.Error(err))
		}
	}

	store := memory.New()
	sum, err := importer.New(importer.NewDirSource(), store, logger).Run(ctx, *contentDir)
	if err != nil {
		logger.Fatal("seeding content", zap.Error(err))
	}
	if sum.Channels == 0 {
		logger.Warn("no channels granted; nobody can log in", zap.String("content", *contentDir))
	}

	gateway := telnet.NewGateway(store.Channels(), cfg.Telnet.MaxAuthAttempts, observability.PersonaLogger(logger, "gateway"))
	hub := projection.NewHub(observability.PersonaLogger(logger, "projection"))

	srv, err := gameserver.New(gameserver.Deps{
		Store:       store,
		Catalog:     catalog,
		Progression: progression.NewEngine(logger),
		Roller:      dice.NewLoggedRoller(dice.NewCryptoSource(), logger),
		Media:       media.NewLibrary(media.DirFetcher{Root: cfg.Media.Root}, storage.MediaCache{Store: store}, logger),
		Scanner:     scan.Decoder{},
		Sender:      gateway,
		Event:       cfg.Event,
		Logger:      logger,
		Publisher:   hub,
	})
	if err != nil {
		logger.Fatal("building personas", zap.Error(err))
	}
	gateway.Bind(srv)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("telnet", telnet.NewAcceptor(cfg.Telnet, gateway, logger))
	if cfg.Projection.Enabled {
		lifecycle.Add("projection", projection.NewServer(cfg.Projection.Addr(), hub, logger))
	}

	logger.Info("development server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.Int("heroes", sum.Heroes),
		zap.Int("channels", sum.Channels),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
