// Package main runs the event server: the persona engines behind the telnet
// chat gateway, over the postgres store, with the live projection feed.
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
	"github.com/cory-johannsen/dragonfair/internal/game/fight"
	"github.com/cory-johannsen/dragonfair/internal/game/progression"
	"github.com/cory-johannsen/dragonfair/internal/gameserver"
	"github.com/cory-johannsen/dragonfair/internal/media"
	"github.com/cory-johannsen/dragonfair/internal/messages"
	"github.com/cory-johannsen/dragonfair/internal/observability"
	"github.com/cory-johannsen/dragonfair/internal/projection"
	"github.com/cory-johannsen/dragonfair/internal/scan"
	"github.com/cory-johannsen/dragonfair/internal/server"
	"github.com/cory-johannsen/dragonfair/internal/storage"
	"github.com/cory-johannsen/dragonfair/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
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

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal("setting up tracing", zap.Error(err))
	}

	catalog := messages.Default()
	if cfg.Event.MessagesFile != "" {
		if catalog, err = messages.Load(cfg.Event.MessagesFile); err != nil {
			logger.Fatal("loading messages", zap.String("path", cfg.Event.MessagesFile), zap.Error(err))
		}
	}

	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.Name),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	store := postgres.NewStore(pool)

	gateway := telnet.NewGateway(store.Channels(), cfg.Telnet.MaxAuthAttempts, observability.PersonaLogger(logger, "gateway"))
	acceptor := telnet.NewAcceptor(cfg.Telnet, gateway, logger)

	deps := gameserver.Deps{
		Store:       store,
		Catalog:     catalog,
		Progression: progression.NewEngine(logger),
		Roller:      dice.NewLoggedRoller(dice.NewCryptoSource(), logger),
		Media:       media.NewLibrary(media.DirFetcher{Root: cfg.Media.Root}, storage.MediaCache{Store: store}, logger),
		Scanner:     scan.Decoder{},
		Sender:      gateway,
		Event:       cfg.Event,
		Logger:      logger,
		Pause:       fight.Sleep,
	}

	lifecycle := server.NewLifecycle(logger)

	if cfg.Projection.Enabled {
		hub := projection.NewHub(observability.PersonaLogger(logger, "projection"))
		deps.Publisher = hub
		lifecycle.Add("projection", projection.NewServer(cfg.Projection.Addr(), hub, logger))
	}

	srv, err := gameserver.New(deps)
	if err != nil {
		logger.Fatal("building personas", zap.Error(err))
	}
	gateway.Bind(srv)

	healthDone := make(chan struct{})
	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-healthDone:
					return nil
				case <-ticker.C:
					if err := pool.Health(ctx, 5*time.Second); err != nil {
						logger.Warn("database health check failed", zap.Error(err))
					}
				}
			}
		},
		StopFn: func() { close(healthDone) },
	})
	lifecycle.Add("telnet", acceptor)
	lifecycle.OnShutdown("database", func(context.Context) error {
		store.Close()
		return nil
	})
	lifecycle.OnShutdown("tracing", func(ctx context.Context) error {
		return shutdownTracing(ctx)
	})

	logger.Info("event server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.Bool("projection", cfg.Projection.Enabled),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
