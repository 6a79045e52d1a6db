// Package main provides eventctl, the operator command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cory-johannsen/dragonfair/internal/cli"
	"github.com/cory-johannsen/dragonfair/internal/config"
	"github.com/cory-johannsen/dragonfair/internal/observability"
	"github.com/cory-johannsen/dragonfair/internal/storage"
	"github.com/cory-johannsen/dragonfair/internal/storage/postgres"
)

func openPostgres(ctx context.Context, path string) (storage.Store, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return postgres.NewStore(pool), nil
}

func main() {
	logger, err := observability.NewLogger(config.LoggingConfig{Level: "warn", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cli.NewRootCommand(openPostgres, logger).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
