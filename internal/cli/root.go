// Package cli implements eventctl, the operator command line for event
// setup and review.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dragonfair/internal/storage"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// OpenFunc opens the entity store named by the configuration at path.
type OpenFunc func(ctx context.Context, path string) (storage.Store, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"

	open   OpenFunc
	logger *zap.Logger
}

// withStore opens the store, runs fn and closes the store.
func (o *RootOptions) withStore(ctx context.Context, fn func(storage.Store) error) error {
	store, err := o.open(ctx, o.ConfigPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// NewRootCommand creates the eventctl root command.
//
// Precondition: open and logger must be non-nil.
func NewRootCommand(open OpenFunc, logger *zap.Logger) *cobra.Command {
	opts := &RootOptions{open: open, logger: logger}

	cmd := &cobra.Command{
		Use:   "eventctl",
		Short: "Set up and review a Dragonfair event",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "configs/dev.yaml", "path to configuration file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewChannelCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewProjectionCommand(opts))

	return cmd
}
