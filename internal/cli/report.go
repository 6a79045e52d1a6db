package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/report"
	"github.com/cory-johannsen/dragonfair/internal/storage"
)

// NewReportCommand creates the report command group.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render printable event reports",
	}
	cmd.AddCommand(newReportFightsCommand(rootOpts))
	return cmd
}

func newReportFightsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		out   string
		title string
	)
	cmd := &cobra.Command{
		Use:   "fights",
		Short: "Write every fight log row to a PDF",
		Long: `Group the fight log into duels and write one table per duel.

Examples:
  eventctl report fights --out fights.pdf`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := time.Now()
			var (
				rows   []hero.FightLog
				heroes []*hero.Hero
			)
			err := rootOpts.withStore(cmd.Context(), func(store storage.Store) error {
				return store.InTx(cmd.Context(), func(tx storage.Tx) error {
					var err error
					if rows, err = tx.FightLogs(cmd.Context()); err != nil {
						return err
					}
					heroes, err = tx.Heroes(cmd.Context())
					return err
				})
			})
			if err != nil {
				return err
			}

			names := make(report.Names, len(heroes))
			for _, h := range heroes {
				names[h.ID] = h.Name
			}
			fights := report.Summarize(rows)

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			if err := report.Write(f, title, fights, names); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", out, err)
			}
			rootOpts.logger.Info("fight report written",
				zap.String("out", out),
				zap.Int("fights", len(fights)),
				zap.Int("rows", len(rows)),
				zap.Duration("took", time.Since(start)),
			)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d fights written to %s\n", len(fights), out)
			return err
		},
	}
	cmd.Flags().StringVar(&out, "out", "fights.pdf", "output PDF path")
	cmd.Flags().StringVar(&title, "title", "Dragonfair fights", "report title")
	return cmd
}
