package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
	"github.com/cory-johannsen/dragonfair/internal/storage"
)

// NewProjectionCommand creates the projection command group.
func NewProjectionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projection",
		Short: "Inspect the arena screen projection",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored projection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var p hero.Projection
			err := rootOpts.withStore(cmd.Context(), func(store storage.Store) error {
				return store.InTx(cmd.Context(), func(tx storage.Tx) error {
					var err error
					p, err = tx.Projection(cmd.Context())
					return err
				})
			})
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), p)
			}
			for _, side := range []hero.Faction{hero.Horde, hero.Alliance} {
				writeSide(cmd.OutOrStdout(), side, p.Side(side))
			}
			return nil
		},
	})
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSide(w io.Writer, f hero.Faction, s *hero.ProjectionSide) {
	if s.Name == "" {
		fmt.Fprintf(w, "%-8s (empty)\n", f)
		return
	}
	fmt.Fprintf(w, "%-8s %s, level %d, health %d, CON %d STR %d DEX %d WIS %d %s\n",
		f, s.Name, s.Level, s.Health, s.Constitution, s.Strength, s.Dexterity, s.Wisdom, s.Icon)
}
