package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/dragonfair/internal/importer"
	"github.com/cory-johannsen/dragonfair/internal/storage"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load event content from a YAML directory",
		Long: `Load levels, heroes, monsters, stations, questions and channel
grants from one YAML file per kind. Everything but the channel grants is
written in one transaction; heroes are overwritten by uuid.

Examples:
  eventctl import --dir content/`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rootOpts.withStore(cmd.Context(), func(store storage.Store) error {
				sum, err := importer.New(importer.NewDirSource(), store, rootOpts.logger).Run(cmd.Context(), dir)
				if err != nil {
					return err
				}
				if rootOpts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), sum)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(),
					"imported %d levels, %d heroes, %d monsters, %d stations, %d questions, %d channels\n",
					sum.Levels, sum.Heroes, sum.Monsters, sum.Stations, sum.Questions, sum.Channels)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "content", "content directory")
	return cmd
}
