package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dragonfair/internal/storage"
)

// ChannelOptions holds flags for channel grant.
type ChannelOptions struct {
	ChatID  int64
	Persona string
	Label   string
	Code    string
}

// NewChannelCommand creates the channel command group.
func NewChannelCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channel",
		Short: "Manage which chats may talk to which persona",
	}
	cmd.AddCommand(newChannelGrantCommand(rootOpts))
	cmd.AddCommand(newChannelListCommand(rootOpts))
	return cmd
}

func newChannelGrantCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChannelOptions{}
	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Bind a chat to a persona behind an access code",
		Long: `Bind a chat to a persona. Granting an existing chat replaces its
persona, label and access code.

Examples:
  eventctl channel grant --chat 100 --persona master --label "Game master" --code s3cret`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := storage.ParsePersona(opts.Persona)
			if err != nil {
				return err
			}
			if opts.Code == "" {
				return fmt.Errorf("--code must not be empty")
			}
			ch := storage.Channel{ChatID: opts.ChatID, Persona: p, Label: opts.Label}
			return rootOpts.withStore(cmd.Context(), func(store storage.Store) error {
				if err := store.Channels().Grant(cmd.Context(), ch, opts.Code); err != nil {
					return err
				}
				rootOpts.logger.Info("channel granted",
					zap.Int64("chat_id", ch.ChatID),
					zap.String("persona", string(ch.Persona)),
				)
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "chat %d -> %s (%s)\n", ch.ChatID, ch.Persona, ch.Label)
				return err
			})
		},
	}
	cmd.Flags().Int64Var(&opts.ChatID, "chat", 0, "chat id (required)")
	_ = cmd.MarkFlagRequired("chat")
	cmd.Flags().StringVar(&opts.Persona, "persona", "", "persona name (required)")
	_ = cmd.MarkFlagRequired("persona")
	cmd.Flags().StringVar(&opts.Label, "label", "", "display label")
	cmd.Flags().StringVar(&opts.Code, "code", "", "access code (required)")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

type channelRow struct {
	ChatID  int64  `json:"chat_id"`
	Persona string `json:"persona"`
	Label   string `json:"label"`
}

func newChannelListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List granted channels",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rootOpts.withStore(cmd.Context(), func(store storage.Store) error {
				channels, err := store.Channels().List(cmd.Context())
				if err != nil {
					return err
				}
				if rootOpts.Format == "json" {
					rows := make([]channelRow, 0, len(channels))
					for _, ch := range channels {
						rows = append(rows, channelRow{ChatID: ch.ChatID, Persona: string(ch.Persona), Label: ch.Label})
					}
					return writeJSON(cmd.OutOrStdout(), rows)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "CHAT\tPERSONA\tLABEL")
				for _, ch := range channels {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", ch.ChatID, ch.Persona, ch.Label)
				}
				return tw.Flush()
			})
		},
	}
}
