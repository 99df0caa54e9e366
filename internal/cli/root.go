// Package cli defines the tripbrain command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root tripbrain command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tripbrain",
		Short: "Conversational travel assistant service",
		Long: `tripbrain answers travel questions about weather and places to visit.

It keeps per-session context (current location, places already shown),
caches provider results with a TTL, and serves non-repeating place
batches across follow-up turns.

Available subcommands:
  serve       Start the HTTP service
  config      Manage the configuration file

Examples:
  tripbrain serve
  tripbrain serve --config config/tripbrain.yaml
  tripbrain config init`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewConfigCmd())

	return cmd
}
