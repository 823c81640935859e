// Package cli wires the evoboard commands: run an evolution, replay a
// champion, and inspect stored runs.
package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
	Seed       int64
}

// NewRootCommand creates the evoboard root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "evoboard",
		Short: "Evolve board-game strategists with NEAT",
		Long: `evoboard evolves neural-network controllers for a turn-based
property-trading game. Genomes are scored in concurrent tournaments, the best
are checkpointed, and whole runs can be persisted to SQLite for later
inspection.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to an INI config file (defaults apply when omitted)")
	cmd.PersistentFlags().Int64Var(&opts.Seed, "seed", time.Now().UnixNano(), "seed for all random decisions")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))

	return cmd
}
