package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baldhumanity/evoboard/board"
	"github.com/baldhumanity/evoboard/neat"
	"github.com/baldhumanity/evoboard/tournament"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Games int
}

// NewPlayCommand creates the play command, which pits a checkpointed champion
// against the conservative baseline policy.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play <checkpoint>",
		Short: "Play a trained champion against the baseline policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return playChampion(opts, args[0])
		},
	}

	cmd.Flags().IntVarP(&opts.Games, "games", "n", 100, "number of games to play")

	return cmd
}

func playChampion(opts *PlayOptions, checkpointPath string) error {
	b := board.NewStandardBoard()
	config, err := loadRunConfig(opts.RootOptions, b)
	if err != nil {
		return err
	}

	pop, err := neat.LoadCheckpointWithConfig(checkpointPath, config, opts.Seed)
	if err != nil {
		return err
	}
	if pop.BestGenome == nil {
		return fmt.Errorf("checkpoint %s holds no champion genome", checkpointPath)
	}

	driver := tournament.New(&config.Tournament, b, opts.Seed)
	wins, err := driver.PlayBaseline(pop.BestGenome, opts.Games)
	if err != nil {
		return err
	}

	fmt.Printf("Champion genome %d won %d of %d games against the baseline (%.1f%%).\n",
		pop.BestGenome.Key, wins, opts.Games, 100*float64(wins)/float64(opts.Games))
	return nil
}
