package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/baldhumanity/evoboard/board"
	"github.com/baldhumanity/evoboard/neat"
	"github.com/baldhumanity/evoboard/storage"
	"github.com/baldhumanity/evoboard/tournament"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Generations     int
	Database        string
	Checkpoint      string
	CheckpointEvery int
	Resume          string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an evolution",
		Long: `Run evolves a population for a fixed number of generations, scoring each
generation in a concurrent board-game tournament. Progress can be persisted
to a SQLite database and the full population checkpointed periodically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvolution(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Generations, "generations", "g", 50, "number of generations to run")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database path for run history (in-memory when omitted)")
	cmd.Flags().StringVar(&opts.Checkpoint, "checkpoint", "", "checkpoint file path (no checkpoints when omitted)")
	cmd.Flags().IntVar(&opts.CheckpointEvery, "checkpoint-every", 10, "generations between checkpoints")
	cmd.Flags().StringVar(&opts.Resume, "resume", "", "checkpoint file to resume from")

	return cmd
}

// loadRunConfig builds the run configuration: file-backed when --config is
// given, defaults otherwise, with the genome interface sized to the board in
// the default case.
func loadRunConfig(opts *RootOptions, b *board.Board) (*neat.Config, error) {
	if opts.ConfigPath != "" {
		config, err := neat.LoadConfig(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		if config.Genome.NumInputs != board.ObservationSize(b) {
			return nil, fmt.Errorf("config num_inputs is %d but the board produces %d observations", config.Genome.NumInputs, board.ObservationSize(b))
		}
		if config.Genome.NumOutputs < board.NumDecisionOutputs {
			return nil, fmt.Errorf("config num_outputs is %d but the game needs %d decisions", config.Genome.NumOutputs, board.NumDecisionOutputs)
		}
		return config, nil
	}

	config := neat.DefaultConfig()
	config.Genome.NumInputs = board.ObservationSize(b)
	config.Genome.NumOutputs = board.NumDecisionOutputs
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// openStore opens the SQLite store when a path was given, the in-memory one
// otherwise.
func openStore(ctx context.Context, path string) (storage.Store, error) {
	var store storage.Store
	if path != "" {
		store = storage.NewSQLiteStore(path)
	} else {
		store = storage.NewMemoryStore()
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	return store, nil
}

func runEvolution(ctx context.Context, opts *RunOptions) error {
	b := board.NewStandardBoard()
	config, err := loadRunConfig(opts.RootOptions, b)
	if err != nil {
		return err
	}

	var pop *neat.Population
	if opts.Resume != "" {
		if opts.ConfigPath != "" {
			pop, err = neat.LoadCheckpoint(opts.Resume, opts.ConfigPath, opts.Seed)
		} else {
			pop, err = neat.LoadCheckpointWithConfig(opts.Resume, config, opts.Seed)
		}
	} else {
		pop, err = neat.NewPopulation(config, opts.Seed)
	}
	if err != nil {
		return err
	}

	store, err := openStore(ctx, opts.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	runID := uuid.NewString()
	driver := tournament.New(&config.Tournament, b, opts.Seed)
	fmt.Printf("Run %s: population %s, %s generations, %d workers\n",
		runID, humanize.Comma(int64(config.Neat.PopSize)), humanize.Comma(int64(opts.Generations)), config.Tournament.Workers)

	start := time.Now()
	for i := 0; i < opts.Generations; i++ {
		var best, mean float64
		var bestKey int
		evaluate := func(genomes map[int]*neat.Genome) error {
			if err := driver.Evaluate(genomes); err != nil {
				return err
			}
			best, mean, bestKey = fitnessSummary(genomes)
			return nil
		}

		winner, err := pop.RunGeneration(evaluate)
		if err != nil {
			return err
		}

		stats := storage.GenerationStats{
			Generation:  pop.Generation,
			BestKey:     bestKey,
			BestFitness: best,
			MeanFitness: mean,
			NumSpecies:  len(pop.SpeciesSet.Species),
		}
		if err := store.AppendGenerationStats(ctx, runID, stats); err != nil {
			return fmt.Errorf("failed to record generation %d: %w", pop.Generation, err)
		}

		if opts.Checkpoint != "" && opts.CheckpointEvery > 0 && pop.Generation%opts.CheckpointEvery == 0 {
			if err := pop.SaveCheckpoint(opts.Checkpoint); err != nil {
				return err
			}
		}
		if winner != nil {
			fmt.Printf("Fitness threshold reached in generation %d.\n", pop.Generation)
			break
		}
	}

	if err := finishRun(ctx, store, runID, pop); err != nil {
		return err
	}
	if opts.Checkpoint != "" {
		if err := pop.SaveCheckpoint(opts.Checkpoint); err != nil {
			return err
		}
	}

	fmt.Printf("Run %s finished in %s.\n", runID, humanize.RelTime(start, time.Now(), "", ""))
	if pop.BestGenome != nil {
		fmt.Printf("Champion: genome %d, fitness %.4f, %d nodes, %d connections.\n",
			pop.BestGenome.Key, pop.BestGenome.Fitness, len(pop.BestGenome.Nodes), len(pop.BestGenome.Connections))
	}
	return nil
}

// finishRun persists the run's champion and innovation ledger.
func finishRun(ctx context.Context, store storage.Store, runID string, pop *neat.Population) error {
	if err := store.SaveLedger(ctx, runID, pop.Registry.Records()); err != nil {
		return fmt.Errorf("failed to save innovation ledger: %w", err)
	}
	if pop.BestGenome != nil {
		if err := store.SaveGenome(ctx, runID, pop.BestGenome.Snapshot()); err != nil {
			return fmt.Errorf("failed to save champion genome: %w", err)
		}
	}
	return nil
}

// fitnessSummary returns the best fitness, mean fitness, and best genome key
// of an evaluated population.
func fitnessSummary(genomes map[int]*neat.Genome) (best, mean float64, bestKey int) {
	first := true
	for k, g := range genomes {
		mean += g.Fitness
		if first || g.Fitness > best {
			best, bestKey = g.Fitness, k
			first = false
		}
	}
	if len(genomes) > 0 {
		mean /= float64(len(genomes))
	}
	return best, mean, bestKey
}
