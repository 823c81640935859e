package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/baldhumanity/evoboard/storage"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Database string
	RunID    string
}

// NewInspectCommand creates the inspect command, which prints the stored
// progress history of a run.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect a stored run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspectRun(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database path (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to inspect (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("run")

	return cmd
}

func inspectRun(cmd *cobra.Command, opts *InspectOptions) error {
	ctx := cmd.Context()
	store := storage.NewSQLiteStore(opts.Database)
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	stats, err := store.GetGenerationStats(ctx, opts.RunID)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		return fmt.Errorf("no history stored for run %s", opts.RunID)
	}

	fmt.Printf("Run %s: %s generations\n", opts.RunID, humanize.Comma(int64(len(stats))))
	fmt.Println("gen    best_key  best_fitness  mean_fitness  species")
	for _, st := range stats {
		fmt.Printf("%-6d %-9d %-13.4f %-13.4f %d\n",
			st.Generation, st.BestKey, st.BestFitness, st.MeanFitness, st.NumSpecies)
	}

	ledger, ok, err := store.GetLedger(ctx, opts.RunID)
	if err != nil {
		return err
	}
	if ok {
		fmt.Printf("Innovation ledger: %s entries\n", humanize.Comma(int64(len(ledger))))
	}

	// The champion is stored under the final generation's best key.
	champKey := stats[len(stats)-1].BestKey
	rec, ok, err := store.GetGenome(ctx, opts.RunID, champKey)
	if err != nil {
		return err
	}
	if ok {
		fmt.Printf("Champion genome %d: fitness %.4f, %d nodes, %d connections\n",
			rec.Key, rec.Fitness, len(rec.Nodes), len(rec.Connections))
		for _, c := range rec.Connections {
			state := "on"
			if !c.Enabled {
				state = "off"
			}
			fmt.Printf("  %3d -> %-3d  w=%+.3f  %s  innov %d\n", c.Source, c.Destination, c.Weight, state, c.Innovation)
		}
	}
	return nil
}
