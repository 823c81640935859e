// Package storage persists run artifacts: champion genomes, the innovation
// ledger, and per-generation statistics. Runs are identified by caller-chosen
// string ids (the CLI uses UUIDs).
package storage

import (
	"context"

	"github.com/baldhumanity/evoboard/neat"
)

// GenerationStats is one row of a run's progress history.
type GenerationStats struct {
	Generation  int     `json:"generation"`
	BestKey     int     `json:"best_key"`
	BestFitness float64 `json:"best_fitness"`
	MeanFitness float64 `json:"mean_fitness"`
	NumSpecies  int     `json:"num_species"`
}

// Store is the persistence interface for evolution runs. Implementations must
// be safe for concurrent use. Get methods report absence through the boolean,
// reserving the error for real failures.
type Store interface {
	Init(ctx context.Context) error

	SaveGenome(ctx context.Context, runID string, rec neat.GenomeRecord) error
	GetGenome(ctx context.Context, runID string, key int) (neat.GenomeRecord, bool, error)

	SaveLedger(ctx context.Context, runID string, records []neat.InnovationRecord) error
	GetLedger(ctx context.Context, runID string) ([]neat.InnovationRecord, bool, error)

	AppendGenerationStats(ctx context.Context, runID string, stats GenerationStats) error
	GetGenerationStats(ctx context.Context, runID string) ([]GenerationStats, error)

	Close() error
}
