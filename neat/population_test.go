package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallConfig returns a fast configuration for evolution-loop tests.
func smallConfig() *Config {
	cfg := DefaultConfig()
	cfg.Neat.PopSize = 20
	cfg.Genome.NumInputs = 2
	cfg.Genome.NumOutputs = 1
	cfg.deriveKeys()
	return cfg
}

// enabledConnections counts a genome's enabled connections, a cheap fitness
// stand-in that rewards structural growth.
func enabledConnections(g *Genome) float64 {
	n := 0.0
	for _, c := range g.Connections {
		if c.Enabled {
			n++
		}
	}
	return n
}

func TestNewPopulation(t *testing.T) {
	pop, err := NewPopulation(smallConfig(), 1)
	require.NoError(t, err)

	assert.Len(t, pop.Population, 20)
	assert.Equal(t, 0, pop.Generation)
	assert.Equal(t, 2, pop.Registry.Len(), "base innovations are registered once")
	assert.Nil(t, pop.BestGenome)
}

func TestNewPopulationRejectsBadConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Neat.PopSize = 0
	_, err := NewPopulation(cfg, 1)
	assert.Error(t, err)
}

func TestRunGenerationEvolves(t *testing.T) {
	pop, err := NewPopulation(smallConfig(), 1)
	require.NoError(t, err)

	evaluate := func(genomes map[int]*Genome) error {
		for _, g := range genomes {
			g.Fitness = enabledConnections(g)
		}
		return nil
	}

	for i := 0; i < 5; i++ {
		winner, err := pop.RunGeneration(evaluate)
		require.NoError(t, err)
		assert.Nil(t, winner, "no fitness termination is configured")
		assert.Len(t, pop.Population, 20)
	}

	assert.Equal(t, 5, pop.Generation)
	require.NotNil(t, pop.BestGenome)
	assert.GreaterOrEqual(t, pop.BestGenome.Fitness, 2.0)
	assert.NotEmpty(t, pop.SpeciesSet.Species)
}

func TestRunGenerationFitnessThreshold(t *testing.T) {
	cfg := smallConfig()
	cfg.Neat.NoFitnessTermination = false
	cfg.Neat.FitnessThreshold = 1.0

	pop, err := NewPopulation(cfg, 1)
	require.NoError(t, err)

	winner, err := pop.RunGeneration(func(genomes map[int]*Genome) error {
		for _, g := range genomes {
			g.Fitness = 2.0
		}
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, 2.0, winner.Fitness)
	assert.Equal(t, 1, pop.Generation, "the run stops in the generation that crossed the threshold")
}

func TestRunGenerationPropagatesEvaluationError(t *testing.T) {
	pop, err := NewPopulation(smallConfig(), 1)
	require.NoError(t, err)

	wantErr := assert.AnError
	_, err = pop.RunGeneration(func(map[int]*Genome) error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
}

func TestBestGenomeSurvivesGenerations(t *testing.T) {
	pop, err := NewPopulation(smallConfig(), 1)
	require.NoError(t, err)

	// First generation is evaluated high, later ones low: the champion must
	// be a preserved clone, not a pointer into a discarded population.
	generation := 0
	evaluate := func(genomes map[int]*Genome) error {
		generation++
		score := 10.0
		if generation > 1 {
			score = 1.0
		}
		for _, g := range genomes {
			g.Fitness = score
		}
		return nil
	}

	for i := 0; i < 3; i++ {
		_, err := pop.RunGeneration(evaluate)
		require.NoError(t, err)
	}

	require.NotNil(t, pop.BestGenome)
	assert.Equal(t, 10.0, pop.BestGenome.Fitness)
	_, stillPresent := pop.Population[pop.BestGenome.Key]
	assert.False(t, stillPresent, "the champion's generation has been replaced")
}
