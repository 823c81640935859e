package neat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNewPopulation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Genome.NumInputs = 3
	cfg.Genome.NumOutputs = 2
	cfg.deriveKeys()

	registry := NewInnovationRegistry()
	stag, err := NewStagnation(&cfg.Stagnation)
	require.NoError(t, err)
	repro := NewReproduction(&cfg.Reproduction, stag, rand.New(rand.NewSource(1)))

	population := repro.CreateNewPopulation(&cfg.Genome, &cfg.Mutation, registry, 10)
	require.Len(t, population, 10)
	assert.Equal(t, 6, registry.Len(), "one innovation per input/output pair, shared across genomes")

	for key, g := range population {
		assert.Equal(t, key, g.Key)
		assert.GreaterOrEqual(t, key, 1)
		assert.Equal(t, 3, g.NumInputs())
		assert.Equal(t, 5, g.NumNonHidden())
		require.Len(t, g.Connections, 6, "base genomes are fully connected")

		for _, c := range g.Connections {
			assert.True(t, c.Enabled)
			assert.GreaterOrEqual(t, c.Weight, cfg.Mutation.WeightMinValue)
			assert.LessOrEqual(t, c.Weight, cfg.Mutation.WeightMaxValue)
			assert.Less(t, c.Source, 3, "sources are input ids")
			assert.GreaterOrEqual(t, c.Destination, 3, "destinations are output ids")
		}
	}

	// All base genomes align gene for gene.
	var reference []int
	for _, g := range population {
		var innovs []int
		for _, c := range g.Connections {
			innovs = append(innovs, c.Innovation)
		}
		if reference == nil {
			reference = innovs
		} else {
			assert.Equal(t, reference, innovs)
		}
	}
}

func TestReproduceKeepsPopulationSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Neat.PopSize = 20
	cfg.Genome.NumInputs = 2
	cfg.Genome.NumOutputs = 1
	cfg.deriveKeys()

	rng := rand.New(rand.NewSource(2))
	registry := NewInnovationRegistry()
	stag, err := NewStagnation(&cfg.Stagnation)
	require.NoError(t, err)
	repro := NewReproduction(&cfg.Reproduction, stag, rng)
	crossover := NewCrossoverEngine(&cfg.Compatibility, rng)
	mutation := NewMutationEngine(&cfg.Mutation, registry, rng)

	population := repro.CreateNewPopulation(&cfg.Genome, &cfg.Mutation, registry, cfg.Neat.PopSize)
	for key, g := range population {
		g.Fitness = float64(key % 5)
	}

	ss := NewSpeciesSet(&cfg.Compatibility)
	require.NoError(t, ss.Speciate(crossover, population, 1))

	next, err := repro.Reproduce(cfg, ss, crossover, mutation, cfg.Neat.PopSize, 1)
	require.NoError(t, err)
	assert.Len(t, next, cfg.Neat.PopSize)

	// Offspring keys continue past the base population's and never collide.
	for key, g := range next {
		assert.Equal(t, key, g.Key)
		assert.Greater(t, key, cfg.Neat.PopSize)
		_, existed := population[key]
		assert.False(t, existed)
	}
}

func TestReproduceRecordsAncestry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Neat.PopSize = 10
	cfg.Genome.NumInputs = 2
	cfg.Genome.NumOutputs = 1
	cfg.deriveKeys()

	rng := rand.New(rand.NewSource(3))
	registry := NewInnovationRegistry()
	stag, err := NewStagnation(&cfg.Stagnation)
	require.NoError(t, err)
	repro := NewReproduction(&cfg.Reproduction, stag, rng)
	crossover := NewCrossoverEngine(&cfg.Compatibility, rng)
	mutation := NewMutationEngine(&cfg.Mutation, registry, rng)

	population := repro.CreateNewPopulation(&cfg.Genome, &cfg.Mutation, registry, cfg.Neat.PopSize)
	for key, g := range population {
		g.Fitness = float64(key)
	}
	ss := NewSpeciesSet(&cfg.Compatibility)
	require.NoError(t, ss.Speciate(crossover, population, 1))

	next, err := repro.Reproduce(cfg, ss, crossover, mutation, cfg.Neat.PopSize, 1)
	require.NoError(t, err)

	elites := 0
	for key := range next {
		parents, ok := repro.Ancestors[key]
		require.True(t, ok, "offspring %d has no ancestry record", key)
		switch len(parents) {
		case 1:
			elites++
		case 2:
			// Crossover offspring: both parents came from the old population.
			for _, p := range parents {
				_, existed := population[p]
				assert.True(t, existed)
			}
		default:
			t.Fatalf("offspring %d has %d recorded parents", key, len(parents))
		}
	}
	assert.GreaterOrEqual(t, elites, 1, "elitism preserves at least one champion per species")
}

func TestReproduceAllStagnant(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Neat.PopSize = 10
	cfg.Genome.NumInputs = 2
	cfg.Genome.NumOutputs = 1
	cfg.Stagnation.MaxStagnation = 1
	cfg.Stagnation.SpeciesElitism = 0
	cfg.deriveKeys()

	rng := rand.New(rand.NewSource(4))
	registry := NewInnovationRegistry()
	stag, err := NewStagnation(&cfg.Stagnation)
	require.NoError(t, err)
	repro := NewReproduction(&cfg.Reproduction, stag, rng)
	crossover := NewCrossoverEngine(&cfg.Compatibility, rng)
	mutation := NewMutationEngine(&cfg.Mutation, registry, rng)

	population := repro.CreateNewPopulation(&cfg.Genome, &cfg.Mutation, registry, cfg.Neat.PopSize)
	for _, g := range population {
		g.Fitness = 1.0
	}
	ss := NewSpeciesSet(&cfg.Compatibility)
	require.NoError(t, ss.Speciate(crossover, population, 1))

	// Flat fitness for long enough marks every species stagnant; with zero
	// species elitism the next generation comes back empty.
	for generation := 1; generation <= 2; generation++ {
		next, err := repro.Reproduce(cfg, ss, crossover, mutation, cfg.Neat.PopSize, generation)
		require.NoError(t, err)
		if generation == 2 {
			assert.Empty(t, next)
		}
	}
}
