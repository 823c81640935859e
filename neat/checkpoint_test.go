package neat

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointRoundtrip(t *testing.T) {
	cfg := smallConfig()
	pop, err := NewPopulation(cfg, 1)
	require.NoError(t, err)

	evaluate := func(genomes map[int]*Genome) error {
		for _, g := range genomes {
			g.Fitness = enabledConnections(g)
		}
		return nil
	}
	for i := 0; i < 3; i++ {
		_, err := pop.RunGeneration(evaluate)
		require.NoError(t, err)
	}

	path := filepath.Join(t.TempDir(), "run.checkpoint")
	require.NoError(t, pop.SaveCheckpoint(path))

	restored, err := LoadCheckpointWithConfig(path, cfg, 99)
	require.NoError(t, err)

	assert.Equal(t, pop.Generation, restored.Generation)
	assert.Equal(t, pop.Registry.Records(), restored.Registry.Records())
	assert.Equal(t, pop.Reproduction.NextGenomeKey, restored.Reproduction.NextGenomeKey)
	assert.Equal(t, pop.Reproduction.Ancestors, restored.Reproduction.Ancestors)
	assert.Equal(t, pop.SpeciesSet.Indexer, restored.SpeciesSet.Indexer)

	require.Len(t, restored.Population, len(pop.Population))
	for key, g := range pop.Population {
		rg, ok := restored.Population[key]
		require.True(t, ok, "genome %d missing after restore", key)
		assert.Equal(t, g.Snapshot(), rg.Snapshot())
	}

	require.Len(t, restored.SpeciesSet.Species, len(pop.SpeciesSet.Species))
	for sid, sp := range pop.SpeciesSet.Species {
		rsp, ok := restored.SpeciesSet.Species[sid]
		require.True(t, ok)
		assert.Equal(t, sp.Created, rsp.Created)
		assert.Equal(t, sp.LastImproved, rsp.LastImproved)
		assert.Equal(t, sp.FitnessHistory, rsp.FitnessHistory)
		assert.Equal(t, sp.Representative.Key, rsp.Representative.Key)
		assert.ElementsMatch(t, mapKeys(sp.Members), mapKeys(rsp.Members))
	}

	require.NotNil(t, restored.BestGenome)
	assert.Equal(t, pop.BestGenome.Snapshot(), restored.BestGenome.Snapshot())

	// A restored run keeps evolving: structural mutations continue from the
	// saved ledger instead of re-numbering from zero.
	before := restored.Registry.Len()
	for i := 0; i < 2; i++ {
		_, err := restored.RunGeneration(evaluate)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, restored.Registry.Len(), before)
}

func TestLoadCheckpointMissingFile(t *testing.T) {
	cfg := smallConfig()
	_, err := LoadCheckpointWithConfig(filepath.Join(t.TempDir(), "absent.checkpoint"), cfg, 1)
	assert.Error(t, err)
}

func mapKeys(m map[int]*Genome) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
