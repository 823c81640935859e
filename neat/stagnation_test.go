package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// speciesWithFitness builds a one-member species whose member carries the
// given fitness.
func speciesWithFitness(key, created int, fitness float64) *Species {
	s := NewSpecies(key, created)
	g := NewGenome(key * 100)
	g.Fitness = fitness
	s.Members[g.Key] = g
	return s
}

func TestStagnationRejectsUnknownAggregate(t *testing.T) {
	_, err := NewStagnation(&StagnationConfig{SpeciesFitnessFunc: "harmonic"})
	assert.Error(t, err)
}

func TestStagnationMarksOldSpecies(t *testing.T) {
	cfg := &StagnationConfig{SpeciesFitnessFunc: "mean", MaxStagnation: 5, SpeciesElitism: 0}
	stag, err := NewStagnation(cfg)
	require.NoError(t, err)

	neatCfg := DefaultConfig()
	ss := NewSpeciesSet(&neatCfg.Compatibility)
	ss.Species[1] = speciesWithFitness(1, 0, 1.0)
	ss.Species[2] = speciesWithFitness(2, 0, 2.0)

	// Both species keep flat fitness for longer than MaxStagnation.
	for generation := 1; generation <= 6; generation++ {
		info, err := stag.Update(ss, generation)
		require.NoError(t, err)
		if generation < 6 {
			for _, i := range info {
				assert.False(t, i.IsStagnant, "generation %d is inside the window", generation)
			}
		}
	}

	info, err := stag.Update(ss, 7)
	require.NoError(t, err)
	for _, i := range info {
		assert.True(t, i.IsStagnant)
	}
}

func TestStagnationSparesEliteSpecies(t *testing.T) {
	cfg := &StagnationConfig{SpeciesFitnessFunc: "mean", MaxStagnation: 1, SpeciesElitism: 1}
	stag, err := NewStagnation(cfg)
	require.NoError(t, err)

	neatCfg := DefaultConfig()
	ss := NewSpeciesSet(&neatCfg.Compatibility)
	ss.Species[1] = speciesWithFitness(1, 0, 1.0)
	ss.Species[2] = speciesWithFitness(2, 0, 2.0)

	for generation := 1; generation <= 4; generation++ {
		info, err := stag.Update(ss, generation)
		require.NoError(t, err)

		byID := make(map[int]StagnationInfo, len(info))
		for _, i := range info {
			byID[i.SpeciesID] = i
		}
		assert.False(t, byID[2].IsStagnant, "the fittest species is never stagnant")
		if generation >= 3 {
			assert.True(t, byID[1].IsStagnant)
		}
	}
}

func TestStagnationImprovementResetsClock(t *testing.T) {
	cfg := &StagnationConfig{SpeciesFitnessFunc: "max", MaxStagnation: 3, SpeciesElitism: 0}
	stag, err := NewStagnation(cfg)
	require.NoError(t, err)

	neatCfg := DefaultConfig()
	ss := NewSpeciesSet(&neatCfg.Compatibility)
	sp := speciesWithFitness(1, 0, 1.0)
	ss.Species[1] = sp

	_, err = stag.Update(ss, 1)
	require.NoError(t, err)
	_, err = stag.Update(ss, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, sp.LastImproved)

	// A fitness jump in generation 3 restarts the stagnation clock.
	for _, g := range sp.Members {
		g.Fitness = 5.0
	}
	_, err = stag.Update(ss, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, sp.LastImproved)

	info, err := stag.Update(ss, 5)
	require.NoError(t, err)
	require.Len(t, info, 1)
	assert.False(t, info[0].IsStagnant)
}
