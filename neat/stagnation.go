package neat

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Stagnation manages the detection of stagnant species.
type Stagnation struct {
	Config             *StagnationConfig
	SpeciesFitnessFunc func([]float64) float64
}

// NewStagnation creates a new stagnation manager.
func NewStagnation(config *StagnationConfig) (*Stagnation, error) {
	fn, ok := StatFunctions[strings.ToLower(config.SpeciesFitnessFunc)]
	if !ok {
		return nil, fmt.Errorf("invalid species_fitness_func in config: %s", config.SpeciesFitnessFunc)
	}
	return &Stagnation{
		Config:             config,
		SpeciesFitnessFunc: fn,
	}, nil
}

// StagnationInfo holds the stagnation verdict for a single species.
type StagnationInfo struct {
	SpeciesID  int
	Species    *Species
	IsStagnant bool
}

// Update recomputes each species' aggregate fitness, appends it to the
// species' history, and marks species stagnant when they have not improved
// for MaxStagnation generations. The SpeciesElitism fittest species are never
// marked stagnant, so the population cannot talk itself into extinction.
func (s *Stagnation) Update(speciesSet *SpeciesSet, generation int) ([]StagnationInfo, error) {
	if len(speciesSet.Species) == 0 {
		return []StagnationInfo{}, nil
	}

	ids := make([]int, 0, len(speciesSet.Species))
	for sid := range speciesSet.Species {
		ids = append(ids, sid)
	}
	sort.Ints(ids)

	for _, sid := range ids {
		sp := speciesSet.Species[sid]

		previousMax := math.Inf(-1)
		if len(sp.FitnessHistory) > 0 {
			previousMax = MaxFloat(sp.FitnessHistory)
		}

		memberFitnesses := sp.GetFitnesses()
		if len(memberFitnesses) == 0 {
			sp.Fitness = math.Inf(-1)
		} else {
			sp.Fitness = s.SpeciesFitnessFunc(memberFitnesses)
		}
		sp.FitnessHistory = append(sp.FitnessHistory, sp.Fitness)
		sp.AdjustedFitness = 0

		if sp.Fitness > previousMax {
			sp.LastImproved = generation
		}
	}

	// Sort ascending by fitness so the elite (spared) species sit at the end.
	sort.Slice(ids, func(i, j int) bool {
		return speciesSet.Species[ids[i]].Fitness < speciesSet.Species[ids[j]].Fitness
	})

	result := make([]StagnationInfo, len(ids))
	numSpecies := len(ids)
	for i, sid := range ids {
		sp := speciesSet.Species[sid]
		stagnantTime := generation - sp.LastImproved
		isStagnant := stagnantTime >= s.Config.MaxStagnation
		if (numSpecies - i) <= s.Config.SpeciesElitism {
			isStagnant = false
		}
		result[i] = StagnationInfo{
			SpeciesID:  sid,
			Species:    sp,
			IsStagnant: isStagnant,
		}
	}
	return result, nil
}
