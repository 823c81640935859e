package neat

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Reproduction handles the creation of new genomes, either from scratch for a
// base population or through crossover and mutation.
type Reproduction struct {
	Config        *ReproductionConfig
	NextGenomeKey int
	Ancestors     map[int][]int // genome key -> parent keys
	Stagnation    *Stagnation
	rng           *rand.Rand
}

// NewReproduction creates a new reproduction manager.
func NewReproduction(config *ReproductionConfig, stagnation *Stagnation, rng *rand.Rand) *Reproduction {
	return &Reproduction{
		Config:        config,
		NextGenomeKey: 1,
		Ancestors:     make(map[int][]int),
		Stagnation:    stagnation,
		rng:           rng,
	}
}

// getNextKey gets the next available genome key and increments the counter.
func (r *Reproduction) getNextKey() int {
	key := r.NextGenomeKey
	r.NextGenomeKey++
	return key
}

// CreateNewPopulation creates the base population. Input node ids are
// 0..NumInputs-1 and output node ids NumInputs..NumInputs+NumOutputs-1, fixed
// here for the whole run; every input is connected to every output with a
// uniform random weight, and each connection's innovation number comes from
// the shared registry so all base genomes align gene-for-gene.
func (r *Reproduction) CreateNewPopulation(genomeConfig *GenomeConfig, mutationConfig *MutationConfig, registry *InnovationRegistry, popSize int) map[int]*Genome {
	newGenomes := make(map[int]*Genome, popSize)
	for i := 0; i < popSize; i++ {
		key := r.getNextKey()
		g := NewGenome(key)
		for _, ik := range genomeConfig.InputKeys {
			g.AddNode(InputNode, ik)
		}
		for _, ok := range genomeConfig.OutputKeys {
			g.AddNode(OutputNode, ok)
		}
		for _, ik := range genomeConfig.InputKeys {
			for _, ok := range genomeConfig.OutputKeys {
				innovation := registry.Register(ik, ok)
				weight := mutationConfig.WeightMinValue +
					r.rng.Float64()*(mutationConfig.WeightMaxValue-mutationConfig.WeightMinValue)
				g.AddConnection(ik, ok, weight, true, innovation)
			}
		}
		g.Canonicalize()
		newGenomes[key] = g
		r.Ancestors[key] = []int{}
	}
	return newGenomes
}

// Reproduce creates the next generation from the current species and their
// fitness. The returned genomes are new objects; the previous generation is
// discarded by the caller (elites are cloned, not transferred).
func (r *Reproduction) Reproduce(config *Config, speciesSet *SpeciesSet, crossover *CrossoverEngine, mutation *MutationEngine, popSize, generation int) (map[int]*Genome, error) {
	stagnationInfo, err := r.Stagnation.Update(speciesSet, generation)
	if err != nil {
		return nil, fmt.Errorf("failed to update stagnation: %w", err)
	}

	// Filter out stagnant and empty species.
	var allFitnesses []float64
	var remainingSpecies []*Species
	for _, info := range stagnationInfo {
		if info.IsStagnant {
			fmt.Printf("Info: Species %d removed due to stagnation.\n", info.SpeciesID)
			continue
		}
		memberFitnesses := info.Species.GetFitnesses()
		if len(memberFitnesses) == 0 {
			fmt.Printf("Info: Species %d removed as it has no members.\n", info.SpeciesID)
			continue
		}
		allFitnesses = append(allFitnesses, memberFitnesses...)
		remainingSpecies = append(remainingSpecies, info.Species)
	}

	if len(remainingSpecies) == 0 {
		return make(map[int]*Genome), nil
	}

	// Adjusted fitness by fitness sharing: each species' mean fitness is
	// rescaled into [0,1] over the population-wide fitness range, crowding
	// out none of the small species entirely.
	minFitness := MinFloat(allFitnesses)
	maxFitness := MaxFloat(allFitnesses)
	fitnessRange := math.Max(1.0, maxFitness-minFitness)

	adjustedSum := 0.0
	for _, sp := range remainingSpecies {
		sp.AdjustedFitness = (sp.Fitness - minFitness) / fitnessRange
		for _, g := range sp.Members {
			g.AdjustedFitness = (g.Fitness - minFitness) / fitnessRange / float64(len(sp.Members))
		}
		adjustedSum += sp.AdjustedFitness
	}

	previousSizes := make([]int, len(remainingSpecies))
	adjustedFitnesses := make([]float64, len(remainingSpecies))
	for i, sp := range remainingSpecies {
		previousSizes[i] = len(sp.Members)
		adjustedFitnesses[i] = sp.AdjustedFitness
	}

	spawnMinSize := maxInt(r.Config.MinSpeciesSize, r.Config.Elitism)
	spawnAmounts := r.computeSpawnAmounts(adjustedFitnesses, adjustedSum, previousSizes, popSize, spawnMinSize)

	newPopulation := make(map[int]*Genome)
	newAncestors := make(map[int][]int)

	for i, sp := range remainingSpecies {
		spawn := maxInt(spawnAmounts[i], r.Config.Elitism)
		if spawn <= 0 {
			continue
		}

		oldMembers := make([]*Genome, 0, len(sp.Members))
		for _, g := range sp.Members {
			oldMembers = append(oldMembers, g)
		}
		sort.Slice(oldMembers, func(a, b int) bool {
			if oldMembers[a].Fitness != oldMembers[b].Fitness {
				return oldMembers[a].Fitness > oldMembers[b].Fitness
			}
			return oldMembers[a].Key < oldMembers[b].Key
		})

		// Elites survive as clones under fresh keys: the next generation's
		// genomes are new objects even when structurally identical.
		for j := 0; j < r.Config.Elitism && j < len(oldMembers) && spawn > 0; j++ {
			elite := oldMembers[j]
			key := r.getNextKey()
			clone := elite.Clone()
			clone.Key = key
			newPopulation[key] = clone
			newAncestors[key] = []int{elite.Key}
			spawn--
		}
		if spawn <= 0 {
			continue
		}

		survivalCutoff := int(math.Ceil(r.Config.SurvivalThreshold * float64(len(oldMembers))))
		survivalCutoff = maxInt(survivalCutoff, 2)
		if survivalCutoff > len(oldMembers) {
			survivalCutoff = len(oldMembers)
		}
		parents := oldMembers[:survivalCutoff]

		for j := 0; j < spawn; j++ {
			parent1 := parents[r.rng.Intn(len(parents))]
			parent2 := parents[r.rng.Intn(len(parents))]
			// Excess and disjoint genes come only from the side passed
			// first, which must be the more-fit parent.
			if parent2.Fitness > parent1.Fitness {
				parent1, parent2 = parent2, parent1
			}

			child, err := crossover.Offspring(parent1, parent2)
			if err != nil {
				return nil, fmt.Errorf("reproduction in species %d: %w", sp.Key, err)
			}
			child.Key = r.getNextKey()
			mutation.MutateAll(child)

			newPopulation[child.Key] = child
			newAncestors[child.Key] = []int{parent1.Key, parent2.Key}
		}
	}
	r.Ancestors = newAncestors

	return newPopulation, nil
}

// computeSpawnAmounts calculates how many offspring each species produces,
// proportional to adjusted fitness, dampened toward the species' previous
// size, then normalized so the total matches the target population size.
func (r *Reproduction) computeSpawnAmounts(adjustedFitnesses []float64, adjustedSum float64, previousSizes []int, popSize, minSpeciesSize int) []int {
	spawnAmounts := make([]int, len(adjustedFitnesses))
	for i, af := range adjustedFitnesses {
		ps := previousSizes[i]
		var s float64
		if adjustedSum > 0 {
			s = af / adjustedSum * float64(popSize)
		} else {
			s = float64(minSpeciesSize)
		}
		s = math.Max(float64(minSpeciesSize), s)

		d := (s - float64(ps)) * 0.5
		c := int(math.Round(d))
		spawn := ps
		if c != 0 {
			spawn += c
		} else if d > 0 {
			spawn++
		} else if d < 0 {
			spawn--
		}
		spawnAmounts[i] = maxInt(minSpeciesSize, spawn)
	}

	totalSpawn := 0
	for _, sa := range spawnAmounts {
		totalSpawn += sa
	}
	if totalSpawn == 0 {
		for i := range spawnAmounts {
			spawnAmounts[i] = minSpeciesSize
		}
		return spawnAmounts
	}

	norm := float64(popSize) / float64(totalSpawn)
	currentTotal := 0
	for i, sa := range spawnAmounts {
		spawnAmounts[i] = maxInt(minSpeciesSize, int(math.Round(float64(sa)*norm)))
		currentTotal += spawnAmounts[i]
	}

	// Rounding and the minimum-size floor can leave the total off target;
	// hand out or take back one slot at a time.
	diff := popSize - currentTotal
	for idx := 0; diff != 0 && idx < len(spawnAmounts)*2; idx++ {
		i := idx % len(spawnAmounts)
		if diff > 0 {
			spawnAmounts[i]++
			diff--
		} else if spawnAmounts[i] > minSpeciesSize {
			spawnAmounts[i]--
			diff++
		}
	}
	return spawnAmounts
}

// maxInt returns the greater of two integers.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
