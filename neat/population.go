package neat

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// FitnessFunc evaluates the current generation and writes each genome's
// Fitness field. The tournament driver is the usual implementation; tests
// supply stubs.
type FitnessFunc func(genomes map[int]*Genome) error

// Population holds the state of one evolutionary run: the current generation
// of genomes, the species bookkeeping, and the engines, all sharing one
// innovation registry for the lifetime of the run.
type Population struct {
	Config       *Config
	Registry     *InnovationRegistry
	Mutation     *MutationEngine
	Crossover    *CrossoverEngine
	Population   map[int]*Genome
	SpeciesSet   *SpeciesSet
	Reproduction *Reproduction
	Stagnation   *Stagnation
	Generation   int
	BestGenome   *Genome
}

// NewPopulation creates a population with a fresh registry and base genomes.
// The seed drives every random decision in the run, so two populations built
// from the same config and seed evolve identically under identical fitness.
func NewPopulation(config *Config, seed int64) (*Population, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	registry := NewInnovationRegistry()
	stagnation, err := NewStagnation(&config.Stagnation)
	if err != nil {
		return nil, fmt.Errorf("failed to create stagnation manager: %w", err)
	}

	reproduction := NewReproduction(&config.Reproduction, stagnation, rng)
	initial := reproduction.CreateNewPopulation(&config.Genome, &config.Mutation, registry, config.Neat.PopSize)

	p := &Population{
		Config:       config,
		Registry:     registry,
		Mutation:     NewMutationEngine(&config.Mutation, registry, rng),
		Crossover:    NewCrossoverEngine(&config.Compatibility, rng),
		Population:   initial,
		SpeciesSet:   NewSpeciesSet(&config.Compatibility),
		Reproduction: reproduction,
		Stagnation:   stagnation,
	}
	return p, nil
}

// RunGeneration executes a single generation: fitness evaluation, speciation,
// reproduction. Returns the winning genome if the fitness threshold is met
// this generation, otherwise nil.
func (p *Population) RunGeneration(fitnessFunc FitnessFunc) (*Genome, error) {
	p.Generation++
	genStart := time.Now()
	fmt.Printf("****** Generation %d ******\n", p.Generation)

	if err := fitnessFunc(p.Population); err != nil {
		return nil, fmt.Errorf("fitness evaluation failed in generation %d: %w", p.Generation, err)
	}

	currentBest := p.findBestGenome()
	if currentBest != nil {
		fmt.Printf(" Best of generation %d: Key %d, Fitness %.4f\n", p.Generation, currentBest.Key, currentBest.Fitness)
	}
	if currentBest != nil && (p.BestGenome == nil || currentBest.Fitness > p.BestGenome.Fitness) {
		// Clone: the population map is replaced each generation, and the
		// champion must survive it.
		p.BestGenome = currentBest.Clone()
		fmt.Printf(" New best genome! Key %d, Fitness %.4f\n", p.BestGenome.Key, p.BestGenome.Fitness)
	}

	if !p.Config.Neat.NoFitnessTermination && p.BestGenome != nil {
		if p.BestGenome.Fitness >= p.Config.Neat.FitnessThreshold {
			return p.BestGenome, nil
		}
	}

	if err := p.SpeciesSet.Speciate(p.Crossover, p.Population, p.Generation); err != nil {
		return p.BestGenome, fmt.Errorf("speciation failed in generation %d: %w", p.Generation, err)
	}
	fmt.Printf(" Population divided into %d species.\n", len(p.SpeciesSet.Species))

	newPopulation, err := p.Reproduction.Reproduce(p.Config, p.SpeciesSet, p.Crossover, p.Mutation, p.Config.Neat.PopSize, p.Generation)
	if err != nil {
		return p.BestGenome, fmt.Errorf("reproduction failed in generation %d: %w", p.Generation, err)
	}

	if len(newPopulation) == 0 {
		fmt.Println("Population extinct after reproduction.")
		if p.Config.Neat.ResetOnExtinction {
			fmt.Println("Resetting population due to extinction.")
			p.Population = p.Reproduction.CreateNewPopulation(&p.Config.Genome, &p.Config.Mutation, p.Registry, p.Config.Neat.PopSize)
			p.SpeciesSet = NewSpeciesSet(&p.Config.Compatibility)
			return nil, nil
		}
		return p.BestGenome, fmt.Errorf("population extinct in generation %d", p.Generation)
	}
	p.Population = newPopulation

	fmt.Printf("Generation %d finished in %s\n\n", p.Generation, time.Since(genStart))
	return nil, nil
}

// findBestGenome finds the genome with the highest fitness in the current
// population.
func (p *Population) findBestGenome() *Genome {
	var best *Genome
	maxFitness := math.Inf(-1)
	for _, g := range p.Population {
		if g.Fitness > maxFitness {
			maxFitness = g.Fitness
			best = g
		}
	}
	return best
}
