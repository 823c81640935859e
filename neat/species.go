package neat

import (
	"fmt"
	"math"
	"sort"
)

// Species represents a group of genetically similar genomes.
type Species struct {
	Key             int
	Created         int             // generation the species was created in
	LastImproved    int             // last generation where fitness improved
	Representative  *Genome         // representative genome for this species
	Members         map[int]*Genome // genome key -> genome
	Fitness         float64         // aggregate fitness of the members
	AdjustedFitness float64         // fitness adjusted by sharing
	FitnessHistory  []float64
}

// NewSpecies creates a new species.
func NewSpecies(key, generation int) *Species {
	return &Species{
		Key:          key,
		Created:      generation,
		LastImproved: generation,
		Members:      make(map[int]*Genome),
	}
}

// Update replaces the species' representative and members.
func (s *Species) Update(representative *Genome, members map[int]*Genome) {
	s.Representative = representative
	s.Members = members
}

// GetFitnesses returns a slice containing the fitness values of all members.
func (s *Species) GetFitnesses() []float64 {
	fitnesses := make([]float64, 0, len(s.Members))
	for _, g := range s.Members {
		fitnesses = append(fitnesses, g.Fitness)
	}
	return fitnesses
}

// --------------------------- distance cache ---------------------------

// genomePair keys the distance cache by an ordered pair of genome keys.
type genomePair struct {
	lo int
	hi int
}

// DistanceCache stores computed speciation distances between genome pairs to
// avoid redundant alignment work during one speciation pass.
type DistanceCache struct {
	Engine    *CrossoverEngine
	Distances map[genomePair]float64
	Hits      int
	Misses    int
}

// NewDistanceCache creates an empty cache backed by the given engine.
func NewDistanceCache(engine *CrossoverEngine) *DistanceCache {
	return &DistanceCache{
		Engine:    engine,
		Distances: make(map[genomePair]float64),
	}
}

// Distance computes or retrieves the distance between two genomes.
func (dc *DistanceCache) Distance(a, b *Genome) (float64, error) {
	key := genomePair{lo: a.Key, hi: b.Key}
	if key.lo > key.hi {
		key.lo, key.hi = key.hi, key.lo
	}

	if d, ok := dc.Distances[key]; ok {
		dc.Hits++
		return d, nil
	}

	dc.Misses++
	d, err := dc.Engine.Distance(a, b)
	if err != nil {
		return 0, err
	}
	dc.Distances[key] = d
	return d, nil
}

// --------------------------- SpeciesSet ---------------------------

// SpeciesSet manages the collection of species within a population.
type SpeciesSet struct {
	Species         map[int]*Species
	GenomeToSpecies map[int]int
	Indexer         int // counter for new species keys, starts at 1
	Config          *CompatibilityConfig
}

// NewSpeciesSet creates a new species set manager.
func NewSpeciesSet(config *CompatibilityConfig) *SpeciesSet {
	return &SpeciesSet{
		Species:         make(map[int]*Species),
		GenomeToSpecies: make(map[int]int),
		Indexer:         1,
		Config:          config,
	}
}

// Speciate partitions the population into species by speciation distance.
// Each surviving species keeps, as its new representative, the population
// genome closest to its old representative; remaining genomes join the first
// species whose representative lies within the compatibility threshold, or
// found a new species.
func (ss *SpeciesSet) Speciate(engine *CrossoverEngine, population map[int]*Genome, generation int) error {
	if len(population) == 0 {
		ss.Species = make(map[int]*Species)
		ss.GenomeToSpecies = make(map[int]int)
		return nil
	}

	cache := NewDistanceCache(engine)

	unspeciated := make(map[int]*Genome, len(population))
	for k, v := range population {
		unspeciated[k] = v
	}
	newRepresentatives := make(map[int]*Genome)
	newMembers := make(map[int][]int)

	// Re-anchor each existing species on the closest genome still alive.
	existingIDs := make([]int, 0, len(ss.Species))
	for sid := range ss.Species {
		existingIDs = append(existingIDs, sid)
	}
	sort.Ints(existingIDs)
	for _, sid := range existingIDs {
		if len(unspeciated) == 0 {
			break
		}
		s := ss.Species[sid]
		if s.Representative == nil {
			continue
		}

		var bestGenome *Genome
		bestDist := math.Inf(1)
		for _, g := range sortedGenomes(unspeciated) {
			d, err := cache.Distance(s.Representative, g)
			if err != nil {
				return fmt.Errorf("speciation: %w", err)
			}
			if d < bestDist {
				bestDist = d
				bestGenome = g
			}
		}
		if bestGenome == nil {
			continue
		}
		newRepresentatives[sid] = bestGenome
		newMembers[sid] = []int{bestGenome.Key}
		delete(unspeciated, bestGenome.Key)
	}

	// Assign the remaining genomes, in key order for determinism.
	for _, g := range sortedGenomes(unspeciated) {
		bestSpecies := -1
		minDist := math.Inf(1)
		repIDs := make([]int, 0, len(newRepresentatives))
		for sid := range newRepresentatives {
			repIDs = append(repIDs, sid)
		}
		sort.Ints(repIDs)
		for _, sid := range repIDs {
			d, err := cache.Distance(newRepresentatives[sid], g)
			if err != nil {
				return fmt.Errorf("speciation: %w", err)
			}
			if d < ss.Config.Threshold && d < minDist {
				minDist = d
				bestSpecies = sid
			}
		}

		if bestSpecies != -1 {
			newMembers[bestSpecies] = append(newMembers[bestSpecies], g.Key)
		} else {
			sid := ss.Indexer
			ss.Indexer++
			newRepresentatives[sid] = g
			newMembers[sid] = []int{g.Key}
		}
	}

	// Rebuild the species map from the new assignment.
	newSpeciesMap := make(map[int]*Species)
	newGenomeToSpecies := make(map[int]int)
	for sid, representative := range newRepresentatives {
		membersList := newMembers[sid]
		if len(membersList) == 0 {
			continue
		}

		s := ss.Species[sid]
		if s == nil {
			s = NewSpecies(sid, generation)
		}

		memberMap := make(map[int]*Genome, len(membersList))
		for _, gid := range membersList {
			memberMap[gid] = population[gid]
			newGenomeToSpecies[gid] = sid
		}
		s.Update(representative, memberMap)
		newSpeciesMap[sid] = s
	}

	ss.Species = newSpeciesMap
	ss.GenomeToSpecies = newGenomeToSpecies
	return nil
}

// GetSpecies returns the Species object for a given genome key.
func (ss *SpeciesSet) GetSpecies(genomeKey int) (*Species, bool) {
	sid, exists := ss.GenomeToSpecies[genomeKey]
	if !exists {
		return nil, false
	}
	s, exists := ss.Species[sid]
	return s, exists
}

// sortedGenomes returns the genomes of a map sorted by key, for deterministic
// iteration.
func sortedGenomes(m map[int]*Genome) []*Genome {
	out := make([]*Genome, 0, len(m))
	for _, g := range m {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
