package neat

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"sort"
)

// speciesRecord is the persistable form of one species. Members are stored by
// key; the genome objects themselves live in the checkpoint's genome list.
type speciesRecord struct {
	Key               int
	Created           int
	LastImproved      int
	RepresentativeKey int
	MemberKeys        []int
	Fitness           float64
	AdjustedFitness   float64
	FitnessHistory    []float64
}

// checkpointData is everything needed to resume a run: the generation's
// genomes, the species structure, reproduction state, and — critically — the
// full innovation ledger. Reloading without the ledger would break the
// global-identity guarantee for any mutation in the resumed run.
type checkpointData struct {
	Generation    int
	Genomes       []GenomeRecord
	Species       []speciesRecord
	SpeciesIndex  int
	NextGenomeKey int
	Ancestors     map[int][]int
	BestGenome    *GenomeRecord
	Ledger        []InnovationRecord
}

// SaveCheckpoint saves the current state of the Population to a gzip-compressed
// gob file.
func (p *Population) SaveCheckpoint(filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", filePath, err)
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)
	defer gzWriter.Close()

	data := checkpointData{
		Generation:    p.Generation,
		SpeciesIndex:  p.SpeciesSet.Indexer,
		NextGenomeKey: p.Reproduction.NextGenomeKey,
		Ancestors:     p.Reproduction.Ancestors,
		Ledger:        p.Registry.Records(),
	}
	for _, g := range sortedGenomes(p.Population) {
		data.Genomes = append(data.Genomes, g.Snapshot())
	}
	for _, sid := range sortedSpeciesIDs(p.SpeciesSet) {
		sp := p.SpeciesSet.Species[sid]
		rec := speciesRecord{
			Key:             sp.Key,
			Created:         sp.Created,
			LastImproved:    sp.LastImproved,
			Fitness:         sp.Fitness,
			AdjustedFitness: sp.AdjustedFitness,
			FitnessHistory:  append([]float64(nil), sp.FitnessHistory...),
		}
		if sp.Representative != nil {
			rec.RepresentativeKey = sp.Representative.Key
		}
		for _, g := range sortedGenomes(sp.Members) {
			rec.MemberKeys = append(rec.MemberKeys, g.Key)
		}
		data.Species = append(data.Species, rec)
	}
	if p.BestGenome != nil {
		best := p.BestGenome.Snapshot()
		data.BestGenome = &best
	}

	encoder := gob.NewEncoder(gzWriter)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode population data: %w", err)
	}

	fmt.Printf("Checkpoint saved to %s\n", filePath)
	return nil
}

// LoadCheckpoint loads a Population state from a checkpoint file. It requires
// the original configuration file path to reconstruct the Config object, and
// a seed for the resumed run's random decisions.
func LoadCheckpoint(checkpointPath, configPath string, seed int64) (*Population, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config '%s' for checkpoint: %w", configPath, err)
	}
	return LoadCheckpointWithConfig(checkpointPath, config, seed)
}

// LoadCheckpointWithConfig is LoadCheckpoint for callers that already hold a
// Config (tests, or a CLI that built one programmatically).
func LoadCheckpointWithConfig(checkpointPath string, config *Config, seed int64) (*Population, error) {
	file, err := os.Open(checkpointPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file '%s': %w", checkpointPath, err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for checkpoint: %w", err)
	}
	defer gzReader.Close()

	var data checkpointData
	if err := gob.NewDecoder(gzReader).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode population data from checkpoint: %w", err)
	}

	p, err := NewPopulation(config, seed)
	if err != nil {
		return nil, err
	}

	// The ledger must come back before anything mutates, and the base
	// genomes NewPopulation created are discarded in favor of the saved ones.
	if err := p.Registry.Restore(data.Ledger); err != nil {
		return nil, fmt.Errorf("failed to restore innovation ledger: %w", err)
	}

	p.Generation = data.Generation
	p.Population = make(map[int]*Genome, len(data.Genomes))
	for _, rec := range data.Genomes {
		p.Population[rec.Key] = FromSnapshot(rec)
	}

	p.SpeciesSet = NewSpeciesSet(&config.Compatibility)
	p.SpeciesSet.Indexer = data.SpeciesIndex
	for _, rec := range data.Species {
		sp := NewSpecies(rec.Key, rec.Created)
		sp.LastImproved = rec.LastImproved
		sp.Fitness = rec.Fitness
		sp.AdjustedFitness = rec.AdjustedFitness
		sp.FitnessHistory = append([]float64(nil), rec.FitnessHistory...)
		for _, gk := range rec.MemberKeys {
			if g, ok := p.Population[gk]; ok {
				sp.Members[gk] = g
				p.SpeciesSet.GenomeToSpecies[gk] = rec.Key
			}
		}
		sp.Representative = p.Population[rec.RepresentativeKey]
		p.SpeciesSet.Species[rec.Key] = sp
	}

	p.Reproduction.NextGenomeKey = data.NextGenomeKey
	if data.Ancestors != nil {
		p.Reproduction.Ancestors = data.Ancestors
	}
	if data.BestGenome != nil {
		p.BestGenome = FromSnapshot(*data.BestGenome)
	}

	fmt.Printf("Checkpoint loaded from %s (Generation %d)\n", checkpointPath, p.Generation)
	return p, nil
}

// sortedSpeciesIDs returns the species ids in ascending order.
func sortedSpeciesIDs(ss *SpeciesSet) []int {
	ids := make([]int, 0, len(ss.Species))
	for sid := range ss.Species {
		ids = append(ids, sid)
	}
	sort.Ints(ids)
	return ids
}
