package storage

import (
	"context"
	"sync"

	"github.com/baldhumanity/evoboard/neat"
)

// MemoryStore is the in-process Store used by tests and by runs that do not
// ask for a database.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	genomes     map[string]map[int]neat.GenomeRecord
	ledgers     map[string][]neat.InnovationRecord
	stats       map[string][]GenerationStats
}

// NewMemoryStore returns an uninitialized in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.genomes = make(map[string]map[int]neat.GenomeRecord)
	s.ledgers = make(map[string][]neat.InnovationRecord)
	s.stats = make(map[string][]GenerationStats)
	return nil
}

func (s *MemoryStore) SaveGenome(_ context.Context, runID string, rec neat.GenomeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.genomes[runID] == nil {
		s.genomes[runID] = make(map[int]neat.GenomeRecord)
	}
	s.genomes[runID][rec.Key] = cloneGenomeRecord(rec)
	return nil
}

func (s *MemoryStore) GetGenome(_ context.Context, runID string, key int) (neat.GenomeRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.genomes[runID][key]
	if !ok {
		return neat.GenomeRecord{}, false, nil
	}
	return cloneGenomeRecord(rec), true, nil
}

func (s *MemoryStore) SaveLedger(_ context.Context, runID string, records []neat.InnovationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledgers[runID] = append([]neat.InnovationRecord(nil), records...)
	return nil
}

func (s *MemoryStore) GetLedger(_ context.Context, runID string) ([]neat.InnovationRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.ledgers[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]neat.InnovationRecord(nil), records...), true, nil
}

func (s *MemoryStore) AppendGenerationStats(_ context.Context, runID string, stats GenerationStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats[runID] = append(s.stats[runID], stats)
	return nil
}

func (s *MemoryStore) GetGenerationStats(_ context.Context, runID string) ([]GenerationStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]GenerationStats(nil), s.stats[runID]...), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// cloneGenomeRecord deep-copies a record so callers and the store never share
// slices.
func cloneGenomeRecord(rec neat.GenomeRecord) neat.GenomeRecord {
	out := rec
	out.Nodes = append([]neat.NodeGene(nil), rec.Nodes...)
	out.Connections = append([]neat.ConnectionGene(nil), rec.Connections...)
	return out
}
