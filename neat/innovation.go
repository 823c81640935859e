package neat

import (
	"fmt"
	"sync"
)

// InnovationRecord is one entry in the process-wide innovation ledger. Records
// are stored in creation order, so Order always equals the record's own index.
type InnovationRecord struct {
	Order       int
	Source      int
	Destination int
}

// connPair is the lookup key for a registered structural mutation.
type connPair struct {
	source      int
	destination int
}

// InnovationRegistry is the process-wide, append-only ledger mapping a
// (source, destination) structural mutation to the innovation number first
// assigned to it. Two genomes that independently discover the same structural
// mutation, in any generation, receive the same number; this is what allows
// crossover and distance computation to align genomes without isomorphism
// testing.
//
// The registry is shared mutable state: one instance must serve the whole run,
// and the read-then-maybe-append sequence in Register is serialized by a
// mutex so concurrent mutation workers cannot register duplicate numbers for
// the same pair.
type InnovationRegistry struct {
	mu      sync.Mutex
	records []InnovationRecord
	index   map[connPair]int
}

// NewInnovationRegistry creates an empty registry. It is created once at
// process start and never reset during a run.
func NewInnovationRegistry() *InnovationRegistry {
	return &InnovationRegistry{
		index: make(map[connPair]int),
	}
}

// Register returns the innovation number for the (source, destination) pair,
// appending a new record with order equal to the current registry size if the
// pair has never been seen. Registering the same pair twice, in any order
// relative to other registrations, returns the same number both times.
func (r *InnovationRegistry) Register(source, destination int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := connPair{source: source, destination: destination}
	if order, ok := r.index[key]; ok {
		return order
	}

	order := len(r.records)
	r.records = append(r.records, InnovationRecord{
		Order:       order,
		Source:      source,
		Destination: destination,
	})
	r.index[key] = order
	return order
}

// Len returns the number of registered innovations.
func (r *InnovationRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Records returns a snapshot of the ledger in creation order, suitable for
// persistence at a checkpoint. The returned slice is a copy; the caller may
// retain it freely.
func (r *InnovationRegistry) Records() []InnovationRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]InnovationRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Restore replaces the registry contents with a previously persisted ledger.
// Resuming a run without the ledger breaks the global-identity guarantee for
// any further mutation, so loaders must call this before mutating anything.
func (r *InnovationRegistry) Restore(records []InnovationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	restored := make([]InnovationRecord, 0, len(records))
	index := make(map[connPair]int, len(records))
	for i, rec := range records {
		if rec.Order != i {
			return fmt.Errorf("innovation ledger corrupt: record %d carries order %d", i, rec.Order)
		}
		key := connPair{source: rec.Source, destination: rec.Destination}
		if _, dup := index[key]; dup {
			return fmt.Errorf("innovation ledger corrupt: duplicate pair (%d, %d)", rec.Source, rec.Destination)
		}
		restored = append(restored, rec)
		index[key] = rec.Order
	}

	r.records = restored
	r.index = index
	return nil
}
