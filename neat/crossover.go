package neat

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ErrEmptyGenome is returned when a genome with no connections is submitted
// to alignment or distance computation. An empty genome has no maximum
// innovation number, so alignment against it is a caller contract violation
// rather than a recoverable case.
var ErrEmptyGenome = errors.New("genome has no connections")

// CrossoverEngine aligns two parent genomes by innovation number and uses the
// alignment both to recombine offspring and to compute the scalar speciation
// distance.
type CrossoverEngine struct {
	Config *CompatibilityConfig
	rng    *rand.Rand
}

// NewCrossoverEngine creates a crossover engine with the given compatibility
// coefficients and random source.
func NewCrossoverEngine(config *CompatibilityConfig, rng *rand.Rand) *CrossoverEngine {
	return &CrossoverEngine{Config: config, rng: rng}
}

// alignment is the classification of two genomes' connections by innovation
// number. matchA and matchB are paired index-for-index. Excess genes carry an
// innovation above the smaller of the two genomes' maximum innovations; the
// remaining unmatched genes are disjoint.
type alignment struct {
	matchA    []ConnectionGene
	matchB    []ConnectionGene
	disjointA []ConnectionGene
	disjointB []ConnectionGene
	excessA   []ConnectionGene
	excessB   []ConnectionGene
}

// align scans the connections of both genomes and partitions every gene of
// each into exactly one of {matching, disjoint, excess}.
func align(a, b *Genome) (alignment, error) {
	maxA, okA := a.MaxInnovation()
	if !okA {
		return alignment{}, fmt.Errorf("first parent (genome %d): %w", a.Key, ErrEmptyGenome)
	}
	maxB, okB := b.MaxInnovation()
	if !okB {
		return alignment{}, fmt.Errorf("second parent (genome %d): %w", b.Key, ErrEmptyGenome)
	}
	threshold := maxA
	if maxB < threshold {
		threshold = maxB
	}

	byInnovB := make(map[int]ConnectionGene, len(b.Connections))
	for _, c := range b.Connections {
		byInnovB[c.Innovation] = c
	}

	var al alignment
	matchedInnovs := make(map[int]bool)
	for _, ca := range a.Connections {
		if cb, ok := byInnovB[ca.Innovation]; ok {
			al.matchA = append(al.matchA, ca)
			al.matchB = append(al.matchB, cb)
			matchedInnovs[ca.Innovation] = true
		} else if ca.Innovation > threshold {
			al.excessA = append(al.excessA, ca)
		} else {
			al.disjointA = append(al.disjointA, ca)
		}
	}
	for _, cb := range b.Connections {
		if matchedInnovs[cb.Innovation] {
			continue
		}
		if cb.Innovation > threshold {
			al.excessB = append(al.excessB, cb)
		} else {
			al.disjointB = append(al.disjointB, cb)
		}
	}
	return al, nil
}

// Offspring constructs a recombined child genome. The first argument must be
// the more-fit parent: all disjoint and excess genes are taken from it, while
// each matching pair is resolved by a fair coin flip between the two copies —
// forced to the other parent's copy whenever that copy is disabled, so a gene
// the fitter parent keeps disabled is not silently reactivated.
//
// Every chosen gene is copied, never aliased, so later mutation of the child
// cannot reach back into a parent still in use elsewhere. The child is
// canonicalized before it is returned.
func (ce *CrossoverEngine) Offspring(fitter, other *Genome) (*Genome, error) {
	al, err := align(fitter, other)
	if err != nil {
		return nil, fmt.Errorf("crossover alignment: %w", err)
	}

	child := NewGenome(0)

	// Input and output nodes are positionally fixed across the whole run;
	// copy them verbatim from the fitter parent.
	for _, n := range fitter.Nodes {
		if n.Role != HiddenNode {
			child.AddNode(n.Role, n.ID)
		}
	}

	appendGene := func(c ConnectionGene) {
		child.AddConnection(c.Source, c.Destination, c.Weight, c.Enabled, c.Innovation)
	}
	for i := range al.matchA {
		chosen := al.matchA[i]
		if !al.matchB[i].Enabled || ce.rng.Float64() < 0.5 {
			chosen = al.matchB[i]
		}
		appendGene(chosen)
	}
	for _, c := range al.disjointA {
		appendGene(c)
	}
	for _, c := range al.excessA {
		appendGene(c)
	}

	// Add exactly one hidden node for every node id the assembled connection
	// set references that is not already present.
	present := make(map[int]bool, len(child.Nodes))
	for _, n := range child.Nodes {
		present[n.ID] = true
	}
	var missing []int
	for _, c := range child.Connections {
		for _, id := range [2]int{c.Source, c.Destination} {
			if !present[id] {
				present[id] = true
				missing = append(missing, id)
			}
		}
	}
	sort.Ints(missing)
	for _, id := range missing {
		child.AddNode(HiddenNode, id)
	}

	child.Canonicalize()
	return child, nil
}

// Distance computes the speciation distance between two genomes:
//
//	C1·(excess/N) + C2·(disjoint/N) + C3·(mean |ΔW| over matches)
//
// where N is the larger parent's total connection count, normalizing so a
// fixed absolute gene-count difference matters less in larger genomes. When
// there are zero matching genes the weight term would be 0/0; it is defined
// as 0 here, since a NaN distance would corrupt every downstream speciation
// comparison transitively.
func (ce *CrossoverEngine) Distance(a, b *Genome) (float64, error) {
	al, err := align(a, b)
	if err != nil {
		return 0, fmt.Errorf("distance alignment: %w", err)
	}

	n := float64(len(a.Connections))
	if float64(len(b.Connections)) > n {
		n = float64(len(b.Connections))
	}

	excess := float64(len(al.excessA) + len(al.excessB))
	disjoint := float64(len(al.disjointA) + len(al.disjointB))

	weightTerm := 0.0
	if len(al.matchA) > 0 {
		diffSum := 0.0
		for i := range al.matchA {
			diffSum += math.Abs(al.matchA[i].Weight - al.matchB[i].Weight)
		}
		weightTerm = diffSum / float64(len(al.matchA))
	}

	d := ce.Config.ExcessCoefficient*(excess/n) +
		ce.Config.DisjointCoefficient*(disjoint/n) +
		ce.Config.WeightCoefficient*weightTerm
	return d, nil
}
