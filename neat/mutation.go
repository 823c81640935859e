package neat

import (
	"math/rand"
)

// MutationEngine applies probabilistic structural and numeric perturbations to
// one genome at a time, consulting the shared InnovationRegistry whenever a
// new connection is created.
//
// Every operator silently no-ops when its candidate set is empty: mutation is
// best-effort per generation, not a contract that guarantees structural
// change. The engine itself has no intrinsic concurrency; workers that own
// disjoint slices of the population may each hold their own engine as long as
// they share the one registry.
type MutationEngine struct {
	Config   *MutationConfig
	Registry *InnovationRegistry
	rng      *rand.Rand
}

// NewMutationEngine creates a mutation engine using the given configuration,
// shared innovation registry, and random source.
func NewMutationEngine(config *MutationConfig, registry *InnovationRegistry, rng *rand.Rand) *MutationEngine {
	return &MutationEngine{
		Config:   config,
		Registry: registry,
		rng:      rng,
	}
}

// MutateAll applies every perturbation kind to the genome, each gated by its
// own probability: weight-mutation passes first, then link addition, node
// addition, disable, and enable. Each operator is independent and may fire
// zero or multiple times relative to the others. The genome is canonicalized
// afterward, since link addition can append a connection whose innovation
// number predates existing genes.
func (m *MutationEngine) MutateAll(g *Genome) {
	// The pass budget may exceed 1.0: floor(budget) guaranteed passes plus
	// one more with probability equal to the fractional remainder.
	for budget := m.Config.WeightMutatePasses; budget > 0; budget-- {
		if m.rng.Float64() < budget {
			m.MutateWeight(g)
		}
	}
	if m.rng.Float64() < m.Config.LinkAddProb {
		m.MutateAddLink(g)
	}
	if m.rng.Float64() < m.Config.NodeAddProb {
		m.MutateAddNode(g)
	}
	if m.rng.Float64() < m.Config.DisableProb {
		m.MutateDisable(g)
	}
	if m.rng.Float64() < m.Config.EnableProb {
		m.MutateEnable(g)
	}
	g.Canonicalize()
}

// MutateWeight picks one connection uniformly at random and either shifts its
// weight by a small uniform delta or, with the complementary probability,
// replaces it with a fresh uniform random weight.
func (m *MutationEngine) MutateWeight(g *Genome) {
	if len(g.Connections) == 0 {
		return
	}
	c := &g.Connections[m.rng.Intn(len(g.Connections))]
	if m.rng.Float64() < m.Config.WeightPerturbProb {
		step := m.Config.WeightPerturbStep
		c.Weight += m.rng.Float64()*step - step/2
	} else {
		c.Weight = m.randomWeight()
	}
}

// MutateAddLink adds a connection between a uniformly chosen legal node pair:
// the source must not be an output node, the destination must not be an input
// node, the two must differ, and no connection may already join them. If no
// legal pair remains the genome is left untouched.
func (m *MutationEngine) MutateAddLink(g *Genome) {
	existing := make(map[connPair]bool, len(g.Connections))
	for _, c := range g.Connections {
		existing[connPair{c.Source, c.Destination}] = true
	}

	type candidate struct {
		source      int
		destination int
	}
	var candidates []candidate
	for _, src := range g.Nodes {
		if src.Role == OutputNode {
			continue
		}
		for _, dst := range g.Nodes {
			if dst.Role == InputNode || dst.ID == src.ID {
				continue
			}
			if existing[connPair{src.ID, dst.ID}] {
				continue
			}
			candidates = append(candidates, candidate{src.ID, dst.ID})
		}
	}
	if len(candidates) == 0 {
		return
	}

	pick := candidates[m.rng.Intn(len(candidates))]
	innovation := m.Registry.Register(pick.source, pick.destination)
	g.AddConnection(pick.source, pick.destination, m.randomWeight(), true, innovation)
}

// MutateAddNode splits a uniformly chosen enabled connection: the original is
// disabled (never deleted, preserving ancestry for later alignment), a new
// hidden node is created one above the genome's current maximum id, and two
// enabled connections are added around it. The incoming connection gets
// weight 1.0 and the outgoing one the original weight, so the split initially
// approximates the behavior of the connection it replaced.
func (m *MutationEngine) MutateAddNode(g *Genome) {
	var enabled []int
	for i, c := range g.Connections {
		if c.Enabled {
			enabled = append(enabled, i)
		}
	}
	if len(enabled) == 0 {
		return
	}

	idx := enabled[m.rng.Intn(len(enabled))]
	g.Connections[idx].Enabled = false
	source := g.Connections[idx].Source
	destination := g.Connections[idx].Destination
	weight := g.Connections[idx].Weight

	newID := g.MaxNodeID() + 1
	g.AddNode(HiddenNode, newID)

	inInnov := m.Registry.Register(source, newID)
	g.AddConnection(source, newID, 1.0, true, inInnov)
	outInnov := m.Registry.Register(newID, destination)
	g.AddConnection(newID, destination, weight, true, outInnov)
}

// MutateDisable flips one uniformly chosen enabled connection to disabled.
func (m *MutationEngine) MutateDisable(g *Genome) {
	m.flipOne(g, true)
}

// MutateEnable flips one uniformly chosen disabled connection back to enabled.
func (m *MutationEngine) MutateEnable(g *Genome) {
	m.flipOne(g, false)
}

// flipOne collects the connections currently in fromState and flips one of
// them, chosen uniformly at random. No-op when the candidate set is empty.
func (m *MutationEngine) flipOne(g *Genome, fromState bool) {
	var candidates []int
	for i, c := range g.Connections {
		if c.Enabled == fromState {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return
	}
	idx := candidates[m.rng.Intn(len(candidates))]
	g.Connections[idx].Enabled = !fromState
}

// randomWeight draws a uniform random weight from the configured range.
func (m *MutationEngine) randomWeight() float64 {
	lo, hi := m.Config.WeightMinValue, m.Config.WeightMaxValue
	return lo + m.rng.Float64()*(hi-lo)
}
