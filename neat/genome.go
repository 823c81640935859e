package neat

import (
	"fmt"
	"sort"
	"strings"
)

// NodeRole identifies the function of a node within a genome.
type NodeRole int

const (
	InputNode NodeRole = iota
	HiddenNode
	OutputNode
)

// String returns a human-readable name for the role.
func (r NodeRole) String() string {
	switch r {
	case InputNode:
		return "input"
	case HiddenNode:
		return "hidden"
	case OutputNode:
		return "output"
	default:
		return fmt.Sprintf("NodeRole(%d)", int(r))
	}
}

// NodeGene represents a node (neuron) in the neural network genome.
// Node ids are not positional: the same id refers to the same structural
// element across every genome that shares ancestry. Input and output ids are
// assigned once at population creation; only hidden nodes are created later,
// always with an id higher than every id already in use.
type NodeGene struct {
	ID   int
	Role NodeRole
}

// ConnectionGene represents a directed, weighted connection between two nodes.
// The innovation number is assigned by the InnovationRegistry when the
// connection first appears anywhere in the run and never changes afterward,
// even if the connection is later disabled.
type ConnectionGene struct {
	Source      int
	Destination int
	Weight      float64
	Enabled     bool
	Innovation  int
}

// String returns a string representation of the ConnectionGene.
func (cg ConnectionGene) String() string {
	return fmt.Sprintf("ConnGene(%d->%d, Weight: %.3f, Enabled: %t, Innov: %d)",
		cg.Source, cg.Destination, cg.Weight, cg.Enabled, cg.Innovation)
}

// Genome is the evolvable graph encoding of one candidate controller.
// It exclusively owns its node and connection records; Clone deep-copies both
// collections. The input and non-hidden counters are maintained as nodes are
// added so callers get O(1) access without a rescan.
type Genome struct {
	Key         int
	Nodes       []NodeGene
	Connections []ConnectionGene

	// Fitness fields are written by the population bookkeeping after the
	// tournament driver has scored the genome; the core operators never
	// read them.
	Fitness         float64
	AdjustedFitness float64

	inputs    int // number of InputNode entries
	nonHidden int // number of InputNode plus OutputNode entries
}

// NewGenome creates an empty genome with the given key.
func NewGenome(key int) *Genome {
	return &Genome{Key: key}
}

// AddNode appends a node record and updates the derived role counters.
func (g *Genome) AddNode(role NodeRole, id int) {
	g.Nodes = append(g.Nodes, NodeGene{ID: id, Role: role})
	switch role {
	case InputNode:
		g.inputs++
		g.nonHidden++
	case OutputNode:
		g.nonHidden++
	}
}

// AddConnection appends a connection record. It does not re-validate pair
// uniqueness: the mutation and crossover engines guarantee that no duplicate
// (source, destination) pair is ever submitted.
func (g *Genome) AddConnection(source, destination int, weight float64, enabled bool, innovation int) {
	g.Connections = append(g.Connections, ConnectionGene{
		Source:      source,
		Destination: destination,
		Weight:      weight,
		Enabled:     enabled,
		Innovation:  innovation,
	})
}

// NumInputs returns the number of input nodes.
func (g *Genome) NumInputs() int { return g.inputs }

// NumNonHidden returns the number of input plus output nodes.
func (g *Genome) NumNonHidden() int { return g.nonHidden }

// MaxNodeID returns the highest node id currently in use, or -1 for a genome
// with no nodes. New hidden nodes must always be created above this value.
func (g *Genome) MaxNodeID() int {
	maxID := -1
	for _, n := range g.Nodes {
		if n.ID > maxID {
			maxID = n.ID
		}
	}
	return maxID
}

// MaxInnovation returns the highest innovation number among the genome's
// connections. The boolean is false when the genome has no connections, in
// which case the value is meaningless.
func (g *Genome) MaxInnovation() (int, bool) {
	if len(g.Connections) == 0 {
		return 0, false
	}
	maxInnov := g.Connections[0].Innovation
	for _, c := range g.Connections[1:] {
		if c.Innovation > maxInnov {
			maxInnov = c.Innovation
		}
	}
	return maxInnov, true
}

// HasConnection reports whether a connection record for the ordered
// (source, destination) pair already exists.
func (g *Genome) HasConnection(source, destination int) bool {
	for _, c := range g.Connections {
		if c.Source == source && c.Destination == destination {
			return true
		}
	}
	return false
}

// Clone creates a deep copy of the genome. The copy is built through fresh
// AddNode/AddConnection calls so the derived counters stay consistent with
// the copied records.
func (g *Genome) Clone() *Genome {
	clone := NewGenome(g.Key)
	for _, n := range g.Nodes {
		clone.AddNode(n.Role, n.ID)
	}
	for _, c := range g.Connections {
		clone.AddConnection(c.Source, c.Destination, c.Weight, c.Enabled, c.Innovation)
	}
	clone.Fitness = g.Fitness
	clone.AdjustedFitness = g.AdjustedFitness
	return clone
}

// Canonicalize stably sorts nodes by id and connections by innovation number.
// Two genomes holding the same gene multiset compare and serialize identically
// after canonicalization, regardless of the order the genes were added in.
// Callers must canonicalize before any structural comparison or serialization.
func (g *Genome) Canonicalize() {
	sort.SliceStable(g.Nodes, func(i, j int) bool {
		return g.Nodes[i].ID < g.Nodes[j].ID
	})
	sort.SliceStable(g.Connections, func(i, j int) bool {
		return g.Connections[i].Innovation < g.Connections[j].Innovation
	})
}

// GenomeRecord is the flat, fully exported form of a genome used by the
// checkpoint and storage layers. Persisted state must preserve the node list
// (id, role) and connection list (source, destination, weight, enabled,
// innovation) exactly.
type GenomeRecord struct {
	Key             int
	Nodes           []NodeGene
	Connections     []ConnectionGene
	Fitness         float64
	AdjustedFitness float64
}

// Snapshot converts the genome into its persistable record form. The genome
// is canonicalized first so identical genomes always serialize identically.
func (g *Genome) Snapshot() GenomeRecord {
	g.Canonicalize()
	rec := GenomeRecord{
		Key:             g.Key,
		Nodes:           make([]NodeGene, len(g.Nodes)),
		Connections:     make([]ConnectionGene, len(g.Connections)),
		Fitness:         g.Fitness,
		AdjustedFitness: g.AdjustedFitness,
	}
	copy(rec.Nodes, g.Nodes)
	copy(rec.Connections, g.Connections)
	return rec
}

// FromSnapshot rebuilds a genome from its record form through fresh add
// calls, so the derived counters are consistent with the restored records.
func FromSnapshot(rec GenomeRecord) *Genome {
	g := NewGenome(rec.Key)
	for _, n := range rec.Nodes {
		g.AddNode(n.Role, n.ID)
	}
	for _, c := range rec.Connections {
		g.AddConnection(c.Source, c.Destination, c.Weight, c.Enabled, c.Innovation)
	}
	g.Fitness = rec.Fitness
	g.AdjustedFitness = rec.AdjustedFitness
	return g
}

// String returns a multi-line description of the genome, mostly for logging
// and debugging.
func (g *Genome) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Genome %d (fitness %.4f): %d nodes, %d connections\n",
		g.Key, g.Fitness, len(g.Nodes), len(g.Connections))
	for _, n := range g.Nodes {
		fmt.Fprintf(&b, "  Node %d (%s)\n", n.ID, n.Role)
	}
	for _, c := range g.Connections {
		fmt.Fprintf(&b, "  %s\n", c.String())
	}
	return b.String()
}
