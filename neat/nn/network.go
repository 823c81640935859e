// Package nn compiles genomes into executable networks. A compiled network is
// a derived, disposable artifact built from one genome snapshot: it owns its
// own runtime nodes and edges, a cached evaluation order, and per-node
// recurrent state, and is rebuilt whenever the source genome changes.
package nn

import (
	"fmt"
	"sort"

	"github.com/baldhumanity/evoboard/neat"
)

// runtimeNode is one node of a compiled network.
type runtimeNode struct {
	id    int
	role  neat.NodeRole
	depth int
}

// runtimeEdge is one connection of a compiled network. source and destination
// are indices into the network's node arena, not genome node ids.
type runtimeEdge struct {
	source      int
	destination int
	weight      float64
	enabled     bool
	recurrent   bool
}

// Network is the executable form of a genome. Evaluation order is resolved at
// compile time, so Propagate terminates in O(node count) even when the genome
// contains true cycles.
//
// A Network carries per-node previous-activation state for its recurrent
// edges, so it must not be shared across concurrent callers: each worker
// compiles its own instance from the genome it was assigned.
type Network struct {
	nodes    []runtimeNode
	edges    []runtimeEdge
	incoming [][]int // node index -> indices of edges terminating there
	order    []int   // non-input node indices in ascending (depth, id) order
	inputs   []int   // input node indices in ascending id order
	outputs  []int   // output node indices in ascending id order

	activate neat.ActivationType

	// Two activation buffers, swapped after each Propagate call: recurrent
	// edges read the previous call's value of their source node.
	current  []float64
	previous []float64
}

// Compile builds a network from a genome snapshot using the sigmoid
// nonlinearity. The genome is read, never retained.
func Compile(g *neat.Genome) (*Network, error) {
	return CompileActivation(g, "sigmoid")
}

// CompileActivation builds a network from a genome snapshot using the named
// activation function.
//
// Compilation copies every node and every connection — enabled or disabled —
// into runtime form, assigns each node a depth, and classifies each
// connection as feed-forward or recurrent. Only enabled connections carry
// signal; disabled ones ride along so the runtime form mirrors the genome.
func CompileActivation(g *neat.Genome, activation string) (*Network, error) {
	fn, err := neat.GetActivation(activation)
	if err != nil {
		return nil, fmt.Errorf("compile genome %d: %w", g.Key, err)
	}

	net := &Network{activate: fn}

	indexByID := make(map[int]int, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := indexByID[n.ID]; dup {
			return nil, fmt.Errorf("compile genome %d: duplicate node id %d", g.Key, n.ID)
		}
		indexByID[n.ID] = len(net.nodes)
		net.nodes = append(net.nodes, runtimeNode{id: n.ID, role: n.Role})
	}

	net.incoming = make([][]int, len(net.nodes))
	for _, c := range g.Connections {
		src, ok := indexByID[c.Source]
		if !ok {
			return nil, fmt.Errorf("compile genome %d: connection references unknown node %d", g.Key, c.Source)
		}
		dst, ok := indexByID[c.Destination]
		if !ok {
			return nil, fmt.Errorf("compile genome %d: connection references unknown node %d", g.Key, c.Destination)
		}
		edgeIdx := len(net.edges)
		net.edges = append(net.edges, runtimeEdge{
			source:      src,
			destination: dst,
			weight:      c.Weight,
			enabled:     c.Enabled,
		})
		net.incoming[dst] = append(net.incoming[dst], edgeIdx)
	}

	net.assignDepths()
	net.classifyEdges()
	net.buildOrder()

	net.current = make([]float64, len(net.nodes))
	net.previous = make([]float64, len(net.nodes))
	return net, nil
}

// assignDepths gives input nodes depth 0 and every other node 1 plus the
// maximum depth of its enabled predecessors, iterated until stable. A node
// with no predecessor keeps depth 0. The pass count is bounded by the node
// count, so a cycle with no input anchor cannot iterate forever; whatever
// ordering the final pass leaves is resolved by edge classification.
func (n *Network) assignDepths() {
	for pass := 0; pass < len(n.nodes); pass++ {
		changed := false
		for i := range n.nodes {
			if n.nodes[i].role == neat.InputNode {
				continue
			}
			d := 0
			for _, ei := range n.incoming[i] {
				e := n.edges[ei]
				if !e.enabled {
					continue
				}
				if cand := n.nodes[e.source].depth + 1; cand > d {
					d = cand
				}
			}
			if d > n.nodes[i].depth {
				n.nodes[i].depth = d
				changed = true
			}
		}
		if !changed {
			break
		}
	}
}

// classifyEdges marks each connection feed-forward when its destination lies
// at a strictly greater depth than its source, and recurrent otherwise. The
// recurrent classification is what lets genomes containing true cycles (down
// to a 2-node loop) evaluate without unbounded recursion: a recurrent edge
// reads its source's previous-call activation instead of recursing.
func (n *Network) classifyEdges() {
	for i := range n.edges {
		src := n.nodes[n.edges[i].source]
		dst := n.nodes[n.edges[i].destination]
		n.edges[i].recurrent = dst.depth <= src.depth
	}
}

// buildOrder caches the evaluation order: non-input nodes ascending by depth
// with id as the tie-break, plus the input and output index lists in
// ascending id order.
func (n *Network) buildOrder() {
	for i, node := range n.nodes {
		switch node.role {
		case neat.InputNode:
			n.inputs = append(n.inputs, i)
		case neat.OutputNode:
			n.outputs = append(n.outputs, i)
		}
		if node.role != neat.InputNode {
			n.order = append(n.order, i)
		}
	}
	sort.Slice(n.inputs, func(a, b int) bool { return n.nodes[n.inputs[a]].id < n.nodes[n.inputs[b]].id })
	sort.Slice(n.outputs, func(a, b int) bool { return n.nodes[n.outputs[a]].id < n.nodes[n.outputs[b]].id })
	sort.Slice(n.order, func(a, b int) bool {
		na, nb := n.nodes[n.order[a]], n.nodes[n.order[b]]
		if na.depth != nb.depth {
			return na.depth < nb.depth
		}
		return na.id < nb.id
	})
}

// NumInputs returns the number of input nodes the network expects.
func (n *Network) NumInputs() int { return len(n.inputs) }

// NumOutputs returns the number of output values Propagate produces.
func (n *Network) NumOutputs() int { return len(n.outputs) }

// Propagate performs one forward pass. Input activations are set from the
// vector in index order; remaining nodes are processed in ascending depth
// order, summing weighted source activations — the current call's value over
// feed-forward edges, the previous call's value over recurrent edges (zero on
// the first call) — through the activation function. Output activations are
// returned in ascending node id order, and the call's activations become the
// previous values for the next call.
func (n *Network) Propagate(inputs []float64) ([]float64, error) {
	if len(inputs) != len(n.inputs) {
		return nil, fmt.Errorf("input vector length %d does not match network input count %d", len(inputs), len(n.inputs))
	}

	for i, idx := range n.inputs {
		n.current[idx] = inputs[i]
	}

	for _, idx := range n.order {
		sum := 0.0
		for _, ei := range n.incoming[idx] {
			e := n.edges[ei]
			if !e.enabled {
				continue
			}
			if e.recurrent {
				sum += n.previous[e.source] * e.weight
			} else {
				sum += n.current[e.source] * e.weight
			}
		}
		n.current[idx] = n.activate(sum)
	}

	outputs := make([]float64, len(n.outputs))
	for i, idx := range n.outputs {
		outputs[i] = n.current[idx]
	}

	n.current, n.previous = n.previous, n.current
	return outputs, nil
}

// Reset clears the recurrent state so the next Propagate call behaves like
// the first one after compilation. Useful when one worker reuses a network
// across independent games.
func (n *Network) Reset() {
	for i := range n.current {
		n.current[i] = 0
		n.previous[i] = 0
	}
}
