package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/evoboard/neat"
)

// feedForwardGenome builds inputs 0,1 -> hidden 3 -> output 2, plus a direct
// input 0 -> output 2 shortcut.
func feedForwardGenome() *neat.Genome {
	g := neat.NewGenome(1)
	g.AddNode(neat.InputNode, 0)
	g.AddNode(neat.InputNode, 1)
	g.AddNode(neat.OutputNode, 2)
	g.AddNode(neat.HiddenNode, 3)
	g.AddConnection(0, 3, 0.5, true, 0)
	g.AddConnection(1, 3, -0.5, true, 1)
	g.AddConnection(3, 2, 1.0, true, 2)
	g.AddConnection(0, 2, 0.25, true, 3)
	g.Canonicalize()
	return g
}

func TestCompileShape(t *testing.T) {
	net, err := Compile(feedForwardGenome())
	require.NoError(t, err)
	assert.Equal(t, 2, net.NumInputs())
	assert.Equal(t, 1, net.NumOutputs())
}

func TestPropagateFeedForward(t *testing.T) {
	net, err := Compile(feedForwardGenome())
	require.NoError(t, err)

	in := []float64{1.0, 0.5}
	out, err := net.Propagate(in)
	require.NoError(t, err)
	require.Len(t, out, 1)

	hidden := neat.Sigmoid(1.0*0.5 + 0.5*-0.5)
	want := neat.Sigmoid(hidden*1.0 + 1.0*0.25)
	assert.InDelta(t, want, out[0], 1e-12)

	// A pure feed-forward network is stateless: repeated calls with the same
	// input repeat the same output.
	again, err := net.Propagate(in)
	require.NoError(t, err)
	assert.Equal(t, out[0], again[0])
}

func TestPropagateInputLengthMismatch(t *testing.T) {
	net, err := Compile(feedForwardGenome())
	require.NoError(t, err)
	_, err = net.Propagate([]float64{1.0})
	assert.Error(t, err)
}

func TestDisabledConnectionsCarryNoSignal(t *testing.T) {
	g := feedForwardGenome()
	g.AddConnection(1, 2, 1e6, false, 4)

	net, err := Compile(g)
	require.NoError(t, err)
	ref, err := Compile(feedForwardGenome())
	require.NoError(t, err)

	out, err := net.Propagate([]float64{0.3, 0.7})
	require.NoError(t, err)
	want, err := ref.Propagate([]float64{0.3, 0.7})
	require.NoError(t, err)
	assert.Equal(t, want[0], out[0])
}

func TestRecurrentSelfLoopState(t *testing.T) {
	// Output feeding itself: o(t) = sigma(x + 0.5 * o(t-1)).
	g := neat.NewGenome(1)
	g.AddNode(neat.InputNode, 0)
	g.AddNode(neat.OutputNode, 1)
	g.AddConnection(0, 1, 1.0, true, 0)
	g.AddConnection(1, 1, 0.5, true, 1)
	g.Canonicalize()

	net, err := Compile(g)
	require.NoError(t, err)

	out1, err := net.Propagate([]float64{1.0})
	require.NoError(t, err)
	o1 := neat.Sigmoid(1.0 + 0.5*0)
	assert.InDelta(t, o1, out1[0], 1e-12)

	out2, err := net.Propagate([]float64{1.0})
	require.NoError(t, err)
	o2 := neat.Sigmoid(1.0 + 0.5*o1)
	assert.InDelta(t, o2, out2[0], 1e-12)
	assert.NotEqual(t, out1[0], out2[0], "recurrent state must change the second call")

	// Reset restores first-call behavior.
	net.Reset()
	out3, err := net.Propagate([]float64{1.0})
	require.NoError(t, err)
	assert.Equal(t, out1[0], out3[0])
}

func TestTwoNodeCycleEvaluates(t *testing.T) {
	// Hidden and output node feeding each other: a true two-node cycle.
	// Exactly one of its edges must end up recurrent, which both breaks the
	// cycle and keeps one step of state.
	g := neat.NewGenome(1)
	g.AddNode(neat.InputNode, 0)
	g.AddNode(neat.OutputNode, 1)
	g.AddNode(neat.HiddenNode, 2)
	g.AddConnection(0, 2, 1.0, true, 0)
	g.AddConnection(2, 1, 1.0, true, 1)
	g.AddConnection(1, 2, 0.5, true, 2)
	g.Canonicalize()

	net, err := Compile(g)
	require.NoError(t, err)

	cycleRecurrent := 0
	for _, e := range net.edges {
		if e.recurrent {
			cycleRecurrent++
		}
	}
	assert.Equal(t, 1, cycleRecurrent)

	out1, err := net.Propagate([]float64{1.0})
	require.NoError(t, err)
	out2, err := net.Propagate([]float64{1.0})
	require.NoError(t, err)
	assert.NotEqual(t, out1[0], out2[0], "the loop carries state between calls")
	for _, v := range []float64{out1[0], out2[0]} {
		assert.Greater(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}

	net.Reset()
	out3, err := net.Propagate([]float64{1.0})
	require.NoError(t, err)
	assert.Equal(t, out1[0], out3[0])
}

func TestEdgeClassification(t *testing.T) {
	// The back edges are disabled so the depth assignment is acyclic and
	// stable: input 0 at depth 0, hidden 2 at depth 1, output 1 at depth 2.
	g := neat.NewGenome(1)
	g.AddNode(neat.InputNode, 0)
	g.AddNode(neat.OutputNode, 1)
	g.AddNode(neat.HiddenNode, 2)
	g.AddConnection(0, 2, 1.0, true, 0)  // 0 -> 1: forward
	g.AddConnection(2, 1, 1.0, true, 1)  // 1 -> 2: forward
	g.AddConnection(1, 2, 1.0, false, 2) // 2 -> 1: recurrent
	g.AddConnection(2, 2, 1.0, false, 3) // self loop: recurrent
	g.Canonicalize()

	net, err := Compile(g)
	require.NoError(t, err)

	recurrent := make(map[int]bool, len(net.edges))
	for i := range net.edges {
		recurrent[i] = net.edges[i].recurrent
	}
	assert.Equal(t, map[int]bool{0: false, 1: false, 2: true, 3: true}, recurrent)
}

func TestHiddenOnlyCycleTerminates(t *testing.T) {
	// Two hidden nodes feeding each other with no input anchor must still
	// compile: depth assignment is bounded and the leftover edges become
	// recurrent, so propagation terminates.
	g := neat.NewGenome(1)
	g.AddNode(neat.InputNode, 0)
	g.AddNode(neat.OutputNode, 1)
	g.AddNode(neat.HiddenNode, 2)
	g.AddNode(neat.HiddenNode, 3)
	g.AddConnection(2, 3, 1.0, true, 0)
	g.AddConnection(3, 2, 1.0, true, 1)
	g.AddConnection(3, 1, 1.0, true, 2)
	g.Canonicalize()

	net, err := Compile(g)
	require.NoError(t, err)

	backEdges := 0
	for _, e := range net.edges {
		if e.recurrent {
			backEdges++
		}
	}
	assert.GreaterOrEqual(t, backEdges, 1, "every cycle is broken by at least one recurrent edge")

	out, err := net.Propagate([]float64{1.0})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.False(t, out[0] != out[0])
}

func TestCompileRejectsBadGenomes(t *testing.T) {
	dup := neat.NewGenome(1)
	dup.AddNode(neat.InputNode, 0)
	dup.AddNode(neat.InputNode, 0)
	_, err := Compile(dup)
	assert.Error(t, err)

	dangling := neat.NewGenome(2)
	dangling.AddNode(neat.InputNode, 0)
	dangling.AddNode(neat.OutputNode, 1)
	dangling.AddConnection(0, 9, 1.0, true, 0)
	_, err = Compile(dangling)
	assert.Error(t, err)

	unknown := feedForwardGenome()
	_, err = CompileActivation(unknown, "step")
	assert.Error(t, err)
}
