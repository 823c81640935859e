package neat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatHelpers(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.Equal(t, 5.0, Mean(values))
	assert.Equal(t, 40.0, Sum(values))
	assert.Equal(t, 9.0, MaxFloat(values))
	assert.Equal(t, 2.0, MinFloat(values))
	assert.Equal(t, 4.5, Median(values))
	assert.InDelta(t, 2.138, Stdev(values), 0.001)
}

func TestStatHelpersEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Stdev(nil))
	assert.True(t, math.IsInf(MaxFloat(nil), -1))
	assert.True(t, math.IsInf(MinFloat(nil), 1))
	assert.True(t, math.IsNaN(Median(nil)))
}

func TestMedianOddLength(t *testing.T) {
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
}

func TestActivations(t *testing.T) {
	assert.Equal(t, 0.5, Sigmoid(0))
	assert.InDelta(t, 1.0, Sigmoid(10), 1e-9)
	assert.InDelta(t, 0.0, Sigmoid(-10), 1e-9)
	// The steepened slope: k = 4.9 at the origin gives sigma(1) ~ 0.9926.
	assert.InDelta(t, 1.0/(1.0+math.Exp(-4.9)), Sigmoid(1), 1e-12)

	assert.Equal(t, 0.0, ReLU(-3))
	assert.Equal(t, 3.0, ReLU(3))
	assert.Equal(t, 1.0, Clamped(7))
	assert.Equal(t, -1.0, Clamped(-7))
	assert.Equal(t, 1.0, Gaussian(0))
	assert.Equal(t, 2.5, Identity(2.5))
}

func TestGetActivation(t *testing.T) {
	fn, err := GetActivation("tanh")
	assert.NoError(t, err)
	assert.Equal(t, math.Tanh(0.3), fn(0.3))

	_, err = GetActivation("step")
	assert.Error(t, err)
}
