package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/evoboard/board"
)

func TestRootCommandWiring(t *testing.T) {
	cmd := NewRootCommand()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["play"])
	assert.True(t, names["inspect"])
}

func TestLoadRunConfigDefaultsToBoardShape(t *testing.T) {
	b := board.NewStandardBoard()
	cfg, err := loadRunConfig(&RootOptions{}, b)
	require.NoError(t, err)

	assert.Equal(t, board.ObservationSize(b), cfg.Genome.NumInputs)
	assert.Equal(t, board.NumDecisionOutputs, cfg.Genome.NumOutputs)
}

func TestFitnessSummary(t *testing.T) {
	best, mean, bestKey := fitnessSummary(nil)
	assert.Zero(t, best)
	assert.Zero(t, mean)
	assert.Zero(t, bestKey)
}
