package neat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []int{0, 1, 2, 3}, cfg.Genome.InputKeys)
	assert.Equal(t, []int{4, 5, 6}, cfg.Genome.OutputKeys)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	content := `
[NEAT]
pop_size = 42

[DefaultGenome]
num_inputs = 5
num_outputs = 2
activation = tanh ; steeper sigmoid not wanted here

[Mutation]
link_add_prob = 0.35

[Tournament]
workers = 2
`
	path := filepath.Join(t.TempDir(), "test.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.Neat.PopSize)
	assert.Equal(t, 5, cfg.Genome.NumInputs)
	assert.Equal(t, "tanh", cfg.Genome.Activation)
	assert.Equal(t, 0.35, cfg.Mutation.LinkAddProb)
	assert.Equal(t, 2, cfg.Tournament.Workers)

	// Omitted keys keep their defaults.
	assert.Equal(t, 0.1, cfg.Mutation.NodeAddProb)
	assert.Equal(t, 2.0, cfg.Mutation.WeightMutatePasses)
	assert.Equal(t, 3.0, cfg.Compatibility.Threshold)

	// Derived keys follow the overridden interface sizes.
	assert.Equal(t, []int{0, 1, 2, 3, 4}, cfg.Genome.InputKeys)
	assert.Equal(t, []int{5, 6}, cfg.Genome.OutputKeys)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.ini"))
	assert.Error(t, err)
}

func TestValidateCatchesBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero pop size", func(c *Config) { c.Neat.PopSize = 0 }},
		{"no inputs", func(c *Config) { c.Genome.NumInputs = 0 }},
		{"no outputs", func(c *Config) { c.Genome.NumOutputs = 0 }},
		{"unknown activation", func(c *Config) { c.Genome.Activation = "step" }},
		{"probability above one", func(c *Config) { c.Mutation.LinkAddProb = 1.5 }},
		{"negative passes", func(c *Config) { c.Mutation.WeightMutatePasses = -1 }},
		{"inverted weight range", func(c *Config) { c.Mutation.WeightMinValue = 5; c.Mutation.WeightMaxValue = -5 }},
		{"negative coefficient", func(c *Config) { c.Compatibility.WeightCoefficient = -0.4 }},
		{"zero threshold", func(c *Config) { c.Compatibility.Threshold = 0 }},
		{"survival above one", func(c *Config) { c.Reproduction.SurvivalThreshold = 1.5 }},
		{"unknown aggregate", func(c *Config) { c.Stagnation.SpeciesFitnessFunc = "harmonic" }},
		{"zero workers", func(c *Config) { c.Tournament.Workers = 0 }},
		{"zero max turns", func(c *Config) { c.Tournament.MaxTurns = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCleanIniString(t *testing.T) {
	assert.Equal(t, "sigmoid", cleanIniString("sigmoid # note"))
	assert.Equal(t, "mean", cleanIniString("  mean ; aggregate"))
	assert.Equal(t, "tanh", cleanIniString("tanh"))
}
