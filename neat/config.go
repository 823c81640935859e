package neat

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// Config stores the configuration parameters for an evolution run.
type Config struct {
	Neat          NeatConfig
	Genome        GenomeConfig
	Mutation      MutationConfig
	Compatibility CompatibilityConfig
	Reproduction  ReproductionConfig
	Stagnation    StagnationConfig
	Tournament    TournamentConfig
}

// NeatConfig holds parameters for the overall evolutionary loop.
type NeatConfig struct {
	PopSize              int     `ini:"pop_size"`
	FitnessThreshold     float64 `ini:"fitness_threshold"`
	NoFitnessTermination bool    `ini:"no_fitness_termination"`
	ResetOnExtinction    bool    `ini:"reset_on_extinction"`
}

// GenomeConfig holds the structural parameters of genomes. Input node ids are
// 0..NumInputs-1 and output node ids NumInputs..NumInputs+NumOutputs-1; both
// are fixed at population creation and keep their meaning for the whole run.
type GenomeConfig struct {
	NumInputs  int    `ini:"num_inputs"`
	NumOutputs int    `ini:"num_outputs"`
	Activation string `ini:"activation"`

	// Derived, populated after loading.
	InputKeys  []int
	OutputKeys []int
}

// MutationConfig holds the probability parameters of the mutation engine.
// WeightMutatePasses may exceed 1.0: a value of 2.5 means two guaranteed
// weight-mutation passes plus a third with probability 0.5.
type MutationConfig struct {
	LinkAddProb        float64 `ini:"link_add_prob"`
	NodeAddProb        float64 `ini:"node_add_prob"`
	EnableProb         float64 `ini:"enable_prob"`
	DisableProb        float64 `ini:"disable_prob"`
	WeightMutatePasses float64 `ini:"weight_mutate_passes"`
	WeightPerturbProb  float64 `ini:"weight_perturb_prob"`
	WeightPerturbStep  float64 `ini:"weight_perturb_step"`
	WeightMinValue     float64 `ini:"weight_min_value"`
	WeightMaxValue     float64 `ini:"weight_max_value"`
}

// CompatibilityConfig holds the coefficients of the speciation distance and
// the threshold used to group genomes into species.
type CompatibilityConfig struct {
	ExcessCoefficient   float64 `ini:"excess_coefficient"`
	DisjointCoefficient float64 `ini:"disjoint_coefficient"`
	WeightCoefficient   float64 `ini:"weight_coefficient"`
	Threshold           float64 `ini:"compatibility_threshold"`
}

// ReproductionConfig holds parameters related to reproduction.
type ReproductionConfig struct {
	Elitism           int     `ini:"elitism"`
	SurvivalThreshold float64 `ini:"survival_threshold"`
	MinSpeciesSize    int     `ini:"min_species_size"`
}

// StagnationConfig holds parameters related to species stagnation.
type StagnationConfig struct {
	SpeciesFitnessFunc string `ini:"species_fitness_func"`
	MaxStagnation      int    `ini:"max_stagnation"`
	SpeciesElitism     int    `ini:"species_elitism"`
}

// TournamentConfig holds parameters of the concurrent fitness tournament.
type TournamentConfig struct {
	GamesPerPairing int `ini:"games_per_pairing"`
	Workers         int `ini:"workers"`
	MaxTurns        int `ini:"max_turns"`
}

// DefaultConfig returns a configuration populated with the library defaults.
// Callers that load from a file get the same values for any omitted key.
func DefaultConfig() *Config {
	cfg := &Config{
		Neat: NeatConfig{
			PopSize:              150,
			FitnessThreshold:     0,
			NoFitnessTermination: true,
		},
		Genome: GenomeConfig{
			NumInputs:  4,
			NumOutputs: 3,
			Activation: "sigmoid",
		},
		Mutation: MutationConfig{
			LinkAddProb:        0.2,
			NodeAddProb:        0.1,
			EnableProb:         0.6,
			DisableProb:        0.2,
			WeightMutatePasses: 2.0,
			WeightPerturbProb:  0.9,
			WeightPerturbStep:  0.1,
			WeightMinValue:     -2.0,
			WeightMaxValue:     2.0,
		},
		Compatibility: CompatibilityConfig{
			ExcessCoefficient:   1.0,
			DisjointCoefficient: 1.0,
			WeightCoefficient:   0.4,
			Threshold:           3.0,
		},
		Reproduction: ReproductionConfig{
			Elitism:           1,
			SurvivalThreshold: 0.2,
			MinSpeciesSize:    2,
		},
		Stagnation: StagnationConfig{
			SpeciesFitnessFunc: "mean",
			MaxStagnation:      15,
			SpeciesElitism:     1,
		},
		Tournament: TournamentConfig{
			GamesPerPairing: 4,
			Workers:         4,
			MaxTurns:        200,
		},
	}
	cfg.deriveKeys()
	return cfg
}

// LoadConfig loads configuration parameters from an INI file. Keys omitted
// from the file keep the DefaultConfig values.
func LoadConfig(filePath string) (*Config, error) {
	src, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	config := DefaultConfig()

	if err := src.Section("NEAT").MapTo(&config.Neat); err != nil {
		return nil, fmt.Errorf("failed to map [NEAT] section: %w", err)
	}
	if err := src.Section("DefaultGenome").MapTo(&config.Genome); err != nil {
		return nil, fmt.Errorf("failed to map [DefaultGenome] section: %w", err)
	}
	if err := src.Section("Mutation").MapTo(&config.Mutation); err != nil {
		return nil, fmt.Errorf("failed to map [Mutation] section: %w", err)
	}
	if err := src.Section("Compatibility").MapTo(&config.Compatibility); err != nil {
		return nil, fmt.Errorf("failed to map [Compatibility] section: %w", err)
	}
	if err := src.Section("DefaultReproduction").MapTo(&config.Reproduction); err != nil {
		return nil, fmt.Errorf("failed to map [DefaultReproduction] section: %w", err)
	}
	if err := src.Section("DefaultStagnation").MapTo(&config.Stagnation); err != nil {
		return nil, fmt.Errorf("failed to map [DefaultStagnation] section: %w", err)
	}
	if err := src.Section("Tournament").MapTo(&config.Tournament); err != nil {
		return nil, fmt.Errorf("failed to map [Tournament] section: %w", err)
	}

	config.Genome.Activation = cleanIniString(config.Genome.Activation)
	config.Stagnation.SpeciesFitnessFunc = cleanIniString(config.Stagnation.SpeciesFitnessFunc)

	config.deriveKeys()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// deriveKeys populates the derived input/output node id slices.
func (c *Config) deriveKeys() {
	c.Genome.InputKeys = make([]int, c.Genome.NumInputs)
	for i := 0; i < c.Genome.NumInputs; i++ {
		c.Genome.InputKeys[i] = i
	}
	c.Genome.OutputKeys = make([]int, c.Genome.NumOutputs)
	for i := 0; i < c.Genome.NumOutputs; i++ {
		c.Genome.OutputKeys[i] = c.Genome.NumInputs + i
	}
}

// Validate checks the configuration for values that would make a run
// meaningless or unstable.
func (c *Config) Validate() error {
	if c.Neat.PopSize <= 0 {
		return fmt.Errorf("config error: pop_size must be positive")
	}
	if c.Genome.NumInputs <= 0 {
		return fmt.Errorf("config error: num_inputs must be positive")
	}
	if c.Genome.NumOutputs <= 0 {
		return fmt.Errorf("config error: num_outputs must be positive")
	}
	if _, err := GetActivation(c.Genome.Activation); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	for name, p := range map[string]float64{
		"link_add_prob":       c.Mutation.LinkAddProb,
		"node_add_prob":       c.Mutation.NodeAddProb,
		"enable_prob":         c.Mutation.EnableProb,
		"disable_prob":        c.Mutation.DisableProb,
		"weight_perturb_prob": c.Mutation.WeightPerturbProb,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("config error: %s must be between 0 and 1", name)
		}
	}
	if c.Mutation.WeightMutatePasses < 0 {
		return fmt.Errorf("config error: weight_mutate_passes cannot be negative")
	}
	if c.Mutation.WeightMaxValue < c.Mutation.WeightMinValue {
		return fmt.Errorf("config error: weight_max_value cannot be less than weight_min_value")
	}
	if c.Compatibility.ExcessCoefficient < 0 || c.Compatibility.DisjointCoefficient < 0 || c.Compatibility.WeightCoefficient < 0 {
		return fmt.Errorf("config error: compatibility coefficients cannot be negative")
	}
	if c.Compatibility.Threshold <= 0 {
		return fmt.Errorf("config error: compatibility_threshold must be positive")
	}
	if c.Reproduction.SurvivalThreshold < 0 || c.Reproduction.SurvivalThreshold > 1 {
		return fmt.Errorf("config error: survival_threshold must be between 0 and 1")
	}
	if c.Reproduction.MinSpeciesSize <= 0 {
		return fmt.Errorf("config error: min_species_size must be positive")
	}
	if _, ok := StatFunctions[strings.ToLower(c.Stagnation.SpeciesFitnessFunc)]; !ok {
		return fmt.Errorf("config error: invalid species_fitness_func '%s'", c.Stagnation.SpeciesFitnessFunc)
	}
	if c.Stagnation.MaxStagnation <= 0 {
		return fmt.Errorf("config error: max_stagnation must be positive")
	}
	if c.Tournament.GamesPerPairing <= 0 {
		return fmt.Errorf("config error: games_per_pairing must be positive")
	}
	if c.Tournament.Workers <= 0 {
		return fmt.Errorf("config error: workers must be positive")
	}
	if c.Tournament.MaxTurns <= 0 {
		return fmt.Errorf("config error: max_turns must be positive")
	}
	return nil
}

// cleanIniString removes inline comments and trims whitespace from a string
// read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
