package neat

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Conf is the configuration capability consumed by every engine operation.
// *Config implements it; a driver can embed *Config in its own type and
// redefine single methods to override a parameter.
type Conf interface {
	// Compatibility distance.
	ExcessCoef() float64
	DisjointCoef() float64
	WeightDiffCoef() float64
	SizeNorm(size1, size2 int) float64
	CompatThreshold() float64

	// Mutation.
	LinkAddProb() float64
	NodeAddProb() float64
	WeightMutationProb() float64
	LinkDisableProb() float64
	CompleteWeightOverrideProb() float64
	InitWeight(rng Rand) float64
	MutateWeight(weight float64, rng Rand) float64

	// Reproduction.
	LinkEnablingProb() float64
	CrossoverProb() float64
	CullSurvivalPercentage() float64

	// Stagnation.
	StalenessThreshold() int
	SpeciesElitism() int
	ResetOnExtinction() bool
}

// Config stores the configuration parameters for the NEAT algorithm.
type Config struct {
	Neat         NeatConfig         `ini:"NEAT" yaml:"neat" toml:"neat"`
	Genome       GenomeConfig       `ini:"DefaultGenome" yaml:"genome" toml:"genome"`
	Reproduction ReproductionConfig `ini:"DefaultReproduction" yaml:"reproduction" toml:"reproduction"`
	SpeciesSet   SpeciesSetConfig   `ini:"DefaultSpeciesSet" yaml:"species_set" toml:"species_set"`
	Stagnation   StagnationConfig   `ini:"DefaultStagnation" yaml:"stagnation" toml:"stagnation"`

	weightInit   WeightStrategy
	weightMutate WeightStrategy
}

// NeatConfig holds run-level parameters read by drivers.
type NeatConfig struct {
	PopSize           int     `ini:"pop_size" yaml:"pop_size" toml:"pop_size"`
	FitnessThreshold  float64 `ini:"fitness_threshold" yaml:"fitness_threshold" toml:"fitness_threshold"`
	ResetOnExtinction bool    `ini:"reset_on_extinction" yaml:"reset_on_extinction" toml:"reset_on_extinction"`
	Seed              int64   `ini:"seed" yaml:"seed" toml:"seed"` // 0 means seed from the runtime
}

// GenomeConfig holds parameters specific to the structure and mutation of genomes.
type GenomeConfig struct {
	NumInputs  int `ini:"num_inputs" yaml:"num_inputs" toml:"num_inputs"`
	NumOutputs int `ini:"num_outputs" yaml:"num_outputs" toml:"num_outputs"`

	CompatibilityExcessCoefficient   float64 `ini:"compatibility_excess_coefficient" yaml:"compatibility_excess_coefficient" toml:"compatibility_excess_coefficient"`
	CompatibilityDisjointCoefficient float64 `ini:"compatibility_disjoint_coefficient" yaml:"compatibility_disjoint_coefficient" toml:"compatibility_disjoint_coefficient"`
	CompatibilityWeightCoefficient   float64 `ini:"compatibility_weight_coefficient" yaml:"compatibility_weight_coefficient" toml:"compatibility_weight_coefficient"`
	SizeNormalization                string  `ini:"size_normalization" yaml:"size_normalization" toml:"size_normalization"` // one, max, classic

	ConnAddProb     float64 `ini:"conn_add_prob" yaml:"conn_add_prob" toml:"conn_add_prob"`
	NodeAddProb     float64 `ini:"node_add_prob" yaml:"node_add_prob" toml:"node_add_prob"`
	ConnDisableProb float64 `ini:"conn_disable_prob" yaml:"conn_disable_prob" toml:"conn_disable_prob"`

	WeightMutateRate  float64 `ini:"weight_mutate_rate" yaml:"weight_mutate_rate" toml:"weight_mutate_rate"`
	WeightReplaceRate float64 `ini:"weight_replace_rate" yaml:"weight_replace_rate" toml:"weight_replace_rate"`
	WeightInitType    string  `ini:"weight_init_type" yaml:"weight_init_type" toml:"weight_init_type"` // gaussian, uniform
	WeightInitPower   float64 `ini:"weight_init_power" yaml:"weight_init_power" toml:"weight_init_power"`
	WeightMutateType  string  `ini:"weight_mutate_type" yaml:"weight_mutate_type" toml:"weight_mutate_type"` // reroll, gaussian, uniform
	WeightMutatePower float64 `ini:"weight_mutate_power" yaml:"weight_mutate_power" toml:"weight_mutate_power"`

	EnabledInChildRate float64 `ini:"enabled_in_child_rate" yaml:"enabled_in_child_rate" toml:"enabled_in_child_rate"`
}

// ReproductionConfig holds parameters related to reproduction.
type ReproductionConfig struct {
	CrossoverProb     float64 `ini:"crossover_prob" yaml:"crossover_prob" toml:"crossover_prob"`
	SurvivalThreshold float64 `ini:"survival_threshold" yaml:"survival_threshold" toml:"survival_threshold"`
}

// SpeciesSetConfig holds parameters related to speciation.
type SpeciesSetConfig struct {
	CompatibilityThreshold float64 `ini:"compatibility_threshold" yaml:"compatibility_threshold" toml:"compatibility_threshold"`
}

// StagnationConfig holds parameters related to species stagnation.
type StagnationConfig struct {
	MaxStagnation  int `ini:"max_stagnation" yaml:"max_stagnation" toml:"max_stagnation"`
	SpeciesElitism int `ini:"species_elitism" yaml:"species_elitism" toml:"species_elitism"`
}

// DefaultConfig returns the classic parameter set: 150 genomes, 2 inputs and
// 1 output, Gaussian weight init with unit deviation and Gaussian
// perturbation with deviation 0.5.
func DefaultConfig() *Config {
	c := &Config{
		Neat: NeatConfig{
			PopSize:          150,
			FitnessThreshold: math.Inf(1),
		},
		Genome: GenomeConfig{
			NumInputs:                        2,
			NumOutputs:                       1,
			CompatibilityExcessCoefficient:   1.0,
			CompatibilityDisjointCoefficient: 1.0,
			CompatibilityWeightCoefficient:   0.4,
			SizeNormalization:                "one",
			ConnAddProb:                      0.5,
			NodeAddProb:                      0.2,
			ConnDisableProb:                  0.5,
			WeightMutateRate:                 0.8,
			WeightReplaceRate:                0.1,
			WeightInitType:                   "gaussian",
			WeightInitPower:                  1.0,
			WeightMutateType:                 "gaussian",
			WeightMutatePower:                0.5,
			EnabledInChildRate:               0.25,
		},
		Reproduction: ReproductionConfig{
			CrossoverProb:     0.75,
			SurvivalThreshold: 0.6,
		},
		SpeciesSet: SpeciesSetConfig{
			CompatibilityThreshold: 3.0,
		},
		Stagnation: StagnationConfig{
			MaxStagnation: 15,
		},
	}
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return c
}

// LoadConfig loads configuration parameters from a file on top of
// DefaultConfig. The decoder is chosen by extension: .yaml/.yml, .toml, and
// INI for anything else.
func LoadConfig(filePath string) (*Config, error) {
	config := DefaultConfig()

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", filePath, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to decode yaml config '%s': %w", filePath, err)
		}
	case ".toml":
		if _, err := toml.DecodeFile(filePath, config); err != nil {
			return nil, fmt.Errorf("failed to decode toml config '%s': %w", filePath, err)
		}
	default:
		if err := loadIni(filePath, config); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadIni(filePath string, config *Config) error {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		SpaceBeforeInlineComment: true, // "0.5 # comment" is a value plus a comment
	}, filePath)
	if err != nil {
		return fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	// Map sections to structs
	if err := cfg.Section("NEAT").MapTo(&config.Neat); err != nil {
		return fmt.Errorf("failed to map [NEAT] section: %w", err)
	}
	if err := cfg.Section("DefaultGenome").MapTo(&config.Genome); err != nil {
		return fmt.Errorf("failed to map [DefaultGenome] section: %w", err)
	}
	if err := cfg.Section("DefaultReproduction").MapTo(&config.Reproduction); err != nil {
		return fmt.Errorf("failed to map [DefaultReproduction] section: %w", err)
	}
	if err := cfg.Section("DefaultSpeciesSet").MapTo(&config.SpeciesSet); err != nil {
		return fmt.Errorf("failed to map [DefaultSpeciesSet] section: %w", err)
	}
	if err := cfg.Section("DefaultStagnation").MapTo(&config.Stagnation); err != nil {
		return fmt.Errorf("failed to map [DefaultStagnation] section: %w", err)
	}
	return nil
}

// Validate checks every parameter and builds the weight strategies. It is
// called by LoadConfig and NewPopulation, so a bad value fails at
// construction instead of at sampling time.
func (c *Config) Validate() error {
	c.Genome.SizeNormalization = strings.ToLower(strings.TrimSpace(c.Genome.SizeNormalization))
	c.Genome.WeightInitType = strings.ToLower(strings.TrimSpace(c.Genome.WeightInitType))
	c.Genome.WeightMutateType = strings.ToLower(strings.TrimSpace(c.Genome.WeightMutateType))

	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrConfig}, args...)...))
		}
	}
	prob := func(v float64, name string) {
		check(v >= 0 && v <= 1, "%s must be between 0 and 1, got %v", name, v)
	}

	check(c.Neat.PopSize > 0, "pop_size must be positive")
	check(c.Genome.NumInputs > 0, "num_inputs must be positive")
	check(c.Genome.NumOutputs > 0, "num_outputs must be positive")
	check(c.Genome.CompatibilityExcessCoefficient >= 0, "compatibility_excess_coefficient cannot be negative")
	check(c.Genome.CompatibilityDisjointCoefficient >= 0, "compatibility_disjoint_coefficient cannot be negative")
	check(c.Genome.CompatibilityWeightCoefficient >= 0, "compatibility_weight_coefficient cannot be negative")
	switch c.Genome.SizeNormalization {
	case "one", "max", "classic":
	default:
		check(false, "invalid size_normalization '%s', must be one of 'one', 'max', 'classic'", c.Genome.SizeNormalization)
	}
	prob(c.Genome.ConnAddProb, "conn_add_prob")
	prob(c.Genome.NodeAddProb, "node_add_prob")
	prob(c.Genome.ConnDisableProb, "conn_disable_prob")
	prob(c.Genome.WeightMutateRate, "weight_mutate_rate")
	prob(c.Genome.WeightReplaceRate, "weight_replace_rate")
	prob(c.Genome.EnabledInChildRate, "enabled_in_child_rate")
	prob(c.Reproduction.CrossoverProb, "crossover_prob")
	check(c.Reproduction.SurvivalThreshold > 0 && c.Reproduction.SurvivalThreshold <= 1, "survival_threshold must be in (0, 1]")
	check(c.SpeciesSet.CompatibilityThreshold > 0, "compatibility_threshold must be positive")
	check(c.Stagnation.MaxStagnation > 0, "max_stagnation must be positive")
	check(c.Stagnation.SpeciesElitism >= 0, "species_elitism cannot be negative")

	initStrategy, err := NewWeightStrategy(c.Genome.WeightInitType, c.Genome.WeightInitPower)
	if err != nil {
		errs = append(errs, fmt.Errorf("weight_init_type: %w", err))
	} else if initStrategy.Kind == WeightReroll {
		check(false, "weight_init_type cannot be 'reroll'")
	}
	mutate, err := NewWeightStrategy(c.Genome.WeightMutateType, c.Genome.WeightMutatePower)
	if err != nil {
		errs = append(errs, fmt.Errorf("weight_mutate_type: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	c.weightInit = initStrategy
	c.weightMutate = mutate
	return nil
}

// ExcessCoef weighs genes beyond the other genome's innovation range.
func (c *Config) ExcessCoef() float64 { return c.Genome.CompatibilityExcessCoefficient }

// DisjointCoef weighs unmatched genes inside the shared innovation range.
func (c *Config) DisjointCoef() float64 { return c.Genome.CompatibilityDisjointCoefficient }

// WeightDiffCoef weighs the mean weight difference of matching genes.
func (c *Config) WeightDiffCoef() float64 { return c.Genome.CompatibilityWeightCoefficient }

// CompatThreshold is the distance below which a genome joins a species.
func (c *Config) CompatThreshold() float64 {
	return c.SpeciesSet.CompatibilityThreshold
}

// SizeNorm returns the divisor applied to the excess and disjoint terms.
func (c *Config) SizeNorm(size1, size2 int) float64 {
	n := float64(max(size1, size2))
	switch c.Genome.SizeNormalization {
	case "max":
		return math.Max(n, 1.0)
	case "classic":
		if n < 20 {
			return 1.0
		}
		return n
	default:
		return 1.0
	}
}

// LinkAddProb is the chance that Mutate adds a link.
func (c *Config) LinkAddProb() float64 { return c.Genome.ConnAddProb }

// NodeAddProb is the chance that Mutate splits a link with a new node.
func (c *Config) NodeAddProb() float64 { return c.Genome.NodeAddProb }

// WeightMutationProb is the chance that Mutate touches the weights at all.
func (c *Config) WeightMutationProb() float64 { return c.Genome.WeightMutateRate }

// LinkDisableProb is the chance that Mutate disables a link.
func (c *Config) LinkDisableProb() float64 { return c.Genome.ConnDisableProb }

// CompleteWeightOverrideProb is the per-link chance of a fresh weight
// instead of a perturbation.
func (c *Config) CompleteWeightOverrideProb() float64 { return c.Genome.WeightReplaceRate }

// LinkEnablingProb is the chance a child enables a link only one parent has enabled.
func (c *Config) LinkEnablingProb() float64 { return c.Genome.EnabledInChildRate }

// CrossoverProb is the chance a child comes from two parents.
func (c *Config) CrossoverProb() float64 { return c.Reproduction.CrossoverProb }

// CullSurvivalPercentage is the fraction of each species kept for breeding.
func (c *Config) CullSurvivalPercentage() float64 { return c.Reproduction.SurvivalThreshold }

// StalenessThreshold is the number of generations without improvement after
// which a species is removed.
func (c *Config) StalenessThreshold() int { return c.Stagnation.MaxStagnation }

// SpeciesElitism is the number of best species spared from staleness removal.
func (c *Config) SpeciesElitism() int { return c.Stagnation.SpeciesElitism }

// ResetOnExtinction reports whether a population with no surviving species
// starts over instead of failing.
func (c *Config) ResetOnExtinction() bool { return c.Neat.ResetOnExtinction }

// InitWeight draws a fresh connection weight.
func (c *Config) InitWeight(rng Rand) float64 {
	return c.weightInit.Sample(rng)
}

// MutateWeight perturbs a weight, or rerolls it when the mutation strategy is
// WeightReroll.
func (c *Config) MutateWeight(weight float64, rng Rand) float64 {
	if c.weightMutate.Kind == WeightReroll {
		return c.InitWeight(rng)
	}
	return weight + c.weightMutate.Sample(rng)
}
