// Package scoringconfig loads the single authoritative source of default
// layer weights and minimum scores. Job-level layers[].weight/minScore
// remain valid per-job overrides on top of these defaults; they never
// redefine the defaults themselves. Verdict bands are not configurable
// here (they are fixed in package scorecard), and the worldClassThreshold
// field is parsed but job validation uses job.WorldClassThreshold.
package scoringconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"docgen/internal/job"
)

// LayerDefaults is the default weight/minScore for one layer.
type LayerDefaults struct {
	Weight   float64 `yaml:"weight"`
	MinScore float64 `yaml:"minScore"`
}

// Config is the top-level scoring configuration document.
type Config struct {
	WorldClassThreshold float64                  `yaml:"worldClassThreshold"`
	Layers              map[string]LayerDefaults `yaml:"layers"`
}

// Default returns the built-in configuration used when no scoring-config
// file is supplied: six equally-weighted layers.
func Default() Config {
	const w = 1.0 / 6.0
	return Config{
		WorldClassThreshold: job.WorldClassThreshold,
		Layers: map[string]LayerDefaults{
			"L0": {Weight: w, MinScore: 0.6},
			"L1": {Weight: w, MinScore: 90},
			"L2": {Weight: w, MinScore: 1},
			"L3": {Weight: w, MinScore: 1},
			"L4": {Weight: w, MinScore: 0.85},
			"L5": {Weight: w, MinScore: 0.8},
		},
	}
}

// Load reads and validates a scoring-config YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("scoringconfig: could not read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("scoringconfig: could not parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configured layer weights sum to ~1.0.
func (c Config) Validate() error {
	sum := 0.0
	for _, l := range c.Layers {
		sum += l.Weight
	}
	if sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("scoringconfig: layer weights sum to %.4f, expected ~1.0", sum)
	}
	return nil
}

// ApplyTo merges the configured defaults into a job's layer overrides:
// any field the job left unset (zero value) is filled from the config,
// and fields the job did set take precedence.
func (c Config) ApplyTo(layers map[string]job.LayerConfig) map[string]job.LayerConfig {
	merged := make(map[string]job.LayerConfig, len(c.Layers))
	for id, def := range c.Layers {
		lc := job.LayerConfig{Weight: def.Weight, MinScore: def.MinScore}
		if override, ok := layers[id]; ok {
			if override.Weight != 0 {
				lc.Weight = override.Weight
			}
			if override.MinScore != 0 {
				lc.MinScore = override.MinScore
			}
			lc.Enabled = override.Enabled
		}
		merged[id] = lc
	}
	return merged
}
