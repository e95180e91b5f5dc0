// Package advanced implements the configurable cost model: monetary
// cost synthesis from hours with complexity, industry, experience, team,
// duration, historical-accuracy and inflation adjustments plus a
// risk-based contingency reserve.
package advanced

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all tunable parameters of the cost model. Unknown keys
// found in a config file are preserved in Extra but never interpreted.
type Config struct {
	// BaseCostPerHour is the blended hourly rate (default: 100).
	BaseCostPerHour float64 `yaml:"base_cost_per_hour"`

	// ComplexityFactors maps the four complexity labels to multipliers.
	ComplexityFactors map[string]float64 `yaml:"complexity_factors"`

	// IndustryMultipliers maps industry labels to multipliers.
	IndustryMultipliers map[string]float64 `yaml:"industry_multipliers"`

	// TeamExperienceFactors maps the four experience labels to
	// multipliers.
	TeamExperienceFactors map[string]float64 `yaml:"team_experience_factors"`

	// RiskContingencyRate is the contingency reserve rate (default: 0.15).
	RiskContingencyRate float64 `yaml:"risk_contingency_rate"`

	// InflationRate is the annual inflation rate applied to future
	// project starts (default: 0.03).
	InflationRate float64 `yaml:"inflation_rate"`

	// Extra carries unrecognized config keys through load/save cycles.
	Extra map[string]any `yaml:",inline"`
}

// DefaultConfig returns the built-in cost model parameters.
func DefaultConfig() Config {
	return Config{
		BaseCostPerHour: 100,
		ComplexityFactors: map[string]float64{
			"low":        1.0,
			"medium":     1.5,
			"high":       2.0,
			"enterprise": 3.0,
		},
		IndustryMultipliers: map[string]float64{
			"technology": 1.0,
			"finance":    1.2,
			"healthcare": 1.3,
			"education":  0.9,
			"ecommerce":  1.1,
		},
		TeamExperienceFactors: map[string]float64{
			"junior":       1.2,
			"intermediate": 1.0,
			"senior":       0.9,
			"expert":       0.8,
		},
		RiskContingencyRate: 0.15,
		InflationRate:       0.03,
	}
}

// LoadConfig reads a YAML config file over the defaults. Keys absent
// from the file keep their default values; map keys merge.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the config as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
