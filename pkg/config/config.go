// Package config provides configuration loading and management for the
// post-processing tool. It handles loading configuration from YAML files,
// provides default values, and builds the configured structure function.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/khintz/gridpp/pkg/field"
	"github.com/khintz/gridpp/pkg/structure"
)

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Structure selects and parameterises the correlation kernel.
	Structure struct {
		// Type is the kernel family: "barnes" or "cressman".
		Type string `yaml:"type"`

		// H is the horizontal length scale in metres.
		H float64 `yaml:"h"`

		// V is the vertical length scale in metres; zero disables it.
		V float64 `yaml:"v"`

		// W is the land-area-fraction length scale; zero disables it.
		W float64 `yaml:"w"`

		// Hmax, when positive, sets the Barnes localization cutoff in metres.
		Hmax float64 `yaml:"hmax"`

		// CrossValidationDist, when positive, wraps the kernel so sites
		// within this distance of a gridpoint do not influence it.
		CrossValidationDist float64 `yaml:"crossValidationDist"`
	} `yaml:"structure"`

	// OI controls the analysis update.
	OI struct {
		// MaxPoints caps the observations used per gridpoint; zero means
		// unlimited.
		MaxPoints int `yaml:"maxPoints"`

		// NumWorkers specifies how many goroutines the grid loop uses.
		NumWorkers int `yaml:"numWorkers"`

		// ElevGradient corrects the background sampled at observation sites
		// for elevation differences, in units per metre.
		ElevGradient float64 `yaml:"elevGradient"`
	} `yaml:"oi"`

	// Neighbourhood parameterises the windowed replacement filter.
	Neighbourhood struct {
		Halfwidth   int     `yaml:"halfwidth"`
		CriteriaMin float64 `yaml:"criteriaMin"`
		CriteriaMax float64 `yaml:"criteriaMax"`
		TargetMin   float64 `yaml:"targetMin"`
		TargetMax   float64 `yaml:"targetMax"`
	} `yaml:"neighbourhood"`

	// Output controls diagnostics.
	Output struct {
		// Verbose enables debug logging from the solver.
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Structure.Type = "barnes"
	cfg.Structure.H = 100000
	cfg.Structure.V = 200
	cfg.Structure.W = 0

	cfg.OI.MaxPoints = 0
	cfg.OI.NumWorkers = runtime.NumCPU()
	cfg.OI.ElevGradient = 0

	cfg.Neighbourhood.Halfwidth = 1
	cfg.Neighbourhood.CriteriaMin = 0
	cfg.Neighbourhood.CriteriaMax = 1
	cfg.Neighbourhood.TargetMin = 0
	cfg.Neighbourhood.TargetMax = 1

	cfg.Output.Verbose = false

	return cfg
}

// LoadConfig loads configuration from a YAML file. If the file doesn't
// exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// BuildStructure constructs the structure function the configuration
// describes, wrapping it for cross-validation when requested.
func (cfg *Config) BuildStructure() (structure.StructureFunction, error) {
	var sf structure.StructureFunction
	var err error

	switch cfg.Structure.Type {
	case "barnes", "":
		hmax := field.MissingValue
		if cfg.Structure.Hmax > 0 {
			hmax = cfg.Structure.Hmax
		}
		sf, err = structure.NewBarnesStructure(cfg.Structure.H, cfg.Structure.V, cfg.Structure.W, hmax)
	case "cressman":
		sf, err = structure.NewCressmanStructure(cfg.Structure.H, cfg.Structure.V, cfg.Structure.W)
	default:
		return nil, fmt.Errorf("%w: unknown structure type %q", field.ErrInvalidArgument, cfg.Structure.Type)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Structure.CrossValidationDist > 0 {
		sf, err = structure.NewCrossValidation(sf, cfg.Structure.CrossValidationDist)
		if err != nil {
			return nil, err
		}
	}
	return sf, nil
}
