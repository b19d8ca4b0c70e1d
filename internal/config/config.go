// Package config loads server and run defaults from a YAML file.
package config

import (
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// RunDefaults are the optimizer settings applied when a run does not
// specify its own.
type RunDefaults struct {
	Algo        string  `yaml:"algo"`
	MaxIters    int     `yaml:"maxIters"`
	Tolerance   float64 `yaml:"tolerance"`
	Alpha       float64 `yaml:"alpha"`
	Gamma       float64 `yaml:"gamma"`
	Rho         float64 `yaml:"rho"`
	Sigma       float64 `yaml:"sigma"`
	InitialStep float64 `yaml:"initialStep"`
	PopSize     int     `yaml:"popSize"`
	Seed        int64   `yaml:"seed"`
}

// Config holds the full configuration.
type Config struct {
	Addr               string      `yaml:"addr"`
	DataDir            string      `yaml:"dataDir"`
	CheckpointInterval int         `yaml:"checkpointInterval"`
	Defaults           RunDefaults `yaml:"defaults"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Addr:               ":8080",
		DataDir:            "~/.neldermead",
		CheckpointInterval: 30,
		Defaults: RunDefaults{
			Algo:        "nelder-mead",
			MaxIters:    1000,
			Tolerance:   1e-6,
			Alpha:       1.0,
			Gamma:       2.0,
			Rho:         0.5,
			Sigma:       0.5,
			InitialStep: 0.05,
			PopSize:     30,
		},
	}
}

// Load reads a YAML config file and overlays it on the defaults.
// Fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.CheckpointInterval < 0 {
		return fmt.Errorf("checkpointInterval must not be negative")
	}
	if c.Defaults.MaxIters <= 0 {
		return fmt.Errorf("defaults.maxIters must be positive")
	}
	if c.Defaults.Tolerance <= 0 {
		return fmt.Errorf("defaults.tolerance must be positive")
	}
	return nil
}

// ExpandedDataDir returns DataDir with a leading ~ resolved.
func (c *Config) ExpandedDataDir() (string, error) {
	return homedir.Expand(c.DataDir)
}
