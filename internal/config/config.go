package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pancan21/AsyncRL/internal/lattice"
	"github.com/pancan21/AsyncRL/internal/sho"
)

const (
	DefaultDt              = 0.01
	DefaultSteps           = 1000
	DefaultSize            = 16
	DefaultDims            = 2
	DefaultStiffness       = 0.1
	DefaultOriginStiffness = 0.3
	DefaultGain            = 1.0
)

// DriverConfig selects and tunes the in-process driver stand-in.
type DriverConfig struct {
	// Kind is "zero" or "damping".
	Kind string `yaml:"kind"`
	// Gain is the damping driver's feedback gain.
	Gain float64 `yaml:"gain"`
	// DelayMs adds artificial computation latency, exercising multi-step
	// driver lag against a live simulation.
	DelayMs int `yaml:"delay_ms"`
}

// Config is one experiment description: which system to run, the loop
// schedule, and the driver stand-in.
type Config struct {
	Model    string         `yaml:"model"` // "lattice" or "sho"
	Dt       float64        `yaml:"dt"`
	Steps    int            `yaml:"steps"`
	Workers  int            `yaml:"workers"`
	LogEvery int            `yaml:"log_every"`
	Lattice  lattice.Config `yaml:"lattice"`
	SHO      sho.System     `yaml:"sho"`
	Driver   DriverConfig   `yaml:"driver"`
}

// DefaultConfig returns a runnable lattice experiment.
func DefaultConfig() *Config {
	return &Config{
		Model:    "lattice",
		Dt:       DefaultDt,
		Steps:    DefaultSteps,
		LogEvery: 100,
		Lattice: lattice.Config{
			Size:            DefaultSize,
			Dims:            DefaultDims,
			Stiffness:       DefaultStiffness,
			OriginStiffness: DefaultOriginStiffness,
		},
		SHO:    sho.System{Stiffness: 1.0, Gamma: 1.1},
		Driver: DriverConfig{Kind: "damping", Gain: DefaultGain},
	}
}

// Load reads a yaml config file over the defaults, so partial files are
// legal.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as yaml.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the experiment as a whole; system-specific geometry is
// validated by the lattice package.
func (c *Config) Validate() error {
	switch c.Model {
	case "lattice":
		if err := c.Lattice.Validate(); err != nil {
			return err
		}
	case "sho":
	default:
		return fmt.Errorf("unknown model %q (want lattice or sho)", c.Model)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %v", c.Dt)
	}
	if c.Steps < 0 {
		return fmt.Errorf("steps must be nonnegative, got %d", c.Steps)
	}
	switch c.Driver.Kind {
	case "zero", "damping":
	default:
		return fmt.Errorf("unknown driver %q (want zero or damping)", c.Driver.Kind)
	}
	return nil
}
