package config

import (
	"github.com/pancan21/AsyncRL/internal/lattice"
	"github.com/pancan21/AsyncRL/internal/sho"
)

var Presets = map[string]map[string]*Config{
	"lattice": {
		"small": {
			Model: "lattice", Dt: 0.01, Steps: 2000, LogEvery: 100,
			Lattice: lattice.Config{Size: 8, Dims: 2, Stiffness: 0.1, OriginStiffness: 0.3},
			Driver:  DriverConfig{Kind: "damping", Gain: 1.0},
		},
		"large": {
			Model: "lattice", Dt: 0.01, Steps: 5000, LogEvery: 500,
			Lattice: lattice.Config{Size: 128, Dims: 2, Stiffness: 0.1, OriginStiffness: 0.3},
			Driver:  DriverConfig{Kind: "damping", Gain: 1.0},
		},
		"chain": {
			Model: "lattice", Dt: 0.005, Steps: 4000, LogEvery: 200,
			Lattice: lattice.Config{Size: 64, Dims: 1, Stiffness: 0.5, OriginStiffness: 0.1},
			Driver:  DriverConfig{Kind: "damping", Gain: 0.5},
		},
		"slow_driver": {
			Model: "lattice", Dt: 0.01, Steps: 2000, LogEvery: 100,
			Lattice: lattice.Config{Size: 16, Dims: 2, Stiffness: 0.1, OriginStiffness: 0.3},
			Driver:  DriverConfig{Kind: "damping", Gain: 1.0, DelayMs: 50},
		},
	},
	"sho": {
		"circle": {
			Model: "sho", Dt: 0.01, Steps: 10000, LogEvery: 1000,
			SHO:    sho.System{Stiffness: 1.0, Gamma: 1.1},
			Driver: DriverConfig{Kind: "zero"},
		},
	},
}

// GetPreset looks up a named preset for a model; nil when absent.
func GetPreset(model, name string) *Config {
	presets, ok := Presets[model]
	if !ok {
		return nil
	}
	return presets[name]
}
