package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "lattice", cfg.Model)
	assert.Positive(t, cfg.Dt)
}

func TestValidateRejections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model = "nbody"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Dt = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Lattice.Size = 1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Driver.Kind = "oracle"
	assert.Error(t, cfg.Validate())
}

func TestLoadPartialFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "experiment.yaml")
	data := "model: lattice\nlattice:\n  size: 32\n  dims: 2\n  stiffness: 0.2\n  origin_stiffness: 0.4\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Lattice.Size)
	assert.Equal(t, 0.2, cfg.Lattice.Stiffness)
	// Untouched fields keep defaults.
	assert.Equal(t, DefaultDt, cfg.Dt)
	assert.Equal(t, DefaultSteps, cfg.Steps)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")
	cfg := DefaultConfig()
	cfg.Lattice.Size = 24

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("lattice", "small")
	require.NotNil(t, cfg)
	assert.Equal(t, 8, cfg.Lattice.Size)
	assert.NoError(t, cfg.Validate())

	assert.Nil(t, GetPreset("lattice", "nonexistent"))
	assert.Nil(t, GetPreset("nonexistent", "small"))
}

func TestAllPresetsValid(t *testing.T) {
	for model, presets := range Presets {
		for name, cfg := range presets {
			assert.NoError(t, cfg.Validate(), "%s/%s", model, name)
		}
	}
}
