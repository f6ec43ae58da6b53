package storage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTrace() []TracePoint {
	return []TracePoint{
		{Step: 1, Time: 0.01, Loss: 0.5, Computing: true},
		{Step: 2, Time: 0.02, Loss: 0.25, Computing: true},
		{Step: 3, Time: 0.03, Loss: 0.125, Computing: false},
	}
}

func TestSaveAndLoad(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Init())

	meta := RunMetadata{
		Model:   "lattice",
		Dt:      0.01,
		Steps:   3,
		Workers: 4,
		Driver:  "damping",
		Applied: 1,
		Metrics: map[string]float64{"energy": 1.5},
	}
	id, err := store.Save(meta, testTrace())
	require.NoError(t, err)
	assert.Contains(t, id, "lattice_")

	loaded, err := store.Load(id)
	require.NoError(t, err)
	assert.Equal(t, id, loaded.ID)
	assert.Equal(t, "damping", loaded.Driver)
	assert.Equal(t, 1.5, loaded.Metrics["energy"])

	trace, err := store.LoadTrace(id)
	require.NoError(t, err)
	require.Len(t, trace, 3)
	assert.Equal(t, 2, trace[1].Step)
	assert.True(t, trace[1].Computing)
	assert.False(t, trace[2].Computing)
	assert.InDelta(t, 0.125, trace[2].Loss, 1e-9)
	assert.True(t, math.Abs(trace[0].Time-0.01) < 1e-9)
}

func TestListEmptyDir(t *testing.T) {
	store := New(t.TempDir() + "/missing")
	runs, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestListFindsRuns(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Init())

	_, err := store.Save(RunMetadata{Model: "lattice"}, nil)
	require.NoError(t, err)
	_, err = store.Save(RunMetadata{Model: "sho"}, testTrace())
	require.NoError(t, err)

	runs, err := store.List()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestLoadMissingRun(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Init())
	_, err := store.Load("nope")
	assert.Error(t, err)
}
