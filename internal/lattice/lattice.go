// Package lattice defines the coupled-oscillator lattice: its configuration,
// full and observable state, and the mixed-radix mapping between flat indices
// and multi-dimensional lattice coordinates.
package lattice

import (
	"fmt"

	"github.com/pancan21/AsyncRL/internal/rope"
)

// Config describes a lattice of Size^Dims points. Stiffness couples each
// point to its lower neighbor along every axis; OriginStiffness pins each
// point to its equilibrium position.
type Config struct {
	Size            int     `yaml:"size"`
	Dims            int     `yaml:"dims"`
	Stiffness       float64 `yaml:"stiffness"`
	OriginStiffness float64 `yaml:"origin_stiffness"`
}

// Validate rejects configurations that would make the geometry degenerate.
// Validation happens once at construction; the hot path assumes a valid
// config.
func (c Config) Validate() error {
	if c.Size < 2 {
		return fmt.Errorf("lattice size must be at least 2, got %d", c.Size)
	}
	if c.Dims < 1 {
		return fmt.Errorf("lattice dims must be at least 1, got %d", c.Dims)
	}
	return nil
}

// Points returns the number of lattice points, Size^Dims.
func (c Config) Points() int {
	n := 1
	for d := 0; d < c.Dims; d++ {
		n *= c.Size
	}
	return n
}

// Strides returns the flat-index stride along each axis:
// stride[d] = Size^(Dims-1-d).
func (c Config) Strides() []int {
	strides := make([]int, c.Dims)
	s := 1
	for d := c.Dims - 1; d >= 0; d-- {
		strides[d] = s
		s *= c.Size
	}
	return strides
}

// Deindex converts a flat index into its Dims-dimensional lattice coordinate:
// coord[d] = (flat / Size^(Dims-1-d)) mod Size. Panics when flat is outside
// [0, Size^Dims).
func Deindex(flat, size, dims int) []int {
	coord := make([]int, dims)
	rest := flat
	for d := dims - 1; d >= 0; d-- {
		coord[d] = rest % size
		rest /= size
	}
	if flat < 0 || rest != 0 {
		panic(fmt.Sprintf("flat index %d outside lattice of %d^%d points", flat, size, dims))
	}
	return coord
}

// Index converts a lattice coordinate back to its flat index:
// flat = sum_d coord[d] * Size^(Dims-1-d). Inverse of Deindex for every
// flat index in [0, Size^Dims).
func Index(coord []int, size int) int {
	flat := 0
	for _, c := range coord {
		flat = flat*size + c
	}
	return flat
}

// BoundaryIndices returns, in ascending flat order, every point with some
// coordinate on the edge of the lattice. For Dims == 2 this is the boundary
// ring of length 4*Size - 4.
func (c Config) BoundaryIndices() []int {
	var boundary []int
	n := c.Points()
	for i := 0; i < n; i++ {
		coord := Deindex(i, c.Size, c.Dims)
		for _, x := range coord {
			if x == 0 || x == c.Size-1 {
				boundary = append(boundary, i)
				break
			}
		}
	}
	return boundary
}

// State is one full snapshot of the lattice. The three arrays always share
// length Size^Dims; Size and Dims are fixed for the lifetime of the engine
// that owns the state.
type State struct {
	Time            float64
	Size            int
	Stiffness       float64
	OriginStiffness float64
	Position        []float64
	Velocity        []float64
	Acceleration    []float64
}

// NewState allocates a zeroed snapshot for the given configuration.
func NewState(cfg Config) *State {
	n := cfg.Points()
	return &State{
		Size:            cfg.Size,
		Stiffness:       cfg.Stiffness,
		OriginStiffness: cfg.OriginStiffness,
		Position:        make([]float64, n),
		Velocity:        make([]float64, n),
		Acceleration:    make([]float64, n),
	}
}

// Rope views the full state as one flat sequence: positions, then
// velocities, then accelerations. The rope borrows the state's arrays.
func (s *State) Rope() *rope.Rope {
	return rope.New(s.Position, s.Velocity, s.Acceleration)
}

// ObservableState is the boundary projection of a State: positions and
// velocities of the boundary points only.
type ObservableState struct {
	Time     float64
	Position []float64
	Velocity []float64
}

// NewObservableState allocates a zeroed boundary snapshot.
func NewObservableState(cfg Config) *ObservableState {
	n := len(cfg.BoundaryIndices())
	return &ObservableState{
		Position: make([]float64, n),
		Velocity: make([]float64, n),
	}
}

// Observe projects the full state down to the boundary points given by
// indices, reusing the observable snapshot's storage.
func (s *State) Observe(obs *ObservableState, indices []int) {
	obs.Time = s.Time
	for k, i := range indices {
		obs.Position[k] = s.Position[i]
		obs.Velocity[k] = s.Velocity[i]
	}
}

// Rope views the observable state as positions then velocities.
func (o *ObservableState) Rope() *rope.Rope {
	return rope.New(o.Position, o.Velocity)
}
