// Package metrics accumulates per-step statistics of a running control
// loop: lattice energy, boundary quiescence, and control effort.
package metrics

import (
	"github.com/pancan21/AsyncRL/internal/lattice"
)

// Metric observes one lattice snapshot plus the active control signal per
// committed step and reduces them to a single value.
type Metric interface {
	Name() string
	Observe(st *lattice.State, signal []float64, t float64)
	Value() float64
	Reset()
}

// Energy averages the lattice Hamiltonian over the run: kinetic energy plus
// the origin-pinning and lower-neighbor coupling potentials.
type Energy struct {
	cfg     lattice.Config
	strides []int
	total   float64
	samples int
}

// NewEnergy builds the energy metric for a lattice geometry.
func NewEnergy(cfg lattice.Config) *Energy {
	return &Energy{cfg: cfg, strides: cfg.Strides()}
}

func (e *Energy) Name() string { return "energy" }

// Observe accumulates the Hamiltonian of the snapshot. Each coupling edge is
// counted once, from its upper endpoint, matching the open-boundary force
// law.
func (e *Energy) Observe(st *lattice.State, signal []float64, t float64) {
	var total float64
	for i := range st.Position {
		total += 0.5 * st.Velocity[i] * st.Velocity[i]
		total += 0.5 * e.cfg.OriginStiffness * st.Position[i] * st.Position[i]
		for d := 0; d < e.cfg.Dims; d++ {
			if (i/e.strides[d])%e.cfg.Size > 0 {
				diff := st.Position[i] - st.Position[i-e.strides[d]]
				total += 0.5 * e.cfg.Stiffness * diff * diff
			}
		}
	}
	e.total += total
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// BoundaryQuiescence averages the mean squared boundary displacement, the
// loss the driver is trying to push down.
type BoundaryQuiescence struct {
	boundary []int
	total    float64
	samples  int
}

// NewBoundaryQuiescence builds the quiescence metric for a lattice geometry.
func NewBoundaryQuiescence(cfg lattice.Config) *BoundaryQuiescence {
	return &BoundaryQuiescence{boundary: cfg.BoundaryIndices()}
}

func (b *BoundaryQuiescence) Name() string { return "boundary_quiescence" }

func (b *BoundaryQuiescence) Observe(st *lattice.State, signal []float64, t float64) {
	var sum float64
	for _, i := range b.boundary {
		sum += st.Position[i] * st.Position[i]
	}
	b.total += sum / float64(len(b.boundary))
	b.samples++
}

func (b *BoundaryQuiescence) Value() float64 {
	if b.samples == 0 {
		return 0
	}
	return b.total / float64(b.samples)
}

func (b *BoundaryQuiescence) Reset() {
	b.total = 0
	b.samples = 0
}

// ControlEffort accumulates the squared magnitude of the applied control
// signal over the run.
type ControlEffort struct {
	total   float64
	samples int
}

// NewControlEffort builds the effort metric.
func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(st *lattice.State, signal []float64, t float64) {
	for _, u := range signal {
		c.total += u * u
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 { return c.total }

func (c *ControlEffort) Reset() {
	c.total = 0
	c.samples = 0
}
