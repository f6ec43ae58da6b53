// Package sho implements the single-oscillator system: a 2-D simple
// harmonic oscillator driven by a unit force whose direction is the one
// control parameter. The dynamics target is the unit circle, which gives
// the dynamics loss (|x|^2 - 1)^2.
package sho

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/pancan21/AsyncRL/internal/loop"
	"github.com/pancan21/AsyncRL/internal/rope"
)

const (
	// ControlParamsSize is the driver output: the force angle.
	ControlParamsSize = 1
	// ControlSignalSize is the deparametrized signal: a 2-D force vector.
	ControlSignalSize = 2
	// ObservableSize is what the predictor sees per observation: the 2-D
	// position.
	ObservableSize = 2
)

// System holds the physical constants of the oscillator.
type System struct {
	// Stiffness pulls the oscillator toward the origin.
	Stiffness float64 `yaml:"stiffness"`
	// Gamma is the reward decay speed of the external agent; carried in the
	// config but unused by the simulator itself.
	Gamma float64 `yaml:"gamma"`
}

// state is one ring slot: position and velocity in the plane.
type state struct {
	time     float64
	position [2]float64
	velocity [2]float64
}

// Simulator advances the oscillator with the same ring-buffer Verlet scheme
// as the lattice engine, but with a control forcing term in the
// acceleration.
type Simulator struct {
	system   System
	states   [loop.DelayDepth + 1]state
	controls [loop.DelayDepth + 1][2]float64
	offset   int
}

// NewSimulator starts the oscillator at rest at the origin.
func NewSimulator(system System) *Simulator {
	return &Simulator{system: system}
}

// Seed installs an initial position and velocity into the current slot.
func (s *Simulator) Seed(position, velocity [2]float64) {
	s.states[s.offset].position = position
	s.states[s.offset].velocity = velocity
}

// Time returns the time of the current slot.
func (s *Simulator) Time() float64 { return s.states[s.offset].time }

// Position returns the current position.
func (s *Simulator) Position() [2]float64 { return s.states[s.offset].position }

// acceleration is -k*x plus the control force.
func (s *Simulator) acceleration(st state, control [2]float64) [2]float64 {
	return [2]float64{
		-s.system.Stiffness*st.position[0] + control[0],
		-s.system.Stiffness*st.position[1] + control[1],
	}
}

// Update advances the oscillator by dt under the given 2-D control signal.
func (s *Simulator) Update(ctx context.Context, dt float64, signal []float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(signal) != ControlSignalSize {
		return fmt.Errorf("control signal has %d entries, want %d", len(signal), ControlSignalSize)
	}

	next := (s.offset + 1) % (loop.DelayDepth + 1)
	s.controls[next] = [2]float64{signal[0], signal[1]}

	cur := s.states[s.offset]
	prevAcc := s.acceleration(cur, s.controls[s.offset])

	var nxt state
	nxt.time = cur.time + dt
	for d := 0; d < 2; d++ {
		nxt.position[d] = cur.position[d] + cur.velocity[d]*dt + 0.5*prevAcc[d]*dt*dt
	}
	nextAcc := s.acceleration(nxt, s.controls[next])
	for d := 0; d < 2; d++ {
		nxt.velocity[d] = cur.velocity[d] + 0.5*dt*(prevAcc[d]+nextAcc[d])
	}

	s.states[next] = nxt
	s.offset = next
	return nil
}

// Observations returns the retained window oldest to newest, excluding the
// current slot.
func (s *Simulator) Observations() []loop.Observation {
	obs := make([]loop.Observation, loop.DelayDepth)
	for k := 0; k < loop.DelayDepth; k++ {
		i := (s.offset + 1 + k) % (loop.DelayDepth + 1)
		obs[k] = loop.Observation{
			Time:     s.states[i].time,
			State:    rope.New(s.states[i].position[:]),
			Controls: s.controls[i][:],
		}
	}
	return obs
}

// DynamicsLoss measures distance of the orbit from the unit circle:
// (|x|^2 - 1)^2.
func (s *Simulator) DynamicsLoss(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p := s.states[s.offset].position
	r2 := p[0]*p[0] + p[1]*p[1]
	return (r2 - 1) * (r2 - 1), nil
}

// Generator deparametrizes the force angle into a unit force vector.
type Generator struct {
	mu    sync.Mutex
	angle float64
	setAt float64
}

// NewGenerator starts with a zero angle, so the signal defaults to the unit
// force along the second axis.
func NewGenerator() *Generator { return &Generator{} }

// SetParameters commits a new force angle.
func (g *Generator) SetParameters(ctx context.Context, params []float64, time float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(params) != ControlParamsSize {
		return fmt.Errorf("parameter size mismatch: got %d, want %d", len(params), ControlParamsSize)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.angle = params[0]
	g.setAt = time
	return nil
}

// ControlSignal returns the unit force vector for the current angle.
func (g *Generator) ControlSignal(time float64) []float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	sin, cos := math.Sincos(g.angle)
	return []float64{sin, cos}
}

var (
	_ loop.Simulator = (*Simulator)(nil)
	_ loop.Generator = (*Generator)(nil)
)
