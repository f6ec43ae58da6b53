// Package loop defines the four capability interfaces of the control cycle
// and the coordinator that schedules them: a possibly slow driver computes
// control parameters while the simulation keeps stepping with the last known
// signal, and fresh parameters are committed the moment they arrive.
package loop

import (
	"context"

	"github.com/pancan21/AsyncRL/internal/rope"
)

// DelayDepth is the number of past observation/control pairs retained to
// Markovianize state estimation. Simulators keep DelayDepth+1 ring slots:
// the retained window plus the current state.
const DelayDepth = 3

// Observation is an immutable snapshot of the observable system state and
// the control signal that was active in that slot. It is constructed fresh
// per request and never mutated after construction; the rope borrows the
// simulator's snapshot buffers, which stay valid until the next update.
type Observation struct {
	Time     float64
	State    *rope.Rope
	Controls []float64
}

// Rope views the observation as one flat sequence: observable state followed
// by the active control signal.
func (o Observation) Rope() *rope.Rope {
	return o.State.Merge(rope.New(o.Controls))
}

// StateEstimate is the latent-space embedding of the full system state,
// produced by a StatePredictor from a window of past observations.
type StateEstimate struct {
	Time   float64
	Latent []float64
}

// Driver computes new control parameters from a state estimate and the
// current dynamics loss. Latency is unbounded; the coordinator never blocks
// simulation progress on it.
type Driver interface {
	ComputeControls(ctx context.Context, estimate StateEstimate, dynamicsLoss float64) ([]float64, error)
}

// Generator deparametrizes the driver's compact parameters into the
// full-dimensional control signal the simulator consumes. ControlSignal is
// synchronous and cheap; SetParameters may be called concurrently with a
// simulation step reading the signal.
type Generator interface {
	SetParameters(ctx context.Context, params []float64, time float64) error
	ControlSignal(time float64) []float64
}

// Simulator advances the physical system and exposes its delayed
// observation window. Update requires exclusive access to the simulator for
// its duration.
type Simulator interface {
	Observations() []Observation
	Update(ctx context.Context, dt float64, signal []float64) error
	DynamicsLoss(ctx context.Context) (float64, error)
	Time() float64
}

// StatePredictor predicts the full system state, in some latent space, from
// the bounded window of past observations.
type StatePredictor interface {
	PredictState(ctx context.Context, observations []Observation) (StateEstimate, error)
}
