// Package engine advances the coupled-oscillator lattice with velocity-Verlet
// integration over a fixed-depth ring buffer of past states, computing
// inter-point forces in parallel on a worker pool.
package engine

import (
	"context"
	"fmt"

	"github.com/pancan21/AsyncRL/internal/lattice"
	"github.com/pancan21/AsyncRL/internal/loop"
)

// DelayDepth mirrors the loop-wide retention depth; the ring holds
// DelayDepth+1 slots, the retained window plus the current state.
const DelayDepth = loop.DelayDepth

// Engine owns the ring buffer of lattice states. All slots are allocated at
// construction and mutated in place forever after; no allocation happens
// during steady-state stepping.
type Engine struct {
	cfg      lattice.Config
	strides  []int
	boundary []int

	states      [DelayDepth + 1]*lattice.State
	observables [DelayDepth + 1]*lattice.ObservableState
	controls    [DelayDepth + 1][]float64
	offset      int

	pool *Pool
}

// New allocates DelayDepth+1 zeroed states sized Size^Dims. The pool is
// borrowed, not owned; callers may share one pool between engines.
func New(cfg lattice.Config, pool *Pool) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	e := &Engine{
		cfg:      cfg,
		strides:  cfg.Strides(),
		boundary: cfg.BoundaryIndices(),
		pool:     pool,
	}
	for i := range e.states {
		e.states[i] = lattice.NewState(cfg)
		e.observables[i] = lattice.NewObservableState(cfg)
		e.controls[i] = make([]float64, len(e.boundary))
	}
	return e, nil
}

// Config returns the lattice configuration the engine was built with.
func (e *Engine) Config() lattice.Config { return e.cfg }

// SignalSize returns the length of the control signal the engine consumes,
// one entry per boundary point.
func (e *Engine) SignalSize() int { return len(e.boundary) }

// Current returns the current slot. Callers may read it only between
// updates; Update overwrites ring slots in place.
func (e *Engine) Current() *lattice.State { return e.states[e.offset] }

// Seed installs initial conditions into the current slot and recomputes its
// acceleration from the seeded positions, so the first Verlet step sees a
// consistent force field rather than the zeroed construction state.
func (e *Engine) Seed(position, velocity []float64) error {
	n := e.cfg.Points()
	if len(position) != n || len(velocity) != n {
		return fmt.Errorf("seed length mismatch: lattice has %d points, got %d positions and %d velocities",
			n, len(position), len(velocity))
	}
	cur := e.states[e.offset]
	copy(cur.Position, position)
	copy(cur.Velocity, velocity)
	for i := 0; i < n; i++ {
		cur.Acceleration[i] = e.forceAt(cur.Position, i)
	}
	cur.Observe(e.observables[e.offset], e.boundary)
	return nil
}

// Time returns the time of the current slot.
func (e *Engine) Time() float64 { return e.states[e.offset].Time }

// forceAt computes the acceleration of point i from the given positions:
// a pull toward equilibrium plus nearest-neighbor coupling. Open boundary
// condition: a point contributes a coupling term only toward its lower
// neighbor along each axis, so each edge is summed exactly once.
func (e *Engine) forceAt(position []float64, i int) float64 {
	acc := -e.cfg.OriginStiffness * position[i]
	for d := 0; d < e.cfg.Dims; d++ {
		if (i/e.strides[d])%e.cfg.Size > 0 {
			j := i - e.strides[d]
			acc += e.cfg.Stiffness * (position[j] - position[i])
		}
	}
	return acc
}

// Update advances the system by dt under the given control signal and
// commits the result as the new current slot. The slot holding the oldest
// data is overwritten. Update is the only mutator and requires exclusive
// access to the ring buffer for its duration.
func (e *Engine) Update(ctx context.Context, dt float64, signal []float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(signal) != len(e.boundary) {
		return fmt.Errorf("control signal has %d entries, want %d", len(signal), len(e.boundary))
	}

	n := e.cfg.Points()
	next := (e.offset + 1) % (DelayDepth + 1)
	cur, nxt := e.states[e.offset], e.states[next]

	// Position half of the Verlet step. Embarrassingly parallel: no
	// cross-point dependency.
	e.pool.Run(n, func(start, end int) {
		for i := start; i < end; i++ {
			nxt.Position[i] = cur.Position[i] + cur.Velocity[i]*dt + 0.5*cur.Acceleration[i]*dt*dt
		}
	})

	// Forces at the new positions. Reads nxt.Position everywhere, writes
	// only nxt.Acceleration, so chunks stay independent.
	e.pool.Run(n, func(start, end int) {
		for i := start; i < end; i++ {
			nxt.Acceleration[i] = e.forceAt(nxt.Position, i)
		}
	})

	// Trapezoidal velocity closure.
	e.pool.Run(n, func(start, end int) {
		for i := start; i < end; i++ {
			nxt.Velocity[i] = cur.Velocity[i] + 0.5*dt*(cur.Acceleration[i]+nxt.Acceleration[i])
		}
	})

	nxt.Time = cur.Time + dt
	copy(e.controls[next], signal)
	nxt.Observe(e.observables[next], e.boundary)
	e.offset = next
	return nil
}

// Observations returns, oldest to newest, the DelayDepth retained observable
// snapshots excluding the just-computed current one, each paired with the
// control signal active in that slot. The returned ropes borrow the engine's
// snapshot buffers and are valid until the next Update.
func (e *Engine) Observations() []loop.Observation {
	obs := make([]loop.Observation, DelayDepth)
	for k := 0; k < DelayDepth; k++ {
		i := (e.offset + 1 + k) % (DelayDepth + 1)
		obs[k] = loop.Observation{
			Time:     e.observables[i].Time,
			State:    e.observables[i].Rope(),
			Controls: e.controls[i],
		}
	}
	return obs
}

// DynamicsLoss reports how far the observable boundary is from quiescence:
// the mean squared boundary displacement of the current slot.
func (e *Engine) DynamicsLoss(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cur := e.states[e.offset]
	var sum float64
	for _, i := range e.boundary {
		sum += cur.Position[i] * cur.Position[i]
	}
	return sum / float64(len(e.boundary)), nil
}

var _ loop.Simulator = (*Engine)(nil)
