// Package generator deparametrizes driver control parameters into the
// full-dimensional control signal the lattice simulator consumes.
package generator

import (
	"context"
	"fmt"
	"sync"
)

// Signal generates the lattice control signal from the last committed
// parameter set. For the lattice the parameter and signal spaces coincide:
// one value per boundary point. The parameters are guarded by a mutex
// because the control loop commits them concurrently with a simulation step
// reading the signal.
type Signal struct {
	mu     sync.Mutex
	params []float64
	setAt  float64
}

// NewSignal builds a generator for a signal of the given size, initially
// zero, so the simulator always has a valid signal before the first driver
// result arrives.
func NewSignal(size int) *Signal {
	return &Signal{params: make([]float64, size)}
}

// SetParameters commits a freshly computed parameter set at the given
// simulation time.
func (g *Signal) SetParameters(ctx context.Context, params []float64, time float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(params) != len(g.params) {
		return fmt.Errorf("parameter size mismatch: got %d, want %d", len(params), len(g.params))
	}
	copy(g.params, params)
	g.setAt = time
	return nil
}

// ControlSignal returns the signal for the given time: a copy of the last
// committed parameters, possibly stale, never absent.
func (g *Signal) ControlSignal(time float64) []float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	signal := make([]float64, len(g.params))
	copy(signal, g.params)
	return signal
}

// SetAt returns the simulation time of the last commit.
func (g *Signal) SetAt() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.setAt
}
