// Package policy provides in-process Driver and StatePredictor
// implementations. The production policies live outside this module behind
// an ML runtime; these stand-ins keep the control loop runnable end to end
// and double as test fixtures.
package policy

import (
	"context"
	"time"

	"github.com/pancan21/AsyncRL/internal/loop"
)

// ZeroDriver always returns zero parameters immediately.
type ZeroDriver struct {
	Size int
}

// ComputeControls returns a zero parameter vector.
func (d ZeroDriver) ComputeControls(ctx context.Context, estimate loop.StateEstimate, dynamicsLoss float64) ([]float64, error) {
	return make([]float64, d.Size), nil
}

// DampingDriver damps the observable boundary: it reads the boundary
// velocities out of a LatestPredictor estimate and pushes against them.
type DampingDriver struct {
	// Boundary is the number of observable points; the latent vector is
	// laid out as positions, then velocities, then controls.
	Boundary int
	Gain     float64
}

// ComputeControls returns params[k] = -Gain * boundary velocity k.
func (d DampingDriver) ComputeControls(ctx context.Context, estimate loop.StateEstimate, dynamicsLoss float64) ([]float64, error) {
	params := make([]float64, d.Boundary)
	for k := 0; k < d.Boundary; k++ {
		idx := d.Boundary + k
		if idx < len(estimate.Latent) {
			params[k] = -d.Gain * estimate.Latent[idx]
		}
	}
	return params, nil
}

// Delayed wraps a driver with a fixed computation latency. Useful for
// exercising multi-step driver latency against a live simulation.
type Delayed struct {
	Inner loop.Driver
	Delay time.Duration
}

// ComputeControls waits Delay (or context cancellation), then delegates.
func (d Delayed) ComputeControls(ctx context.Context, estimate loop.StateEstimate, dynamicsLoss float64) ([]float64, error) {
	timer := time.NewTimer(d.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}
	return d.Inner.ComputeControls(ctx, estimate, dynamicsLoss)
}

// LatestPredictor embeds the newest observation directly as the latent
// state: the flattened observation (observable state followed by active
// controls), truncated or zero-padded to Size.
type LatestPredictor struct {
	// Size is the latent dimension; zero means "exactly the observation
	// length".
	Size int
}

// PredictState flattens the newest observation into the latent vector.
func (p LatestPredictor) PredictState(ctx context.Context, observations []loop.Observation) (loop.StateEstimate, error) {
	if err := ctx.Err(); err != nil {
		return loop.StateEstimate{}, err
	}
	newest := observations[len(observations)-1]
	flat := newest.Rope().Flatten()

	size := p.Size
	if size == 0 {
		size = len(flat)
	}
	latent := make([]float64, size)
	copy(latent, flat)
	return loop.StateEstimate{Time: newest.Time, Latent: latent}, nil
}
