package sho

import (
	"context"
	"math"
	"testing"

	"github.com/pancan21/AsyncRL/internal/loop"
)

func TestUndrivenOscillatorPeriod(t *testing.T) {
	// With unit stiffness and no driving, x(t) = cos(t); check against the
	// analytic solution after many Verlet steps.
	sim := NewSimulator(System{Stiffness: 1})
	sim.Seed([2]float64{1, 0}, [2]float64{0, 0})

	ctx := context.Background()
	dt := 0.001
	steps := 10000
	for i := 0; i < steps; i++ {
		if err := sim.Update(ctx, dt, []float64{0, 0}); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	want := math.Cos(float64(steps) * dt)
	if got := sim.Position()[0]; math.Abs(got-want) > 1e-4 {
		t.Errorf("x after %d steps = %.6f, want %.6f", steps, got, want)
	}
}

func TestTimeAdvances(t *testing.T) {
	sim := NewSimulator(System{Stiffness: 1})
	ctx := context.Background()
	for i := 0; i < 9; i++ {
		if err := sim.Update(ctx, 0.5, []float64{0, 0}); err != nil {
			t.Fatalf("update: %v", err)
		}
	}
	if got := sim.Time(); math.Abs(got-4.5) > 1e-12 {
		t.Errorf("time = %v, want 4.5", got)
	}
}

func TestObservationWindowShape(t *testing.T) {
	sim := NewSimulator(System{Stiffness: 1})
	ctx := context.Background()
	for i := 0; i < loop.DelayDepth; i++ {
		if err := sim.Update(ctx, 0.1, []float64{0, 1}); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	obs := sim.Observations()
	if len(obs) != loop.DelayDepth {
		t.Fatalf("observation count = %d, want %d", len(obs), loop.DelayDepth)
	}
	for k, o := range obs {
		if o.State.Len() != ObservableSize {
			t.Errorf("observation %d state length = %d, want %d", k, o.State.Len(), ObservableSize)
		}
		if len(o.Controls) != ControlSignalSize {
			t.Errorf("observation %d controls length = %d, want %d", k, len(o.Controls), ControlSignalSize)
		}
		if want := float64(k) * 0.1; math.Abs(o.Time-want) > 1e-12 {
			t.Errorf("observation %d time = %v, want %v", k, o.Time, want)
		}
	}
}

func TestDynamicsLossOnUnitCircle(t *testing.T) {
	sim := NewSimulator(System{Stiffness: 1})
	ctx := context.Background()

	loss, err := sim.DynamicsLoss(ctx)
	if err != nil {
		t.Fatalf("loss: %v", err)
	}
	if loss != 1 {
		t.Errorf("loss at origin = %v, want 1", loss)
	}

	sim.Seed([2]float64{0, 1}, [2]float64{0, 0})
	loss, err = sim.DynamicsLoss(ctx)
	if err != nil {
		t.Fatalf("loss: %v", err)
	}
	if loss != 0 {
		t.Errorf("loss on unit circle = %v, want 0", loss)
	}
}

func TestGeneratorDeparametrizesAngle(t *testing.T) {
	g := NewGenerator()
	ctx := context.Background()

	signal := g.ControlSignal(0)
	if math.Abs(signal[0]) > 1e-12 || math.Abs(signal[1]-1) > 1e-12 {
		t.Errorf("default signal = %v, want [0 1]", signal)
	}

	if err := g.SetParameters(ctx, []float64{math.Pi / 2}, 1.0); err != nil {
		t.Fatalf("set parameters: %v", err)
	}
	signal = g.ControlSignal(1.1)
	if math.Abs(signal[0]-1) > 1e-12 || math.Abs(signal[1]) > 1e-12 {
		t.Errorf("signal for angle pi/2 = %v, want [1 0]", signal)
	}

	if err := g.SetParameters(ctx, []float64{0, 0}, 0); err == nil {
		t.Error("wrong parameter size should be rejected")
	}
}

func TestRejectsWrongSignalSize(t *testing.T) {
	sim := NewSimulator(System{Stiffness: 1})
	if err := sim.Update(context.Background(), 0.1, []float64{1}); err == nil {
		t.Error("wrong signal size should be rejected")
	}
}
