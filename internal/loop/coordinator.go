package loop

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Status is a snapshot of the coordinator handed to observers after each
// committed simulation step.
type Status struct {
	Step      int
	Time      float64
	Loss      float64
	Computing bool
	Applied   int
}

// Observer receives a Status after every committed step, on the
// coordinator's goroutine.
type Observer interface {
	OnStep(Status)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Status)

// OnStep calls f.
func (f ObserverFunc) OnStep(s Status) { f(s) }

// Config holds the coordinator's schedule parameters.
type Config struct {
	// Dt is the simulation timestep per committed step.
	Dt float64
	// MaxSteps stops the loop after that many committed steps; zero runs
	// until the context is cancelled.
	MaxSteps int
	// LogEvery emits a progress log line every that many steps; zero
	// disables progress logging.
	LogEvery int
}

// Coordinator ties the four capabilities into the control cycle. It is
// either Idle (no outstanding driver task) or Computing (exactly one driver
// task in flight); simulation stepping never waits for the driver.
type Coordinator struct {
	driver    Driver
	generator Generator
	simulator Simulator
	predictor StatePredictor
	cfg       Config
	observers []Observer
	log       *logrus.Entry
}

// driverResult carries the outcome of one ComputeControls task.
type driverResult struct {
	params []float64
	err    error
}

// New builds a coordinator over the given capabilities.
func New(d Driver, g Generator, s Simulator, p StatePredictor, cfg Config) (*Coordinator, error) {
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("coordinator dt must be positive, got %v", cfg.Dt)
	}
	return &Coordinator{
		driver:    d,
		generator: g,
		simulator: s,
		predictor: p,
		cfg:       cfg,
		log:       logrus.WithField("component", "coordinator"),
	}, nil
}

// AddObserver registers an observer for per-step status snapshots.
func (c *Coordinator) AddObserver(o Observer) {
	c.observers = append(c.observers, o)
}

// Run executes the control cycle until the context is cancelled or MaxSteps
// is reached. Each iteration commits exactly one simulation step; an
// outstanding driver task is raced against the step and retained, never
// restarted or cancelled, when the step finishes first.
func (c *Coordinator) Run(ctx context.Context) error {
	var inflight chan driverResult
	steps := 0
	applied := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		loss, err := c.observeAndLaunch(ctx, &inflight)
		if err != nil {
			return err
		}

		// Race the outstanding driver task against one simulation step.
		// The step always commits: even when the driver wins, the step in
		// flight is joined before the next iteration, since Update holds
		// exclusive access to the engine.
		signal := c.generator.ControlSignal(c.simulator.Time())
		stepDone := make(chan error, 1)
		go func() {
			stepDone <- c.simulator.Update(ctx, c.cfg.Dt, signal)
		}()

		select {
		case res := <-inflight:
			if err := <-stepDone; err != nil {
				return fmt.Errorf("simulation step: %w", err)
			}
			inflight = nil
			if res.err != nil {
				c.log.WithError(res.err).Warn("driver failed; keeping previous parameters")
			} else {
				if err := c.generator.SetParameters(ctx, res.params, c.simulator.Time()); err != nil {
					return fmt.Errorf("set parameters: %w", err)
				}
				applied++
			}
		case err := <-stepDone:
			if err != nil {
				return fmt.Errorf("simulation step: %w", err)
			}
			// Driver still computing; the same task races again next
			// iteration.
		}

		steps++
		c.notify(Status{
			Step:      steps,
			Time:      c.simulator.Time(),
			Loss:      loss,
			Computing: inflight != nil,
			Applied:   applied,
		})
		if c.cfg.LogEvery > 0 && steps%c.cfg.LogEvery == 0 {
			c.log.WithFields(logrus.Fields{
				"step":    steps,
				"time":    c.simulator.Time(),
				"loss":    loss,
				"applied": applied,
			}).Info("control cycle progress")
		}
		if c.cfg.MaxSteps > 0 && steps >= c.cfg.MaxSteps {
			return nil
		}
	}
}

// observeAndLaunch reads the observation window, predicts the latent state,
// and, when idle, hands the fresh estimate to the driver. The driver
// goroutine writes into a buffered channel so an abandoned task can never
// block.
func (c *Coordinator) observeAndLaunch(ctx context.Context, inflight *chan driverResult) (float64, error) {
	observations := c.simulator.Observations()

	loss, err := c.simulator.DynamicsLoss(ctx)
	if err != nil {
		return 0, fmt.Errorf("dynamics loss: %w", err)
	}

	estimate, err := c.predictor.PredictState(ctx, observations)
	if err != nil {
		// Recoverable: skip launching this cycle, keep stepping.
		c.log.WithError(err).Warn("state prediction failed; skipping driver launch")
		return loss, nil
	}

	if *inflight == nil {
		ch := make(chan driverResult, 1)
		*inflight = ch
		go func() {
			params, err := c.driver.ComputeControls(ctx, estimate, loss)
			ch <- driverResult{params: params, err: err}
		}()
	}
	return loss, nil
}

func (c *Coordinator) notify(s Status) {
	for _, o := range c.observers {
		o.OnStep(s)
	}
}
