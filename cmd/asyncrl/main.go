package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pancan21/AsyncRL/internal/config"
	"github.com/pancan21/AsyncRL/internal/engine"
	"github.com/pancan21/AsyncRL/internal/generator"
	"github.com/pancan21/AsyncRL/internal/lattice"
	"github.com/pancan21/AsyncRL/internal/loop"
	"github.com/pancan21/AsyncRL/internal/metrics"
	"github.com/pancan21/AsyncRL/internal/policy"
	"github.com/pancan21/AsyncRL/internal/sho"
	"github.com/pancan21/AsyncRL/internal/storage"
	"github.com/pancan21/AsyncRL/internal/viz"
)

var (
	dataDir  string
	logLevel string

	dt              float64
	steps           int
	workers         int
	size            int
	dims            int
	stiffness       float64
	originStiffness float64
	kick            float64
	driverKind      string
	gain            float64
	driverDelayMs   int
	configFile      string
	saveConfig      string
	preset          string
	live            bool

	benchSize  int
	benchSteps int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "asyncrl",
		Short: "real-time control loop over a lattice of coupled oscillators",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				level = logrus.InfoLevel
			}
			logrus.SetLevel(level)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".asyncrl", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run a control-loop experiment (lattice or sho)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExperiment,
	}
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	runCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps (0 = run until interrupted)")
	runCmd.Flags().IntVar(&workers, "workers", 0, "force-computation workers (0 = all CPUs)")
	runCmd.Flags().IntVar(&size, "size", config.DefaultSize, "lattice side length")
	runCmd.Flags().IntVar(&dims, "dims", config.DefaultDims, "lattice dimensions")
	runCmd.Flags().Float64Var(&stiffness, "stiffness", config.DefaultStiffness, "neighbor coupling stiffness")
	runCmd.Flags().Float64Var(&originStiffness, "origin-stiffness", config.DefaultOriginStiffness, "equilibrium pinning stiffness")
	runCmd.Flags().Float64Var(&kick, "kick", 1.0, "initial displacement of the center point")
	runCmd.Flags().StringVar(&driverKind, "driver", "damping", "driver kind (zero, damping)")
	runCmd.Flags().Float64Var(&gain, "gain", config.DefaultGain, "damping driver gain")
	runCmd.Flags().IntVar(&driverDelayMs, "driver-delay", 0, "artificial driver latency in milliseconds")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&saveConfig, "save-config", "", "write the resolved config to a yaml file before running")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().BoolVar(&live, "live", false, "show the live view while running")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata and plot its loss trace",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the lattice engine step",
		RunE:  benchEngine,
	}
	benchCmd.Flags().IntVar(&benchSize, "size", 128, "lattice side length")
	benchCmd.Flags().IntVar(&benchSteps, "steps", 200, "steps to time")
	benchCmd.Flags().IntVar(&workers, "workers", 0, "force-computation workers (0 = all CPUs)")

	rootCmd.AddCommand(runCmd, listCmd, exportCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildConfig resolves preset < config file < flags: explicit flags win.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	model := cfg.Model
	if len(args) == 1 {
		model = args[0]
	}

	if preset != "" {
		p := config.GetPreset(model, preset)
		if p == nil {
			return nil, fmt.Errorf("no preset %q for model %q", preset, model)
		}
		c := *p
		cfg = &c
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	cfg.Model = model

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("size") {
		cfg.Lattice.Size = size
	}
	if cmd.Flags().Changed("dims") {
		cfg.Lattice.Dims = dims
	}
	if cmd.Flags().Changed("stiffness") {
		cfg.Lattice.Stiffness = stiffness
	}
	if cmd.Flags().Changed("origin-stiffness") {
		cfg.Lattice.OriginStiffness = originStiffness
	}
	if cmd.Flags().Changed("driver") {
		cfg.Driver.Kind = driverKind
	}
	if cmd.Flags().Changed("gain") {
		cfg.Driver.Gain = gain
	}
	if cmd.Flags().Changed("driver-delay") {
		cfg.Driver.DelayMs = driverDelayMs
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runExperiment(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if saveConfig != "" {
		if err := config.Save(saveConfig, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Model {
	case "lattice":
		return runLattice(ctx, cfg)
	case "sho":
		return runSHO(ctx, cfg)
	default:
		return fmt.Errorf("unknown model %q", cfg.Model)
	}
}

// buildDriver wraps the configured driver stand-in, optionally behind an
// artificial latency.
func buildDriver(cfg *config.Config, paramSize, boundary int) loop.Driver {
	var d loop.Driver
	switch cfg.Driver.Kind {
	case "damping":
		d = policy.DampingDriver{Boundary: boundary, Gain: cfg.Driver.Gain}
	default:
		d = policy.ZeroDriver{Size: paramSize}
	}
	if cfg.Driver.DelayMs > 0 {
		d = policy.Delayed{Inner: d, Delay: time.Duration(cfg.Driver.DelayMs) * time.Millisecond}
	}
	return d
}

func runLattice(ctx context.Context, cfg *config.Config) error {
	pool := engine.NewPool(cfg.Workers)
	defer pool.Close()

	eng, err := engine.New(cfg.Lattice, pool)
	if err != nil {
		return err
	}

	// Kick the center point so there is something to damp out.
	n := cfg.Lattice.Points()
	pos := make([]float64, n)
	vel := make([]float64, n)
	pos[n/2] = kick
	if err := eng.Seed(pos, vel); err != nil {
		return err
	}

	gen := generator.NewSignal(eng.SignalSize())
	driver := buildDriver(cfg, eng.SignalSize(), eng.SignalSize())
	predictor := policy.LatestPredictor{}

	coord, err := loop.New(driver, gen, eng, predictor, loop.Config{
		Dt:       cfg.Dt,
		MaxSteps: cfg.Steps,
		LogEvery: cfg.LogEvery,
	})
	if err != nil {
		return err
	}

	runMetrics := []metrics.Metric{
		metrics.NewEnergy(cfg.Lattice),
		metrics.NewBoundaryQuiescence(cfg.Lattice),
		metrics.NewControlEffort(),
	}
	coord.AddObserver(loop.ObserverFunc(func(s loop.Status) {
		sig := gen.ControlSignal(s.Time)
		for _, m := range runMetrics {
			m.Observe(eng.Current(), sig, s.Time)
		}
	}))

	trace, status := runLoop(ctx, coord, cfg, live)

	values := make(map[string]float64, len(runMetrics))
	for _, m := range runMetrics {
		values[m.Name()] = m.Value()
	}
	return saveRun(cfg, status, trace, values)
}

func runSHO(ctx context.Context, cfg *config.Config) error {
	sim := sho.NewSimulator(cfg.SHO)
	sim.Seed([2]float64{kick, 0}, [2]float64{0, 0})

	gen := sho.NewGenerator()
	driver := buildDriver(cfg, sho.ControlParamsSize, sho.ControlParamsSize)
	predictor := policy.LatestPredictor{}

	coord, err := loop.New(driver, gen, sim, predictor, loop.Config{
		Dt:       cfg.Dt,
		MaxSteps: cfg.Steps,
		LogEvery: cfg.LogEvery,
	})
	if err != nil {
		return err
	}

	trace, status := runLoop(ctx, coord, cfg, live)
	return saveRun(cfg, status, trace, nil)
}

// runLoop executes the coordinator, optionally behind the live view, and
// collects the per-step trace.
func runLoop(ctx context.Context, coord *loop.Coordinator, cfg *config.Config, withView bool) ([]storage.TracePoint, loop.Status) {
	var (
		trace []storage.TracePoint
		last  loop.Status
	)
	coord.AddObserver(loop.ObserverFunc(func(s loop.Status) {
		last = s
		trace = append(trace, storage.TracePoint{
			Step:      s.Step,
			Time:      s.Time,
			Loss:      s.Loss,
			Computing: s.Computing,
		})
	}))

	if !withView {
		if err := coord.Run(ctx); err != nil && ctx.Err() == nil {
			logrus.WithError(err).Error("control loop stopped")
		}
		return trace, last
	}

	statuses := make(chan loop.Status, 64)
	coord.AddObserver(loop.ObserverFunc(func(s loop.Status) {
		select {
		case statuses <- s:
		default: // never let the view stall the loop
		}
	}))

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(statuses)
		if err := coord.Run(loopCtx); err != nil && loopCtx.Err() == nil {
			logrus.WithError(err).Error("control loop stopped")
		}
	}()

	if err := viz.Run(cfg.Model, statuses); err != nil {
		logrus.WithError(err).Warn("live view exited")
	}
	cancel()
	<-done
	return trace, last
}

func saveRun(cfg *config.Config, status loop.Status, trace []storage.TracePoint, values map[string]float64) error {
	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	id, err := store.Save(storage.RunMetadata{
		Model:   cfg.Model,
		Dt:      cfg.Dt,
		Steps:   status.Step,
		Workers: cfg.Workers,
		Driver:  cfg.Driver.Kind,
		Applied: status.Applied,
		Metrics: values,
	}, trace)
	if err != nil {
		return err
	}

	fmt.Printf("run saved: %s\n", id)
	fmt.Printf("steps: %d  sim time: %.3f  parameters applied: %d\n", status.Step, status.Time, status.Applied)
	for name, v := range values {
		fmt.Printf("%s: %.6e\n", name, v)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tDRIVER\tSTEPS\tAPPLIED\tWHEN")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.Model, r.Driver, r.Steps, r.Applied, r.Timestamp.Format(time.RFC3339))
	}
	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	trace, err := store.LoadTrace(args[0])
	if err != nil {
		return err
	}
	if len(trace) < 2 {
		return nil
	}
	losses := make([]float64, len(trace))
	for i, p := range trace {
		losses[i] = p.Loss
	}
	fmt.Println(asciigraph.Plot(losses,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("dynamics loss")))
	return nil
}

func benchEngine(cmd *cobra.Command, args []string) error {
	pool := engine.NewPool(workers)
	defer pool.Close()

	cfg := lattice.Config{Size: benchSize, Dims: 2, Stiffness: 0.1, OriginStiffness: 0.3}
	eng, err := engine.New(cfg, pool)
	if err != nil {
		return err
	}
	signalBuf := make([]float64, eng.SignalSize())
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < benchSteps; i++ {
		if err := eng.Update(ctx, 0.01, signalBuf); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	perStep := elapsed / time.Duration(benchSteps)
	fmt.Printf("lattice %dx%d (%d points), %d workers\n", benchSize, benchSize, cfg.Points(), pool.Workers())
	fmt.Printf("%d steps in %s (%s/step, %.1f steps/s)\n",
		benchSteps, elapsed.Round(time.Millisecond), perStep, float64(time.Second)/float64(perStep))
	return nil
}
