package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/plus3/hearth/config"
	"github.com/plus3/hearth/ecs"
	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run owns every deferred cleanup, so profiles and logs are flushed on all
// exit paths.
func run(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("ecs-stress", flag.ContinueOnError)
	configPath := flags.String("config", "", "Path to a .toml or .yaml config file.")
	duration := flags.Duration("duration", 0, "The total duration the test should run for. Overrides stress.duration.")
	entityCount := flags.Int("entities", -1, "The initial number of entities to create. Overrides stress.entities.")
	scriptEvery := flags.Int("script-every", 50, "Attach a Lua spinner to every n-th entity (0 disables scripts).")
	seed := flags.Uint64("seed", 1, "Seed for the spawn generator.")
	profileMode := flags.String("profile", "", "Write a cpu or mem profile to the working directory.")
	gcPauseMetrics := flags.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *duration > 0 {
		cfg.Stress.Duration = *duration
	}
	if *entityCount >= 0 {
		cfg.Stress.Entities = *entityCount
	}

	log, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile mode %q", *profileMode)
	}

	log.Info("starting ECS stress test")

	// 1. Setup the world and its systems
	w := ecs.NewWorld(append(cfg.World.Options(), ecs.WithLogger(log.Named("world")))...)

	// 2. Populate the world with initial entities
	log.Info("populating world", zap.Int("entities", cfg.Stress.Entities))
	spawner := NewSimulation(w, cfg.Stress.Entities, cfg.Stress.ChurnRate, *seed, *scriptEvery)
	log.Info("population complete", zap.Int("live", w.EntityCount()))

	// 3. Run the simulation loop
	report := &Report{
		Duration:    cfg.Stress.Duration,
		Entities:    cfg.Stress.Entities,
		ChurnRate:   cfg.Stress.ChurnRate,
		ScriptEvery: *scriptEvery,
		FixedStep:   w.FixedStep(),

		GCPauseMetrics: *gcPauseMetrics,
		UpdateTime: Stats{
			Samples: make([]time.Duration, 0),
		},
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	log.Info("running simulation", zap.Duration("duration", cfg.Stress.Duration))
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Stress.Duration)
	defer cancel()

	startTime := time.Now()
	var totalUpdates int64
	lastFrameTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			w.Tick(deltaTime.Seconds())
			updateDuration := time.Since(updateStart)

			report.UpdateTime.Samples = append(report.UpdateTime.Samples, updateDuration)
			totalUpdates++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.TotalUpdates = totalUpdates
	report.Spawned = spawner.Spawned()
	report.UpdateTime.Finalize()
	report.World = w.Stats()
	report.Scheduler = w.Scheduler().GetStats()
	runtime.ReadMemStats(&report.MemStatsEnd)

	log.Info("simulation finished",
		zap.Int64("updates", totalUpdates),
		zap.Uint64("fixed_steps", report.World.FixedSteps))

	// 4. Generate Report to Console
	fmt.Fprintln(out, "\n\n--- Stress Test Report ---")
	if err := report.Generate(out); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	fmt.Fprintln(out, "--- End of Report ---")

	log.Info("stress test complete")
	return nil
}
