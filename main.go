package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	asg "elevdispatch/assigner"
	"elevdispatch/config"
	"elevdispatch/controller"
	"elevdispatch/sim"
	sts "elevdispatch/statesync"

	"github.com/golang/glog"
)

const aliveTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to a YAML simulation config")
	envPath := flag.String("env", ".env", "Path to an optional .env file with ELEVSIM_* overrides")
	floors := flag.Int("floors", 0, "Number of floors")
	cars := flag.Int("cars", 0, "Number of cars")
	seed := flag.Int64("seed", 0, "Seed for passenger generation")
	passengers := flag.Int("passengers", 0, "Number of passengers to simulate")
	tick := flag.Duration("tick", 0, "Wall-clock duration of one simulation tick")
	maxTicks := flag.Int("max-ticks", 0, "Stop the simulation after this many ticks")
	syncMode := flag.Bool("sync", false, "Handle events on the simulation goroutine instead of a separate control loop")
	flag.Parse()
	defer glog.Flush()

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		glog.Fatalf("Loading config: %v", err)
	}

	// explicitly set flags win over file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "floors":
			cfg.Floors = *floors
		case "cars":
			cfg.Cars = *cars
		case "seed":
			cfg.Seed = *seed
		case "passengers":
			cfg.Passengers = *passengers
		case "tick":
			cfg.Tick = *tick
		case "max-ticks":
			cfg.MaxTicks = *maxTicks
		}
	})
	if err := cfg.Validate(); err != nil {
		glog.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	building := sim.NewBuilding(cfg)
	dispatcher := asg.NewDispatcher(cfg.Cars, cfg.Floors)
	registry := sts.NewRegistry(cfg.Cars)
	inbox := controller.NewInbox()
	ctrl := controller.New(dispatcher, building.Cars(), registry, inbox)

	var report sim.Report
	var stats controller.Stats
	if *syncMode {
		report, err = building.Run(ctx, ctrl)
		stats = ctrl.Stats()
	} else {
		loopCtx, stopLoop := context.WithCancel(ctx)
		done := make(chan controller.Stats)
		go func() {
			done <- ctrl.Run(loopCtx)
		}()

		report, err = building.Run(ctx, inbox)
		stopLoop()
		stats = <-done
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		glog.Errorf("Simulation %s failed: %v", cfg.RunID, err)
	}

	printSummary(cfg, report, stats, building, dispatcher, registry)
}

func printSummary(cfg config.Config, report sim.Report, stats controller.Stats, building *sim.Building,
	dispatcher *asg.Dispatcher, registry *sts.Registry) {
	fmt.Printf("run %s: %v\n", cfg.RunID, report)
	fmt.Printf("events: %d floor calls, %d car calls, %d stops, %d idle reports, %d commands\n",
		stats.FloorCalls, stats.CarCalls, stats.Stops, stats.Idles, stats.Commands)

	for id := range cfg.Cars {
		fmt.Printf("  %v\n", building.Car(id))
	}
	for _, s := range registry.Snapshot() {
		fmt.Printf("  last report: %v\n", s)
	}
	fmt.Printf("  %d of %d cars reported in the last %v\n", len(registry.AliveCarIDs(aliveTimeout)), cfg.Cars, aliveTimeout)

	snap := dispatcher.Snapshot()
	fmt.Printf("leftover pickups: %v\n", snap.Pickups)
	for id := range cfg.Cars {
		if len(snap.Dropoffs[id]) > 0 {
			fmt.Printf("leftover dropoffs for car %d: %v\n", id, snap.Dropoffs[id])
		}
	}
}
