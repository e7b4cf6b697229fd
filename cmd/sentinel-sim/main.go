package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/signalsfoundry/sentinel-orbital/catalog"
	"github.com/signalsfoundry/sentinel-orbital/core"
	"github.com/signalsfoundry/sentinel-orbital/internal/sim"
	"github.com/signalsfoundry/sentinel-orbital/timectrl"
)

func main() {
	duration := flag.Duration("duration", time.Hour, "total simulated duration")
	tick := flag.Duration("tick", 10*time.Second, "simulated tick interval")
	assets := flag.Int("assets", 15, "generated asset count")
	debris := flag.Int("debris", 150, "generated debris count")
	seed := flag.Int64("seed", 42, "random seed for population and assessment")
	catalogPath := flag.String("catalog", "", "optional JSON catalog to load instead of generating")
	detectEvery := flag.Int("detect-every", 6, "ticks between risk assessments")
	flag.Parse()

	cat := catalog.NewCatalog()
	if *catalogPath != "" {
		f, err := os.Open(*catalogPath)
		if err != nil {
			panic(fmt.Errorf("failed to open catalog %q: %w", *catalogPath, err))
		}
		summary, err := catalog.Load(cat, f)
		f.Close()
		if err != nil {
			panic(fmt.Errorf("failed to load catalog: %w", err))
		}
		fmt.Printf("Loaded catalog: %d assets, %d debris\n", summary.Assets, summary.Debris)
	} else {
		if err := cat.AddAll(core.GeneratePopulation(*assets, *debris, *seed)); err != nil {
			panic(err)
		}
		fmt.Printf("Generated population: %d assets, %d debris (seed %d)\n", *assets, *debris, *seed)
	}

	engine := sim.NewEngine(cat, core.NewRandSource(*seed),
		sim.WithDetectInterval(*detectEvery),
	)

	// Report each assessment as the engine publishes it.
	unsubscribe := cat.Subscribe(func(ev catalog.Event) {
		if ev.Type != catalog.EventAssessmentUpdated {
			return
		}
		a := ev.Assessment
		fmt.Printf("[t=%7.0fs] %d conjunctions, %d clusters, %d stray fragments\n",
			a.SimTime, len(a.Conjunctions), len(a.Clusters.Clusters), len(a.Clusters.Singles))
		for _, c := range a.Conjunctions {
			fmt.Printf("↳ %-6s p=%.2f  %s ↔ %s  miss=%6.1f km  tti=%5.1f h\n",
				c.Risk, c.Probability, c.ObjectA, c.ObjectB, c.MissDistance, c.TimeToImpact/3600)
		}
	})
	defer unsubscribe()

	start := time.Now().UTC()
	tc := timectrl.NewTimeController(start, *tick, timectrl.Accelerated)

	fmt.Printf("Starting simulation: duration=%s, tick=%s\n", *duration, *tick)
	if err := engine.Run(context.Background(), tc, *duration); err != nil {
		fmt.Fprintf(os.Stderr, "simulation error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Simulation complete: %d frames\n", engine.Frames())
}
