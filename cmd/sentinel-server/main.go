package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/signalsfoundry/sentinel-orbital/catalog"
	"github.com/signalsfoundry/sentinel-orbital/core"
	"github.com/signalsfoundry/sentinel-orbital/internal/api"
	"github.com/signalsfoundry/sentinel-orbital/internal/logging"
	"github.com/signalsfoundry/sentinel-orbital/internal/observability"
	"github.com/signalsfoundry/sentinel-orbital/internal/sim"
	"github.com/signalsfoundry/sentinel-orbital/timectrl"
)

// Config collects every knob the server binary accepts.
type Config struct {
	HTTPAddr    string
	MetricsAddr string // empty disables the metrics listener

	CatalogPath string // empty generates a population instead
	Assets      int
	Debris      int
	Seed        int64

	Tick        time.Duration
	TimeScale   float64
	DetectEvery int
	Workers     int

	RateLimitPerSec float64
}

func main() {
	cfg := Config{}
	flag.StringVar(&cfg.HTTPAddr, "http-addr", ":8000", "TCP address the HTTP API listens on")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", ":9090", "HTTP address for Prometheus /metrics")
	flag.StringVar(&cfg.CatalogPath, "catalog", "", "Path to a JSON catalog; empty generates a population")
	flag.IntVar(&cfg.Assets, "assets", 15, "Generated asset count when no catalog file is given")
	flag.IntVar(&cfg.Debris, "debris", 150, "Generated debris count when no catalog file is given")
	flag.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "Random seed for population and assessment")
	flag.DurationVar(&cfg.Tick, "tick", time.Second, "Wall-clock frame cadence")
	flag.Float64Var(&cfg.TimeScale, "time-scale", 60, "Simulated seconds advanced per tick")
	flag.IntVar(&cfg.DetectEvery, "detect-every", 5, "Frames between risk assessments")
	flag.IntVar(&cfg.Workers, "workers", 4, "Propagation worker count")
	flag.Float64Var(&cfg.RateLimitPerSec, "rate-limit", 50, "Per-IP requests per second")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	lis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		log.Error(ctx, "failed to listen", logging.String("addr", cfg.HTTPAddr), logging.Err(err))
		os.Exit(1)
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(stopCtx, cfg, log, lis); err != nil {
		log.Error(ctx, "server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run wires the full server stack onto lis and blocks until ctx is
// cancelled. Factored out of main so tests can drive a real server on
// an ephemeral listener.
func run(ctx context.Context, cfg Config, log logging.Logger, lis net.Listener) error {
	engineCollector, err := observability.NewEngineCollector(nil)
	if err != nil {
		return fmt.Errorf("initialise engine metrics: %w", err)
	}
	apiCollector, err := observability.NewAPICollector(nil)
	if err != nil {
		return fmt.Errorf("initialise API metrics: %w", err)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("initialise tracing: %w", err)
	}

	metricsSrv := serveMetrics(cfg.MetricsAddr, apiCollector, log)

	cat := catalog.NewCatalog()
	if err := populate(ctx, cat, cfg, log); err != nil {
		return err
	}

	engine := sim.NewEngine(cat, core.NewRandSource(cfg.Seed),
		sim.WithDetectInterval(cfg.DetectEvery),
		sim.WithWorkers(cfg.Workers),
		sim.WithMetricsRecorder(engineCollector),
		sim.WithLogger(log),
	)

	tc := timectrl.NewTimeController(time.Now().UTC(), cfg.Tick, timectrl.RealTime)
	tc.SetScale(cfg.TimeScale)

	server := api.NewServer(api.Config{
		Addr:            cfg.HTTPAddr,
		RateLimitPerSec: cfg.RateLimitPerSec,
	}, engine, tc, apiCollector, log)

	go func() {
		if err := engine.Run(ctx, tc, 0); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn(ctx, "engine loop exited", logging.Err(err))
		}
	}()

	assetCount, debrisCount := cat.Counts()
	log.Info(ctx, "starting API server",
		logging.String("addr", lis.Addr().String()),
		logging.Int("assets", assetCount),
		logging.Int("debris", debrisCount),
		logging.Float64("time_scale", cfg.TimeScale),
	)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(lis)
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("API server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down")
	tc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
	return nil
}

func serveMetrics(addr string, collector *observability.APICollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

// populate fills the catalog either from a JSON file or from the
// seeded generator.
func populate(ctx context.Context, cat *catalog.Catalog, cfg Config, log logging.Logger) error {
	if cfg.CatalogPath != "" {
		f, err := os.Open(cfg.CatalogPath)
		if err != nil {
			return fmt.Errorf("open catalog %q: %w", cfg.CatalogPath, err)
		}
		defer f.Close()

		summary, err := catalog.Load(cat, f)
		if err != nil {
			return fmt.Errorf("load catalog %q: %w", cfg.CatalogPath, err)
		}
		log.Info(ctx, "catalog loaded",
			logging.String("path", cfg.CatalogPath),
			logging.Int("assets", summary.Assets),
			logging.Int("debris", summary.Debris),
		)
		return nil
	}

	if err := cat.AddAll(core.GeneratePopulation(cfg.Assets, cfg.Debris, cfg.Seed)); err != nil {
		return fmt.Errorf("generate population: %w", err)
	}
	log.Info(ctx, "population generated",
		logging.Int("assets", cfg.Assets),
		logging.Int("debris", cfg.Debris),
		logging.Int("seed", int(cfg.Seed)),
	)
	return nil
}
