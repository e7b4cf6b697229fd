// Package sim drives the orbital picture: it propagates the catalog to
// position frames on a simulated clock and periodically runs the
// conjunction and clustering assessment over the result.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/signalsfoundry/sentinel-orbital/catalog"
	"github.com/signalsfoundry/sentinel-orbital/core"
	"github.com/signalsfoundry/sentinel-orbital/internal/logging"
	"github.com/signalsfoundry/sentinel-orbital/model"
	"github.com/signalsfoundry/sentinel-orbital/timectrl"
)

// MetricsRecorder receives measurements from the simulation loop.
type MetricsRecorder interface {
	SetCatalogCounts(assets, debris int)
	SetConjunctionCounts(high, medium int)
	ObservePropagationBatch(seconds float64)
	IncManeuversPlanned()
}

// Engine owns the propagation loop and the risk assessment pipeline.
//
// Detection and maneuver planning consume a shared random source, so
// those paths are serialised internally; position and cluster queries
// are pure and need no coordination beyond the catalog's own locking.
type Engine struct {
	catalog   *catalog.Catalog
	detector  *core.ConjunctionDetector
	clusterer *core.DebrisClusterer
	planner   *core.ManeuverPlanner

	// mu serialises every operation that draws from the shared
	// random source.
	mu sync.Mutex

	detectEvery int
	workers     int
	frames      int

	log     logging.Logger
	metrics MetricsRecorder
}

// Option customises Engine construction.
type Option func(*Engine)

// WithDetectInterval sets how many frames elapse between risk
// assessments. Values below one fall back to assessing every frame.
func WithDetectInterval(frames int) Option {
	return func(e *Engine) {
		if frames > 0 {
			e.detectEvery = frames
		}
	}
}

// WithWorkers sets the propagation fan-out width.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithMetricsRecorder attaches an optional recorder for loop metrics.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger attaches a structured logger for loop events.
func WithLogger(log logging.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine builds an engine over the catalog using rng for every
// stochastic decision. Detector, clusterer, and planner use their
// standard thresholds.
func NewEngine(cat *catalog.Catalog, rng core.Source, opts ...Option) *Engine {
	e := &Engine{
		catalog:     cat,
		detector:    core.NewConjunctionDetector(rng),
		clusterer:   core.NewDebrisClusterer(),
		planner:     core.NewManeuverPlanner(rng),
		detectEvery: 1,
		workers:     4,
		log:         logging.Noop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Catalog exposes the backing catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Frames reports how many frames Step has produced.
func (e *Engine) Frames() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

// PositionsAt propagates the full catalog to simulation time t.
func (e *Engine) PositionsAt(t float64) []core.ObjectPosition {
	positions := core.PropagateBatch(e.catalog.List(), t, e.workers)
	return positions
}

// OrbitPaths samples one full period for every catalog object.
func (e *Engine) OrbitPaths(samples int) map[string][]core.Vec3 {
	objects := e.catalog.List()
	paths := make(map[string][]core.Vec3, len(objects))
	for _, obj := range objects {
		paths[obj.ID] = core.OrbitPath(obj, samples)
	}
	return paths
}

// Assess screens the catalog for conjunctions at simulation time t.
func (e *Engine) Assess(t float64) []model.Conjunction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detector.Detect(e.catalog.List(), t)
}

// ClustersAt groups debris positions at simulation time t.
func (e *Engine) ClustersAt(t float64) core.ClusterResult {
	debris := core.PropagateBatch(e.catalog.ListClass(model.ClassDebris), t, e.workers)
	return e.clusterer.ClusterDebris(debris)
}

// PlanManeuver produces an avoidance plan for the identified object and
// the projection of its post-burn orbit. The catalog entry itself is
// not modified.
func (e *Engine) PlanManeuver(targetID string) (model.ManeuverPlan, model.OrbitalObject, error) {
	target, err := e.catalog.Get(targetID)
	if err != nil {
		return model.ManeuverPlan{}, model.OrbitalObject{}, fmt.Errorf("plan maneuver: %w", err)
	}

	e.mu.Lock()
	plan := e.planner.Plan(target.ID)
	e.mu.Unlock()

	projected := core.ProjectWithManeuver(target, plan)
	if e.metrics != nil {
		e.metrics.IncManeuversPlanned()
	}
	return plan, projected, nil
}

// Step advances the engine to simulation time t: it publishes a fresh
// position frame and, on the assessment cadence, a fresh risk
// assessment. Step is driven by a single clock goroutine; concurrent
// queries are safe alongside it.
func (e *Engine) Step(ctx context.Context, t float64) {
	objects := e.catalog.List()

	start := time.Now()
	positions := core.PropagateBatch(objects, t, e.workers)
	if e.metrics != nil {
		e.metrics.ObservePropagationBatch(time.Since(start).Seconds())
	}
	e.catalog.SetFrame(catalog.Frame{SimTime: t, Positions: positions})

	e.mu.Lock()
	e.frames++
	assess := (e.frames-1)%e.detectEvery == 0
	var conjunctions []model.Conjunction
	if assess {
		conjunctions = e.detector.Detect(objects, t)
	}
	e.mu.Unlock()

	if assess {
		debris := positionsOfClass(positions, model.ClassDebris)
		clusters := e.clusterer.ClusterDebris(debris)
		e.catalog.SetAssessment(catalog.Assessment{
			SimTime:      t,
			Conjunctions: conjunctions,
			Clusters:     clusters,
		})

		if e.metrics != nil {
			high, medium := riskCounts(conjunctions)
			e.metrics.SetConjunctionCounts(high, medium)
		}
		e.log.Debug(ctx, "assessment published",
			logging.Float64("sim_time", t),
			logging.Int("conjunctions", len(conjunctions)),
			logging.Int("clusters", len(clusters.Clusters)),
		)
	}

	if e.metrics != nil {
		assets, debris := e.catalog.Counts()
		e.metrics.SetCatalogCounts(assets, debris)
	}
	e.log.Debug(ctx, "frame published",
		logging.Float64("sim_time", t),
		logging.Int("objects", len(positions)),
	)
}

// Run attaches the engine to the time controller and blocks until the
// controller finishes the requested simulated duration or ctx is
// cancelled.
func (e *Engine) Run(ctx context.Context, tc *timectrl.TimeController, duration time.Duration) error {
	tc.AddListener(func(simTime time.Time) {
		e.Step(ctx, simTime.Sub(tc.Epoch).Seconds())
	})

	done := tc.Start(duration)
	select {
	case <-ctx.Done():
		tc.Stop()
		<-done
		return ctx.Err()
	case <-done:
		return nil
	}
}

func positionsOfClass(positions []core.ObjectPosition, class model.ObjectClass) []core.ObjectPosition {
	out := make([]core.ObjectPosition, 0, len(positions))
	for _, p := range positions {
		if p.Object.Class == class {
			out = append(out, p)
		}
	}
	return out
}

func riskCounts(conjunctions []model.Conjunction) (high, medium int) {
	for _, c := range conjunctions {
		switch c.Risk {
		case model.RiskHigh:
			high++
		case model.RiskMedium:
			medium++
		}
	}
	return high, medium
}
