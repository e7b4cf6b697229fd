package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineCollector exposes simulation-loop Prometheus metrics. It
// satisfies the engine's MetricsRecorder interface so the loop can
// drive the gauges directly from its tick.
type EngineCollector struct {
	gatherer prometheus.Gatherer

	CatalogAssets      prometheus.Gauge
	CatalogDebris      prometheus.Gauge
	ConjunctionsActive *prometheus.GaugeVec
	PropagationBatch   prometheus.Histogram
	ManeuversPlanned   prometheus.Counter
}

// NewEngineCollector registers engine metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewEngineCollector(reg prometheus.Registerer) (*EngineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	assets, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_assets",
		Help: "Current number of tracked assets in the catalog.",
	}), "catalog_assets")
	if err != nil {
		return nil, err
	}

	debris, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_debris",
		Help: "Current number of tracked debris objects in the catalog.",
	}), "catalog_debris")
	if err != nil {
		return nil, err
	}

	conjunctions := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "conjunctions_active",
		Help: "Conjunctions in the latest assessment, labeled by risk level.",
	}, []string{"risk"})
	conjunctions, err = registerGaugeVec(reg, conjunctions, "conjunctions_active")
	if err != nil {
		return nil, err
	}

	batch := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "propagation_batch_duration_seconds",
		Help:    "Wall time spent propagating one full position frame.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})
	batch, err = registerHistogram(reg, batch, "propagation_batch_duration_seconds")
	if err != nil {
		return nil, err
	}

	maneuvers, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "maneuvers_planned_total",
		Help: "Total number of maneuver plans produced.",
	}), "maneuvers_planned_total")
	if err != nil {
		return nil, err
	}

	return &EngineCollector{
		gatherer:           gatherer,
		CatalogAssets:      assets,
		CatalogDebris:      debris,
		ConjunctionsActive: conjunctions,
		PropagationBatch:   batch,
		ManeuversPlanned:   maneuvers,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *EngineCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// SetCatalogCounts updates the tracked-object gauges.
func (c *EngineCollector) SetCatalogCounts(assets, debris int) {
	if c == nil {
		return
	}
	if c.CatalogAssets != nil {
		c.CatalogAssets.Set(float64(assets))
	}
	if c.CatalogDebris != nil {
		c.CatalogDebris.Set(float64(debris))
	}
}

// SetConjunctionCounts publishes the risk breakdown of the latest
// assessment.
func (c *EngineCollector) SetConjunctionCounts(high, medium int) {
	if c == nil || c.ConjunctionsActive == nil {
		return
	}
	c.ConjunctionsActive.WithLabelValues("HIGH").Set(float64(high))
	c.ConjunctionsActive.WithLabelValues("MEDIUM").Set(float64(medium))
}

// ObservePropagationBatch records the wall time of one frame
// propagation.
func (c *EngineCollector) ObservePropagationBatch(seconds float64) {
	if c == nil || c.PropagationBatch == nil {
		return
	}
	c.PropagationBatch.Observe(seconds)
}

// IncManeuversPlanned counts a produced maneuver plan.
func (c *EngineCollector) IncManeuversPlanned() {
	if c == nil || c.ManeuversPlanned == nil {
		return
	}
	c.ManeuversPlanned.Inc()
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
