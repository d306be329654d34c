package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the resolver's prometheus collectors.
type Metrics struct {
	resolutions *prometheus.CounterVec
	stageHits   *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg. A nil
// registerer leaves them unregistered, which is what tests usually want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kbresolver",
			Name:      "resolutions_total",
			Help:      "Resolved queries by result source type",
		}, []string{"source_type"}),
		stageHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kbresolver",
			Name:      "stage_hits_total",
			Help:      "Queries answered by each resolution stage",
		}, []string{"stage"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kbresolver",
			Name:      "resolve_duration_seconds",
			Help:      "Time spent resolving a single query",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}

	if reg != nil {
		reg.MustRegister(m.resolutions, m.stageHits, m.duration)
	}
	return m
}

// ObserveResolution records one completed resolution.
func (m *Metrics) ObserveResolution(stage, sourceType string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(sourceType).Inc()
	m.stageHits.WithLabelValues(stage).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// Collectors exposes the underlying collectors, mainly for tests.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.resolutions, m.stageHits, m.duration}
}
