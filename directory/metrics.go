package directory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

// Metrics holds the Prometheus collectors for tag directories. One Metrics may
// be shared by any number of directories.
type Metrics struct {
	lookups     *prometheus.CounterVec
	allocations prometheus.Counter
	deletions   prometheus.Counter
	cached      prometheus.Gauge
}

// NewMetrics creates the directory collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		lookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "opendax",
				Subsystem: "directory",
				Name:      "lookups_total",
				Help:      "Tag lookups by cache result.",
			},
			[]string{"result"},
		),
		allocations: f.NewCounter(prometheus.CounterOpts{
			Namespace: "opendax",
			Subsystem: "directory",
			Name:      "allocations_total",
			Help:      "Tags allocated on the server.",
		}),
		deletions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "opendax",
			Subsystem: "directory",
			Name:      "deletions_total",
			Help:      "Tags deleted on the server.",
		}),
		cached: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "opendax",
			Subsystem: "directory",
			Name:      "cached_tags",
			Help:      "Tags currently held in directory caches.",
		}),
	}
}

func (m *Metrics) lookup(result string) {
	if m != nil {
		m.lookups.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) allocated() {
	if m != nil {
		m.allocations.Inc()
		m.cached.Inc()
	}
}

func (m *Metrics) imported() {
	if m != nil {
		m.cached.Inc()
	}
}

func (m *Metrics) deleted() {
	if m != nil {
		m.deletions.Inc()
		m.cached.Dec()
	}
}
