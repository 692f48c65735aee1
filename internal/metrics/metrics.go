// Package metrics exposes this core's Prometheus instrumentation:
// in-flight session count, terminal status distribution, and decode
// truncation frequency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mxresolved"

// Metrics bundles the instrumentation the orchestrator updates. Held as a
// struct rather than package-level globals so tests can construct an
// isolated registry instead of colliding on the default one.
type Metrics struct {
	SessionsInFlight  prometheus.Gauge
	TerminatorStatus  *prometheus.CounterVec
	DecodeTruncations prometheus.Counter
}

// New registers this core's metrics against reg and returns the bundle.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SessionsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_in_flight",
			Help:      "Number of sessions with outstanding sub-lookups.",
		}),
		TerminatorStatus: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "terminator_status_total",
			Help:      "Terminal replies emitted, by status.",
		}, []string{"status"}),
		DecodeTruncations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_truncations_total",
			Help:      "MX responses whose answer section was only partially decodable.",
		}),
	}
}
