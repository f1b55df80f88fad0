// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the service-level collectors. Collectors are registered on
// the registry passed to New, so tests can use a private registry instead of
// the global default.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vizbox_requests_total",
				Help: "Visualization requests by language, viz type and outcome.",
			},
			[]string{"language", "viz_type", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vizbox_execution_duration_seconds",
				Help:    "Wall-clock duration of sandboxed executions.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"language"},
		),
	}
}

// ObserveRequest counts one finished request. Outcome is the artifact kind
// ("image", "html") on success or the failure kind on error.
func (m *Metrics) ObserveRequest(language, vizType, outcome string) {
	m.requests.WithLabelValues(language, vizType, outcome).Inc()
}

// ObserveExecution records how long a worker ran. Only called when a worker
// actually executed; validation and admission rejections never reach it.
func (m *Metrics) ObserveExecution(language string, d time.Duration) {
	m.duration.WithLabelValues(language).Observe(d.Seconds())
}

// RegisterLiveWorkers exposes the governor's live-worker count as a gauge.
// Reading through a function keeps the gauge truthful without coupling the
// governor to Prometheus.
func RegisterLiveWorkers(reg prometheus.Registerer, live func() float64) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "vizbox_live_workers",
			Help: "Number of currently admitted sandbox workers.",
		},
		live,
	))
}
