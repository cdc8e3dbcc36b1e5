package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/growthlab/growthlab/pkg/types"
)

const namespace = "growthlab"

// Slider update sources.
const (
	SourceAPI    = "api"
	SourceStream = "ws"
)

// Metrics holds the server's collectors and their registry.
type Metrics struct {
	reg *prometheus.Registry

	recomputations prometheus.Counter
	recomputeTime  prometheus.Histogram
	filtered       prometheus.Gauge
	sliderUpdates  *prometheus.CounterVec
	streamClients  prometheus.Gauge
	regenerations  prometheus.Counter
}

// New registers all collectors on a fresh registry. When withRuntime is true
// the Go runtime and process collectors are registered as well.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		recomputations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recomputations_total",
			Help:      "Number of views recomputed.",
		}),
		recomputeTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_seconds",
			Help:      "Time spent filtering and summarizing.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		filtered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "filtered_samples",
			Help:      "Filtered sample count of the most recent view.",
		}),
		sliderUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slider_updates_total",
			Help:      "Accepted slider changes by source.",
		}, []string{"source"}),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_clients",
			Help:      "Connected WebSocket clients.",
		}),
		regenerations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_regenerations_total",
			Help:      "Dataset regenerations after config reload.",
		}),
	}

	m.reg.MustRegister(
		m.recomputations,
		m.recomputeTime,
		m.filtered,
		m.sliderUpdates,
		m.streamClients,
		m.regenerations,
	)
	if withRuntime {
		m.reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// ObserveView records one recomputation.
func (m *Metrics) ObserveView(s types.Summary, elapsed time.Duration) {
	m.recomputations.Inc()
	m.recomputeTime.Observe(elapsed.Seconds())
	m.filtered.Set(float64(s.Count))
}

// SliderUpdated records an accepted slider change from source.
func (m *Metrics) SliderUpdated(source string) {
	m.sliderUpdates.WithLabelValues(source).Inc()
}

// StreamClients sets the connected WebSocket client gauge.
func (m *Metrics) StreamClients(n int) {
	m.streamClients.Set(float64(n))
}

// Regenerated records a dataset regeneration.
func (m *Metrics) Regenerated() {
	m.regenerations.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
