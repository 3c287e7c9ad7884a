package coordinator

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "productboard"

// Metrics records coordinator activity in Prometheus. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	mutations     *prometheus.CounterVec
	skippedTicks  *prometheus.CounterVec
	products      prometheus.Gauge
}

// NewMetrics creates the coordinator collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "coordinator",
			Name:      "fetches_total",
			Help:      "Product list fetches by mode and outcome.",
		}, []string{"mode", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "coordinator",
			Name:      "fetch_duration_seconds",
			Help:      "Latency of product list fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "coordinator",
			Name:      "mutations_total",
			Help:      "Product mutations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		skippedTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "coordinator",
			Name:      "skipped_ticks_total",
			Help:      "Polling ticks that did not fetch, by reason.",
		}, []string{"reason"}),
		products: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "coordinator",
			Name:      "products",
			Help:      "Number of products in the last successful fetch.",
		}),
	}

	for _, c := range []prometheus.Collector{m.fetches, m.fetchDuration, m.mutations, m.skippedTicks, m.products} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register coordinator metrics: %w", err)
		}
	}
	return m, nil
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func (m *Metrics) observeFetch(mode FetchMode, err error, elapsed time.Duration, count int) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(mode.String(), outcome(err)).Inc()
	m.fetchDuration.WithLabelValues(mode.String()).Observe(elapsed.Seconds())
	if err == nil {
		m.products.Set(float64(count))
	}
}

func (m *Metrics) observeMutation(op string, err error) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) observeSkippedTick(reason string) {
	if m == nil {
		return
	}
	m.skippedTicks.WithLabelValues(reason).Inc()
}
