package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/collatz-go/collatz/internal/dispatch"
)

// Namespace prefixes every metric name.
const Namespace = "collatz"

// DispatchMetrics records dispatcher decisions and batch outcomes on a
// private registry, so any number of instances may coexist.
type DispatchMetrics struct {
	registry *prometheus.Registry

	dispatches  *prometheus.CounterVec
	items       prometheus.Histogram
	duration    *prometheus.HistogramVec
	unconverged prometheus.Counter
}

// NewDispatchMetrics creates the collectors and registers them, together
// with the Go runtime and process collectors, on a new registry.
func NewDispatchMetrics() *DispatchMetrics {
	m := &DispatchMetrics{
		registry: prometheus.NewRegistry(),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "dispatch_total",
			Help:      "Number of batches dispatched, by strategy.",
		}, []string{"strategy"}),
		items: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "dispatch_items",
			Help:      "Number of inputs per dispatched batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Wall-clock time spent transforming a batch, by strategy.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"strategy"}),
		unconverged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "unconverged_items_total",
			Help:      "Inputs whose step budget ran out before reaching 1.",
		}),
	}

	m.registry.MustRegister(
		m.dispatches,
		m.items,
		m.duration,
		m.unconverged,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding the collectors, so callers can add
// their own.
func (m *DispatchMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveDecision records one dispatcher decision. Its signature matches
// dispatch.WithObserver.
func (m *DispatchMetrics) ObserveDecision(d dispatch.Decision) {
	m.dispatches.WithLabelValues(d.Strategy.String()).Inc()
	m.items.Observe(float64(d.Items))
}

// ObserveBatch records the duration and the number of unconverged inputs of
// a finished batch.
func (m *DispatchMetrics) ObserveBatch(strategy dispatch.Strategy, elapsed time.Duration, unconverged int) {
	m.duration.WithLabelValues(strategy.String()).Observe(elapsed.Seconds())
	if unconverged > 0 {
		m.unconverged.Add(float64(unconverged))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *DispatchMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
