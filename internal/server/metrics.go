package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/collatz-go/collatz/internal/metrics"
)

// Metrics holds the server's Prometheus collectors. Request metrics share
// the registry of the dispatch metrics, so /metrics exposes both.
type Metrics struct {
	dispatch       *metrics.DispatchMetrics
	activeRequests prometheus.Gauge
	totalRequests  *prometheus.CounterVec
	handler        http.Handler
}

// NewMetrics creates the request collectors on a fresh dispatch registry.
func NewMetrics() *Metrics {
	dm := metrics.NewDispatchMetrics()
	m := &Metrics{
		dispatch: dm,
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Name:      "active_requests",
			Help:      "Number of HTTP requests being served.",
		}),
		totalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "requests_total",
			Help:      "Number of HTTP requests served, by path and status code.",
		}, []string{"path", "code"}),
		handler: dm.Handler(),
	}
	dm.Registry().MustRegister(m.activeRequests, m.totalRequests)
	return m
}

// Dispatch returns the dispatch collectors fed by /transform.
func (m *Metrics) Dispatch() *metrics.DispatchMetrics {
	return m.dispatch
}

// IncrementActiveRequests marks the start of a request.
func (m *Metrics) IncrementActiveRequests() {
	m.activeRequests.Inc()
}

// DecrementActiveRequests marks the end of a request.
func (m *Metrics) DecrementActiveRequests() {
	m.activeRequests.Dec()
}

// ObserveRequest counts one served request.
func (m *Metrics) ObserveRequest(path string, code int) {
	m.totalRequests.WithLabelValues(path, strconv.Itoa(code)).Inc()
}

// WritePrometheus writes all collectors in the Prometheus exposition format.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware tracks in-flight and completed requests.
func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.IncrementActiveRequests()
		defer s.metrics.DecrementActiveRequests()

		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next(rec, r)
		s.metrics.ObserveRequest(routeLabel(r.URL.Path), rec.code)
	}
}

// routeLabel bounds the path label to the served routes.
func routeLabel(path string) string {
	switch path {
	case PathTransform, PathHealth, PathMetrics:
		return path
	}
	return "other"
}
