// Package metrics exposes Prometheus instrumentation for the dispatcher and
// lightweight runtime memory readings for execution summaries.
package metrics
