// Package dispatch applies a pure function to every element of a slice,
// either inline in the calling goroutine or across a fixed-size worker pool,
// depending on the workload size relative to a caller-supplied threshold.
//
// Whatever strategy runs, the result slice has the same length as the input
// and result[i] == fn(items[i]). Only the order of execution differs.
package dispatch

import "runtime"

// Strategy identifies how a call to Map processes its workload.
type Strategy int

const (
	// Sequential maps every element in the calling goroutine, in input order.
	Sequential Strategy = iota
	// Parallel distributes contiguous chunks of the input across a worker pool.
	Parallel
)

// String returns the lower-case strategy name used in logs and metrics labels.
func (s Strategy) String() string {
	switch s {
	case Sequential:
		return "sequential"
	case Parallel:
		return "parallel"
	default:
		return "unknown"
	}
}

// Decide returns Sequential when n < threshold and Parallel otherwise, so a
// workload whose size equals the threshold runs in parallel. A negative
// threshold behaves like zero.
func Decide(n, threshold int) Strategy {
	if n < threshold {
		return Sequential
	}
	return Parallel
}

// Decision describes the strategy chosen for a single call to Map.
type Decision struct {
	Strategy  Strategy
	Items     int
	Threshold int
	// Workers is the pool size for Parallel and 1 for Sequential.
	Workers int
}

// MapFunc is the shape shared by both strategies.
type MapFunc[T, R any] func(items []T, fn func(T) R, cfg *Config) []R

// Map applies fn to every element of items and returns the results in input
// order. It runs SequentialMap when len(items) < threshold and ParallelMap
// otherwise.
//
// fn must be safe to call concurrently on distinct elements and must not
// mutate state visible outside its own invocation. If fn panics for any
// element the whole call panics with that value in the calling goroutine,
// whichever strategy was chosen, and no partial result is returned.
func Map[T, R any](items []T, threshold int, fn func(T) R, opts ...Option) []R {
	cfg := newConfig(opts)

	strategy := Decide(len(items), threshold)
	mapper := strategyFor[T, R](strategy)

	workers := 1
	if strategy == Parallel {
		workers = cfg.workerCount(len(items))
	}
	if cfg.observer != nil {
		cfg.observer(Decision{
			Strategy:  strategy,
			Items:     len(items),
			Threshold: threshold,
			Workers:   workers,
		})
	}

	return mapper(items, fn, cfg)
}

// strategyFor selects the mapping function for a strategy.
func strategyFor[T, R any](s Strategy) MapFunc[T, R] {
	if s == Sequential {
		return SequentialMap[T, R]
	}
	return ParallelMap[T, R]
}

// DefaultWorkers returns the pool size used when none is configured: the
// number of logical CPUs usable by the process.
func DefaultWorkers() int {
	return runtime.NumCPU()
}
