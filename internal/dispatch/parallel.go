package dispatch

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/collatz-go/collatz/internal/parallel"
)

// chunksPerWorker oversubscribes the pool so that a worker which finishes
// early can pick up another chunk instead of idling.
const chunksPerWorker = 4

// span is a half-open index range [lo, hi) of the input.
type span struct {
	lo, hi int
}

// ParallelMap splits items into contiguous chunks and maps them on a pool of
// workers. Each chunk writes only its own index range of the preallocated
// result slice, so results keep input order without any locking. cfg may be
// nil.
//
// A panic in fn stops the scheduling of further chunks, waits for chunks
// already running, and is re-raised in the caller with the original value.
func ParallelMap[T, R any](items []T, fn func(T) R, cfg *Config) []R {
	if cfg == nil {
		cfg = newConfig(nil)
	}
	total := len(items)
	results := make([]R, total)
	if total == 0 {
		return results
	}

	workers := cfg.workerCount(total)

	var (
		g         errgroup.Group
		collector parallel.ErrorCollector
		completed atomic.Int64
	)
	g.SetLimit(workers)

	for _, s := range splitSpans(total, workers*chunksPerWorker) {
		g.Go(func() error {
			if collector.Err() != nil {
				return nil
			}
			defer collector.Recover()
			for i := s.lo; i < s.hi; i++ {
				results[i] = fn(items[i])
			}
			cfg.report(int(completed.Add(int64(s.hi-s.lo))), total)
			return nil
		})
	}

	_ = g.Wait()
	collector.Repanic()
	return results
}

// splitSpans divides [0, n) into at most parts contiguous spans of nearly
// equal size.
func splitSpans(n, parts int) []span {
	if n <= 0 {
		return nil
	}
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	size := (n + parts - 1) / parts
	spans := make([]span, 0, parts)
	for lo := 0; lo < n; lo += size {
		spans = append(spans, span{lo: lo, hi: min(lo+size, n)})
	}
	return spans
}
