// This file implements adaptive workload generation based on hardware characteristics.

package calibration

import (
	"runtime"

	"github.com/collatz-go/collatz/internal/config"
)

// ─────────────────────────────────────────────────────────────────────────────
// Adaptive Workload Generation
// ─────────────────────────────────────────────────────────────────────────────

// DefaultMaxSizePerCPU bounds the largest batch measured, per logical CPU.
const DefaultMaxSizePerCPU = 64

// GenerateWorkloadSizes returns the batch sizes to measure: powers of two
// from 1 up to and including the largest one not above maxSize. A
// non-positive maxSize selects DefaultMaxSize.
func GenerateWorkloadSizes(maxSize int) []int {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize()
	}
	var sizes []int
	for s := 1; s <= maxSize; s *= 2 {
		sizes = append(sizes, s)
	}
	return sizes
}

// DefaultMaxSize scales the largest measured batch with the number of
// cores, so that many-core machines still reach the break-even point.
//
// - Single-core: parallel dispatch can never win, a short sweep suffices
// - Otherwise: DefaultMaxSizePerCPU inputs per core
func DefaultMaxSize() int {
	numCPU := runtime.NumCPU()
	if numCPU == 1 {
		return 16
	}
	return DefaultMaxSizePerCPU * numCPU
}

// ─────────────────────────────────────────────────────────────────────────────
// Threshold Estimation (without benchmarking)
// Delegates to config.EstimateOptimalThreshold, the canonical implementation.
// ─────────────────────────────────────────────────────────────────────────────

// EstimateOptimalThreshold delegates to config.EstimateOptimalThreshold.
func EstimateOptimalThreshold() int { return config.EstimateOptimalThreshold() }
