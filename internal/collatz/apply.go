package collatz

import (
	"runtime"

	"github.com/collatz-go/collatz/internal/dispatch"
)

// DefaultMaxIterations is the step budget used by Apply.
const DefaultMaxIterations = 8

// DefaultThreshold returns the dispatch threshold used by Apply: twice the
// number of logical CPUs.
func DefaultThreshold() int {
	return runtime.NumCPU() * 2
}

// ApplyTransformations runs Transform on every input with the given step
// budget, dispatching sequentially when len(input) < threshold and in
// parallel otherwise. Results are in input order; empty input yields an empty
// slice.
func ApplyTransformations(input []uint64, maxIterations, threshold int, opts ...dispatch.Option) []uint64 {
	return dispatch.Map(input, threshold, transformer(maxIterations), opts...)
}

// Apply is ApplyTransformations with DefaultMaxIterations and DefaultThreshold.
func Apply(input []uint64, opts ...dispatch.Option) []uint64 {
	return ApplyTransformations(input, DefaultMaxIterations, DefaultThreshold(), opts...)
}

// EvaluateAll is ApplyTransformations returning the tagged outcomes.
func EvaluateAll(input []uint64, maxIterations, threshold int, opts ...dispatch.Option) []Outcome {
	return dispatch.Map(input, threshold, func(n uint64) Outcome {
		return Evaluate(n, maxIterations)
	}, opts...)
}

// transformer binds the step budget. The closure captures only a copied int.
func transformer(maxIterations int) func(uint64) uint64 {
	return func(n uint64) uint64 {
		return Transform(n, maxIterations)
	}
}
