package dispatch

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestMap_MatchesSequential_PropertyBased verifies that for any input and any
// threshold the dispatched result equals a plain sequential map.
func TestMap_MatchesSequential_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	square := func(x uint64) uint64 { return x * x }

	properties.Property("Map equals SequentialMap element for element", prop.ForAll(
		func(items []uint64, threshold int, workers int) bool {
			got := Map(items, threshold, square, WithWorkers(workers))
			want := SequentialMap(items, square, nil)
			if len(got) != len(want) {
				return false
			}
			for i := range want {
				if got[i] != want[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.UInt64()),
		gen.IntRange(-2, 64),
		gen.IntRange(0, 16),
	))

	properties.Property("Decide is sequential exactly when n < threshold", prop.ForAll(
		func(n, threshold int) bool {
			return (Decide(n, threshold) == Sequential) == (n < threshold)
		},
		gen.IntRange(0, 10_000),
		gen.IntRange(-10, 10_000),
	))

	properties.TestingRun(t)
}
