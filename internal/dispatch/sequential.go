package dispatch

import "github.com/samber/lo"

// progressSteps bounds how many progress callbacks a sequential run emits.
const progressSteps = 100

// SequentialMap applies fn to each element in input order in the calling
// goroutine. cfg may be nil.
func SequentialMap[T, R any](items []T, fn func(T) R, cfg *Config) []R {
	if cfg == nil {
		cfg = newConfig(nil)
	}
	total := len(items)
	stride := max(1, total/progressSteps)

	return lo.Map(items, func(item T, i int) R {
		r := fn(item)
		if done := i + 1; done%stride == 0 || done == total {
			cfg.report(done, total)
		}
		return r
	})
}
