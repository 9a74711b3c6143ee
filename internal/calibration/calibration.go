// Package calibration measures the batch size from which parallel dispatch
// beats sequential dispatch on the current machine, and caches the result as
// a JSON profile reused by later runs.
package calibration

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/collatz-go/collatz/internal/collatz"
	"github.com/collatz-go/collatz/internal/dispatch"
	"github.com/collatz-go/collatz/internal/logging"
	"github.com/collatz-go/collatz/internal/ui"
)

// DefaultRounds is the number of timed repetitions per measurement; the
// fastest one is kept.
const DefaultRounds = 5

// Options configures a calibration run.
type Options struct {
	// MaxSize is the largest batch measured; 0 selects DefaultMaxSize.
	MaxSize int
	// Rounds per measurement; 0 selects DefaultRounds.
	Rounds int
	// MaxIterations is the step budget of the measured workload.
	MaxIterations int
	// Workers is the parallel pool size; 0 selects one per logical CPU.
	Workers int
	// ProfilePath is where the profile is saved; empty selects the default
	// path. Saving is skipped when DryRun is set.
	ProfilePath string
	DryRun      bool
	Logger      logging.Logger
}

// calibrationResult is the timing of one batch size.
type calibrationResult struct {
	Size       int
	Sequential time.Duration
	Parallel   time.Duration
}

// parallelWins reports whether the parallel run was strictly faster.
func (r calibrationResult) parallelWins() bool {
	return r.Parallel < r.Sequential
}

// RunCalibration times sequential against parallel dispatch for every size
// of GenerateWorkloadSizes, prints the comparison table and saves the
// resulting profile.
//
// The recommended threshold is the smallest measured size from which
// parallel dispatch wins for that size and every larger one. When parallel
// never wins consistently, the threshold is twice the largest size measured.
//
// Parameters:
//   - ctx: Cancels the run between measurements.
//   - opts: Calibration options.
//   - out: Destination of the table and summary.
//
// Returns:
//   - *CalibrationProfile: The measured profile.
//   - error: The context error when canceled, or a save failure.
func RunCalibration(ctx context.Context, opts Options, out io.Writer) (*CalibrationProfile, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	rounds := opts.Rounds
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	sizes := GenerateWorkloadSizes(opts.MaxSize)

	fmt.Fprintf(out, "%s--- Calibration ---%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(out, "Measuring %d batch sizes up to %d inputs, %d iterations each, best of %d rounds.\n",
		len(sizes), sizes[len(sizes)-1], opts.MaxIterations, rounds)

	start := time.Now()
	results := make([]calibrationResult, 0, len(sizes))
	for _, size := range sizes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := measure(size, rounds, opts.MaxIterations, opts.Workers)
		logger.Debug("calibration measurement",
			logging.Int("size", size),
			logging.Duration("sequential", res.Sequential),
			logging.Duration("parallel", res.Parallel))
		results = append(results, res)
	}

	best := recommendThreshold(results)
	printCalibrationResults(out, results, best)

	profile := NewProfile()
	profile.OptimalThreshold = best
	profile.MaxIterations = opts.MaxIterations
	profile.MaxSize = sizes[len(sizes)-1]
	profile.CalibrationTime = time.Since(start).Round(time.Millisecond).String()

	printCalibrationOutput(out, profile)
	if opts.DryRun {
		return profile, nil
	}

	path := opts.ProfilePath
	if path == "" {
		path = GetDefaultProfilePath()
	}
	if err := profile.SaveProfile(path); err != nil {
		return profile, err
	}
	logger.Info("calibration profile saved", logging.String("path", path), logging.Int("threshold", best))
	fmt.Fprintf(out, "Profile saved to %s%s%s\n", ui.ColorCyan(), path, ui.ColorReset())
	return profile, nil
}

// measure returns the best sequential and parallel times for one size.
func measure(size, rounds, maxIterations, workers int) calibrationResult {
	inputs := workload(size)
	fn := func(n uint64) uint64 { return collatz.Transform(n, maxIterations) }
	opts := []dispatch.Option{dispatch.WithWorkers(workers)}

	res := calibrationResult{Size: size, Sequential: time.Duration(math.MaxInt64), Parallel: time.Duration(math.MaxInt64)}
	for i := 0; i < rounds; i++ {
		t0 := time.Now()
		dispatch.Map(inputs, math.MaxInt, fn, opts...)
		res.Sequential = min(res.Sequential, time.Since(t0))

		t0 = time.Now()
		dispatch.Map(inputs, 0, fn, opts...)
		res.Parallel = min(res.Parallel, time.Since(t0))
	}
	return res
}

// workload returns size inputs with long Collatz trajectories, so each item
// exhausts a realistic share of its budget.
func workload(size int) []uint64 {
	inputs := make([]uint64, size)
	for i := range inputs {
		inputs[i] = 837799 + uint64(i)*2
	}
	return inputs
}

func recommendThreshold(results []calibrationResult) int {
	if len(results) == 0 {
		return EstimateOptimalThreshold()
	}
	best := results[len(results)-1].Size * 2
	for i := len(results) - 1; i >= 0; i-- {
		if !results[i].parallelWins() {
			break
		}
		best = results[i].Size
	}
	return best
}
