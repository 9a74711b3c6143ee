package orchestration

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/collatz-go/collatz/internal/collatz"
	"github.com/collatz-go/collatz/internal/dispatch"
	apperrors "github.com/collatz-go/collatz/internal/errors"
	"github.com/collatz-go/collatz/internal/logging"
	"github.com/collatz-go/collatz/internal/metrics"
	"github.com/collatz-go/collatz/internal/parallel"
)

// ProgressBufferSize is the capacity of the progress channel. Updates that do
// not fit are dropped rather than slowing the workers.
const ProgressBufferSize = 64

var tracer = otel.Tracer("github.com/collatz-go/collatz/internal/orchestration")

// BatchOptions configures one call to ExecuteBatch.
type BatchOptions struct {
	MaxIterations int
	Threshold     int
	// Workers is the parallel pool size; 0 selects one per logical CPU.
	Workers int
	// Details requests tagged outcomes (convergence, steps) for every input.
	Details bool
	// Metrics, when non-nil, receives the dispatch decision and batch timing.
	Metrics *metrics.DispatchMetrics
	// Logger defaults to logging.Nop.
	Logger logging.Logger
}

// BatchResult is the outcome of one batch.
type BatchResult struct {
	// RunID identifies the batch in logs and traces.
	RunID  string
	Inputs []uint64
	// Results[i] is collatz.Transform(Inputs[i], MaxIterations).
	Results []uint64
	// Outcomes is populated only when BatchOptions.Details is set.
	Outcomes []collatz.Outcome
	// Unconverged counts the inputs whose step budget ran out.
	Unconverged   int
	MaxIterations int
	Decision      dispatch.Decision
	Duration      time.Duration
	Memory        metrics.MemoryUsage
}

// ExecuteBatch transforms every input and returns the results in input order.
//
// The batch is dispatched sequentially or in parallel according to
// opts.Threshold. Progress updates flow to reporter, which runs in its own
// goroutine and has returned by the time ExecuteBatch does.
//
// Parameters:
//   - ctx: Cancels the wait; a canceled batch returns ctx.Err() wrapped.
//   - inputs: The numbers to transform.
//   - opts: Step budget, threshold and instrumentation.
//   - reporter: The progress reporter (use NullProgressReporter for quiet mode).
//   - out: The io.Writer handed to the reporter.
//
// Returns:
//   - BatchResult: The results and execution statistics.
//   - error: A context error, or a *parallel.PanicError if a transform panicked.
func ExecuteBatch(ctx context.Context, inputs []uint64, opts BatchOptions, reporter ProgressReporter, out io.Writer) (BatchResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	result := BatchResult{
		RunID:         uuid.NewString(),
		Inputs:        inputs,
		MaxIterations: opts.MaxIterations,
	}
	logger = logging.WithFields(logger, logging.String("run_id", result.RunID))

	ctx, span := tracer.Start(ctx, "collatz.batch")
	defer span.End()
	span.SetAttributes(
		attribute.String("collatz.run_id", result.RunID),
		attribute.Int("collatz.items", len(inputs)),
		attribute.Int("collatz.threshold", opts.Threshold),
		attribute.Int("collatz.max_iterations", opts.MaxIterations),
	)

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "canceled before start")
		return result, apperrors.WrapError(err, "batch %s", result.RunID)
	}

	sink := newProgressSink(ProgressBufferSize)
	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go reporter.DisplayProgress(&displayWg, sink.ch, len(inputs), out)

	var decision dispatch.Decision
	dispatchOpts := []dispatch.Option{
		dispatch.WithWorkers(opts.Workers),
		dispatch.WithProgress(sink.report),
		dispatch.WithObserver(func(d dispatch.Decision) {
			decision = d
			if opts.Metrics != nil {
				opts.Metrics.ObserveDecision(d)
			}
			logger.Debug("batch dispatched",
				logging.String("strategy", d.Strategy.String()),
				logging.Int("items", d.Items),
				logging.Int("threshold", d.Threshold),
				logging.Int("workers", d.Workers))
		}),
	}

	var (
		collector parallel.ErrorCollector
		results   []uint64
		outcomes  []collatz.Outcome
		done      = make(chan struct{})
	)
	memBefore := metrics.ReadMemory()
	start := time.Now()
	go func() {
		defer close(done)
		defer collector.Recover()
		outcomes = collatz.EvaluateAll(inputs, opts.MaxIterations, opts.Threshold, dispatchOpts...)
		results = lo.Map(outcomes, func(o collatz.Outcome, _ int) uint64 { return o.Value })
	}()

	select {
	case <-done:
	case <-ctx.Done():
		sink.close()
		displayWg.Wait()
		span.SetStatus(codes.Error, "canceled")
		logger.Info("batch canceled", logging.Duration("elapsed", time.Since(start)))
		return result, apperrors.WrapError(ctx.Err(), "batch %s", result.RunID)
	}

	result.Decision = decision
	result.Duration = time.Since(start)
	result.Memory = metrics.ReadMemory().Since(memBefore)

	if err := collector.Err(); err != nil {
		sink.close()
		displayWg.Wait()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transform panicked")
		logger.Error("batch failed", err)
		return result, err
	}

	sink.complete(len(inputs))
	displayWg.Wait()

	result.Results = results
	result.Unconverged = lo.CountBy(outcomes, func(o collatz.Outcome) bool { return !o.Converged })
	if opts.Details {
		result.Outcomes = outcomes
	}
	if opts.Metrics != nil {
		opts.Metrics.ObserveBatch(result.Decision.Strategy, result.Duration, result.Unconverged)
	}
	span.SetAttributes(
		attribute.String("collatz.strategy", result.Decision.Strategy.String()),
		attribute.Int("collatz.workers", result.Decision.Workers),
	)
	logger.Info("batch finished",
		logging.String("strategy", result.Decision.Strategy.String()),
		logging.Int("items", len(inputs)),
		logging.Int("unconverged", result.Unconverged),
		logging.Duration("elapsed", result.Duration))
	return result, nil
}
