package orchestration

import (
	"sync"
	"time"

	"github.com/collatz-go/collatz/internal/format"
)

// ProgressAggregator turns raw dispatcher counts into a fraction and an ETA.
// It wraps format.ProgressWithETA so every reporter shares one estimator.
type ProgressAggregator struct {
	state *format.ProgressWithETA
	total int
}

// NewProgressAggregator creates an aggregator for a batch of total inputs.
// Returns nil if total <= 0.
func NewProgressAggregator(total int) *ProgressAggregator {
	if total <= 0 {
		return nil
	}
	return &ProgressAggregator{
		state: format.NewProgressWithETA(),
		total: total,
	}
}

// AggregatedProgress holds the result of processing a single progress update.
type AggregatedProgress struct {
	Completed int
	Total     int
	// Fraction is Completed/Total clamped to [0, 1].
	Fraction float64
	// ETA is the estimated time remaining based on smoothed progress rate.
	ETA time.Duration
}

// Update processes a single progress update and returns the aggregated result.
func (a *ProgressAggregator) Update(update ProgressUpdate) AggregatedProgress {
	fraction, eta := a.state.UpdateWithETA(update.Fraction())
	return AggregatedProgress{
		Completed: update.Completed,
		Total:     a.total,
		Fraction:  fraction,
		ETA:       eta,
	}
}

// Fraction returns the current fraction without updating.
// Useful for periodic refresh between updates (e.g., CLI ticker).
func (a *ProgressAggregator) Fraction() float64 {
	return a.state.Progress()
}

// GetETA returns the current ETA estimate without updating.
func (a *ProgressAggregator) GetETA() time.Duration {
	return a.state.GetETA()
}

// Total returns the number of inputs being tracked.
func (a *ProgressAggregator) Total() int {
	return a.total
}

// DrainChannel reads all updates from the channel without processing.
func DrainChannel(progressChan <-chan ProgressUpdate) {
	for range progressChan {
	}
}

// progressSink adapts the dispatcher's progress callback to a channel.
// Sends never block: a slow reporter only misses intermediate counts.
// close may race with late callbacks from an abandoned batch, so both
// sides synchronise on mu.
type progressSink struct {
	mu     sync.Mutex
	ch     chan ProgressUpdate
	closed bool
}

func newProgressSink(buffer int) *progressSink {
	return &progressSink{ch: make(chan ProgressUpdate, buffer)}
}

func (s *progressSink) report(completed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ProgressUpdate{Completed: completed, Total: total}:
	default:
	}
}

func (s *progressSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// complete delivers the final count, waiting for the reporter if needed,
// then closes the channel.
func (s *progressSink) complete(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.ch <- ProgressUpdate{Completed: total, Total: total}
	s.closed = true
	close(s.ch)
}
