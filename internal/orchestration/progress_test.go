package orchestration

import (
	"sync"
	"testing"
)

func TestNewProgressAggregator(t *testing.T) {
	t.Parallel()
	if agg := NewProgressAggregator(3); agg == nil || agg.Total() != 3 {
		t.Fatalf("expected aggregator with Total()=3, got %+v", agg)
	}
	for _, n := range []int{0, -1} {
		if agg := NewProgressAggregator(n); agg != nil {
			t.Errorf("expected nil aggregator for total=%d", n)
		}
	}
}

func TestProgressAggregator_Update(t *testing.T) {
	t.Parallel()
	agg := NewProgressAggregator(4)

	ap := agg.Update(ProgressUpdate{Completed: 1, Total: 4})
	if ap.Completed != 1 || ap.Total != 4 || ap.Fraction != 0.25 {
		t.Errorf("Update() = %+v, want 1/4 at 0.25", ap)
	}
	if agg.Fraction() != 0.25 {
		t.Errorf("Fraction() = %f, want 0.25", agg.Fraction())
	}
	if agg.GetETA() < 0 {
		t.Errorf("GetETA() should not be negative, got %v", agg.GetETA())
	}

	ap = agg.Update(ProgressUpdate{Completed: 4, Total: 4})
	if ap.Fraction != 1 || ap.ETA != 0 {
		t.Errorf("final Update() = %+v, want fraction 1 and no ETA", ap)
	}
}

func TestProgressUpdate_Fraction(t *testing.T) {
	t.Parallel()
	tests := []struct {
		u    ProgressUpdate
		want float64
	}{
		{ProgressUpdate{Completed: 0, Total: 10}, 0},
		{ProgressUpdate{Completed: 5, Total: 10}, 0.5},
		{ProgressUpdate{Completed: 10, Total: 10}, 1},
		{ProgressUpdate{Completed: 0, Total: 0}, 1},
	}
	for _, tt := range tests {
		if got := tt.u.Fraction(); got != tt.want {
			t.Errorf("%+v.Fraction() = %f, want %f", tt.u, got, tt.want)
		}
	}
}

func TestDrainChannel(t *testing.T) {
	t.Parallel()
	ch := make(chan ProgressUpdate, 3)
	ch <- ProgressUpdate{Completed: 1, Total: 3}
	ch <- ProgressUpdate{Completed: 2, Total: 3}
	close(ch)

	DrainChannel(ch)
	if len(ch) != 0 {
		t.Errorf("channel still holds %d updates", len(ch))
	}
}

// TestProgressSink_ConcurrentCloseAndReport verifies late reports after
// close neither panic nor block.
func TestProgressSink_ConcurrentCloseAndReport(t *testing.T) {
	t.Parallel()
	sink := newProgressSink(1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				sink.report(j, 1000)
			}
		}()
	}
	go DrainChannel(sink.ch)
	sink.close()
	wg.Wait()

	sink.close()
	sink.complete(1000)
}

func TestProgressSink_CompleteDeliversFinalCount(t *testing.T) {
	t.Parallel()
	sink := newProgressSink(1)
	sink.report(1, 10) // fills the buffer

	received := make(chan ProgressUpdate, 4)
	go func() {
		for u := range sink.ch {
			received <- u
		}
		close(received)
	}()
	sink.complete(10)

	var last ProgressUpdate
	for u := range received {
		last = u
	}
	if last.Completed != 10 || last.Total != 10 {
		t.Errorf("last update = %+v, want 10/10", last)
	}
}
