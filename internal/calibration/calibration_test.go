package calibration

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/collatz-go/collatz/internal/ui"
)

func TestGenerateWorkloadSizes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		max  int
		want []int
	}{
		{1, []int{1}},
		{5, []int{1, 2, 4}},
		{16, []int{1, 2, 4, 8, 16}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, GenerateWorkloadSizes(tt.max)); diff != "" {
			t.Errorf("GenerateWorkloadSizes(%d) mismatch (-want +got):\n%s", tt.max, diff)
		}
	}

	sizes := GenerateWorkloadSizes(0)
	if last := sizes[len(sizes)-1]; last > DefaultMaxSize() || last*2 <= DefaultMaxSize() {
		t.Errorf("default sweep ends at %d, want the largest power of two <= %d", last, DefaultMaxSize())
	}
}

func TestRecommendThreshold(t *testing.T) {
	t.Parallel()
	fast, slow := time.Millisecond, 2*time.Millisecond
	tests := []struct {
		name    string
		results []calibrationResult
		want    int
	}{
		{
			name: "parallel wins from 4",
			results: []calibrationResult{
				{Size: 1, Sequential: fast, Parallel: slow},
				{Size: 2, Sequential: fast, Parallel: slow},
				{Size: 4, Sequential: slow, Parallel: fast},
				{Size: 8, Sequential: slow, Parallel: fast},
			},
			want: 4,
		},
		{
			name: "noisy early win is ignored",
			results: []calibrationResult{
				{Size: 1, Sequential: slow, Parallel: fast},
				{Size: 2, Sequential: fast, Parallel: slow},
				{Size: 4, Sequential: slow, Parallel: fast},
			},
			want: 4,
		},
		{
			name: "parallel never wins",
			results: []calibrationResult{
				{Size: 1, Sequential: fast, Parallel: slow},
				{Size: 2, Sequential: fast, Parallel: slow},
			},
			want: 4,
		},
		{
			name: "tie counts as a loss",
			results: []calibrationResult{
				{Size: 1, Sequential: fast, Parallel: fast},
			},
			want: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := recommendThreshold(tt.results); got != tt.want {
				t.Errorf("recommendThreshold() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRunCalibration(t *testing.T) {
	ui.InitTheme(true)
	path := filepath.Join(t.TempDir(), "profile.json")

	var buf bytes.Buffer
	profile, err := RunCalibration(context.Background(), Options{
		MaxSize:       8,
		Rounds:        1,
		MaxIterations: 50,
		ProfilePath:   path,
	}, &buf)
	if err != nil {
		t.Fatalf("RunCalibration() error = %v", err)
	}
	if profile.MaxSize != 8 || profile.MaxIterations != 50 {
		t.Errorf("profile = %+v", profile)
	}
	if profile.OptimalThreshold < 1 || profile.OptimalThreshold > 16 {
		t.Errorf("OptimalThreshold = %d, want a measured size or 16", profile.OptimalThreshold)
	}
	for _, want := range []string{"Calibration Summary", "Batch size", "Profile saved to"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q", want)
		}
	}

	threshold, ok := LoadCachedThreshold(path, 50)
	if !ok || threshold != profile.OptimalThreshold {
		t.Errorf("LoadCachedThreshold() = %d, %v", threshold, ok)
	}
	if _, ok := LoadCachedThreshold(path, 8); ok {
		t.Error("profile measured at 50 iterations must not apply to a budget of 8")
	}
}

func TestRunCalibration_DryRun(t *testing.T) {
	ui.InitTheme(true)
	var buf bytes.Buffer
	_, err := RunCalibration(context.Background(), Options{MaxSize: 2, Rounds: 1, MaxIterations: 8, DryRun: true}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Profile saved") {
		t.Error("dry run must not save a profile")
	}
}

func TestRunCalibration_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunCalibration(ctx, Options{MaxSize: 4, Rounds: 1, DryRun: true}, &bytes.Buffer{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RunCalibration() error = %v, want context.Canceled", err)
	}
}
