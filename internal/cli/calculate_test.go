package cli

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/collatz-go/collatz/internal/config"
	"github.com/collatz-go/collatz/internal/ui"
)

func TestPrintUsage(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	PrintUsage(&buf)
	if got, want := buf.String(), UsageMessage+"\n"; got != want {
		t.Errorf("PrintUsage() = %q, want %q", got, want)
	}
}

func TestPrintExecutionConfig(t *testing.T) {
	ui.InitTheme(true)
	cfg := config.AppConfig{
		Inputs:          []uint64{1, 2, 3},
		MaxIterations:   8,
		Threshold:       2,
		ThresholdSource: config.SourceFlag,
		Workers:         4,
	}
	var buf bytes.Buffer
	PrintExecutionConfig(cfg, &buf)
	out := buf.String()
	for _, want := range []string{"3 inputs", "8 iterations", "2 inputs (flag)", "4 workers", "Starting Execution"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func ExamplePrintUsage() {
	var buf bytes.Buffer
	PrintUsage(&buf)
	fmt.Print(buf.String())
	// Output: Usage: please provide a list of numbers separated by spaces.
}
