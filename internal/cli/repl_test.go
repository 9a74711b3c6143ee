package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/collatz-go/collatz/internal/config"
	"github.com/collatz-go/collatz/internal/ui"
)

func runREPL(t *testing.T, cfg REPLConfig, input string) string {
	t.Helper()
	ui.InitTheme(true)
	r := NewREPL(context.Background(), cfg)
	var out bytes.Buffer
	r.SetInput(strings.NewReader(input))
	r.SetOutput(&out)
	r.Start()
	return out.String()
}

func TestREPL_Transform(t *testing.T) {
	out := runREPL(t, REPLConfig{MaxIterations: 8, Threshold: 2}, "1 2 3\nexit\n")
	if !strings.Contains(out, "Results: [0, 1, 7]") {
		t.Errorf("missing results line:\n%s", out)
	}
	if !strings.Contains(out, "via parallel") {
		t.Errorf("three inputs at threshold 2 should run in parallel:\n%s", out)
	}
	if !strings.Contains(out, "Goodbye!") {
		t.Errorf("missing goodbye:\n%s", out)
	}
}

func TestREPL_Commands(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
	}{
		{"max", "max 100\n7\n", []string{"max set to 100", "Results: [16]"}},
		{"threshold", "threshold 10\n1 2\n", []string{"threshold set to 10", "via sequential"}},
		{"workers", "workers 2\nstatus\n", []string{"workers set to 2", "Workers:        2"}},
		{"details toggle", "details\n3\n", []string{"Details: on", "converged"}},
		{"invalid number", "1 x\n", []string{"'x' is not a valid number (argument 2)"}},
		{"invalid setting", "max -1\n", []string{"Invalid value: -1"}},
		{"missing argument", "threshold\n", []string{"Usage: threshold <n>"}},
		{"unknown command", "frobnicate\n", []string{"Unknown command: frobnicate"}},
		{"help", "help\n", []string{"Available commands"}},
		{"eof", "", []string{"Goodbye!"}},
		{"last line without newline", "3", []string{"Results: [7]"}},
		{"plus sign", "+3\n", []string{"Results: [7]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := runREPL(t, REPLConfig{MaxIterations: 8, Threshold: 3}, tt.input)
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestREPL_CanceledContext(t *testing.T) {
	ui.InitTheme(true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewREPL(ctx, REPLConfig{MaxIterations: 8})
	var out bytes.Buffer
	r.SetInput(strings.NewReader("1 2 3\n"))
	r.SetOutput(&out)
	r.Start()

	if strings.Contains(out.String(), "Results:") {
		t.Errorf("canceled session should not run batches:\n%s", out.String())
	}
}

func TestREPL_CancelWhileWaitingForInput(t *testing.T) {
	ui.InitTheme(true)
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	r := NewREPL(ctx, REPLConfig{MaxIterations: 8})
	var out bytes.Buffer
	r.SetInput(pr)
	r.SetOutput(&out)

	done := make(chan struct{})
	go func() {
		r.Start()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end after cancellation while idle at the prompt")
	}
	if !strings.Contains(out.String(), "Goodbye!") {
		t.Errorf("missing goodbye:\n%s", out.String())
	}
}

func TestREPL_Timeout(t *testing.T) {
	out := runREPL(t, REPLConfig{MaxIterations: 8, Threshold: 3, Timeout: time.Nanosecond}, "1 2 3\n")
	if !strings.Contains(out, "Batch timed out after") {
		t.Errorf("expired batch should report a timeout:\n%s", out)
	}
	if strings.Contains(out, "Results:") {
		t.Errorf("expired batch should not print results:\n%s", out)
	}
}

func TestREPLConfigFrom(t *testing.T) {
	t.Parallel()
	got := REPLConfigFrom(config.AppConfig{MaxIterations: 20, Threshold: 4, Workers: 2, Details: true, Timeout: time.Minute})
	want := REPLConfig{MaxIterations: 20, Threshold: 4, Workers: 2, Details: true, Timeout: time.Minute}
	if got != want {
		t.Errorf("REPLConfigFrom() = %+v, want %+v", got, want)
	}
}
