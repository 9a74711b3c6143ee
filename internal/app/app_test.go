package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/collatz-go/collatz/internal/calibration"
	apperrors "github.com/collatz-go/collatz/internal/errors"
	"github.com/collatz-go/collatz/internal/logging"
)

// isolate keeps tests away from the user's environment, .env file and
// calibration profile.
func isolate(t *testing.T) []string {
	t.Helper()
	for _, key := range []string{"THRESHOLD", "MAX_ITERATIONS", "COLLATZ_THRESHOLD", "COLLATZ_MAX_ITERATIONS",
		"COLLATZ_WORKERS", "COLLATZ_CONFIG", "COLLATZ_QUIET", "COLLATZ_VERBOSE", "COLLATZ_DETAILS",
		"COLLATZ_OUTPUT", "COLLATZ_LOG_LEVEL", "COLLATZ_LOG_FORMAT", "COLLATZ_SERVE",
		"COLLATZ_CALIBRATION_PROFILE", "COLLATZ_AUTO_THRESHOLD", "COLLATZ_TIMEOUT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	profile := filepath.Join(t.TempDir(), "profile.json")
	return []string{"collatz", "--env-file", "", "--calibration-profile", profile, "--no-color"}
}

func run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	a, err := New(append(isolate(t), args...), &errOut, WithLogger(logging.Nop()))
	if err != nil {
		return ExitCodeForStartup(err, &errOut), out.String(), errOut.String()
	}
	code = a.Run(context.Background(), &out)
	return code, out.String(), errOut.String()
}

func TestRun_Calculate(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		code     int
		stdout   string
		contains []string
	}{
		{name: "reference batch", args: []string{"--threshold", "2", "1", "2", "3"}, stdout: "Results: [0, 1, 7]\n"},
		{name: "interleaved flags", args: []string{"1", "--threshold", "2", "2", "3"}, stdout: "Results: [0, 1, 7]\n"},
		{name: "quiet", args: []string{"-q", "1", "2", "3"}, stdout: "0 1 7\n"},
		{name: "budget exceeded", args: []string{"7"}, stdout: "Results: [40]\n"},
		{name: "no inputs", stdout: "Usage: please provide a list of numbers separated by spaces.\n"},
		{name: "details", args: []string{"-d", "7"}, contains: []string{"Results: [40]", "exceeded"}},
		{name: "verbose", args: []string{"-v", "1"}, contains: []string{"Execution Configuration", "Execution Summary"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := run(t, tt.args...)
			if code != tt.code {
				t.Fatalf("exit code = %d, want %d (stderr: %s)", code, tt.code, stderr)
			}
			if tt.stdout != "" && stdout != tt.stdout {
				t.Errorf("stdout = %q, want %q", stdout, tt.stdout)
			}
			for _, want := range tt.contains {
				if !strings.Contains(stdout, want) {
					t.Errorf("stdout missing %q:\n%s", want, stdout)
				}
			}
		})
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		code   int
		stderr string
	}{
		{"invalid token", []string{"1", "abc"}, apperrors.ExitErrorInput, "'abc' is not a valid number"},
		{"negative token", []string{"-5"}, apperrors.ExitErrorInput, "'-5' is not a valid number"},
		{"unknown flag", []string{"--bogus"}, apperrors.ExitErrorConfig, "bogus"},
		{"invalid log level", []string{"--log-level", "loud", "1"}, apperrors.ExitErrorConfig, "invalid log level"},
		{"unsupported shell", []string{"--completion", "tcsh"}, apperrors.ExitErrorConfig, "unsupported shell"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			a, err := New(append(isolate(t), tt.args...), &errOut)
			code := 0
			if err != nil {
				code = ExitCodeForStartup(err, &errOut)
			} else {
				code = a.Run(context.Background(), &out)
			}
			if code != tt.code {
				t.Errorf("exit code = %d, want %d", code, tt.code)
			}
			if !strings.Contains(errOut.String(), tt.stderr) {
				t.Errorf("stderr = %q, want it to contain %q", errOut.String(), tt.stderr)
			}
		})
	}
}

func TestRun_Help(t *testing.T) {
	var errOut bytes.Buffer
	_, err := New(append(isolate(t), "--help"), &errOut)
	if !IsHelpError(err) {
		t.Fatalf("New(--help) error = %v, want flag.ErrHelp", err)
	}
	if code := ExitCodeForStartup(err, &errOut); code != apperrors.ExitSuccess {
		t.Errorf("help exit code = %d", code)
	}
	if !strings.Contains(errOut.String(), "Usage:") {
		t.Errorf("help output missing usage: %q", errOut.String())
	}
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := run(t, "--version")
	if code != apperrors.ExitSuccess || !strings.HasPrefix(stdout, "collatz ") {
		t.Errorf("version: code=%d stdout=%q", code, stdout)
	}
}

func TestRun_Completion(t *testing.T) {
	code, stdout, _ := run(t, "--completion", "bash")
	if code != apperrors.ExitSuccess || !strings.Contains(stdout, "complete -F _collatz_completions collatz") {
		t.Errorf("completion: code=%d stdout=%q", code, stdout)
	}
}

func TestRun_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.txt")
	code, _, stderr := run(t, "-o", path, "1", "2", "3")
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d: %s", code, stderr)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "3 7\n") {
		t.Errorf("results file = %q", data)
	}
}

func TestRun_Interactive(t *testing.T) {
	// The REPL reads stdin; an immediately closed pipe ends the session.
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	w.Close()
	orig := os.Stdin
	os.Stdin = r
	t.Cleanup(func() { os.Stdin = orig; r.Close() })

	code, stdout, _ := run(t, "-i")
	if code != apperrors.ExitSuccess || !strings.Contains(stdout, "Goodbye!") {
		t.Errorf("interactive: code=%d stdout=%q", code, stdout)
	}
}

func TestRun_Canceled(t *testing.T) {
	var out, errOut bytes.Buffer
	a, err := New(append(isolate(t), "1", "2", "3"), &errOut, WithLogger(logging.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if code := a.Run(ctx, &out); code != apperrors.ExitErrorCanceled {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorCanceled)
	}
	if !strings.Contains(errOut.String(), "canceled") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestNew_ThresholdResolution(t *testing.T) {
	args := isolate(t)
	profilePath := args[4]
	if err := os.WriteFile(profilePath, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := New(args, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if a.Config.ThresholdSource != "default" {
		t.Errorf("invalid profile must be ignored, source = %s", a.Config.ThresholdSource)
	}

	a, err = New(append(args, "--auto-threshold"), &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if a.Config.ThresholdSource != "auto" {
		t.Errorf("--auto-threshold source = %s", a.Config.ThresholdSource)
	}
}

func TestNewLogger(t *testing.T) {
	isolate(t)
	var buf bytes.Buffer
	a, err := New([]string{"collatz", "--env-file", "", "--log-format", "json", "--log-level", "debug", "1"}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	a.Logger.Info("hello")
	if !strings.Contains(buf.String(), `"message":"hello"`) || !strings.Contains(buf.String(), `"component":"collatz"`) {
		t.Errorf("json log = %q", buf.String())
	}
}

func TestNew_ProfileMatchesBudget(t *testing.T) {
	args := isolate(t)
	profile := calibration.NewProfile()
	profile.OptimalThreshold = 40
	profile.MaxIterations = 8
	if err := profile.SaveProfile(args[4]); err != nil {
		t.Fatal(err)
	}

	a, err := New(args, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if a.Config.Threshold != 40 || a.Config.ThresholdSource != "profile" {
		t.Errorf("threshold = %d (%s), want 40 (profile)", a.Config.Threshold, a.Config.ThresholdSource)
	}

	a, err = New(append(args, "--max-iterations", "100"), &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if a.Config.ThresholdSource != "default" {
		t.Errorf("profile for another budget must be ignored, source = %s", a.Config.ThresholdSource)
	}
}

func TestRun_Timeout(t *testing.T) {
	code, _, stderr := run(t, "--timeout", "1ns", "1", "2", "3")
	if code != apperrors.ExitErrorTimeout {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorTimeout)
	}
	if !strings.Contains(stderr, "timed out") {
		t.Errorf("stderr = %q", stderr)
	}
}
