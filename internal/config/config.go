// Package config resolves the application configuration from command-line
// flags, environment variables, an optional YAML file and built-in defaults,
// and parses the positional input numbers.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/collatz-go/collatz/internal/errors"
)

// EnvPrefix is the prefix of every environment variable read by the
// application (e.g. COLLATZ_THRESHOLD).
const EnvPrefix = "COLLATZ_"

// Defaults used when no other source provides a value.
const (
	DefaultThreshold     = 3
	DefaultMaxIterations = 8
	DefaultEnvFile       = ".env"
	DefaultLogLevel      = "warn"
	DefaultLogFormat     = "console"
)

// Source names where the effective threshold came from.
const (
	SourceDefault = "default"
	SourceFlag    = "flag"
	SourceEnv     = "env"
	SourceFile    = "file"
	SourceProfile = "profile"
	SourceAuto    = "auto"
)

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// Threshold is the minimum batch size dispatched in parallel.
	Threshold int
	// ThresholdSource records which source set Threshold.
	ThresholdSource string
	// AutoThreshold replaces the threshold with a CPU-based estimate.
	AutoThreshold bool
	// MaxIterations is the Collatz step budget per input.
	MaxIterations int
	// Workers overrides the parallel pool size; 0 means one per CPU.
	Workers int
	// Timeout bounds a single batch; 0 disables the limit.
	Timeout time.Duration
	// Inputs are the parsed positional numbers.
	Inputs []uint64

	Quiet      bool
	Verbose    bool
	Details    bool
	NoColor    bool
	OutputFile string

	LogLevel  string
	LogFormat string

	EnvFile    string
	ConfigFile string

	// Serve is the listen address of the HTTP server mode; empty disables it.
	Serve string

	Calibrate          bool
	CalibrationProfile string

	// Interactive starts the read-eval-print loop instead of a single batch.
	Interactive bool
	// Completion names the shell whose completion script should be printed.
	Completion string

	ShowVersion bool
}

// Validate reports the first invalid numeric setting as a ConfigError.
func (c AppConfig) Validate() error {
	if c.Threshold < 0 {
		return apperrors.NewConfigError("invalid threshold %d: must be a non-negative integer", c.Threshold)
	}
	if c.MaxIterations < 0 {
		return apperrors.NewConfigError("invalid max iterations %d: must be a non-negative integer", c.MaxIterations)
	}
	if c.Workers < 0 {
		return apperrors.NewConfigError("invalid workers %d: must be a non-negative integer", c.Workers)
	}
	if c.Timeout < 0 {
		return apperrors.NewConfigError("invalid timeout %s: must not be negative", c.Timeout)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return apperrors.NewConfigError("invalid log format %q: expected console or json", c.LogFormat)
	}
	return nil
}

// ParseConfig builds the configuration for one run.
//
// Resolution order, highest priority first: flags, environment variables
// (after loading the .env file), the YAML config file, defaults. The cached
// calibration profile and --auto-threshold are applied later by the caller.
//
// Flags and numbers may be interleaved. --help returns flag.ErrHelp.
//
// Parameters:
//   - programName: Name used in the usage message.
//   - args: Command-line arguments without the program name.
//   - errWriter: Destination of the usage message and flag errors.
//
// Returns:
//   - AppConfig: The resolved configuration.
//   - error: flag.ErrHelp, a ConfigError, or a ValidationError for a bad number.
func ParseConfig(programName string, args []string, errWriter io.Writer) (AppConfig, error) {
	cfg := AppConfig{ThresholdSource: SourceDefault}
	fs := newFlagSet(programName, &cfg, errWriter)

	flagArgs, positional := splitArgs(fs, args)
	if err := fs.Parse(flagArgs); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return cfg, err
		}
		return cfg, apperrors.NewConfigError("%v", err)
	}
	if isFlagSet(fs, "threshold") {
		cfg.ThresholdSource = SourceFlag
	}

	if err := LoadEnvFile(cfg.EnvFile, isFlagSet(fs, "env-file")); err != nil {
		return cfg, err
	}

	if !isFlagSet(fs, "config") {
		if path, ok := lookupEnv("CONFIG"); ok {
			cfg.ConfigFile = path
		}
	}
	if cfg.ConfigFile != "" {
		fileCfg, err := LoadFile(cfg.ConfigFile)
		if err != nil {
			return cfg, err
		}
		fileCfg.applyTo(&cfg, fs)
	}

	if err := applyEnvOverrides(&cfg, fs); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	inputs, err := ParseInputs(positional)
	if err != nil {
		return cfg, err
	}
	cfg.Inputs = inputs
	return cfg, nil
}

func newFlagSet(programName string, cfg *AppConfig, errWriter io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errWriter)
	fs.Usage = func() {
		fmt.Fprintf(errWriter, "Usage: %s [flags] NUMBER...\n\n", programName)
		fmt.Fprintf(errWriter, "Computes the Collatz step count of each NUMBER, or the value reached\n")
		fmt.Fprintf(errWriter, "when the step budget runs out first.\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(errWriter, "\nEnvironment variables %s<FLAG> (e.g. %sTHRESHOLD) override defaults;\n", EnvPrefix, EnvPrefix)
		fmt.Fprintf(errWriter, "THRESHOLD and MAX_ITERATIONS are also honoured without the prefix.\n")
	}

	fs.IntVar(&cfg.Threshold, "threshold", DefaultThreshold, "Minimum number of inputs processed in parallel.")
	fs.BoolVar(&cfg.AutoThreshold, "auto-threshold", false, "Use twice the logical CPU count as threshold.")
	fs.IntVar(&cfg.MaxIterations, "max-iterations", DefaultMaxIterations, "Maximum Collatz steps per input.")
	fs.IntVar(&cfg.Workers, "workers", 0, "Parallel worker count (0 = one per logical CPU).")
	fs.DurationVar(&cfg.Timeout, "timeout", 0, "Abort a batch after this duration (e.g. 30s, 0 = no limit).")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "Print only the results, space separated.")
	fs.BoolVar(&cfg.Quiet, "q", false, "Shorthand for --quiet.")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Print execution configuration and timing.")
	fs.BoolVar(&cfg.Verbose, "v", false, "Shorthand for --verbose.")
	fs.BoolVar(&cfg.Details, "details", false, "Print a per-input table with convergence status.")
	fs.BoolVar(&cfg.Details, "d", false, "Shorthand for --details.")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output.")
	fs.StringVar(&cfg.OutputFile, "output", "", "Also write results to this file.")
	fs.StringVar(&cfg.OutputFile, "o", "", "Shorthand for --output.")
	fs.StringVar(&cfg.LogLevel, "log-level", DefaultLogLevel, "Log level: debug, info, warn, error.")
	fs.StringVar(&cfg.LogFormat, "log-format", DefaultLogFormat, "Log format: console or json.")
	fs.StringVar(&cfg.EnvFile, "env-file", DefaultEnvFile, "Environment file loaded at startup.")
	fs.StringVar(&cfg.ConfigFile, "config", "", "YAML configuration file.")
	fs.StringVar(&cfg.Serve, "serve", "", "Run the HTTP server on this address (e.g. :8080).")
	fs.BoolVar(&cfg.Calibrate, "calibrate", false, "Measure the sequential/parallel break-even point and save it.")
	fs.StringVar(&cfg.CalibrationProfile, "calibration-profile", "", "Calibration profile path (default ~/.collatz_calibration.json).")
	fs.BoolVar(&cfg.Interactive, "interactive", false, "Start an interactive session.")
	fs.BoolVar(&cfg.Interactive, "i", false, "Shorthand for --interactive.")
	fs.StringVar(&cfg.Completion, "completion", "", "Print a completion script for bash, zsh or fish.")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Print the version and exit.")
	fs.BoolVar(&cfg.ShowVersion, "V", false, "Shorthand for --version.")
	return fs
}

// splitArgs separates flag tokens from positional numbers so that both may
// be interleaved. Tokens that look like negative integers are positional, so
// they fail input validation with their own name instead of being reported
// as unknown flags. Everything after "--" is positional.
func splitArgs(fs *flag.FlagSet, args []string) (flagArgs, positional []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return flagArgs, append(positional, args[i+1:]...)
		case arg == "-" || !strings.HasPrefix(arg, "-") || isNegativeInteger(arg):
			positional = append(positional, arg)
		default:
			flagArgs = append(flagArgs, arg)
			name := strings.TrimLeft(arg, "-")
			if strings.Contains(name, "=") {
				continue
			}
			if f := fs.Lookup(name); f != nil && !isBoolFlag(f) && i+1 < len(args) {
				i++
				flagArgs = append(flagArgs, args[i])
			}
		}
	}
	return flagArgs, positional
}

func isNegativeInteger(s string) bool {
	if len(s) < 2 || s[0] != '-' {
		return false
	}
	_, err := strconv.ParseUint(s[1:], 10, 64)
	return err == nil
}

func isBoolFlag(f *flag.Flag) bool {
	bf, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && bf.IsBoolFlag()
}

// ParseNumber parses one base-10 input. A single leading '+' is accepted;
// whitespace, other signs and values above 2^64-1 are not.
func ParseNumber(tok string) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(tok, "+"), 10, 64)
}

// ParseInputs converts each token to a non-negative integer. The first
// invalid token aborts parsing with a ValidationError naming it.
func ParseInputs(tokens []string) ([]uint64, error) {
	inputs := make([]uint64, 0, len(tokens))
	for i, tok := range tokens {
		n, err := ParseNumber(tok)
		if err != nil {
			return nil, apperrors.NewValidationError(tok, i+1)
		}
		inputs = append(inputs, n)
	}
	return inputs, nil
}
