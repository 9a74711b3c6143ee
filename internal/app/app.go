// Package app wires configuration, logging and the execution modes of the
// collatz command together.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/collatz-go/collatz/internal/calibration"
	"github.com/collatz-go/collatz/internal/cli"
	"github.com/collatz-go/collatz/internal/config"
	apperrors "github.com/collatz-go/collatz/internal/errors"
	"github.com/collatz-go/collatz/internal/logging"
	"github.com/collatz-go/collatz/internal/server"
	"github.com/collatz-go/collatz/internal/ui"
)

// ProgramName is used when no program name is given in args.
const ProgramName = "collatz"

// Application represents the collatz application instance.
type Application struct {
	Config    config.AppConfig
	Logger    logging.Logger
	ErrWriter io.Writer
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithLogger replaces the logger built from the configuration.
func WithLogger(l logging.Logger) AppOption {
	return func(a *Application) { a.Logger = l }
}

// New creates a new Application instance by parsing command-line arguments.
// args includes the program name. The threshold of a cached calibration
// profile is applied when no flag, environment variable or file chose one,
// and --auto-threshold is applied last.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter}

	programName := ProgramName
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}

	if threshold, ok := calibration.LoadCachedThreshold(cfg.CalibrationProfile, cfg.MaxIterations); ok {
		cfg = config.ApplyProfileThreshold(cfg, threshold)
	}
	cfg = config.ApplyAdaptiveThreshold(cfg)
	app.Config = cfg

	for _, opt := range opts {
		opt(app)
	}
	if app.Logger == nil {
		logger, err := newLogger(cfg, errWriter)
		if err != nil {
			return nil, err
		}
		app.Logger = logger
	}
	return app, nil
}

// newLogger builds the zerolog logger selected by --log-level and
// --log-format. Logs go to errWriter so stdout carries results only.
func newLogger(cfg config.AppConfig, errWriter io.Writer) (logging.Logger, error) {
	lvl, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid log level %q: %v", cfg.LogLevel, err)
	}
	var base *logging.ZerologAdapter
	if cfg.LogFormat == "json" {
		base = logging.NewLogger(errWriter, ProgramName)
	} else {
		base = logging.NewConsoleLogger(errWriter, ProgramName, cfg.NoColor)
	}
	return base.Level(lvl), nil
}

// Run executes the application based on the configured mode and returns the
// process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.ShowVersion {
		PrintVersion(out)
		return apperrors.ExitSuccess
	}
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	ui.InitTheme(a.Config.NoColor)
	a.Logger.Debug("configuration resolved",
		logging.Int("threshold", a.Config.Threshold),
		logging.String("threshold_source", a.Config.ThresholdSource),
		logging.Int("max_iterations", a.Config.MaxIterations),
		logging.Int("workers", a.Config.Workers))

	switch {
	case a.Config.Serve != "":
		return a.runServer(ctx)
	case a.Config.Calibrate:
		return a.runCalibration(ctx, out)
	case a.Config.Interactive:
		return a.runInteractive(ctx, out)
	default:
		return a.runCalculate(ctx, out)
	}
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion, ProgramName); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// runServer serves HTTP until ctx is canceled.
func (a *Application) runServer(ctx context.Context) int {
	srv := server.NewServer(server.ConfigFrom(a.Config), a.Logger)
	if err := srv.ListenAndServe(ctx); err != nil {
		a.Logger.Error("server failed", err)
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitCodeFor(err)
	}
	return apperrors.ExitSuccess
}

// runCalibration runs the full calibration mode.
func (a *Application) runCalibration(ctx context.Context, out io.Writer) int {
	_, err := calibration.RunCalibration(ctx, calibration.Options{
		MaxIterations: a.Config.MaxIterations,
		Workers:       a.Config.Workers,
		ProfilePath:   a.Config.CalibrationProfile,
		Logger:        a.Logger,
	}, out)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Calibration failed: %v\n", err)
		return apperrors.ExitCodeFor(err)
	}
	return apperrors.ExitSuccess
}

// runInteractive starts the REPL on the application's streams.
func (a *Application) runInteractive(ctx context.Context, out io.Writer) int {
	cfg := cli.REPLConfigFrom(a.Config)
	cfg.Logger = a.Logger
	repl := cli.NewREPL(ctx, cfg)
	repl.SetOutput(out)
	repl.Start()
	return apperrors.ExitSuccess
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// ExitCodeForStartup reports a construction error from New and returns the
// exit code. --help exits successfully since the usage was already printed.
func ExitCodeForStartup(err error, errWriter io.Writer) int {
	if err == nil {
		return apperrors.ExitSuccess
	}
	if IsHelpError(err) {
		return apperrors.ExitSuccess
	}
	fmt.Fprintf(errWriter, "Error: %v\n", err)
	return apperrors.ExitCodeFor(err)
}
