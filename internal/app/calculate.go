package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/collatz-go/collatz/internal/cli"
	apperrors "github.com/collatz-go/collatz/internal/errors"
	"github.com/collatz-go/collatz/internal/orchestration"
)

// runCalculate transforms the positional inputs as one batch. Without inputs
// it prints the usage line and succeeds without running a batch.
func (a *Application) runCalculate(ctx context.Context, out io.Writer) int {
	if len(a.Config.Inputs) == 0 {
		cli.PrintUsage(out)
		return apperrors.ExitSuccess
	}

	if a.Config.Verbose && !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
	}

	// The progress display goes to the error stream so stdout stays
	// machine-readable.
	var reporter orchestration.ProgressReporter = cli.CLIProgressReporter{}
	progressOut := a.ErrWriter
	if a.Config.Quiet || !isTerminal(a.ErrWriter) {
		reporter = orchestration.NullProgressReporter{}
		progressOut = io.Discard
	}

	if a.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Config.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := orchestration.ExecuteBatch(ctx, a.Config.Inputs, orchestration.BatchOptions{
		MaxIterations: a.Config.MaxIterations,
		Threshold:     a.Config.Threshold,
		Workers:       a.Config.Workers,
		Details:       a.Config.Details,
		Logger:        a.Logger,
	}, reporter, progressOut)
	if err != nil {
		return cli.CLIResultPresenter{}.HandleError(err, time.Since(start), a.ErrWriter)
	}

	if err := cli.DisplayResultsWithConfig(out, result, cli.OutputConfig{
		OutputFile: a.Config.OutputFile,
		Quiet:      a.Config.Quiet,
		Verbose:    a.Config.Verbose,
		Details:    a.Config.Details,
	}); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
