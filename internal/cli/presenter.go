// Package cli implements the terminal front end: progress display, result
// presentation, the interactive session and shell completion scripts.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	apperrors "github.com/collatz-go/collatz/internal/errors"
	"github.com/collatz-go/collatz/internal/format"
	"github.com/collatz-go/collatz/internal/orchestration"
	"github.com/collatz-go/collatz/internal/ui"
)

// CLIProgressReporter implements orchestration.ProgressReporter for CLI output.
// It wraps the DisplayProgress function to provide a spinner and progress bar
// display during a batch.
type CLIProgressReporter struct{}

// Verify that CLIProgressReporter implements orchestration.ProgressReporter.
var _ orchestration.ProgressReporter = CLIProgressReporter{}

// DisplayProgress displays a spinner and progress bar for the running batch.
func (CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, total int, out io.Writer) {
	DisplayProgress(wg, progressChan, total, out)
}

// CLIResultPresenter implements orchestration.ResultPresenter for CLI output.
type CLIResultPresenter struct{}

// Verify interface compliance.
var (
	_ orchestration.ResultPresenter   = CLIResultPresenter{}
	_ orchestration.DurationFormatter = CLIResultPresenter{}
	_ orchestration.ErrorHandler      = CLIResultPresenter{}
)

// PresentResults writes the results line, or the bare values in quiet mode,
// followed by the details table and execution summary when requested.
func (CLIResultPresenter) PresentResults(result orchestration.BatchResult, opts orchestration.PresentationOptions, out io.Writer) {
	if opts.Quiet {
		DisplayQuietResults(out, result.Results)
		return
	}
	DisplayResults(out, result.Results)
	if opts.Details {
		DisplayDetails(out, result)
	}
	if opts.Verbose {
		DisplayExecutionSummary(out, result)
	}
}

// FormatDuration formats a duration for display using the CLI's standard
// duration formatting.
func (CLIResultPresenter) FormatDuration(d time.Duration) string {
	return format.FormatExecutionDuration(d)
}

// HandleError reports a batch failure and returns the matching exit code.
func (CLIResultPresenter) HandleError(err error, duration time.Duration, out io.Writer) int {
	if err == nil {
		return apperrors.ExitSuccess
	}
	if errors.Is(err, context.DeadlineExceeded) {
		fmt.Fprintf(out, "%sBatch timed out after %s.%s\n",
			ui.ColorYellow(), format.FormatExecutionDuration(duration), ui.ColorReset())
		return apperrors.ExitCodeFor(err)
	}
	if apperrors.IsContextError(err) {
		fmt.Fprintf(out, "%sBatch canceled after %s.%s\n",
			ui.ColorYellow(), format.FormatExecutionDuration(duration), ui.ColorReset())
		return apperrors.ExitCodeFor(err)
	}
	fmt.Fprintf(out, "%sError: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
	return apperrors.ExitCodeFor(err)
}
