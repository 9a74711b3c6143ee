package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/collatz-go/collatz/internal/config"
	"github.com/collatz-go/collatz/internal/ui"
)

// UsageMessage is printed when no numbers are given.
const UsageMessage = "Usage: please provide a list of numbers separated by spaces."

// PrintUsage writes the usage line shown when no inputs are given.
func PrintUsage(out io.Writer) {
	fmt.Fprintln(out, UsageMessage)
}

// PrintExecutionConfig displays the current execution configuration to the user.
// It shows the batch size, step budget, threshold and its source, and the
// environment details.
//
// Parameters:
//   - cfg: The application configuration.
//   - out: The writer for standard output.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Transforming %s%d%s inputs with at most %s%d%s iterations each.\n",
		ui.ColorMagenta(), len(cfg.Inputs), ui.ColorReset(), ui.ColorYellow(), cfg.MaxIterations, ui.ColorReset())
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ui.ColorCyan(), runtime.NumCPU(), ui.ColorReset(), ui.ColorCyan(), runtime.Version(), ui.ColorReset())
	fmt.Fprintf(out, "Parallel threshold: %s%d%s inputs (%s), up to %s%d%s workers.\n",
		ui.ColorCyan(), cfg.Threshold, ui.ColorReset(), cfg.ThresholdSource,
		ui.ColorCyan(), workers, ui.ColorReset())
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}
