// # Naming Conventions
//
// Functions in this package follow consistent naming patterns based on their behavior:
//
//   - Display* functions write formatted output to an [io.Writer].
//     They handle presentation logic and colorization.
//     Examples: [DisplayResults], [DisplayQuietResults], [DisplayProgress].
//
//   - Format* functions return a formatted string without performing I/O.
//     They are pure functions suitable for composition.
//     Examples: [FormatResults], [FormatQuietResults].
//
//   - Write* functions write data to files on the filesystem.
//     Examples: [WriteResultsToFile].

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"

	"github.com/collatz-go/collatz/internal/format"
	"github.com/collatz-go/collatz/internal/orchestration"
	"github.com/collatz-go/collatz/internal/ui"
)

// OutputConfig holds configuration for result output.
type OutputConfig struct {
	// OutputFile is the path to save the results (empty for no file output).
	OutputFile string
	// Quiet prints only the space-separated values.
	Quiet   bool
	Verbose bool
	Details bool
}

// FormatResults renders results as a bracketed, comma-separated list:
// "[0, 1, 7]".
func FormatResults(results []uint64) string {
	return "[" + strings.Join(lo.Map(results, func(v uint64, _ int) string {
		return strconv.FormatUint(v, 10)
	}), ", ") + "]"
}

// FormatQuietResults renders results space-separated, for scripting.
func FormatQuietResults(results []uint64) string {
	return strings.Join(lo.Map(results, func(v uint64, _ int) string {
		return strconv.FormatUint(v, 10)
	}), " ")
}

// DisplayResults writes "Results: [..]".
func DisplayResults(out io.Writer, results []uint64) {
	fmt.Fprintf(out, "Results: %s\n", FormatResults(results))
}

// DisplayQuietResults writes the bare values on one line.
func DisplayQuietResults(out io.Writer, results []uint64) {
	fmt.Fprintln(out, FormatQuietResults(results))
}

// DisplayDetails renders one table row per input with its result, the steps
// taken and whether the value converged within the budget. Nothing is
// written when the batch carries no outcomes.
func DisplayDetails(out io.Writer, result orchestration.BatchResult) {
	if result.Outcomes == nil {
		return
	}
	styles := ui.GetTableStyles()

	rows := make([][]string, len(result.Outcomes))
	for i, o := range result.Outcomes {
		status := "converged"
		if !o.Converged {
			status = "exceeded"
		}
		if o.Wrapped {
			status += " (wrapped)"
		}
		rows[i] = []string{
			strconv.Itoa(i),
			format.FormatNumberString(strconv.FormatUint(result.Inputs[i], 10)),
			format.FormatNumberString(strconv.FormatUint(o.Value, 10)),
			strconv.Itoa(o.Steps),
			status,
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Border).
		Headers("#", "Input", "Result", "Steps", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styles.Header
			case col == 4 && row >= 0 && row < len(result.Outcomes):
				if result.Outcomes[row].Converged {
					return styles.Converged
				}
				return styles.Exceeded
			default:
				return styles.Cell
			}
		})

	fmt.Fprintf(out, "\n--- Details (max %d iterations) ---\n", result.MaxIterations)
	fmt.Fprintln(out, t.Render())
	if n := result.Unconverged; n > 0 {
		fmt.Fprintf(out, "%s%d of %d inputs did not reach 1; their result is the value at cutoff.%s\n",
			ui.ColorYellow(), n, len(result.Outcomes), ui.ColorReset())
	}
}

// DisplayExecutionSummary writes the strategy, timing and allocation figures
// of a batch.
func DisplayExecutionSummary(out io.Writer, result orchestration.BatchResult) {
	fmt.Fprintf(out, "\n--- Execution Summary ---\n")
	fmt.Fprintf(out, "Run ID:     %s%s%s\n", ui.ColorCyan(), result.RunID, ui.ColorReset())
	fmt.Fprintf(out, "Strategy:   %s%s%s (%d items, threshold %d, %d workers)\n",
		ui.ColorGreen(), result.Decision.Strategy, ui.ColorReset(),
		result.Decision.Items, result.Decision.Threshold, result.Decision.Workers)
	fmt.Fprintf(out, "Duration:   %s%s%s\n", ui.ColorYellow(), format.FormatExecutionDuration(result.Duration), ui.ColorReset())
	fmt.Fprintf(out, "Allocated:  %s bytes in %s objects, %d GC cycles\n",
		format.FormatNumberString(strconv.FormatUint(result.Memory.Allocated, 10)),
		format.FormatNumberString(strconv.FormatUint(result.Memory.Objects, 10)),
		result.Memory.GCCycles)
}

// WriteResultsToFile writes a commented header and one "input result" line
// per item. Missing parent directories are created.
//
// Parameters:
//   - path: Destination file; an empty path writes nothing.
//   - result: The batch to save.
//
// Returns:
//   - error: An error if the file cannot be written.
func WriteResultsToFile(path string, result orchestration.BatchResult) error {
	if path == "" {
		return nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "# Collatz results\n")
	fmt.Fprintf(&b, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "# Run: %s\n", result.RunID)
	fmt.Fprintf(&b, "# Max iterations: %d\n", result.MaxIterations)
	fmt.Fprintf(&b, "# Strategy: %s\n", result.Decision.Strategy)
	fmt.Fprintf(&b, "# Duration: %s\n", result.Duration)
	fmt.Fprintf(&b, "\n")
	for i, v := range result.Results {
		fmt.Fprintf(&b, "%d %d\n", result.Inputs[i], v)
	}

	if _, err := io.WriteString(file, b.String()); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return file.Close()
}

// DisplayResultsWithConfig presents a batch and saves it when an output file
// is configured.
//
// Returns:
//   - error: An error if file output fails.
func DisplayResultsWithConfig(out io.Writer, result orchestration.BatchResult, config OutputConfig) error {
	CLIResultPresenter{}.PresentResults(result, orchestration.PresentationOptions{
		Quiet:   config.Quiet,
		Verbose: config.Verbose,
		Details: config.Details,
	}, out)

	if config.OutputFile == "" {
		return nil
	}
	if err := WriteResultsToFile(config.OutputFile, result); err != nil {
		return err
	}
	if !config.Quiet {
		fmt.Fprintf(out, "\n%s✓ Results saved to: %s%s%s\n",
			ui.ColorGreen(), ui.ColorCyan(), config.OutputFile, ui.ColorReset())
	}
	return nil
}
