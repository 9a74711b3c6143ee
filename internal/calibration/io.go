package calibration

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/collatz-go/collatz/internal/format"
	"github.com/collatz-go/collatz/internal/ui"
)

// printCalibrationResults formats and prints the calibration results table.
func printCalibrationResults(out io.Writer, results []calibrationResult, bestThreshold int) {
	fmt.Fprintf(out, "\n--- Calibration Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  %sBatch size%s\t│ %sSequential%s\t│ %sParallel%s\t\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
	fmt.Fprintf(tw, "  %s\t┼%s\t┼%s\t\n", strings.Repeat("─", 10), strings.Repeat("─", 12), strings.Repeat("─", 24))
	for _, res := range results {
		highlight := ""
		if res.Size == bestThreshold {
			highlight = fmt.Sprintf(" %s(Threshold)%s", ui.ColorGreen(), ui.ColorReset())
		}
		parColor := ui.ColorYellow()
		if res.parallelWins() {
			parColor = ui.ColorGreen()
		}
		fmt.Fprintf(tw, "  %s%d%s\t│ %s\t│ %s%s%s%s\t\n",
			ui.ColorCyan(), res.Size, ui.ColorReset(),
			durationLabel(res.Sequential),
			parColor, durationLabel(res.Parallel), ui.ColorReset(), highlight)
	}
	tw.Flush()
}

func durationLabel(d time.Duration) string {
	if d < time.Microsecond {
		return "< 1µs"
	}
	return format.FormatExecutionDuration(d)
}

// printCalibrationOutput prints the recommended threshold.
func printCalibrationOutput(out io.Writer, p *CalibrationProfile) {
	fmt.Fprintf(out, "\n%sCalibration%s: parallel threshold=%s%d%s inputs (measured in %s)\n",
		ui.ColorGreen(), ui.ColorReset(),
		ui.ColorYellow(), p.OptimalThreshold, ui.ColorReset(),
		p.CalibrationTime)
}
