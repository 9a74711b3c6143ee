package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/collatz-go/collatz/internal/config"
	"github.com/collatz-go/collatz/internal/format"
	"github.com/collatz-go/collatz/internal/logging"
	"github.com/collatz-go/collatz/internal/orchestration"
	"github.com/collatz-go/collatz/internal/sysmon"
	"github.com/collatz-go/collatz/internal/ui"
)

// REPLConfig holds configuration for the REPL session.
type REPLConfig struct {
	// MaxIterations is the step budget applied to each input.
	MaxIterations int
	// Threshold is the parallelism threshold.
	Threshold int
	// Workers is the parallel pool size; 0 selects one per logical CPU.
	Workers int
	// Details shows the per-input table after each batch.
	Details bool
	// Timeout bounds a single batch; 0 disables it.
	Timeout time.Duration
	Logger  logging.Logger
}

// REPLConfigFrom builds a session configuration from the resolved
// application configuration.
func REPLConfigFrom(cfg config.AppConfig) REPLConfig {
	return REPLConfig{
		MaxIterations: cfg.MaxIterations,
		Threshold:     cfg.Threshold,
		Workers:       cfg.Workers,
		Details:       cfg.Details,
		Timeout:       cfg.Timeout,
	}
}

// REPL represents an interactive Collatz session. Each line of numbers is
// transformed as one batch.
type REPL struct {
	config REPLConfig
	ctx    context.Context
	in     io.Reader
	out    io.Writer
}

// NewREPL creates a new REPL instance reading from stdin and writing to
// stdout. ctx cancels the session and any running batch.
func NewREPL(ctx context.Context, config REPLConfig) *REPL {
	return &REPL{
		config: config,
		ctx:    ctx,
		in:     os.Stdin,
		out:    os.Stdout,
	}
}

// SetInput sets a custom input reader (useful for testing).
func (r *REPL) SetInput(in io.Reader) {
	r.in = in
}

// SetOutput sets a custom output writer (useful for testing).
func (r *REPL) SetOutput(out io.Writer) {
	r.out = out
}

// Start begins the interactive REPL session.
// It continuously reads user input and processes commands until
// the user exits, EOF is reached or the context is canceled. Cancellation
// ends the session even while it waits for input.
func (r *REPL) Start() {
	r.printBanner()
	r.printHelp()
	fmt.Fprintln(r.out)

	lines := make(chan readResult)
	done := make(chan struct{})
	defer close(done)
	go readLines(bufio.NewReader(r.in), lines, done)

	for {
		if r.ctx.Err() != nil {
			fmt.Fprintln(r.out, "\nGoodbye!")
			return
		}
		fmt.Fprint(r.out, ui.ColorGreen()+"collatz> "+ui.ColorReset())

		var res readResult
		select {
		case <-r.ctx.Done():
			fmt.Fprintln(r.out, "\nGoodbye!")
			return
		case line, ok := <-lines:
			res = line
			if !ok {
				res.err = io.EOF
			}
		}

		input, err := res.line, res.err
		if err != nil && !(errors.Is(err, io.EOF) && strings.TrimSpace(input) != "") {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(r.out, "%sRead error: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if !r.processCommand(input) {
			return
		}
	}
}

type readResult struct {
	line string
	err  error
}

// readLines feeds lines to the session until a read fails or the session
// ends, then closes lines. A read blocked on the terminal is abandoned at exit.
func readLines(reader *bufio.Reader, lines chan<- readResult, done <-chan struct{}) {
	defer close(lines)
	for {
		line, err := reader.ReadString('\n')
		select {
		case lines <- readResult{line: line, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

// printBanner displays the REPL welcome banner.
func (r *REPL) printBanner() {
	fmt.Fprintf(r.out, "\n%s╔══════════════════════════════════════════════╗%s\n", ui.ColorCyan(), ui.ColorReset())
	fmt.Fprintf(r.out, "%s║%s      %sCollatz Transformer - Interactive Mode%s  %s║%s\n",
		ui.ColorCyan(), ui.ColorReset(), ui.ColorBold(), ui.ColorReset(), ui.ColorCyan(), ui.ColorReset())
	fmt.Fprintf(r.out, "%s╚══════════════════════════════════════════════╝%s\n\n", ui.ColorCyan(), ui.ColorReset())
}

// printHelp displays available commands.
func (r *REPL) printHelp() {
	fmt.Fprintf(r.out, "%sAvailable commands:%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %s<n> [n...]%s     - Transform the numbers as one batch\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %smax <n>%s         - Change the step budget\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sthreshold <n>%s   - Change the parallel threshold\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sworkers <n>%s     - Change the worker count (0 = per CPU)\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sdetails%s         - Toggle the per-input table\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sstatus%s          - Display current configuration\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %shelp%s            - Display this help\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sexit%s / %squit%s     - Exit interactive mode\n", ui.ColorYellow(), ui.ColorReset(), ui.ColorYellow(), ui.ColorReset())
}

// processCommand parses and executes a user command.
// Returns false if the REPL should exit.
func (r *REPL) processCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "max", "m":
		r.setInt("max", args, &r.config.MaxIterations)
	case "threshold", "t":
		r.setInt("threshold", args, &r.config.Threshold)
	case "workers", "w":
		r.setInt("workers", args, &r.config.Workers)
	case "details", "d":
		r.config.Details = !r.config.Details
		fmt.Fprintf(r.out, "Details: %s%s%s\n", ui.ColorGreen(), onOff(r.config.Details), ui.ColorReset())
	case "status", "st":
		r.cmdStatus()
	case "help", "h", "?":
		r.printHelp()
	case "exit", "quit", "q":
		fmt.Fprintf(r.out, "%sGoodbye!%s\n", ui.ColorGreen(), ui.ColorReset())
		return false
	default:
		if _, err := config.ParseNumber(cmd); err != nil {
			fmt.Fprintf(r.out, "%sUnknown command: %s%s\n", ui.ColorRed(), cmd, ui.ColorReset())
			fmt.Fprintf(r.out, "Type %shelp%s to see available commands.\n", ui.ColorYellow(), ui.ColorReset())
			return true
		}
		r.transform(parts)
	}

	return true
}

// setInt handles the commands that change a non-negative setting.
func (r *REPL) setInt(name string, args []string, dst *int) {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "%sUsage: %s <n>%s\n", ui.ColorRed(), name, ui.ColorReset())
		return
	}
	v, err := strconv.Atoi(args[0])
	if err != nil || v < 0 {
		fmt.Fprintf(r.out, "%sInvalid value: %s%s\n", ui.ColorRed(), args[0], ui.ColorReset())
		return
	}
	*dst = v
	fmt.Fprintf(r.out, "%s set to %s%d%s\n", name, ui.ColorGreen(), v, ui.ColorReset())
}

// transform runs one batch over the given tokens.
func (r *REPL) transform(tokens []string) {
	inputs, err := config.ParseInputs(tokens)
	if err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
		return
	}

	ctx := r.ctx
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := orchestration.ExecuteBatch(ctx, inputs, orchestration.BatchOptions{
		MaxIterations: r.config.MaxIterations,
		Threshold:     r.config.Threshold,
		Workers:       r.config.Workers,
		Details:       r.config.Details,
		Logger:        r.config.Logger,
	}, orchestration.NullProgressReporter{}, r.out)
	if err != nil {
		CLIResultPresenter{}.HandleError(err, time.Since(start), r.out)
		return
	}

	CLIResultPresenter{}.PresentResults(result, orchestration.PresentationOptions{Details: r.config.Details}, r.out)
	fmt.Fprintf(r.out, "  %s%s via %s%s\n\n", ui.ColorCyan(),
		format.FormatExecutionDuration(result.Duration), result.Decision.Strategy, ui.ColorReset())
}

// cmdStatus displays current REPL configuration.
func (r *REPL) cmdStatus() {
	fmt.Fprintf(r.out, "\n%sCurrent configuration:%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(r.out, "  Max iterations: %s%d%s\n", ui.ColorCyan(), r.config.MaxIterations, ui.ColorReset())
	fmt.Fprintf(r.out, "  Threshold:      %s%d%s inputs\n", ui.ColorCyan(), r.config.Threshold, ui.ColorReset())
	fmt.Fprintf(r.out, "  Workers:        %s%d%s\n", ui.ColorCyan(), r.config.Workers, ui.ColorReset())
	fmt.Fprintf(r.out, "  Details:        %s%s%s\n", ui.ColorCyan(), onOff(r.config.Details), ui.ColorReset())
	if r.config.Timeout > 0 {
		fmt.Fprintf(r.out, "  Timeout:        %s%s%s\n", ui.ColorCyan(), r.config.Timeout, ui.ColorReset())
	}
	stats := sysmon.Sample(r.ctx)
	fmt.Fprintf(r.out, "  System:         %sCPU %.1f%% · Mem %.1f%%%s (%d CPUs)\n",
		ui.ColorCyan(), stats.CPUPercent, stats.MemPercent, ui.ColorReset(), stats.NumCPU)
	fmt.Fprintln(r.out)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
