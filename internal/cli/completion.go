package cli

import (
	"fmt"
	"io"
	"strings"
)

// FlagCompletion describes a CLI flag for shell completion generation.
// All shell completion functions generate from this registry, so adding
// a new flag only requires appending to flagRegistry.
type FlagCompletion struct {
	Long      string   // long flag name without "--" (e.g., "help")
	Short     string   // short flag without "-" (e.g., "h")
	Help      string   // description text
	Values    []string // suggested completion values (nil = boolean/no suggestions)
	ValueName string   // label for the value in zsh (e.g., "number", "shell")
	IsFile    bool     // true if the flag takes a file path
	Section   string   // fish comment section
}

// flagRegistry is the central list of all CLI flags for completion generation.
var flagRegistry = []FlagCompletion{
	{Long: "help", Short: "h", Help: "Show help message", Section: "Help and version"},
	{Long: "version", Short: "V", Help: "Show version information", Section: "Help and version"},
	{Long: "threshold", Help: "Minimum batch size processed in parallel", Values: []string{"1", "3", "8", "16", "64"}, ValueName: "count", Section: "Dispatch"},
	{Long: "auto-threshold", Help: "Use twice the CPU count as threshold", Section: "Dispatch"},
	{Long: "max-iterations", Help: "Maximum Collatz steps per input", Values: []string{"8", "100", "1000"}, ValueName: "steps", Section: "Dispatch"},
	{Long: "workers", Help: "Parallel worker count", ValueName: "count", Section: "Dispatch"},
	{Long: "timeout", Help: "Abort a batch after this duration", Values: []string{"30s", "5m"}, ValueName: "duration", Section: "Dispatch"},
	{Long: "interactive", Short: "i", Help: "Start an interactive session", Section: "Modes"},
	{Long: "serve", Help: "Run the HTTP server on this address", Values: []string{":8080"}, ValueName: "address", Section: "Modes"},
	{Long: "calibrate", Help: "Measure and save the parallel threshold", Section: "Modes"},
	{Long: "calibration-profile", Help: "Calibration profile file", IsFile: true, ValueName: "file", Section: "Modes"},
	{Long: "output", Short: "o", Help: "Output file path", IsFile: true, ValueName: "file", Section: "Output"},
	{Long: "quiet", Short: "q", Help: "Quiet mode for scripts", Section: "Output"},
	{Long: "verbose", Short: "v", Help: "Show configuration and timing", Section: "Output"},
	{Long: "details", Short: "d", Help: "Show per-input table", Section: "Output"},
	{Long: "no-color", Help: "Disable colored output", Section: "Output"},
	{Long: "log-level", Help: "Log level", Values: []string{"debug", "info", "warn", "error"}, ValueName: "level", Section: "Configuration"},
	{Long: "log-format", Help: "Log format", Values: []string{"console", "json"}, ValueName: "format", Section: "Configuration"},
	{Long: "env-file", Help: "Environment file", IsFile: true, ValueName: "file", Section: "Configuration"},
	{Long: "config", Help: "YAML configuration file", IsFile: true, ValueName: "file", Section: "Configuration"},
	{Long: "completion", Help: "Generate completion script", Values: SupportedShells, ValueName: "shell", Section: "Completion"},
}

// SupportedShells lists the shells accepted by GenerateCompletion.
var SupportedShells = []string{"bash", "zsh", "fish"}

// GenerateCompletion generates a shell completion script for the specified shell.
//
// Parameters:
//   - out: The writer to output the completion script.
//   - shell: The shell type ("bash", "zsh", "fish").
//   - program: The command name the script completes.
//
// Returns:
//   - error: An error if the shell is not supported.
func GenerateCompletion(out io.Writer, shell, program string) error {
	var script string
	switch shell {
	case "bash":
		script = bashCompletion(program)
	case "zsh":
		script = zshCompletion(program)
	case "fish":
		script = fishCompletion(program)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: %s)", shell, strings.Join(SupportedShells, ", "))
	}
	if _, err := fmt.Fprint(out, script); err != nil {
		return fmt.Errorf("completion %s generation failed: %w", shell, err)
	}
	return nil
}

func bashCompletion(program string) string {
	var opts []string
	var files []string
	var cases strings.Builder
	for _, f := range flagRegistry {
		if f.Long != "" {
			opts = append(opts, "--"+f.Long)
		}
		if f.Short != "" {
			opts = append(opts, "-"+f.Short)
		}
		switch {
		case f.IsFile:
			files = append(files, "--"+f.Long)
			if f.Short != "" {
				files = append(files, "-"+f.Short)
			}
		case len(f.Values) > 0:
			fmt.Fprintf(&cases, "        --%s)\n            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n            return 0\n            ;;\n",
				f.Long, strings.Join(f.Values, " "))
		}
	}
	if len(files) > 0 {
		fmt.Fprintf(&cases, "        %s)\n            COMPREPLY=( $(compgen -f -- \"${cur}\") )\n            return 0\n            ;;\n",
			strings.Join(files, "|"))
	}

	name := functionName(program)
	return fmt.Sprintf(`# Bash completion script for %[1]s
# Add this to your ~/.bashrc or ~/.bash_completion

_%[2]s_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    opts="%[3]s"

    case "${prev}" in
%[4]s    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F _%[2]s_completions %[1]s
`, program, name, strings.Join(opts, " "), cases.String())
}

func zshCompletion(program string) string {
	args := make([]string, 0, len(flagRegistry))
	for _, f := range flagRegistry {
		args = append(args, zshArgEntry(f))
	}
	name := functionName(program)
	return fmt.Sprintf(`#compdef %[1]s

# Zsh completion script for %[1]s
# Add this to your ~/.zshrc or place in $fpath

_%[2]s() {
    _arguments -s \
%[3]s \
        '*:number:'
}

_%[2]s "$@"
`, program, name, strings.Join(args, " \\\n"))
}

// zshArgEntry formats a single FlagCompletion as a zsh _arguments entry.
func zshArgEntry(f FlagCompletion) string {
	valueSuffix := ""
	switch {
	case f.IsFile:
		valueSuffix = fmt.Sprintf(":%s:_files", f.ValueName)
	case len(f.Values) > 0:
		valueSuffix = fmt.Sprintf(":%s:(%s)", f.ValueName, strings.Join(f.Values, " "))
	case f.ValueName != "":
		valueSuffix = fmt.Sprintf(":%s:", f.ValueName)
	}

	if f.Short != "" {
		return fmt.Sprintf("        '(-%s --%s)'{-%s,--%s}'[%s]%s'",
			f.Short, f.Long, f.Short, f.Long, f.Help, valueSuffix)
	}
	return fmt.Sprintf("        '--%s[%s]%s'", f.Long, f.Help, valueSuffix)
}

func fishCompletion(program string) string {
	lines := []string{
		"# Fish completion script for " + program,
		"# Add this to ~/.config/fish/completions/" + program + ".fish",
		"",
		"# Disable file completion by default",
		"complete -c " + program + " -f",
	}

	section := ""
	for _, f := range flagRegistry {
		if f.Section != section {
			section = f.Section
			lines = append(lines, "", "# "+section)
		}
		lines = append(lines, fishCompleteLine(program, f))
	}
	return strings.Join(lines, "\n") + "\n"
}

// fishCompleteLine formats a single FlagCompletion as a fish complete command.
func fishCompleteLine(program string, f FlagCompletion) string {
	parts := []string{"complete -c " + program}
	if f.Short != "" {
		parts = append(parts, "-s "+f.Short)
	}
	parts = append(parts, "-l "+f.Long, fmt.Sprintf("-d '%s'", f.Help))

	switch {
	case f.IsFile:
		parts = append(parts, "-rF")
	case len(f.Values) > 0:
		parts = append(parts, fmt.Sprintf("-xa '%s'", strings.Join(f.Values, " ")))
	case f.ValueName != "":
		parts = append(parts, "-x")
	}
	return strings.Join(parts, " ")
}

// functionName turns a program name into a shell function identifier.
func functionName(program string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(program)
}
