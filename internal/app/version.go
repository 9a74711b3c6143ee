package app

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// Build information, set at link time:
//
//	go build -ldflags "-X github.com/collatz-go/collatz/internal/app.Version=v1.2.0"
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

// versionString returns the version, falling back to the module version
// recorded by `go install` when no version was linked in.
func versionString() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// PrintVersion writes "collatz <version>" followed by optional build details.
func PrintVersion(out io.Writer) {
	fmt.Fprintf(out, "%s %s\n", ProgramName, versionString())
	if Commit != "" {
		fmt.Fprintf(out, "  commit:  %s\n", Commit)
	}
	if BuildDate != "" {
		fmt.Fprintf(out, "  built:   %s\n", BuildDate)
	}
	fmt.Fprintf(out, "  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
