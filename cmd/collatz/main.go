package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/collatz-go/collatz/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		return app.ExitCodeForStartup(err, os.Stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return application.Run(ctx, os.Stdout)
}
