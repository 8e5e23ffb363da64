package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/cli/commands"
)

// Version will be set during build with ldflags
var Version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := commands.NewApp(Version)
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+bridgeerr.Describe(err))
		stop()
		os.Exit(bridgeerr.ExitCode(err))
	}
}
