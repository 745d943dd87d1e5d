// Command deskshell runs and inspects the desktop shell session service.
//
// Usage:
//
//	# Run the service with a config file
//	deskshell serve --config deskshell.toml
//
//	# Inspect the last session
//	deskshell workspace show
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main

import (
	"context"
	"os"

	"github.com/fatih/color"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(context.Background(), version); err != nil {
		_, _ = color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "✗ %s\n", err)
		os.Exit(1)
	}
}
