// Package main is the entry point for the stud CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/danielolaszy/stud/cmd"
	"github.com/danielolaszy/stud/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// main is the entry point of the application.
// It executes the root command and handles any errors that occur.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logging.Debug("starting stud", "version", version, "log_level", logging.LevelFromEnv())

	cmd.SetVersion(version)
	if err := cmd.ExecuteContext(ctx); err != nil {
		logging.Debug("command execution failed", "error", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
