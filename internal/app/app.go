// Package app assembles the composewait application.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"composewait/internal/cli"
	"composewait/internal/cli/commands"
	"composewait/internal/container"
	"composewait/internal/logger"
)

// App represents the main application
type App struct {
	CLI      *cli.Manager
	Reporter *logger.LogrusReporter
	Stderr   io.Writer
}

// New creates the application with the real runtime dependencies
func New() *App {
	runner := container.NewExecRunner(nil)
	return NewWithDependencies(commands.Dependencies{
		Runner:   runner,
		Queriers: container.NewRuntimeFactory(runner),
		Out:      os.Stdout,
	}, logger.NewReporter(nil), os.Stderr)
}

// NewWithDependencies creates the application around deps. Every command
// reports through reporter.
func NewWithDependencies(deps commands.Dependencies, reporter *logger.LogrusReporter, stderr io.Writer) *App {
	deps.Reporter = reporter
	return &App{
		CLI:      cli.New(deps),
		Reporter: reporter,
		Stderr:   stderr,
	}
}

// Run starts the application
func (a *App) Run(args []string) int {
	return a.RunWithContext(context.Background(), args)
}

// RunWithContext runs the CLI and returns the process exit code. Failures
// already reported through the reporter are not printed again.
func (a *App) RunWithContext(ctx context.Context, args []string) int {
	err := a.CLI.ExecuteWithContext(ctx, args)
	if err == nil {
		return 0
	}

	if !a.Reporter.Failed() {
		fmt.Fprintf(a.Stderr, "Error: %v\n", commands.HandleError(err))
	}
	return commands.ExitCode(err)
}
