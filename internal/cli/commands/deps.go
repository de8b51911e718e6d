// Package commands implements the composewait subcommands.
package commands

import (
	"context"
	"io"
	"os"

	"composewait/internal/config"
	"composewait/internal/container"
	"composewait/internal/logger"
	"composewait/internal/readiness"
)

// QuerierFactory creates the runtime querier for a backend
type QuerierFactory interface {
	CreateForType(ctx context.Context, runtimeType container.RuntimeType, opts container.QueryOptions) (container.Querier, error)
}

// Dependencies are shared by every command
type Dependencies struct {
	// Config returns the resolved configuration. It is valid once flags are parsed.
	Config   func() *config.Config
	Runner   container.Runner
	Queriers QuerierFactory
	// Reporter overrides the per-run reporter.
	Reporter logger.Reporter
	// Sleeper overrides how the poller waits between attempts.
	Sleeper readiness.Sleeper
	Out     io.Writer
}

func (d *Dependencies) out() io.Writer {
	if d.Out != nil {
		return d.Out
	}
	return os.Stdout
}

func (d *Dependencies) reporter() logger.Reporter {
	if d.Reporter != nil {
		return d.Reporter
	}
	return logger.NewReporter(nil)
}

func (d *Dependencies) runner() container.Runner {
	if d.Runner != nil {
		return d.Runner
	}
	return container.NewExecRunner(nil)
}

func (d *Dependencies) queriers() QuerierFactory {
	if d.Queriers != nil {
		return d.Queriers
	}
	return container.NewRuntimeFactory(d.runner())
}
