package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"composewait/internal/compose"
	"composewait/internal/config"
	"composewait/internal/container"
	"composewait/internal/db"
	"composewait/internal/logger"
	"composewait/internal/metrics"
	"composewait/internal/readiness"
	"composewait/internal/server"
)

// ErrUnhealthy is returned when services did not become ready in time.
// The failure has already been reported when it is returned.
var ErrUnhealthy = errors.New("services did not become healthy within the time limit")

// CheckCommand creates the check command
func CheckCommand(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Wait until every compose service is running and healthy",
		Long: `Ensure Docker is installed, then poll every service declared in the compose
file until all of its containers are running and healthy, or until the retry
budget is exhausted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunCheck(cmd.Context(), deps)
		},
	}
}

// RunCheck runs one complete readiness check
func RunCheck(ctx context.Context, deps *Dependencies) error {
	cfg := deps.Config()
	reporter := deps.reporter()

	printSettings(reporter, cfg)

	if !cfg.SkipInstall {
		if err := container.NewInstaller(deps.runner(), reporter).EnsureInstalled(ctx); err != nil {
			return err
		}
	}

	querier, err := deps.queriers().CreateForType(ctx, cfg.RuntimeType(), cfg.QueryOptions())
	if err != nil {
		reporter.SetFailed("Failed to connect to the container runtime", err)
		return err
	}

	collector := metrics.NewCollector()
	hub := server.NewHub()
	observers := readiness.Observers{collector, hub}

	var runs db.RunManager
	if cfg.RecordHistory {
		database, err := openHistory(cfg)
		if err != nil {
			logger.WithError(err).Warn("Run history disabled")
		} else {
			defer database.Close()
			repo := db.NewRunRepository(database)
			recorder := db.NewRecorder(ctx, repo)
			runs = repo
			ctx = logger.ContextWithRunID(ctx, recorder.RunID())
			observers = append(observers, recorder)
		}
	}

	if cfg.StatusAddr != "" {
		stop := startStatusServer(ctx, cfg.StatusAddr, hub, collector, runs)
		defer stop()
	}

	pollerOpts := []readiness.PollerOption{readiness.WithObserver(observers)}
	if deps.Sleeper != nil {
		pollerOpts = append(pollerOpts, readiness.WithSleeper(deps.Sleeper))
	}

	logger.WithContext(ctx).WithField("compose_file", cfg.ComposeFile).Debug("Starting readiness poll")

	poller := readiness.NewPoller(compose.NewSource(cfg.ComposeFile), querier, reporter, cfg.PollConfig(), pollerOpts...)
	healthy, err := poller.Poll(ctx)
	if err != nil {
		reporter.SetFailed("Unexpected error while checking services", err)
		return err
	}

	if !healthy {
		reporter.SetFailed("Services did not become healthy within the time limit.", nil)
		return ErrUnhealthy
	}

	reporter.Info("All services are healthy.", nil)
	return nil
}

func printSettings(reporter logger.Reporter, cfg *config.Config) {
	reporter.Info("Settings:", nil)
	reporter.Info(fmt.Sprintf("  Max Retries: %d", cfg.MaxRetries), nil)
	reporter.Info(fmt.Sprintf("  Retry Interval: %d seconds", cfg.RetryInterval), nil)
	reporter.Info(fmt.Sprintf("  Compose File: %s", cfg.ComposeFile), nil)
	reporter.Info(fmt.Sprintf("  Skip Exited: %t", cfg.SkipExited), nil)
	reporter.Info(fmt.Sprintf("  Skip No Healthcheck: %t", cfg.SkipNoHealthcheck), nil)
	reporter.Info("-----------------------", nil)
}

// startStatusServer serves run progress in the background. The returned
// func stops the server and waits for it to exit.
func startStatusServer(ctx context.Context, addr string, hub *server.Hub, collector *metrics.Collector, runs db.RunManager) func() {
	srvCfg := server.DefaultConfig()
	srvCfg.Addr = addr

	opts := []server.Option{server.WithMetrics(collector.Handler())}
	if runs != nil {
		opts = append(opts, server.WithHistory(runs))
	}

	srvCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- server.New(srvCfg, hub, opts...).Start(srvCtx)
	}()

	return func() {
		cancel()
		if err := <-done; err != nil {
			logger.WithError(err).Warn("Status server stopped with error")
		}
	}
}

func openHistory(cfg *config.Config) (*db.DB, error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	return db.Open(path)
}
