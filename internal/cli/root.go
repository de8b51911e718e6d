package cli

import (
	"github.com/spf13/cobra"

	"composewait/internal/config"
)

// flagValues holds the raw values of the persistent flags
type flagValues struct {
	configFile string
	envFiles   []string

	maxRetries        int
	retryInterval     int
	composeFile       string
	skipExited        bool
	skipNoHealthcheck bool
	skipInstall       bool

	backend string
	match   string
	project string

	logLevel  string
	logFormat string

	recordHistory bool
	historyDB     string
	statusAddr    string
}

// createRootCommand creates the root command with global flags
func createRootCommand(flags *flagValues) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "composewait",
		Short: "Wait for docker compose services to become healthy",
		Long: `composewait blocks a CI job until every service declared in a compose file
has running, healthy containers. It installs Docker when it is missing, then
polls the container runtime at a fixed interval for a bounded number of
attempts. Without a subcommand it runs check.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	def := config.Default()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "TOML config file (default $XDG_CONFIG_HOME/composewait/config.toml)")
	pf.StringSliceVar(&flags.envFiles, "env-file", []string{".env"}, "Dotenv files to load before reading the environment")

	pf.IntVar(&flags.maxRetries, "max-retries", def.MaxRetries, "Maximum number of readiness attempts")
	pf.IntVar(&flags.retryInterval, "retry-interval", def.RetryInterval, "Seconds to wait between attempts")
	pf.StringVarP(&flags.composeFile, "compose-file", "f", def.ComposeFile, "Compose file declaring the services")
	pf.BoolVar(&flags.skipExited, "skip-exited", false, "Skip exited containers and services without a container")
	pf.BoolVar(&flags.skipNoHealthcheck, "skip-no-healthcheck", false, "Treat containers without a healthcheck as ready")
	pf.BoolVar(&flags.skipInstall, "skip-install", false, "Do not install Docker when it is missing")

	pf.StringVar(&flags.backend, "backend", def.Backend, "Container runtime backend (cli, engine)")
	pf.StringVar(&flags.match, "match", def.Match, "How containers are matched to services (name, label)")
	pf.StringVar(&flags.project, "project", "", "Compose project name used with --match=label")

	pf.StringVar(&flags.logLevel, "log-level", def.LogLevel, "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.logFormat, "log-format", def.LogFormat, "Log format (auto, text, json, actions)")

	pf.BoolVar(&flags.recordHistory, "record-history", false, "Record runs and attempts in the history database")
	pf.StringVar(&flags.historyDB, "history-db", "", "History database path (default $XDG_STATE_HOME/composewait/history.db)")
	pf.StringVar(&flags.statusAddr, "status-addr", "", "Serve run status, metrics and events on this address while polling")

	return rootCmd
}

// applyFlags overrides cfg with every flag the user set explicitly
func applyFlags(cmd *cobra.Command, flags *flagValues, cfg *config.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("max-retries") {
		cfg.MaxRetries = flags.maxRetries
	}
	if changed("retry-interval") {
		cfg.RetryInterval = flags.retryInterval
	}
	if changed("compose-file") {
		cfg.ComposeFile = flags.composeFile
	}
	if changed("skip-exited") {
		cfg.SkipExited = flags.skipExited
	}
	if changed("skip-no-healthcheck") {
		cfg.SkipNoHealthcheck = flags.skipNoHealthcheck
	}
	if changed("skip-install") {
		cfg.SkipInstall = flags.skipInstall
	}
	if changed("backend") {
		cfg.Backend = flags.backend
	}
	if changed("match") {
		cfg.Match = flags.match
	}
	if changed("project") {
		cfg.Project = flags.project
	}
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = flags.logFormat
	}
	if changed("record-history") {
		cfg.RecordHistory = flags.recordHistory
	}
	if changed("history-db") {
		cfg.HistoryDB = flags.historyDB
	}
	if changed("status-addr") {
		cfg.StatusAddr = flags.statusAddr
	}
}
