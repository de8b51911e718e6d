// Package cli wires the composewait commands together.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"composewait/internal/cli/commands"
	"composewait/internal/config"
	"composewait/internal/logger"
)

// Manager handles CLI operations
type Manager struct {
	deps    *commands.Dependencies
	flags   *flagValues
	config  *config.Config
	rootCmd *cobra.Command
}

// New creates a new CLI manager. Zero fields of deps are filled with the
// real implementations when a command runs.
func New(deps commands.Dependencies) *Manager {
	m := &Manager{
		flags: &flagValues{},
	}
	deps.Config = m.Config
	m.deps = &deps

	m.rootCmd = createRootCommand(m.flags)
	m.rootCmd.PersistentPreRunE = m.loadConfig
	m.rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return commands.RunCheck(cmd.Context(), m.deps)
	}
	m.setupCommands()

	return m
}

// Config returns the configuration resolved for the current invocation
func (m *Manager) Config() *config.Config {
	if m.config == nil {
		return config.Default()
	}
	return m.config
}

// RootCommand returns the root cobra command
func (m *Manager) RootCommand() *cobra.Command {
	return m.rootCmd
}

// Execute executes the CLI with the given arguments
func (m *Manager) Execute(args []string) error {
	return m.ExecuteWithContext(context.Background(), args)
}

// ExecuteWithContext executes the CLI with the given arguments and context
func (m *Manager) ExecuteWithContext(ctx context.Context, args []string) error {
	m.rootCmd.SetArgs(args)
	return m.rootCmd.ExecuteContext(ctx)
}

func (m *Manager) loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: m.flags.configFile,
		EnvFiles:   m.flags.envFiles,
	})
	if err != nil {
		return err
	}
	applyFlags(cmd, m.flags, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.SetLevel(cfg.LogLevel)
	logger.SetFormat(cfg.LogFormat)
	logger.WithFields(logger.Fields{
		"command":      cmd.Name(),
		"compose_file": cfg.ComposeFile,
		"backend":      cfg.Backend,
	}).Debug("Configuration resolved")

	m.config = cfg
	return nil
}

// setupCommands sets up all CLI commands
func (m *Manager) setupCommands() {
	m.rootCmd.AddCommand(
		commands.CheckCommand(m.deps),
		commands.InstallCommand(m.deps),
		commands.ServicesCommand(m.deps),
		commands.HistoryCommand(m.deps),
		commands.ConfigCommand(m.deps),
	)
}
