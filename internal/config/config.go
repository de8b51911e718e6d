// Package config resolves composewait settings from defaults, an optional
// TOML file, the environment and command-line flags, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"composewait/internal/container"
	cwerrors "composewait/internal/errors"
	"composewait/internal/readiness"
	"composewait/internal/xdg"
)

const (
	DefaultMaxRetries    = 30
	DefaultRetryInterval = 10
	DefaultComposeFile   = "docker-compose.yml"
)

// Config holds every setting of a composewait run
type Config struct {
	MaxRetries        int    `toml:"max_retries"`
	RetryInterval     int    `toml:"retry_interval"` // seconds
	ComposeFile       string `toml:"compose_file"`
	SkipExited        bool   `toml:"skip_exited"`
	SkipNoHealthcheck bool   `toml:"skip_no_healthcheck"`
	SkipInstall       bool   `toml:"skip_install"`

	Backend string `toml:"backend"` // "cli" or "engine"
	Match   string `toml:"match"`   // "name" or "label"
	Project string `toml:"project"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	RecordHistory bool   `toml:"record_history"`
	HistoryDB     string `toml:"history_db"`
	StatusAddr    string `toml:"status_addr"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		MaxRetries:    DefaultMaxRetries,
		RetryInterval: DefaultRetryInterval,
		ComposeFile:   DefaultComposeFile,
		Backend:       string(container.RuntimeTypeCLI),
		Match:         string(container.MatchName),
		LogLevel:      "info",
		LogFormat:     "auto",
	}
}

// LoadOptions controls where Load looks for settings
type LoadOptions struct {
	// ConfigFile is an explicit TOML file. When empty the XDG config file is
	// used if it exists.
	ConfigFile string
	// EnvFiles are dotenv files loaded before reading the environment.
	EnvFiles []string
}

// Load resolves defaults, the TOML file and the environment
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	path, explicit := opts.ConfigFile, opts.ConfigFile != ""
	if !explicit {
		if p, err := xdg.ConfigFile(); err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.mergeFile(path, explicit); err != nil {
			return nil, err
		}
	}

	LoadEnvFiles(opts.EnvFiles...)
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) mergeFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return cwerrors.Wrap(cwerrors.KindConfig, "failed to read config file", err).WithContext("path", path)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cwerrors.Config("unknown keys in %s:\n%s", path, strict.String())
		}
		return cwerrors.Wrap(cwerrors.KindConfig, "failed to parse config file "+path, err)
	}
	return nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.MaxRetries < 1 {
		return cwerrors.Config("max_retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.RetryInterval < 0 {
		return cwerrors.Config("retry_interval must not be negative, got %d", c.RetryInterval)
	}
	if strings.TrimSpace(c.ComposeFile) == "" {
		return cwerrors.Config("compose_file is required")
	}

	switch container.RuntimeType(c.Backend) {
	case container.RuntimeTypeCLI, container.RuntimeTypeEngine:
	default:
		return cwerrors.Config("unknown backend %q (want cli or engine)", c.Backend)
	}

	switch container.MatchMode(c.Match) {
	case container.MatchName, container.MatchLabel:
	default:
		return cwerrors.Config("unknown match mode %q (want name or label)", c.Match)
	}

	switch c.LogFormat {
	case "auto", "text", "json", "actions":
	default:
		return cwerrors.Config("unknown log_format %q", c.LogFormat)
	}

	return nil
}

// PollConfig returns the options the poller runs with
func (c *Config) PollConfig() readiness.Options {
	return readiness.Options{
		MaxRetries:        c.MaxRetries,
		RetryInterval:     time.Duration(c.RetryInterval) * time.Second,
		SkipExited:        c.SkipExited,
		SkipNoHealthcheck: c.SkipNoHealthcheck,
		ComposeFile:       c.ComposeFile,
	}
}

// QueryOptions returns the container discovery options
func (c *Config) QueryOptions() container.QueryOptions {
	return container.QueryOptions{
		Match:   container.MatchMode(c.Match),
		Project: c.Project,
	}
}

// RuntimeType returns the configured query backend
func (c *Config) RuntimeType() container.RuntimeType {
	return container.RuntimeType(c.Backend)
}

// HistoryPath returns the run history database path
func (c *Config) HistoryPath() (string, error) {
	if c.HistoryDB != "" {
		return expandHome(c.HistoryDB)
	}
	return xdg.HistoryDB()
}

// Marshal renders the configuration as TOML
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// Save writes the configuration to path
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// expandHome expands a leading ~/ in path
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, path[2:]), nil
}
