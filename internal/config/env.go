package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	cwerrors "composewait/internal/errors"
	"composewait/internal/logger"
)

// Environment prefixes, lowest precedence first. INPUT_ is how workflow
// runners pass action inputs.
var envPrefixes = []string{"INPUT_", "COMPOSEWAIT_"}

// LoadEnvFiles loads dotenv files that exist. Variables already set in the
// process environment are kept.
func LoadEnvFiles(files ...string) {
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			logger.WithError(err).Warnf("Failed to load %s", file)
			continue
		}
		loaded = append(loaded, file)
	}
	if len(loaded) > 0 {
		logger.Debugf("Loaded env files: %s", strings.Join(loaded, ", "))
	}
}

// LookupFunc reads one environment variable
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides settings from the environment. Empty values are ignored.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookupEnv(lookup, name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookupEnv(lookup, name); ok {
			*dst = ParseBool(v)
		}
	}
	integer := func(name string, dst *int) error {
		v, ok := lookupEnv(lookup, name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return cwerrors.Config("invalid %s %q: must be an integer", name, v)
		}
		*dst = n
		return nil
	}

	if err := integer("MAX_RETRIES", &c.MaxRetries); err != nil {
		return err
	}
	if err := integer("RETRY_INTERVAL", &c.RetryInterval); err != nil {
		return err
	}
	str("COMPOSE_FILE", &c.ComposeFile)
	boolean("SKIP_EXITED", &c.SkipExited)
	boolean("SKIP_NO_HEALTHCHECK", &c.SkipNoHealthcheck)
	boolean("SKIP_INSTALL", &c.SkipInstall)
	str("BACKEND", &c.Backend)
	str("MATCH", &c.Match)
	str("PROJECT", &c.Project)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	boolean("RECORD_HISTORY", &c.RecordHistory)
	str("HISTORY_DB", &c.HistoryDB)
	str("STATUS_ADDR", &c.StatusAddr)

	return nil
}

// lookupEnv returns the highest precedence non-empty value for name
func lookupEnv(lookup LookupFunc, name string) (string, bool) {
	value, found := "", false
	for _, prefix := range envPrefixes {
		if v, ok := lookup(prefix + name); ok && strings.TrimSpace(v) != "" {
			value, found = strings.TrimSpace(v), true
		}
	}
	return value, found
}

// ParseBool treats only a case-insensitive "true" as true
func ParseBool(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "true")
}
