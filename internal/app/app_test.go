package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"composewait/internal/cli/commands"
	"composewait/internal/container"
	"composewait/internal/logger"
	"composewait/internal/testutil"
)

type dockerPresent struct{}

func (dockerPresent) Run(context.Context, string, ...string) (string, error) {
	return "/usr/bin/docker", nil
}

type querierFactory struct {
	querier container.Querier
	err     error
}

func (f querierFactory) CreateForType(context.Context, container.RuntimeType, container.QueryOptions) (container.Querier, error) {
	return f.querier, f.err
}

func newTestApp(t *testing.T, factory querierFactory) (*App, *bytes.Buffer, string) {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))

	log, _ := test.NewNullLogger()
	stderr := &bytes.Buffer{}
	a := NewWithDependencies(commands.Dependencies{
		Runner:   dockerPresent{},
		Queriers: factory,
		Sleeper:  noSleep{},
		Out:      &bytes.Buffer{},
	}, logger.NewReporter(log), stderr)
	return a, stderr, dir
}

type noSleep struct{}

func (noSleep) Sleep(context.Context, time.Duration) error { return nil }

func writeCompose(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "docker-compose.yml")
	require.NoError(t, os.WriteFile(path, []byte("services:\n  web:\n    image: nginx\n"), 0644))
	return path
}

func TestRunWithContext_Healthy(t *testing.T) {
	q := testutil.NewMockQuerier().AddContainer("web", "w1", "running", "healthy")
	a, stderr, dir := newTestApp(t, querierFactory{querier: q})

	code := a.Run([]string{"-f", writeCompose(t, dir), "--env-file", filepath.Join(dir, "none.env")})

	assert.Equal(t, 0, code)
	assert.Empty(t, stderr.String())
	assert.False(t, a.Reporter.Failed())
}

func TestRunWithContext_ReportedFailuresAreNotPrintedTwice(t *testing.T) {
	tests := []struct {
		name    string
		factory querierFactory
		compose bool
	}{
		{"manifest load error", querierFactory{querier: testutil.NewMockQuerier()}, false},
		{"runtime connection error", querierFactory{err: errors.New("Cannot connect to the Docker daemon")}, true},
		{"timeout", querierFactory{querier: testutil.NewMockQuerier().AddContainer("web", "w1", "running", "starting")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, stderr, dir := newTestApp(t, tt.factory)
			composeFile := filepath.Join(dir, "missing.yml")
			if tt.compose {
				composeFile = writeCompose(t, dir)
			}

			code := a.Run([]string{"check", "-f", composeFile, "--max-retries", "2", "--env-file", filepath.Join(dir, "none.env")})

			assert.Equal(t, 1, code)
			assert.True(t, a.Reporter.Failed())
			assert.Empty(t, stderr.String())
		})
	}
}

func TestRunWithContext_PrintsUnreportedErrors(t *testing.T) {
	a, stderr, dir := newTestApp(t, querierFactory{querier: testutil.NewMockQuerier()})

	code := a.Run([]string{"check", "--max-retries", "0", "--env-file", filepath.Join(dir, "none.env")})

	assert.Equal(t, 2, code)
	assert.False(t, a.Reporter.Failed())
	assert.Contains(t, stderr.String(), "Error: max_retries must be at least 1, got 0")
	assert.Contains(t, stderr.String(), "Tip: Run 'composewait config'")
}
