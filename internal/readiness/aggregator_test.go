package readiness

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"composewait/internal/container"
	cwerrors "composewait/internal/errors"
	"composewait/internal/logger"
)

func newTestAggregator(source ServiceSource, q *fakeQuerier, opts Options) (*Aggregator, *fakeLogs) {
	reporter, hook := newTestReporter()
	return NewAggregator(source, NewInspector(q, reporter, opts), reporter, opts), &fakeLogs{hook: hook, reporter: reporter}
}

func TestAggregatorAllHealthy(t *testing.T) {
	q := newFakeQuerier().
		add("web", "w1", "running", "healthy").
		add("db", "d1", "running", "N/A")
	agg, logs := newTestAggregator(&fakeSource{names: []string{"web", "db"}}, q, defaultOptions())

	report, err := agg.Attempt(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, report.Healthy)
	require.Len(t, report.Services, 2)
	assert.Equal(t, "web", report.Services[0].Name)
	assert.Equal(t, "db", report.Services[1].Name)
	assert.Equal(t, 2, report.Counts()[VerdictReady])
	assert.Contains(t, logs.info(), "Checking 2 container(s): web, db")
	assert.False(t, logs.reporter.Failed())
}

func TestAggregatorEmptyManifest(t *testing.T) {
	q := newFakeQuerier()
	agg, logs := newTestAggregator(&fakeSource{names: nil}, q, defaultOptions())

	healthy, err := agg.CheckAllServices(context.Background())
	require.NoError(t, err)
	assert.False(t, healthy)
	assert.Zero(t, q.calls())
	assert.Equal(t, []string{"No services found"}, logs.errors())

	report, err := agg.Attempt(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, cwerrors.KindConfig, report.ErrorKind)
}

func TestAggregatorMissingContainers(t *testing.T) {
	t.Run("skip exited", func(t *testing.T) {
		q := newFakeQuerier().add("web", "w1", "running", "healthy")
		opts := defaultOptions()
		opts.SkipExited = true
		agg, logs := newTestAggregator(&fakeSource{names: []string{"web", "worker"}}, q, opts)

		healthy, err := agg.CheckAllServices(context.Background())
		require.NoError(t, err)
		assert.True(t, healthy)
		assert.Empty(t, logs.warnings())
	})

	t.Run("no skip", func(t *testing.T) {
		q := newFakeQuerier().add("web", "w1", "running", "healthy")
		agg, logs := newTestAggregator(&fakeSource{names: []string{"web", "worker"}}, q, defaultOptions())

		report, err := agg.Attempt(context.Background(), 1)
		require.NoError(t, err)
		assert.False(t, report.Healthy)
		assert.True(t, report.Services[1].Missing)
		assert.False(t, report.Services[1].Ready())
		assert.Contains(t, logs.warnings(), "No running container found for service: worker")
	})
}

func TestAggregatorNoHealthcheckNeitherMasksNorCauses(t *testing.T) {
	t.Run("does not cause failure", func(t *testing.T) {
		q := newFakeQuerier().
			add("web", "w1", "running", "healthy").
			add("cache", "c1", "running", "N/A")
		opts := defaultOptions()
		opts.SkipNoHealthcheck = true
		agg, _ := newTestAggregator(&fakeSource{names: []string{"web", "cache"}}, q, opts)

		report, err := agg.Attempt(context.Background(), 1)
		require.NoError(t, err)
		assert.True(t, report.Healthy)
		assert.Equal(t, 1, report.Counts()[VerdictSkipped])
	})

	t.Run("does not mask failure", func(t *testing.T) {
		q := newFakeQuerier().
			add("web", "w1", "running", "unhealthy").
			add("cache", "c1", "running", "N/A")
		opts := defaultOptions()
		opts.SkipNoHealthcheck = true
		agg, _ := newTestAggregator(&fakeSource{names: []string{"web", "cache"}}, q, opts)

		healthy, err := agg.CheckAllServices(context.Background())
		require.NoError(t, err)
		assert.False(t, healthy)
	})

	t.Run("running without healthcheck is ready", func(t *testing.T) {
		q := newFakeQuerier().add("cache", "c1", "running", "N/A")
		agg, _ := newTestAggregator(&fakeSource{names: []string{"cache"}}, q, defaultOptions())

		healthy, err := agg.CheckAllServices(context.Background())
		require.NoError(t, err)
		assert.True(t, healthy)
	})
}

func TestAggregatorEvaluatesEveryContainer(t *testing.T) {
	q := newFakeQuerier().
		add("web", "w1", "running", "unhealthy").
		add("web", "w2", "running", "healthy").
		add("db", "d1", "running", "healthy")
	agg, _ := newTestAggregator(&fakeSource{names: []string{"web", "db"}}, q, defaultOptions())

	report, err := agg.Attempt(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, report.Healthy)
	assert.Equal(t, 3, q.healthCalls)
	assert.Len(t, report.Services[0].Containers, 2)
}

func TestAggregatorDeduplicatesContainers(t *testing.T) {
	q := newFakeQuerier().
		add("api", "a1", "running", "healthy").
		add("api-worker", "a1", "running", "healthy")
	agg, _ := newTestAggregator(&fakeSource{names: []string{"api", "api-worker"}}, q, defaultOptions())

	report, err := agg.Attempt(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, report.Healthy)
	assert.Equal(t, 1, q.healthCalls)
}

func TestAggregatorQueryErrorFailsAttempt(t *testing.T) {
	q := newFakeQuerier().add("web", "w1", "running", "healthy")
	q.listErr = cwerrors.Query("list containers", errors.New("connection refused"))
	agg, logs := newTestAggregator(&fakeSource{names: []string{"web"}}, q, defaultOptions())

	report, err := agg.Attempt(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, report.Healthy)
	assert.Equal(t, cwerrors.KindQuery, report.ErrorKind)
	assert.Equal(t, []string{"Error during services check: list containers: connection refused"}, logs.errors())
	assert.False(t, logs.reporter.Failed())
}

func TestAggregatorPermanentQueryErrorIsWarned(t *testing.T) {
	tests := []struct {
		name    string
		errType container.ErrorType
		warned  bool
	}{
		{"permission denied", container.ErrorTypePermissionDenied, true},
		{"network", container.ErrorTypeNetworkError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			global := test.NewLocal(logger.Logger)
			defer global.Reset()

			q := newFakeQuerier().add("web", "w1", "running", "healthy")
			q.listErr = cwerrors.Query("list containers", &container.ContainerError{
				Type:      tt.errType,
				Operation: "ps",
				Message:   "docker ps failed",
			})
			agg, _ := newTestAggregator(&fakeSource{names: []string{"web"}}, q, defaultOptions())

			report, err := agg.Attempt(context.Background(), 1)
			require.NoError(t, err)
			assert.False(t, report.Healthy)

			var warnings []*logrus.Entry
			for _, e := range global.AllEntries() {
				if e.Level == logrus.WarnLevel {
					warnings = append(warnings, e)
				}
			}
			if !tt.warned {
				assert.Empty(t, warnings)
				return
			}
			require.Len(t, warnings, 1)
			assert.Equal(t, "Container query failed", warnings[0].Message)
			assert.Equal(t, string(tt.errType), warnings[0].Data["error_type"])
			assert.Equal(t, "attempt 1", warnings[0].Data["operation"])
		})
	}
}

func TestAggregatorLoadErrorPropagates(t *testing.T) {
	q := newFakeQuerier()
	loadErr := cwerrors.Load("missing.yml", errors.New("no such file"))
	agg, _ := newTestAggregator(&fakeSource{err: loadErr}, q, defaultOptions())

	healthy, err := agg.CheckAllServices(context.Background())
	assert.False(t, healthy)
	require.Error(t, err)
	assert.True(t, cwerrors.IsLoad(err))
	assert.Zero(t, q.calls())
}

func TestAggregatorIsIdempotent(t *testing.T) {
	q := newFakeQuerier().
		add("web", "w1", "running", "healthy").
		add("db", "d1", "exited", "N/A")
	agg, _ := newTestAggregator(&fakeSource{names: []string{"web", "db"}}, q, defaultOptions())

	first, err := agg.Attempt(context.Background(), 1)
	require.NoError(t, err)
	second, err := agg.Attempt(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, first.Healthy, second.Healthy)
	assert.Equal(t, first.Services, second.Services)
}

type fakeLogs struct {
	hook     *test.Hook
	reporter *logger.LogrusReporter
}

func (l *fakeLogs) info() []string     { return messages(l.hook, logrus.InfoLevel) }
func (l *fakeLogs) warnings() []string { return messages(l.hook, logrus.WarnLevel) }
func (l *fakeLogs) errors() []string   { return messages(l.hook, logrus.ErrorLevel) }
