package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"composewait/internal/readiness"
)

func report(attempt int, healthy bool, verdicts ...readiness.Verdict) *readiness.AttemptReport {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := readiness.ServiceReport{Name: "web"}
	for _, v := range verdicts {
		svc.Containers = append(svc.Containers, readiness.ContainerReport{ID: "c", Verdict: v})
	}
	return &readiness.AttemptReport{
		Attempt:    attempt,
		Healthy:    healthy,
		Services:   []readiness.ServiceReport{svc},
		StartedAt:  start,
		FinishedAt: start.Add(250 * time.Millisecond),
	}
}

func TestCollectorRecordsAttempts(t *testing.T) {
	c := NewCollector()
	c.RunStarted(readiness.Options{MaxRetries: 5})
	assert.Equal(t, 5.0, testutil.ToFloat64(c.maxRetries))

	c.AttemptStarted(1, 5)
	c.AttemptFinished(report(1, false, readiness.VerdictNotReady, readiness.VerdictReady))
	c.AttemptStarted(2, 5)
	c.AttemptFinished(&readiness.AttemptReport{Attempt: 2, Error: "boom"})
	c.AttemptStarted(3, 5)
	c.AttemptFinished(report(3, true, readiness.VerdictReady, readiness.VerdictReady))
	c.RunFinished(readiness.OutcomeHealthy, 3)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.currentAttempt))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.healthy))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.attemptsTotal.WithLabelValues("unhealthy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.attemptsTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.attemptsTotal.WithLabelValues("healthy")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.containers.WithLabelValues("ready")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.containers.WithLabelValues("not-ready")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("healthy")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.attemptDuration))
}

func TestCollectorRunOutcomes(t *testing.T) {
	c := NewCollector()
	c.RunFinished(readiness.OutcomeTimeout, 3)
	c.RunFinished(readiness.OutcomeError, 1)
	c.RunFinished(readiness.OutcomeInterrupted, 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("interrupted")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("healthy")))
}

func TestCollectorHandler(t *testing.T) {
	c := NewCollector()
	c.RunStarted(readiness.Options{MaxRetries: 2})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "composewait_max_retries 2")
}
