// Package metrics exposes poll progress as Prometheus collectors.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"composewait/internal/readiness"
)

const namespace = "composewait"

// Collector records attempts and container verdicts. It implements readiness.Observer.
type Collector struct {
	registry *prometheus.Registry

	attemptsTotal   *prometheus.CounterVec
	attemptDuration prometheus.Histogram
	containers      *prometheus.GaugeVec
	maxRetries      prometheus.Gauge
	currentAttempt  prometheus.Gauge
	healthy         prometheus.Gauge
	runsTotal       *prometheus.CounterVec

	mu       sync.Mutex
	verdicts map[readiness.Verdict]struct{}
}

// NewCollector registers all collectors on a fresh registry
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		attemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attempts_total",
				Help:      "Total readiness attempts by result",
			},
			[]string{"result"}, // "healthy", "unhealthy", "error"
		),
		attemptDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "attempt_duration_seconds",
				Help:      "Duration of a single readiness attempt in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		containers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "containers",
				Help:      "Containers evaluated in the latest attempt by verdict",
			},
			[]string{"verdict"},
		),
		maxRetries: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "max_retries",
				Help:      "Configured maximum number of attempts",
			},
		),
		currentAttempt: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "current_attempt",
				Help:      "Number of the attempt in progress or last finished",
			},
		),
		healthy: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "healthy",
				Help:      "1 if the latest attempt found every service ready",
			},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Finished poll runs by outcome",
			},
			[]string{"outcome"},
		),
		verdicts: make(map[readiness.Verdict]struct{}),
	}
}

// Registry returns the registry holding the collectors
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) RunStarted(opts readiness.Options) {
	c.maxRetries.Set(float64(opts.MaxRetries))
	c.currentAttempt.Set(0)
	c.healthy.Set(0)
}

func (c *Collector) AttemptStarted(attempt, _ int) {
	c.currentAttempt.Set(float64(attempt))
}

func (c *Collector) AttemptFinished(report *readiness.AttemptReport) {
	if report == nil {
		return
	}

	switch {
	case report.Error != "":
		c.attemptsTotal.WithLabelValues("error").Inc()
	case report.Healthy:
		c.attemptsTotal.WithLabelValues("healthy").Inc()
	default:
		c.attemptsTotal.WithLabelValues("unhealthy").Inc()
	}

	if !report.FinishedAt.IsZero() && !report.StartedAt.IsZero() {
		c.attemptDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	}

	if report.Healthy {
		c.healthy.Set(1)
	} else {
		c.healthy.Set(0)
	}

	counts := report.Counts()

	c.mu.Lock()
	defer c.mu.Unlock()
	// Reset verdicts seen earlier so a verdict that disappears drops to zero.
	for v := range c.verdicts {
		c.containers.WithLabelValues(string(v)).Set(0)
	}
	for v, n := range counts {
		c.verdicts[v] = struct{}{}
		c.containers.WithLabelValues(string(v)).Set(float64(n))
	}
}

func (c *Collector) RunFinished(outcome readiness.Outcome, _ int) {
	c.runsTotal.WithLabelValues(string(outcome)).Inc()
}

var _ readiness.Observer = (*Collector)(nil)
