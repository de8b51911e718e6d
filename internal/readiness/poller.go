package readiness

import (
	"context"
	"fmt"
	"time"

	"composewait/internal/container"
	"composewait/internal/logger"
)

// Sleeper waits between attempts
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f(ctx, d)
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// TimerSleeper sleeps on a timer and returns early if ctx is cancelled
type TimerSleeper struct{}

// Sleep waits for d or until ctx is done
func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Poller drives the bounded retry loop
type Poller struct {
	aggregator *Aggregator
	reporter   logger.Reporter
	opts       Options
	sleeper    Sleeper
	observer   Observer
}

// PollerOption configures a Poller
type PollerOption func(*Poller)

// WithSleeper overrides how the poller waits between attempts
func WithSleeper(s Sleeper) PollerOption {
	return func(p *Poller) { p.sleeper = s }
}

// WithObserver attaches an observer to the poll run
func WithObserver(o Observer) PollerOption {
	return func(p *Poller) { p.observer = o }
}

// WithClock overrides the clock used for report timestamps
func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) { p.aggregator.now = now }
}

// NewPoller wires the inspector, aggregator and scheduler for one run
func NewPoller(source ServiceSource, querier container.Querier, reporter logger.Reporter, opts Options, options ...PollerOption) *Poller {
	inspector := NewInspector(querier, reporter, opts)
	p := &Poller{
		aggregator: NewAggregator(source, inspector, reporter, opts),
		reporter:   reporter,
		opts:       opts,
		sleeper:    TimerSleeper{},
		observer:   NopObserver{},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Aggregator returns the poller's aggregator for single-attempt checks
func (p *Poller) Aggregator() *Aggregator {
	return p.aggregator
}

// Poll runs attempts until every service is ready or MaxRetries is exhausted.
// Per-attempt failures never abort the loop. The error is non-nil only for a
// fatal manifest load failure, invalid options or cancellation.
func (p *Poller) Poll(ctx context.Context) (bool, error) {
	if err := p.opts.Validate(); err != nil {
		return false, err
	}

	p.observer.RunStarted(p.opts)

	for i := 1; i <= p.opts.MaxRetries; i++ {
		p.reporter.Info("-----------------------", nil)
		p.reporter.Info(fmt.Sprintf("Attempt %d of %d", i, p.opts.MaxRetries), logger.Fields{"attempt": i})
		p.observer.AttemptStarted(i, p.opts.MaxRetries)

		report, err := p.aggregator.Attempt(ctx, i)
		p.observer.AttemptFinished(report)
		if err != nil {
			p.observer.RunFinished(OutcomeError, i)
			return false, err
		}

		if report.Healthy {
			p.observer.RunFinished(OutcomeHealthy, i)
			return true, nil
		}

		if i < p.opts.MaxRetries {
			p.reporter.Info(fmt.Sprintf(
				"Attempt %d completed, %d left. Waiting %s for containers to become healthy.",
				i, p.opts.MaxRetries-i, formatInterval(p.opts.RetryInterval),
			), nil)
			if err := p.sleeper.Sleep(ctx, p.opts.RetryInterval); err != nil {
				p.observer.RunFinished(OutcomeInterrupted, i)
				return false, fmt.Errorf("polling interrupted after attempt %d: %w", i, err)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		p.observer.RunFinished(OutcomeInterrupted, p.opts.MaxRetries)
		return false, fmt.Errorf("polling interrupted after attempt %d: %w", p.opts.MaxRetries, err)
	}

	p.observer.RunFinished(OutcomeTimeout, p.opts.MaxRetries)
	return false, nil
}

func formatInterval(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%d seconds", int64(d/time.Second))
	}
	return d.String()
}
