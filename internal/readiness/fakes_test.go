package readiness

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"composewait/internal/container"
	"composewait/internal/logger"
)

type fakeContainer struct {
	status string
	health string
}

// fakeQuerier serves canned runtime state and counts every call
type fakeQuerier struct {
	mu         sync.Mutex
	services   map[string][]string
	containers map[string]fakeContainer
	listErr    error
	stateErr   map[string]error

	listCalls   int
	stateCalls  int
	healthCalls int
	healthFor   []string
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{
		services:   make(map[string][]string),
		containers: make(map[string]fakeContainer),
		stateErr:   make(map[string]error),
	}
}

func (f *fakeQuerier) add(service, id, status, health string) *fakeQuerier {
	f.services[service] = append(f.services[service], id)
	f.containers[id] = fakeContainer{status: status, health: health}
	return f
}

func (f *fakeQuerier) ContainerIDs(_ context.Context, service string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.services[service]...), nil
}

func (f *fakeQuerier) RunState(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateCalls++
	if err := f.stateErr[id]; err != nil {
		return "", err
	}
	c, ok := f.containers[id]
	if !ok {
		return "", errors.New("no such container: " + id)
	}
	return c.status + "\n", nil
}

func (f *fakeQuerier) HealthState(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthCalls++
	f.healthFor = append(f.healthFor, id)
	c, ok := f.containers[id]
	if !ok {
		return "", errors.New("no such container: " + id)
	}
	return c.health, nil
}

func (f *fakeQuerier) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls + f.stateCalls + f.healthCalls
}

var _ container.Querier = (*fakeQuerier)(nil)

type fakeSource struct {
	names []string
	err   error
	calls int
}

func (s *fakeSource) ServiceNames(context.Context) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]string(nil), s.names...), nil
}

// countingSleeper records requested sleeps without waiting
type countingSleeper struct {
	durations []time.Duration
	err       error
	onSleep   func(n int)
}

func (s *countingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.durations = append(s.durations, d)
	if s.onSleep != nil {
		s.onSleep(len(s.durations))
	}
	return s.err
}

type recordingObserver struct {
	started      int
	attempts     []int
	reports      []*AttemptReport
	finished     bool
	outcome      Outcome
	finalCount   int
}

func (o *recordingObserver) RunStarted(Options) { o.started++ }

func (o *recordingObserver) AttemptStarted(attempt, _ int) {
	o.attempts = append(o.attempts, attempt)
}

func (o *recordingObserver) AttemptFinished(r *AttemptReport) {
	o.reports = append(o.reports, r)
}

func (o *recordingObserver) RunFinished(outcome Outcome, attempts int) {
	o.finished = true
	o.outcome = outcome
	o.finalCount = attempts
}

func newTestReporter() (*logger.LogrusReporter, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return logger.NewReporter(log), hook
}

func messages(hook *test.Hook, level logrus.Level) []string {
	var out []string
	for _, e := range hook.AllEntries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

func defaultOptions() Options {
	return Options{
		MaxRetries:    3,
		RetryInterval: 10 * time.Second,
		ComposeFile:   "docker-compose.yml",
	}
}
