package server

import (
	"sync"
	"time"

	"composewait/internal/logger"
	"composewait/internal/readiness"
)

const subscriberBuffer = 32

// Hub tracks the current run and fans events out to websocket subscribers.
// It implements readiness.Observer.
type Hub struct {
	mu          sync.RWMutex
	state       RunState
	opts        readiness.Options
	attempt     int
	startedAt   time.Time
	attempts    []*readiness.AttemptReport
	subscribers map[chan Event]struct{}
	created     time.Time
	now         func() time.Time
}

// NewHub creates an idle hub
func NewHub() *Hub {
	return &Hub{
		state:       RunStatePending,
		subscribers: make(map[chan Event]struct{}),
		created:     time.Now(),
		now:         time.Now,
	}
}

// Subscribe registers a subscriber. The returned cancel func must be called
// to release it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Status returns a snapshot of the current run
func (h *Hub) Status() StatusResponse {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.statusLocked()
}

func (h *Hub) statusLocked() StatusResponse {
	status := StatusResponse{
		State:       h.state,
		Attempt:     h.attempt,
		MaxRetries:  h.opts.MaxRetries,
		ComposeFile: h.opts.ComposeFile,
		Uptime:      h.now().Sub(h.created).Round(time.Second).String(),
	}
	if !h.startedAt.IsZero() {
		started := h.startedAt
		status.StartedAt = &started
	}
	if n := len(h.attempts); n > 0 {
		status.Latest = h.attempts[n-1]
	}
	return status
}

// Attempts returns every attempt report of the current run
func (h *Hub) Attempts() []*readiness.AttemptReport {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*readiness.AttemptReport, len(h.attempts))
	copy(out, h.attempts)
	return out
}

// SubscriberCount returns the number of connected subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) RunStarted(opts readiness.Options) {
	h.mu.Lock()
	h.state = RunStatePolling
	h.opts = opts
	h.attempt = 0
	h.attempts = nil
	h.startedAt = h.now()
	h.mu.Unlock()

	h.broadcast(Event{Type: EventRunStarted})
}

func (h *Hub) AttemptStarted(attempt, _ int) {
	h.mu.Lock()
	h.attempt = attempt
	h.mu.Unlock()

	h.broadcast(Event{Type: EventAttemptStarted, Attempt: attempt})
}

func (h *Hub) AttemptFinished(report *readiness.AttemptReport) {
	if report == nil {
		return
	}
	h.mu.Lock()
	h.attempts = append(h.attempts, report)
	h.mu.Unlock()

	h.broadcast(Event{Type: EventAttemptFinished, Attempt: report.Attempt, Report: report})
}

func (h *Hub) RunFinished(outcome readiness.Outcome, attempts int) {
	h.mu.Lock()
	h.state = runStateFor(outcome)
	h.attempt = attempts
	h.mu.Unlock()

	healthy := outcome == readiness.OutcomeHealthy
	h.broadcast(Event{Type: EventRunFinished, Attempt: attempts, Outcome: outcome, Healthy: &healthy})
}

func runStateFor(outcome readiness.Outcome) RunState {
	switch outcome {
	case readiness.OutcomeHealthy:
		return RunStateHealthy
	case readiness.OutcomeError:
		return RunStateFailed
	case readiness.OutcomeInterrupted:
		return RunStateInterrupted
	default:
		return RunStateTimedOut
	}
}

// broadcast delivers ev to every subscriber, dropping it for slow ones
func (h *Hub) broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
			logger.WithField("event", string(ev.Type)).Debug("Dropping event for slow websocket subscriber")
		}
	}
}

var _ readiness.Observer = (*Hub)(nil)
