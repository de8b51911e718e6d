// Package readiness implements the polling state machine that decides whether
// every declared compose service is running and healthy.
//
// A Poller drives up to MaxRetries attempts spaced by RetryInterval. Each
// attempt is executed by an Aggregator, which walks the services in manifest
// order and asks an Inspector to classify every container. Runtime state is
// read fresh on every attempt.
package readiness

import (
	"strings"
	"time"

	cwerrors "composewait/internal/errors"
)

// RunState is the classified run state of a container
type RunState string

const (
	RunStateRunning RunState = "running"
	RunStateOther   RunState = "other"
)

// ParseRunState classifies raw runtime status text. Only the exact
// (whitespace-trimmed) value "running" is running.
func ParseRunState(raw string) RunState {
	if strings.TrimSpace(raw) == "running" {
		return RunStateRunning
	}
	return RunStateOther
}

// HealthState is the classified health state of a container
type HealthState string

const (
	HealthHealthy       HealthState = "healthy"
	HealthUnhealthy     HealthState = "unhealthy"
	HealthNoHealthcheck HealthState = "no-healthcheck"
	HealthOther         HealthState = "other"
)

// ParseHealthState classifies a raw health token. "N/A" means no healthcheck is configured.
func ParseHealthState(raw string) HealthState {
	switch strings.TrimSpace(raw) {
	case "healthy":
		return HealthHealthy
	case "unhealthy":
		return HealthUnhealthy
	case "N/A":
		return HealthNoHealthcheck
	default:
		return HealthOther
	}
}

// Acceptable reports whether the health state allows a running container to be ready
func (h HealthState) Acceptable() bool {
	return h == HealthHealthy || h == HealthNoHealthcheck
}

// Outcome is how a poll run ended
type Outcome string

const (
	OutcomeHealthy Outcome = "healthy"
	OutcomeTimeout Outcome = "timeout"
	// OutcomeError is a fatal manifest load failure.
	OutcomeError       Outcome = "error"
	OutcomeInterrupted Outcome = "interrupted"
)

// Verdict is a container's contribution to an attempt
type Verdict string

const (
	VerdictReady    Verdict = "ready"
	VerdictNotReady Verdict = "not-ready"
	// VerdictSkipped containers are excluded from the attempt result entirely
	VerdictSkipped Verdict = "skipped"
)

// Options configures one poll run. It is not modified once polling starts.
type Options struct {
	MaxRetries        int
	RetryInterval     time.Duration
	SkipExited        bool
	SkipNoHealthcheck bool
	ComposeFile       string
}

// Validate rejects options the poller cannot run with
func (o Options) Validate() error {
	if o.MaxRetries < 1 {
		return cwerrors.Config("max retries must be at least 1, got %d", o.MaxRetries)
	}
	if o.RetryInterval < 0 {
		return cwerrors.Config("retry interval must not be negative, got %s", o.RetryInterval)
	}
	return nil
}

// ContainerReport records how one container was classified
type ContainerReport struct {
	ID          string      `json:"id"`
	Status      string      `json:"status"`
	Health      string      `json:"health,omitempty"`
	RunState    RunState    `json:"run_state"`
	HealthState HealthState `json:"health_state,omitempty"`
	Verdict     Verdict     `json:"verdict"`
}

// ServiceReport records the containers evaluated for one service
type ServiceReport struct {
	Name string `json:"name"`
	// Missing is set when no container was found for the service.
	Missing bool `json:"missing,omitempty"`
	// Skipped is set when a missing service was ignored because of SkipExited.
	Skipped    bool              `json:"skipped,omitempty"`
	Containers []ContainerReport `json:"containers,omitempty"`
}

// Ready reports whether the service contributed no failure
func (s ServiceReport) Ready() bool {
	if s.Missing {
		return s.Skipped
	}
	for _, c := range s.Containers {
		if c.Verdict == VerdictNotReady {
			return false
		}
	}
	return true
}

// AttemptReport is the full outcome of one attempt
type AttemptReport struct {
	Attempt    int             `json:"attempt"`
	MaxRetries int             `json:"max_retries"`
	Healthy    bool            `json:"healthy"`
	Services   []ServiceReport `json:"services"`
	Error      string          `json:"error,omitempty"`
	ErrorKind  cwerrors.Kind   `json:"error_kind,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// Counts returns the number of containers per verdict
func (r *AttemptReport) Counts() map[Verdict]int {
	counts := make(map[Verdict]int, 3)
	for _, s := range r.Services {
		for _, c := range s.Containers {
			counts[c.Verdict]++
		}
	}
	return counts
}
