package server

import (
	"time"

	"composewait/internal/db"
	"composewait/internal/readiness"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// RunState is the lifecycle state of the current poll run
type RunState string

const (
	RunStatePending  RunState = "pending"
	RunStatePolling  RunState = "polling"
	RunStateHealthy  RunState = "healthy"
	RunStateTimedOut RunState = "timed_out"
	// RunStateFailed means the manifest could not be loaded.
	RunStateFailed      RunState = "failed"
	RunStateInterrupted RunState = "interrupted"
)

// StatusResponse is the snapshot served by /api/status
type StatusResponse struct {
	State       RunState                 `json:"state"`
	Attempt     int                      `json:"attempt"`
	MaxRetries  int                      `json:"max_retries"`
	ComposeFile string                   `json:"compose_file,omitempty"`
	StartedAt   *time.Time               `json:"started_at,omitempty"`
	Uptime      string                   `json:"uptime"`
	Latest      *readiness.AttemptReport `json:"latest,omitempty"`
}

// AttemptsResponse lists every attempt of the current run
type AttemptsResponse struct {
	Attempts []*readiness.AttemptReport `json:"attempts"`
	Total    int                        `json:"total"`
}

// RunsResponse lists recorded runs
type RunsResponse struct {
	Runs  []*db.Run `json:"runs"`
	Total int       `json:"total"`
}

// RunAttemptsResponse lists the recorded attempts of one run
type RunAttemptsResponse struct {
	RunID    string        `json:"run_id"`
	Attempts []*db.Attempt `json:"attempts"`
}

// EventType identifies a websocket event
type EventType string

const (
	EventSnapshot        EventType = "snapshot"
	EventRunStarted      EventType = "run_started"
	EventAttemptStarted  EventType = "attempt_started"
	EventAttemptFinished EventType = "attempt_finished"
	EventRunFinished     EventType = "run_finished"
)

// Event is one message pushed to websocket subscribers
type Event struct {
	Type    EventType                `json:"type"`
	Attempt int                      `json:"attempt,omitempty"`
	Outcome readiness.Outcome        `json:"outcome,omitempty"`
	Healthy *bool                    `json:"healthy,omitempty"`
	Report  *readiness.AttemptReport `json:"report,omitempty"`
	Status  *StatusResponse          `json:"status,omitempty"`
}
