package db

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"composewait/internal/readiness"
)

// RunStatus is the lifecycle state of a recorded poll run
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusHealthy RunStatus = "healthy"
	RunStatusTimeout RunStatus = "timeout"
	RunStatusError   RunStatus = "error"
)

// Run is one invocation of the poller
type Run struct {
	ID                string       `json:"id" db:"id"`
	ComposeFile       string       `json:"compose_file" db:"compose_file"`
	MaxRetries        int          `json:"max_retries" db:"max_retries"`
	RetryIntervalMs   int64        `json:"retry_interval_ms" db:"retry_interval_ms"`
	SkipExited        bool         `json:"skip_exited" db:"skip_exited"`
	SkipNoHealthcheck bool         `json:"skip_no_healthcheck" db:"skip_no_healthcheck"`
	Status            RunStatus    `json:"status" db:"status"`
	Attempts          int          `json:"attempts" db:"attempts"`
	Error             string       `json:"error,omitempty" db:"error"`
	StartedAt         time.Time    `json:"started_at" db:"started_at"`
	FinishedAt        sql.NullTime `json:"-" db:"finished_at"`
}

// Duration returns how long the run took, or zero while it is still running
func (r *Run) Duration() time.Duration {
	if !r.FinishedAt.Valid {
		return 0
	}
	return r.FinishedAt.Time.Sub(r.StartedAt)
}

// Attempt is one recorded attempt of a run
type Attempt struct {
	ID         int64       `json:"id" db:"id"`
	RunID      string      `json:"run_id" db:"run_id"`
	Attempt    int         `json:"attempt" db:"attempt"`
	Healthy    bool        `json:"healthy" db:"healthy"`
	Ready      int         `json:"ready" db:"ready"`
	NotReady   int         `json:"not_ready" db:"not_ready"`
	Skipped    int         `json:"skipped" db:"skipped"`
	Error      string      `json:"error,omitempty" db:"error"`
	ErrorKind  string      `json:"error_kind,omitempty" db:"error_kind"`
	Report     *ReportJSON `json:"report,omitempty" db:"report"`
	StartedAt  time.Time   `json:"started_at" db:"started_at"`
	FinishedAt time.Time   `json:"finished_at" db:"finished_at"`
}

// AttemptFromReport flattens an attempt report into a row for runID
func AttemptFromReport(runID string, report *readiness.AttemptReport) *Attempt {
	counts := report.Counts()
	return &Attempt{
		RunID:      runID,
		Attempt:    report.Attempt,
		Healthy:    report.Healthy,
		Ready:      counts[readiness.VerdictReady],
		NotReady:   counts[readiness.VerdictNotReady],
		Skipped:    counts[readiness.VerdictSkipped],
		Error:      report.Error,
		ErrorKind:  string(report.ErrorKind),
		Report:     &ReportJSON{AttemptReport: *report},
		StartedAt:  report.StartedAt.UTC(),
		FinishedAt: report.FinishedAt.UTC(),
	}
}

// ReportJSON stores a full attempt report in a TEXT column
type ReportJSON struct {
	readiness.AttemptReport
}

// Value implements the driver.Valuer interface
func (r *ReportJSON) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	data, err := json.Marshal(r.AttemptReport)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface
func (r *ReportJSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, &r.AttemptReport)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), &r.AttemptReport)
	default:
		return errors.New("type assertion to []byte or string failed")
	}
}
