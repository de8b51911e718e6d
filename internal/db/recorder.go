package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"

	"composewait/internal/logger"
	"composewait/internal/readiness"
)

const writeTimeout = 5 * time.Second

// Recorder persists poll progress. It implements readiness.Observer; storage
// failures are logged and never affect the poll outcome. Writes outlive
// cancellation of the run context so an interrupted run is still finalized.
type Recorder struct {
	ctx   context.Context
	runs  RunManager
	runID string

	mu   sync.Mutex
	last *readiness.AttemptReport
}

// NewRecorder creates a recorder with a fresh run id
func NewRecorder(ctx context.Context, runs RunManager) *Recorder {
	return &Recorder{
		ctx:   ctx,
		runs:  runs,
		runID: xid.New().String(),
	}
}

// RunID returns the id under which the run is recorded
func (r *Recorder) RunID() string {
	return r.runID
}

// writeContext keeps the values of the run context but not its cancellation
func (r *Recorder) writeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.ctx), writeTimeout)
}

func (r *Recorder) warn(err error, msg string) {
	logger.WithFields(logger.Fields{"run_id": r.runID}).WithError(err).Warn(msg)
}

func (r *Recorder) RunStarted(opts readiness.Options) {
	run := &Run{
		ID:                r.runID,
		ComposeFile:       opts.ComposeFile,
		MaxRetries:        opts.MaxRetries,
		RetryIntervalMs:   opts.RetryInterval.Milliseconds(),
		SkipExited:        opts.SkipExited,
		SkipNoHealthcheck: opts.SkipNoHealthcheck,
		Status:            RunStatusRunning,
	}
	ctx, cancel := r.writeContext()
	defer cancel()
	if err := r.runs.CreateRun(ctx, run); err != nil {
		r.warn(err, "Failed to record run")
	}
}

func (r *Recorder) AttemptStarted(int, int) {}

func (r *Recorder) AttemptFinished(report *readiness.AttemptReport) {
	if report == nil {
		return
	}
	r.mu.Lock()
	r.last = report
	r.mu.Unlock()

	ctx, cancel := r.writeContext()
	defer cancel()
	if err := r.runs.RecordAttempt(ctx, AttemptFromReport(r.runID, report)); err != nil {
		r.warn(err, "Failed to record attempt")
	}
}

func (r *Recorder) RunFinished(outcome readiness.Outcome, attempts int) {
	r.mu.Lock()
	last := r.last
	r.mu.Unlock()

	status, errMsg := RunStatusTimeout, ""
	if last != nil {
		errMsg = last.Error
	}
	switch outcome {
	case readiness.OutcomeHealthy:
		status, errMsg = RunStatusHealthy, ""
	case readiness.OutcomeError:
		status = RunStatusError
	case readiness.OutcomeInterrupted:
		status = RunStatusError
		errMsg = fmt.Sprintf("interrupted after attempt %d", attempts)
		if cause := context.Cause(r.ctx); cause != nil {
			errMsg += ": " + cause.Error()
		}
	}

	ctx, cancel := r.writeContext()
	defer cancel()
	if err := r.runs.FinishRun(ctx, r.runID, status, attempts, errMsg); err != nil {
		r.warn(err, "Failed to finish run")
	}
}

var _ readiness.Observer = (*Recorder)(nil)
