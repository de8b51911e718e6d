package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrRunNotFound is returned when a run id does not exist
var ErrRunNotFound = errors.New("run not found")

// RunManager defines the interface for run history operations
type RunManager interface {
	CreateRun(ctx context.Context, run *Run) error
	RecordAttempt(ctx context.Context, attempt *Attempt) error
	FinishRun(ctx context.Context, id string, status RunStatus, attempts int, errMsg string) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	ListAttempts(ctx context.Context, runID string) ([]*Attempt, error)
}

// RunRepository handles database operations for runs and attempts
type RunRepository struct {
	db  *DB
	now func() time.Time
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db, now: time.Now}
}

// CreateRun inserts a new run in the running state
func (r *RunRepository) CreateRun(ctx context.Context, run *Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = r.now()
	}
	run.StartedAt = run.StartedAt.UTC()
	if run.Status == "" {
		run.Status = RunStatusRunning
	}

	query := `
		INSERT INTO runs (id, compose_file, max_retries, retry_interval_ms, skip_exited,
			skip_no_healthcheck, status, attempts, error, started_at)
		VALUES (:id, :compose_file, :max_retries, :retry_interval_ms, :skip_exited,
			:skip_no_healthcheck, :status, :attempts, :error, :started_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// RecordAttempt stores one attempt and bumps the run's attempt counter
func (r *RunRepository) RecordAttempt(ctx context.Context, attempt *Attempt) error {
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO attempts (run_id, attempt, healthy, ready, not_ready, skipped,
				error, error_kind, report, started_at, finished_at)
			VALUES (:run_id, :attempt, :healthy, :ready, :not_ready, :skipped,
				:error, :error_kind, :report, :started_at, :finished_at)
		`
		result, err := tx.NamedExecContext(ctx, query, attempt)
		if err != nil {
			return fmt.Errorf("failed to record attempt: %w", err)
		}
		if id, err := result.LastInsertId(); err == nil {
			attempt.ID = id
		}

		update := `UPDATE runs SET attempts = MAX(attempts, ?) WHERE id = ?`
		res, err := tx.ExecContext(ctx, update, attempt.Attempt, attempt.RunID)
		if err != nil {
			return fmt.Errorf("failed to update run: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrRunNotFound
		}
		return nil
	})
}

// FinishRun marks a run as finished with its final status
func (r *RunRepository) FinishRun(ctx context.Context, id string, status RunStatus, attempts int, errMsg string) error {
	query := `
		UPDATE runs SET status = ?, attempts = ?, error = ?, finished_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, status, attempts, errMsg, r.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRunNotFound
	}

	return nil
}

// GetRun returns a run by id
func (r *RunRepository) GetRun(ctx context.Context, id string) (*Run, error) {
	run := &Run{}
	err := r.db.GetContext(ctx, run, `SELECT * FROM runs WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit below one returns all runs.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT * FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var runs []*Run
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// ListAttempts returns the attempts of a run in order
func (r *RunRepository) ListAttempts(ctx context.Context, runID string) ([]*Attempt, error) {
	var attempts []*Attempt
	query := `SELECT * FROM attempts WHERE run_id = ? ORDER BY attempt ASC`
	if err := r.db.SelectContext(ctx, &attempts, query, runID); err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}

var _ RunManager = (*RunRepository)(nil)
