package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scribehub/scribe-be/internal/domain"
)

// Jobs handles all database operations on the jobs table.
type Jobs struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewJobs creates a job store over an existing connection pool.
func NewJobs(db *sqlx.DB, logger *slog.Logger) *Jobs {
	return &Jobs{db: db, logger: logger}
}

const jobColumns = `job_id, session_id, status, final_text, error_message, created_at, updated_at`

// FindOrCreate returns the session's job, creating it in PENDING when none
// exists. The unique index on session_id is the serialization point: when
// two requests race, exactly one observes created=true and is the one that
// must start the pipeline run.
func (j *Jobs) FindOrCreate(ctx context.Context, sessionID string) (*domain.Job, bool, error) {
	insert := `
		INSERT INTO jobs (job_id, session_id, status, final_text, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, '', '', $4, $4)
		ON CONFLICT (session_id) DO NOTHING
		RETURNING ` + jobColumns

	var job domain.Job
	now := time.Now().UTC()
	err := j.db.GetContext(ctx, &job, insert, uuid.New().String(), sessionID, domain.JobStatusPending, now)
	if err == nil {
		j.logger.Info("Job created",
			slog.String("job_id", job.ID),
			slog.String("session_id", sessionID),
		)
		return &job, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to create job: %w", err)
	}

	// Insert lost the race or the job already existed; load the winner.
	existing, err := j.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// FindBySession loads the job owned by a session.
func (j *Jobs) FindBySession(ctx context.Context, sessionID string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE session_id = $1`

	var job domain.Job
	if err := j.db.GetContext(ctx, &job, query, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job by session: %w", err)
	}

	return &job, nil
}

// SetStatus moves the job to a new status.
func (j *Jobs) SetStatus(ctx context.Context, jobID, status string) error {
	query := `UPDATE jobs SET status = $1, updated_at = NOW() WHERE job_id = $2`

	if _, err := j.db.ExecContext(ctx, query, status, jobID); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	j.logger.Info("Job status updated",
		slog.String("job_id", jobID),
		slog.String("status", status),
	)
	return nil
}

// SetError moves the job to ERROR and records the message.
func (j *Jobs) SetError(ctx context.Context, jobID, message string) error {
	query := `UPDATE jobs SET status = $1, error_message = $2, updated_at = NOW() WHERE job_id = $3`

	if _, err := j.db.ExecContext(ctx, query, domain.JobStatusError, message, jobID); err != nil {
		return fmt.Errorf("failed to set job error: %w", err)
	}

	j.logger.Info("Job status updated",
		slog.String("job_id", jobID),
		slog.String("status", domain.JobStatusError),
	)
	return nil
}

// SaveFinalResult stores the assembled artifact and marks the job COMPLETED
// in one write.
func (j *Jobs) SaveFinalResult(ctx context.Context, jobID, finalText string) error {
	query := `UPDATE jobs SET status = $1, final_text = $2, updated_at = NOW() WHERE job_id = $3`

	if _, err := j.db.ExecContext(ctx, query, domain.JobStatusCompleted, finalText, jobID); err != nil {
		return fmt.Errorf("failed to save final result: %w", err)
	}

	j.logger.Info("Job final result saved",
		slog.String("job_id", jobID),
	)
	return nil
}

// Delete removes a job record. Administrative operation, never called by the
// pipeline itself.
func (j *Jobs) Delete(ctx context.Context, jobID string) error {
	result, err := j.db.ExecContext(ctx, `DELETE FROM jobs WHERE job_id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}
