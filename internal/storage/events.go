package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scribehub/scribe-be/internal/domain"
)

// Events handles the append-only progress log. Rows are never mutated or
// deleted by the pipeline; Append is the durability boundary for replay.
type Events struct {
	db *sqlx.DB
}

// NewEvents creates an event store over an existing connection pool.
func NewEvents(db *sqlx.DB) *Events {
	return &Events{db: db}
}

// Append persists one progress event and returns it.
func (e *Events) Append(ctx context.Context, jobID, content string, completed bool) (*domain.Event, error) {
	query := `
		INSERT INTO events (event_id, job_id, content, completed, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	event := &domain.Event{
		ID:        uuid.New().String(),
		JobID:     jobID,
		Content:   content,
		Completed: completed,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := e.db.ExecContext(ctx, query, event.ID, event.JobID, event.Content, event.Completed, event.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to append event: %w", err)
	}

	return event, nil
}

// ListByJob returns a job's full progress log, oldest first. Used for
// observer replay.
func (e *Events) ListByJob(ctx context.Context, jobID string) ([]domain.Event, error) {
	query := `
		SELECT event_id, job_id, content, completed, created_at
		FROM events
		WHERE job_id = $1
		ORDER BY created_at ASC
	`

	var events []domain.Event
	if err := e.db.SelectContext(ctx, &events, query, jobID); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return events, nil
}
