package domain

import "time"

// Event is one entry in a job's append-only progress log. The single event
// with Completed=true is always the last one written for its job; its
// Content carries either the full final artifact or a short error message.
type Event struct {
	ID        string    `db:"event_id" json:"-"`
	JobID     string    `db:"job_id" json:"-"`
	Content   string    `db:"content" json:"content"`
	Completed bool      `db:"completed" json:"completed"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
