package domain

import "time"

// Job status constants. Transitions move strictly forward:
// PENDING -> RUNNING -> {COMPLETED, ERROR}. Terminal states never resume.
const (
	JobStatusPending   = "PENDING"
	JobStatusRunning   = "RUNNING"
	JobStatusCompleted = "COMPLETED"
	JobStatusError     = "ERROR"
)

// Job is one pipeline execution for a session. FinalText is written exactly
// once, on COMPLETED.
type Job struct {
	ID           string    `db:"job_id"`
	SessionID    string    `db:"session_id"`
	Status       string    `db:"status"`
	FinalText    string    `db:"final_text"`
	ErrorMessage string    `db:"error_message"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// IsTerminal reports whether a status permits no further transitions.
func IsTerminal(status string) bool {
	return status == JobStatusCompleted || status == JobStatusError
}
