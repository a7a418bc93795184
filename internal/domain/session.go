package domain

import "time"

// Session kinds. A session is the user-facing unit of work: either a raw
// text to rewrite or a media URL to transcribe and rewrite.
const (
	SessionKindEdit       = "edit"
	SessionKindTranscribe = "transcribe"
)

// Session holds the input payload for one pipeline job. The pipeline only
// reads the input fields and writes Title/Completed.
type Session struct {
	ID        string    `db:"session_id"`
	UserID    string    `db:"user_id"`
	Kind      string    `db:"kind"`
	Text      string    `db:"text"`
	URL       string    `db:"url"`
	Prompt    string    `db:"prompt"`
	Title     string    `db:"title"`
	Completed bool      `db:"completed"`
	CreatedAt time.Time `db:"created_at"`
}
