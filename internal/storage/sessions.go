package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scribehub/scribe-be/internal/domain"
)

// Sessions handles all database operations on the sessions table.
type Sessions struct {
	db *sqlx.DB
}

// NewSessions creates a session store over an existing connection pool.
func NewSessions(db *sqlx.DB) *Sessions {
	return &Sessions{db: db}
}

// Create inserts a blank session of the given kind for a user and returns
// its id. Input fields are filled in by the follow-up Update calls, mirroring
// how the start-edit/start-transcribe requests compose a session.
func (s *Sessions) Create(ctx context.Context, userID, kind string) (string, error) {
	query := `
		INSERT INTO sessions (session_id, user_id, kind, text, url, prompt, title, completed, created_at)
		VALUES ($1, $2, $3, '', '', '', '', FALSE, $4)
	`

	id := uuid.New().String()
	if _, err := s.db.ExecContext(ctx, query, id, userID, kind, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	return id, nil
}

// FindByID loads one session.
func (s *Sessions) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	query := `
		SELECT session_id, user_id, kind, text, url, prompt, title, completed, created_at
		FROM sessions
		WHERE session_id = $1
	`

	var session domain.Session
	if err := s.db.GetContext(ctx, &session, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

// List returns sessions newest first, for one user when userID is set and
// for everyone otherwise.
func (s *Sessions) List(ctx context.Context, userID string) ([]domain.Session, error) {
	query := `
		SELECT session_id, user_id, kind, text, url, prompt, title, completed, created_at
		FROM sessions
		WHERE $1 = '' OR user_id = $1
		ORDER BY created_at DESC
	`

	var sessions []domain.Session
	if err := s.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, nil
}

// UpdateText sets the raw input text for an edit session.
func (s *Sessions) UpdateText(ctx context.Context, id, text string) error {
	return s.updateField(ctx, id, "text", text)
}

// UpdateURL sets the source URL for a transcribe session.
func (s *Sessions) UpdateURL(ctx context.Context, id, url string) error {
	return s.updateField(ctx, id, "url", url)
}

// UpdatePrompt sets the transformation instruction.
func (s *Sessions) UpdatePrompt(ctx context.Context, id, prompt string) error {
	return s.updateField(ctx, id, "prompt", prompt)
}

// UpdateTitle sets the display title (user-provided for edit sessions,
// discovered from the source for transcribe sessions).
func (s *Sessions) UpdateTitle(ctx context.Context, id, title string) error {
	return s.updateField(ctx, id, "title", title)
}

// MarkCompleted flags the session as done.
func (s *Sessions) MarkCompleted(ctx context.Context, id string) error {
	query := `UPDATE sessions SET completed = TRUE WHERE session_id = $1`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark session completed: %w", err)
	}
	return nil
}

func (s *Sessions) updateField(ctx context.Context, id, column, value string) error {
	query := fmt.Sprintf(`UPDATE sessions SET %s = $1 WHERE session_id = $2`, column)
	if _, err := s.db.ExecContext(ctx, query, value, id); err != nil {
		return fmt.Errorf("failed to update session %s: %w", column, err)
	}
	return nil
}
