package dto

// StartEditRequest is the payload for POST /api/v1/sessions/start-edit.
type StartEditRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title" binding:"required"`
	Text   string `json:"text" binding:"required"`
	Prompt string `json:"prompt"`
}

// StartTranscribeRequest is the payload for POST /api/v1/sessions/start-transcribe.
type StartTranscribeRequest struct {
	UserID string `json:"user_id"`
	URL    string `json:"url" binding:"required,url"`
	Prompt string `json:"prompt"`
}

// StartSessionResponse carries the id the client observes the run with.
type StartSessionResponse struct {
	SessionID string `json:"session_id"`
}

// SessionDTO is the response representation of a session.
type SessionDTO struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"created_at"`
}

// ListSessionsResponse is the response for GET /api/v1/sessions.
type ListSessionsResponse struct {
	Sessions []SessionDTO `json:"sessions"`
}
