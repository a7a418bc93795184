package handler

import (
	"log/slog"

	"github.com/scribehub/scribe-be/internal/hub"
	"github.com/scribehub/scribe-be/internal/pipeline"
	"github.com/scribehub/scribe-be/internal/storage"
	"github.com/scribehub/scribe-be/shared/postgresql"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger   *slog.Logger
	DBClient *postgresql.Client
	Service  *pipeline.Service
	Sessions *storage.Sessions
	Jobs     *storage.Jobs
	Hub      *hub.Hub

	// Default instructions applied when a request carries no prompt.
	EditPrompt       string
	TranscribePrompt string
}

// SessionHandler handles session creation and listing
type SessionHandler struct {
	logger           *slog.Logger
	sessions         *storage.Sessions
	editPrompt       string
	transcribePrompt string
}

// NewSessionHandler creates a new SessionHandler instance
func NewSessionHandler(deps *Dependencies) *SessionHandler {
	return &SessionHandler{
		logger:           deps.Logger,
		sessions:         deps.Sessions,
		editPrompt:       deps.EditPrompt,
		transcribePrompt: deps.TranscribePrompt,
	}
}

// EventHandler handles event streaming and replay
type EventHandler struct {
	logger  *slog.Logger
	service *pipeline.Service
	jobs    *storage.Jobs
	hub     *hub.Hub
}

// NewEventHandler creates a new EventHandler instance
func NewEventHandler(deps *Dependencies) *EventHandler {
	return &EventHandler{
		logger:  deps.Logger,
		service: deps.Service,
		jobs:    deps.Jobs,
		hub:     deps.Hub,
	}
}

// JobHandler handles administrative job requests
type JobHandler struct {
	logger *slog.Logger
	jobs   *storage.Jobs
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger: deps.Logger,
		jobs:   deps.Jobs,
	}
}
