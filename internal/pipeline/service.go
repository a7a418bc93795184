package pipeline

import (
	"context"
	"log/slog"

	"github.com/scribehub/scribe-be/internal/domain"
)

// Launcher hands a run to the execution pool. Satisfied by *Pool.
type Launcher interface {
	Enqueue(jobID, sessionID string)
}

// Service is the observation entry point: it finds or creates a session's
// job and, exactly when the job was newly created, launches its run. The
// store's atomic find-or-create is the single decision point, so concurrent
// observers of one session can never start a second run.
type Service struct {
	sessions SessionStore
	jobs     JobStore
	events   EventStore
	launcher Launcher
	logger   *slog.Logger
}

// NewService wires the observation service.
func NewService(sessions SessionStore, jobs JobStore, events EventStore, launcher Launcher, logger *slog.Logger) *Service {
	return &Service{
		sessions: sessions,
		jobs:     jobs,
		events:   events,
		launcher: launcher,
		logger:   logger,
	}
}

// ObserveSession returns the session's job, creating and launching it on
// first observation. Attaching never waits on the pipeline itself.
func (s *Service) ObserveSession(ctx context.Context, sessionID string) (*domain.Job, error) {
	if _, err := s.sessions.FindByID(ctx, sessionID); err != nil {
		return nil, err
	}

	job, created, err := s.jobs.FindOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Info("Launching pipeline run",
			slog.String("job_id", job.ID),
			slog.String("session_id", sessionID),
		)
		s.launcher.Enqueue(job.ID, sessionID)
	}

	return job, nil
}

// Replay returns a job's full progress log, oldest first.
func (s *Service) Replay(ctx context.Context, jobID string) ([]domain.Event, error) {
	return s.events.ListByJob(ctx, jobID)
}
