package pipeline

import (
	"context"
	"io"

	"github.com/scribehub/scribe-be/internal/domain"
)

// SessionStore is the slice of session persistence the pipeline consumes.
type SessionStore interface {
	FindByID(ctx context.Context, id string) (*domain.Session, error)
	UpdateTitle(ctx context.Context, id, title string) error
	MarkCompleted(ctx context.Context, id string) error
}

// JobStore persists job state. FindOrCreate must be atomic: under concurrent
// calls for one session, exactly one caller observes created=true.
type JobStore interface {
	FindOrCreate(ctx context.Context, sessionID string) (job *domain.Job, created bool, err error)
	SetStatus(ctx context.Context, jobID, status string) error
	SetError(ctx context.Context, jobID, message string) error
	SaveFinalResult(ctx context.Context, jobID, finalText string) error
}

// EventStore is the durable, append-only progress log.
type EventStore interface {
	Append(ctx context.Context, jobID, content string, completed bool) (*domain.Event, error)
	ListByJob(ctx context.Context, jobID string) ([]domain.Event, error)
}

// TextRewriter is the remote rewrite call. An empty result with a nil error
// means the provider produced nothing usable; callers apply the retry policy.
type TextRewriter interface {
	Rewrite(ctx context.Context, text, instruction string) (string, error)
}

// SpeechTranscriber turns an uploaded audio blob into raw text. Empty result
// semantics match TextRewriter.
type SpeechTranscriber interface {
	Transcribe(ctx context.Context, locator string) (string, error)
}

// BlobStore provisions the temporary per-segment audio blobs.
type BlobStore interface {
	Upload(ctx context.Context, r io.Reader, name string) (locator string, err error)
	Delete(ctx context.Context, locator string) error
	ProbeDuration(ctx context.Context, locator string) (seconds float64, err error)
}

// SourceInfo describes a resolved media source.
type SourceInfo struct {
	Title       string
	DurationSec float64
	AudioURL    string
}

// SourceResolver resolves a user-supplied URL into a playable audio source.
type SourceResolver interface {
	Resolve(ctx context.Context, url string) (*SourceInfo, error)
}

// AudioExtractor cuts one time window out of the source audio stream.
type AudioExtractor interface {
	Extract(ctx context.Context, audioURL string, startSec, durSec float64) (io.ReadCloser, error)
}

// Broadcaster fans a progress frame out to live observers. Best-effort.
type Broadcaster interface {
	Publish(jobID, content string, completed bool)
}

// Notifier announces terminal job states to external consumers. Best-effort,
// failures must stay internal.
type Notifier interface {
	JobFinished(ctx context.Context, jobID, sessionID, status string)
}

// NopNotifier is used when no broker is configured.
type NopNotifier struct{}

func (NopNotifier) JobFinished(context.Context, string, string, string) {}
