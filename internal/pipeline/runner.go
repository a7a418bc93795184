package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scribehub/scribe-be/internal/domain"
	"github.com/scribehub/scribe-be/internal/segment"
)

// Config carries the pipeline tuning constants. None of them are
// correctness-critical, so deployments can tune them freely.
type Config struct {
	WordsPerChunk  int
	SegmentSeconds float64
	RetryAttempts  int
	RetryBackoff   time.Duration
	// StepDelay paces progress between steps so observers see movement and
	// providers are not hammered. Not correctness-critical; zero disables it.
	StepDelay time.Duration
}

// Runner is the job orchestrator: it drives the segment loop, writes the
// progress log, fans events out to observers, and finalizes the job. A run
// always reaches a terminal state; there is no cancellation primitive.
type Runner struct {
	sessions    SessionStore
	jobs        JobStore
	events      EventStore
	rewriter    TextRewriter
	transcriber SpeechTranscriber
	blobs       BlobStore
	resolver    SourceResolver
	extractor   AudioExtractor
	hub         Broadcaster
	notifier    Notifier
	logger      *slog.Logger
	cfg         Config
}

// RunnerDeps bundles the runner's collaborators.
type RunnerDeps struct {
	Sessions    SessionStore
	Jobs        JobStore
	Events      EventStore
	Rewriter    TextRewriter
	Transcriber SpeechTranscriber
	Blobs       BlobStore
	Resolver    SourceResolver
	Extractor   AudioExtractor
	Hub         Broadcaster
	Notifier    Notifier
	Logger      *slog.Logger
}

// NewRunner creates a runner. A nil Notifier becomes a no-op.
func NewRunner(deps RunnerDeps, cfg Config) *Runner {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Runner{
		sessions:    deps.Sessions,
		jobs:        deps.Jobs,
		events:      deps.Events,
		rewriter:    deps.Rewriter,
		transcriber: deps.Transcriber,
		blobs:       deps.Blobs,
		resolver:    deps.Resolver,
		extractor:   deps.Extractor,
		hub:         deps.Hub,
		notifier:    notifier,
		logger:      deps.Logger,
		cfg:         cfg,
	}
}

// Run executes one job to a terminal state. Chunk-level failures are
// downgraded to placeholders inside the loop; anything escaping the loop
// terminates the job with status ERROR and one terminal event.
func (r *Runner) Run(ctx context.Context, jobID, sessionID string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Pipeline run panicked",
				slog.String("job_id", jobID),
				slog.Any("panic", rec),
			)
			r.fail(ctx, jobID, sessionID, fmt.Sprintf("unexpected failure: %v", rec))
		}
	}()

	session, err := r.sessions.FindByID(ctx, sessionID)
	if err != nil {
		r.logger.Error("Failed to load session for run",
			slog.String("job_id", jobID),
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		r.fail(ctx, jobID, sessionID, "session could not be loaded")
		return
	}

	r.logger.Info("Pipeline run started",
		slog.String("job_id", jobID),
		slog.String("session_id", sessionID),
		slog.String("kind", session.Kind),
	)

	switch session.Kind {
	case domain.SessionKindTranscribe:
		err = r.runTranscribe(ctx, jobID, session)
	default:
		err = r.runEdit(ctx, jobID, session)
	}

	if err != nil {
		r.logger.Error("Pipeline run failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		r.fail(ctx, jobID, sessionID, err.Error())
		return
	}

	r.logger.Info("Pipeline run completed",
		slog.String("job_id", jobID),
	)
}

func (r *Runner) runEdit(ctx context.Context, jobID string, session *domain.Session) error {
	start := time.Now()

	if err := r.jobs.SetStatus(ctx, jobID, domain.JobStatusRunning); err != nil {
		return err
	}

	chunks, err := segment.SplitByWordCount(session.Text, r.cfg.WordsPerChunk)
	if err != nil {
		return err
	}

	r.emit(ctx, jobID, fmt.Sprintf("Editing text... (%d chunks)", len(chunks)), false)
	r.pause(ctx)

	transformer := NewTextChunkTransformer(r.rewriter, r.cfg.RetryAttempts, r.cfg.RetryBackoff, r.logger)

	parts := make([]string, 0, len(chunks))
	for i, text := range chunks {
		chunk := Chunk{
			JobID:  jobID,
			Number: i + 1,
			Total:  len(chunks),
			Text:   text,
		}
		r.emit(ctx, jobID, fmt.Sprintf("Editing chunk %d/%d...", chunk.Number, chunk.Total), false)
		parts = append(parts, r.processChunk(ctx, transformer, chunk, session.Prompt))
		r.pause(ctx)
	}

	return r.finalize(ctx, jobID, session, session.Title, parts, start, false)
}

func (r *Runner) runTranscribe(ctx context.Context, jobID string, session *domain.Session) error {
	start := time.Now()

	if err := r.jobs.SetStatus(ctx, jobID, domain.JobStatusRunning); err != nil {
		return err
	}

	info, err := r.resolver.Resolve(ctx, session.URL)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnresolvableSource, err)
	}

	if err := r.sessions.UpdateTitle(ctx, session.ID, info.Title); err != nil {
		r.logger.Warn("Failed to persist discovered title",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}

	r.emit(ctx, jobID, "Fetching audio...", false)
	r.pause(ctx)

	windows, err := segment.PlanWindows(info.DurationSec, r.cfg.SegmentSeconds)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnresolvableSource, err)
	}

	r.emit(ctx, jobID, fmt.Sprintf("Splitting audio into %d segments", len(windows)), false)
	r.pause(ctx)
	r.emit(ctx, jobID, "Transcription started", false)

	transformer := NewAudioChunkTransformer(
		r.extractor, r.blobs, r.transcriber, r.rewriter,
		info.AudioURL, r.cfg.RetryAttempts, r.cfg.RetryBackoff, r.logger,
	)

	parts := make([]string, 0, len(windows))
	for _, w := range windows {
		if w.Skip() {
			r.logger.Warn("Skipping zero-length segment",
				slog.String("job_id", jobID),
				slog.Int("segment", w.Index+1),
			)
			continue
		}

		chunk := Chunk{
			JobID:  jobID,
			Number: w.Index + 1,
			Total:  len(windows),
			Window: w,
		}
		r.emit(ctx, jobID, fmt.Sprintf("Processing segment %d/%d...", chunk.Number, chunk.Total), false)
		parts = append(parts, r.processChunk(ctx, transformer, chunk, session.Prompt))
		r.pause(ctx)
	}

	return r.finalize(ctx, jobID, session, info.Title, parts, start, true)
}

// processChunk runs one chunk through its transformer. Failures of any shape
// never propagate past the iteration: they become the placeholder.
func (r *Runner) processChunk(ctx context.Context, transformer ChunkTransformer, chunk Chunk, instruction string) string {
	progress := func(content string) {
		r.emit(ctx, chunk.JobID, content, false)
	}

	out, err := transformer.Transform(ctx, chunk, instruction, progress)
	if err != nil {
		r.logger.Error("Chunk transform errored",
			slog.String("job_id", chunk.JobID),
			slog.Int("chunk", chunk.Number),
			slog.String("error", err.Error()),
		)
		out = ""
	}

	if out == "" {
		r.emit(ctx, chunk.JobID, fmt.Sprintf("Chunk %d/%d could not be processed", chunk.Number, chunk.Total), false)
		return FailedChunkPlaceholder(chunk.Number, chunk.Total)
	}

	r.emit(ctx, chunk.JobID, fmt.Sprintf("Chunk %d/%d done", chunk.Number, chunk.Total), false)
	return out
}

// finalize assembles and persists the artifact, emits the terminal event,
// and marks the session completed. A session-marking failure is logged but
// never reverts the job.
func (r *Runner) finalize(ctx context.Context, jobID string, session *domain.Session, title string, parts []string, start time.Time, transliterate bool) error {
	r.emit(ctx, jobID, "Combining chunks...", false)

	body := CombineChunks(parts)
	if transliterate {
		body = ToUzbekLatin(body)
	}

	r.emit(ctx, jobID, "Final formatting...", false)
	r.pause(ctx)

	artifact := RenderArtifact(title, body, time.Since(start))

	if err := r.jobs.SaveFinalResult(ctx, jobID, artifact); err != nil {
		return err
	}

	r.emit(ctx, jobID, artifact, true)

	if err := r.sessions.MarkCompleted(ctx, session.ID); err != nil {
		r.logger.Error("Failed to mark session completed",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}

	r.notifier.JobFinished(ctx, jobID, session.ID, domain.JobStatusCompleted)
	return nil
}

// fail is the single fatal exit: status ERROR plus one terminal event. Both
// writes are best-effort at this point; the job must still terminate.
func (r *Runner) fail(ctx context.Context, jobID, sessionID, message string) {
	if err := r.jobs.SetError(ctx, jobID, message); err != nil {
		r.logger.Error("Failed to record job error",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
	r.emit(ctx, jobID, "Error: "+message, true)
	r.notifier.JobFinished(ctx, jobID, sessionID, domain.JobStatusError)
}

// emit appends to the durable log, then publishes to live observers. Both
// draw from the same sequential step, so publish order matches append order.
func (r *Runner) emit(ctx context.Context, jobID, content string, completed bool) {
	if _, err := r.events.Append(ctx, jobID, content, completed); err != nil {
		r.logger.Error("Failed to append progress event",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
	r.hub.Publish(jobID, content, completed)
}

func (r *Runner) pause(ctx context.Context) {
	if r.cfg.StepDelay <= 0 {
		return
	}
	select {
	case <-time.After(r.cfg.StepDelay):
	case <-ctx.Done():
	}
}
