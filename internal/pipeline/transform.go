package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/scribehub/scribe-be/internal/segment"
)

// Chunk is one unit of work in segment order. Text is set for edit jobs,
// Window for transcribe jobs. Number is 1-based for progress messages.
type Chunk struct {
	JobID  string
	Number int
	Total  int
	Text   string
	Window segment.Window
}

// ChunkTransformer turns one chunk into rewritten text, applying the bounded
// retry policy internally. An empty result with a nil error means the chunk
// failed definitively after its retry; the caller substitutes a placeholder
// and the job continues. progress carries intermediate status messages
// (retry notices, stage changes) into the event stream.
type ChunkTransformer interface {
	Transform(ctx context.Context, chunk Chunk, instruction string, progress func(string)) (string, error)
}

// retryEmpty calls fn, and when it errors or returns empty, waits the
// backoff and tries again up to attempts extra times. The final result may
// still be empty; only the last error is returned.
func retryEmpty(ctx context.Context, attempts int, backoff time.Duration, onRetry func(), fn func(context.Context) (string, error)) (string, error) {
	out, err := fn(ctx)
	for i := 0; i < attempts && (err != nil || out == ""); i++ {
		if onRetry != nil {
			onRetry()
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		out, err = fn(ctx)
	}
	return out, err
}

// TextChunkTransformer rewrites a text chunk with one remote call.
type TextChunkTransformer struct {
	rewriter TextRewriter
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
}

// NewTextChunkTransformer wires the rewrite-only transformer used by edit
// jobs.
func NewTextChunkTransformer(rewriter TextRewriter, attempts int, backoff time.Duration, logger *slog.Logger) *TextChunkTransformer {
	return &TextChunkTransformer{
		rewriter: rewriter,
		attempts: attempts,
		backoff:  backoff,
		logger:   logger,
	}
}

func (t *TextChunkTransformer) Transform(ctx context.Context, chunk Chunk, instruction string, progress func(string)) (string, error) {
	out, err := retryEmpty(ctx, t.attempts, t.backoff,
		func() {
			progress(fmt.Sprintf("Chunk %d/%d failed, retrying...", chunk.Number, chunk.Total))
		},
		func(ctx context.Context) (string, error) {
			text, err := t.rewriter.Rewrite(ctx, chunk.Text, instruction)
			if err != nil {
				t.logger.Warn("Rewrite call failed",
					slog.String("job_id", chunk.JobID),
					slog.Int("chunk", chunk.Number),
					slog.String("error", err.Error()),
				)
				return "", nil
			}
			return text, nil
		},
	)
	if err != nil {
		return "", err
	}
	return out, nil
}

// AudioChunkTransformer processes one audio window: extract the segment,
// upload it as a temporary blob, transcribe, then rewrite. Transcription and
// rewriting are each independently retried. The blob is deleted on the way
// out regardless of outcome; delete failures are logged, never propagated.
type AudioChunkTransformer struct {
	extractor   AudioExtractor
	blobs       BlobStore
	transcriber SpeechTranscriber
	rewriter    TextRewriter
	audioURL    string
	attempts    int
	backoff     time.Duration
	logger      *slog.Logger
}

// NewAudioChunkTransformer wires the transcribe-then-rewrite transformer for
// one resolved source.
func NewAudioChunkTransformer(
	extractor AudioExtractor,
	blobs BlobStore,
	transcriber SpeechTranscriber,
	rewriter TextRewriter,
	audioURL string,
	attempts int,
	backoff time.Duration,
	logger *slog.Logger,
) *AudioChunkTransformer {
	return &AudioChunkTransformer{
		extractor:   extractor,
		blobs:       blobs,
		transcriber: transcriber,
		rewriter:    rewriter,
		audioURL:    audioURL,
		attempts:    attempts,
		backoff:     backoff,
		logger:      logger,
	}
}

func (t *AudioChunkTransformer) Transform(ctx context.Context, chunk Chunk, instruction string, progress func(string)) (string, error) {
	w := chunk.Window

	stream, err := t.extractor.Extract(ctx, t.audioURL, w.StartSec, w.DurSec)
	if err != nil {
		t.logger.Error("Segment extraction failed",
			slog.String("job_id", chunk.JobID),
			slog.Int("chunk", chunk.Number),
			slog.String("error", err.Error()),
		)
		return "", nil
	}
	defer stream.Close()

	name := fmt.Sprintf("segment_%s_%d_%s.mp3", chunk.JobID, w.Index, uuid.New().String()[:8])
	locator, err := t.blobs.Upload(ctx, stream, name)
	if err != nil {
		t.logger.Error("Segment upload failed",
			slog.String("job_id", chunk.JobID),
			slog.Int("chunk", chunk.Number),
			slog.String("error", err.Error()),
		)
		return "", nil
	}
	defer func() {
		if err := t.blobs.Delete(context.WithoutCancel(ctx), locator); err != nil {
			t.logger.Error("Failed to delete segment blob",
				slog.String("job_id", chunk.JobID),
				slog.String("locator", locator),
				slog.String("error", err.Error()),
			)
		}
	}()

	t.checkUploadedDuration(ctx, chunk, locator)

	progress(fmt.Sprintf("Transcribing segment %d/%d...", chunk.Number, chunk.Total))
	transcript, err := retryEmpty(ctx, t.attempts, t.backoff,
		func() {
			progress(fmt.Sprintf("Transcription of segment %d/%d failed, retrying...", chunk.Number, chunk.Total))
		},
		func(ctx context.Context) (string, error) {
			text, err := t.transcriber.Transcribe(ctx, locator)
			if err != nil {
				t.logger.Warn("Transcription call failed",
					slog.String("job_id", chunk.JobID),
					slog.Int("chunk", chunk.Number),
					slog.String("error", err.Error()),
				)
				return "", nil
			}
			return text, nil
		},
	)
	if err != nil {
		return "", err
	}
	if transcript == "" {
		return "", nil
	}

	progress(fmt.Sprintf("Rewriting segment %d/%d...", chunk.Number, chunk.Total))
	out, err := retryEmpty(ctx, t.attempts, t.backoff,
		func() {
			progress(fmt.Sprintf("Rewrite of segment %d/%d failed, retrying...", chunk.Number, chunk.Total))
		},
		func(ctx context.Context) (string, error) {
			text, err := t.rewriter.Rewrite(ctx, transcript, instruction)
			if err != nil {
				t.logger.Warn("Rewrite call failed",
					slog.String("job_id", chunk.JobID),
					slog.Int("chunk", chunk.Number),
					slog.String("error", err.Error()),
				)
				return "", nil
			}
			return text, nil
		},
	)
	if err != nil {
		return "", err
	}
	return out, nil
}

// checkUploadedDuration probes the uploaded blob and warns when it deviates
// noticeably from the planned window, which usually means the extraction was
// truncated. Diagnostic only.
func (t *AudioChunkTransformer) checkUploadedDuration(ctx context.Context, chunk Chunk, locator string) {
	probed, err := t.blobs.ProbeDuration(ctx, locator)
	if err != nil {
		t.logger.Debug("Duration probe failed",
			slog.String("job_id", chunk.JobID),
			slog.String("locator", locator),
			slog.String("error", err.Error()),
		)
		return
	}

	planned := chunk.Window.DurSec
	if planned > 0 && math.Abs(probed-planned) > planned*0.1 {
		t.logger.Warn("Uploaded segment duration deviates from planned window",
			slog.String("job_id", chunk.JobID),
			slog.Int("chunk", chunk.Number),
			slog.Float64("planned_sec", planned),
			slog.Float64("probed_sec", probed),
		)
	}
}
