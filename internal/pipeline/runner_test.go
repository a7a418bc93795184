package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribehub/scribe-be/internal/domain"
)

// In-memory doubles for the pipeline's persistence interfaces. They mimic
// the database semantics the runner relies on: atomic find-or-create and an
// append-only, ordered event log.

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newMemSessions(sessions ...*domain.Session) *memSessions {
	m := &memSessions{sessions: make(map[string]*domain.Session)}
	for _, s := range sessions {
		m.sessions[s.ID] = s
	}
	return m
}

func (m *memSessions) FindByID(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *memSessions) UpdateTitle(_ context.Context, id, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.Title = title
	}
	return nil
}

func (m *memSessions) MarkCompleted(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.Completed = true
	}
	return nil
}

func (m *memSessions) get(id string) domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.sessions[id]
}

type memJobs struct {
	mu        sync.Mutex
	jobs      map[string]*domain.Job
	bySession map[string]string
}

func newMemJobs() *memJobs {
	return &memJobs{
		jobs:      make(map[string]*domain.Job),
		bySession: make(map[string]string),
	}
}

func (m *memJobs) FindOrCreate(_ context.Context, sessionID string) (*domain.Job, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if jobID, ok := m.bySession[sessionID]; ok {
		copied := *m.jobs[jobID]
		return &copied, false, nil
	}
	job := &domain.Job{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Status:    domain.JobStatusPending,
		CreatedAt: time.Now(),
	}
	m.jobs[job.ID] = job
	m.bySession[sessionID] = job.ID
	copied := *job
	return &copied, true, nil
}

func (m *memJobs) SetStatus(_ context.Context, jobID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	job.Status = status
	return nil
}

func (m *memJobs) SetError(_ context.Context, jobID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	job.Status = domain.JobStatusError
	job.ErrorMessage = message
	return nil
}

func (m *memJobs) SaveFinalResult(_ context.Context, jobID, finalText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	job.Status = domain.JobStatusCompleted
	job.FinalText = finalText
	return nil
}

func (m *memJobs) get(jobID string) domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.jobs[jobID]
}

type memEvents struct {
	mu     sync.Mutex
	events map[string][]domain.Event
}

func newMemEvents() *memEvents {
	return &memEvents{events: make(map[string][]domain.Event)}
}

func (m *memEvents) Append(_ context.Context, jobID, content string, completed bool) (*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event := domain.Event{
		ID:        uuid.New().String(),
		JobID:     jobID,
		Content:   content,
		Completed: completed,
		CreatedAt: time.Now().UTC(),
	}
	m.events[jobID] = append(m.events[jobID], event)
	return &event, nil
}

func (m *memEvents) ListByJob(_ context.Context, jobID string) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Event(nil), m.events[jobID]...), nil
}

type recordedFrame struct {
	content   string
	completed bool
}

type recordingHub struct {
	mu     sync.Mutex
	frames map[string][]recordedFrame
}

func newRecordingHub() *recordingHub {
	return &recordingHub{frames: make(map[string][]recordedFrame)}
}

func (r *recordingHub) Publish(jobID, content string, completed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames[jobID] = append(r.frames[jobID], recordedFrame{content: content, completed: completed})
}

type upperRewriter struct{}

func (upperRewriter) Rewrite(_ context.Context, text, _ string) (string, error) {
	return strings.ToUpper(text), nil
}

type identityRewriter struct{}

func (identityRewriter) Rewrite(_ context.Context, text, _ string) (string, error) {
	return text, nil
}

type staticResolver struct {
	info SourceInfo
}

func (s staticResolver) Resolve(context.Context, string) (*SourceInfo, error) {
	copied := s.info
	return &copied, nil
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, string) (*SourceInfo, error) {
	return nil, errors.New("no playable source found")
}

type recordingNotifier struct {
	mu       sync.Mutex
	statuses []string
}

func (r *recordingNotifier) JobFinished(_ context.Context, _, _, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func testRunnerConfig() Config {
	return Config{
		WordsPerChunk:  2,
		SegmentSeconds: 600,
		RetryAttempts:  1,
		RetryBackoff:   time.Millisecond,
		StepDelay:      0,
	}
}

func completedEvents(events []domain.Event) []domain.Event {
	var out []domain.Event
	for _, e := range events {
		if e.Completed {
			out = append(out, e)
		}
	}
	return out
}

func TestRunner_EditJobCompletes(t *testing.T) {
	session := &domain.Session{
		ID:     uuid.New().String(),
		Kind:   domain.SessionKindEdit,
		Text:   "a b c d",
		Prompt: "rewrite it",
		Title:  "Test Title",
	}
	sessions := newMemSessions(session)
	jobs := newMemJobs()
	events := newMemEvents()
	eventHub := newRecordingHub()
	notifier := &recordingNotifier{}

	job, created, err := jobs.FindOrCreate(context.Background(), session.ID)
	require.NoError(t, err)
	require.True(t, created)

	runner := NewRunner(RunnerDeps{
		Sessions: sessions,
		Jobs:     jobs,
		Events:   events,
		Rewriter: upperRewriter{},
		Hub:      eventHub,
		Notifier: notifier,
		Logger:   testLogger(),
	}, testRunnerConfig())

	runner.Run(context.Background(), job.ID, session.ID)

	final := jobs.get(job.ID)
	assert.Equal(t, domain.JobStatusCompleted, final.Status)

	// Word bound 2 splits "a b c d" into "a b" and "c d"; the uppercase
	// transformer keeps them in segment order in the artifact.
	assert.Contains(t, final.FinalText, "A B")
	assert.Contains(t, final.FinalText, "C D")
	assert.Less(t, strings.Index(final.FinalText, "A B"), strings.Index(final.FinalText, "C D"))
	assert.Contains(t, final.FinalText, "Test Title")

	log, err := events.ListByJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.NotEmpty(t, log)

	terminal := completedEvents(log)
	require.Len(t, terminal, 1)
	assert.Equal(t, terminal[0].ID, log[len(log)-1].ID, "terminal event must be last")
	assert.Equal(t, final.FinalText, terminal[0].Content)

	// Broadcast order matches the durable log.
	frames := eventHub.frames[job.ID]
	require.Len(t, frames, len(log))
	for i, e := range log {
		assert.Equal(t, e.Content, frames[i].content)
		assert.Equal(t, e.Completed, frames[i].completed)
	}

	assert.True(t, sessions.get(session.ID).Completed)
	assert.Equal(t, []string{domain.JobStatusCompleted}, notifier.statuses)
}

func TestRunner_ChunkFailureBecomesPlaceholder(t *testing.T) {
	session := &domain.Session{
		ID:   uuid.New().String(),
		Kind: domain.SessionKindEdit,
		Text: "a b c d",
	}
	sessions := newMemSessions(session)
	jobs := newMemJobs()
	events := newMemEvents()

	job, _, err := jobs.FindOrCreate(context.Background(), session.ID)
	require.NoError(t, err)

	// First chunk fails on both tries, second succeeds immediately.
	rewriter := &scriptedRewriter{responses: []scriptedResult{
		{text: ""},
		{text: ""},
		{text: "second chunk"},
	}}

	runner := NewRunner(RunnerDeps{
		Sessions: sessions,
		Jobs:     jobs,
		Events:   events,
		Rewriter: rewriter,
		Hub:      newRecordingHub(),
		Logger:   testLogger(),
	}, testRunnerConfig())

	runner.Run(context.Background(), job.ID, session.ID)

	final := jobs.get(job.ID)
	assert.Equal(t, domain.JobStatusCompleted, final.Status, "a failed chunk must not fail the job")
	assert.Contains(t, final.FinalText, FailedChunkPlaceholder(1, 2))
	assert.Contains(t, final.FinalText, "second chunk")

	log, err := events.ListByJob(context.Background(), job.ID)
	require.NoError(t, err)
	joined := ""
	for _, e := range log {
		joined += e.Content + "\n"
	}
	assert.Contains(t, joined, "Chunk 1/2 failed, retrying")
	assert.Contains(t, joined, "Chunk 1/2 could not be processed")
	assert.Contains(t, joined, "Chunk 2/2 done")
}

func TestRunner_TranscribeJobCompletes(t *testing.T) {
	session := &domain.Session{
		ID:   uuid.New().String(),
		Kind: domain.SessionKindTranscribe,
		URL:  "https://video.example/watch?v=abc",
	}
	sessions := newMemSessions(session)
	jobs := newMemJobs()
	events := newMemEvents()
	notifier := &recordingNotifier{}

	job, _, err := jobs.FindOrCreate(context.Background(), session.ID)
	require.NoError(t, err)

	resolver := staticResolver{info: SourceInfo{
		Title:       "Suhbat",
		DurationSec: 1500,
		AudioURL:    "https://cdn.example/audio.m4a",
	}}
	blobs := &fakeBlobStore{probeSec: 600}
	transcriber := &scriptedTranscriber{responses: []scriptedResult{{text: "салом дунё"}}}

	runner := NewRunner(RunnerDeps{
		Sessions:    sessions,
		Jobs:        jobs,
		Events:      events,
		Rewriter:    identityRewriter{},
		Transcriber: transcriber,
		Blobs:       blobs,
		Resolver:    resolver,
		Extractor:   &fakeExtractor{},
		Hub:         newRecordingHub(),
		Notifier:    notifier,
		Logger:      testLogger(),
	}, testRunnerConfig())

	runner.Run(context.Background(), job.ID, session.ID)

	final := jobs.get(job.ID)
	require.Equal(t, domain.JobStatusCompleted, final.Status)

	// 1500s at 600s per segment: three windows, three transcripts, each
	// transliterated to Latin script in the artifact.
	assert.Equal(t, 3, len(blobs.uploads))
	assert.Equal(t, 3, len(blobs.deletes), "every segment blob must be cleaned up")
	assert.Contains(t, final.FinalText, "salom dunyo")
	assert.NotContains(t, final.FinalText, "салом")

	// The discovered title lands on the session and in the artifact.
	assert.Equal(t, "Suhbat", sessions.get(session.ID).Title)
	assert.Contains(t, final.FinalText, "Suhbat")

	assert.Equal(t, []string{domain.JobStatusCompleted}, notifier.statuses)
}

func TestRunner_UnresolvableSourceFailsJob(t *testing.T) {
	session := &domain.Session{
		ID:   uuid.New().String(),
		Kind: domain.SessionKindTranscribe,
		URL:  "https://video.example/watch?v=gone",
	}
	sessions := newMemSessions(session)
	jobs := newMemJobs()
	events := newMemEvents()
	notifier := &recordingNotifier{}

	job, _, err := jobs.FindOrCreate(context.Background(), session.ID)
	require.NoError(t, err)

	runner := NewRunner(RunnerDeps{
		Sessions: sessions,
		Jobs:     jobs,
		Events:   events,
		Rewriter: identityRewriter{},
		Resolver: failingResolver{},
		Hub:      newRecordingHub(),
		Notifier: notifier,
		Logger:   testLogger(),
	}, testRunnerConfig())

	runner.Run(context.Background(), job.ID, session.ID)

	final := jobs.get(job.ID)
	assert.Equal(t, domain.JobStatusError, final.Status)
	assert.Empty(t, final.FinalText)
	assert.NotEmpty(t, final.ErrorMessage)

	log, err := events.ListByJob(context.Background(), job.ID)
	require.NoError(t, err)
	terminal := completedEvents(log)
	require.Len(t, terminal, 1)
	assert.Equal(t, terminal[0].ID, log[len(log)-1].ID)
	assert.True(t, strings.HasPrefix(terminal[0].Content, "Error: "))

	assert.False(t, sessions.get(session.ID).Completed)
	assert.Equal(t, []string{domain.JobStatusError}, notifier.statuses)
}

func TestRunner_PanicTerminatesJob(t *testing.T) {
	session := &domain.Session{
		ID:   uuid.New().String(),
		Kind: domain.SessionKindEdit,
		Text: "a b",
	}
	sessions := newMemSessions(session)
	jobs := newMemJobs()
	events := newMemEvents()

	job, _, err := jobs.FindOrCreate(context.Background(), session.ID)
	require.NoError(t, err)

	runner := NewRunner(RunnerDeps{
		Sessions: sessions,
		Jobs:     jobs,
		Events:   events,
		Rewriter: panickingRewriter{},
		Hub:      newRecordingHub(),
		Logger:   testLogger(),
	}, testRunnerConfig())

	require.NotPanics(t, func() {
		runner.Run(context.Background(), job.ID, session.ID)
	})

	final := jobs.get(job.ID)
	assert.Equal(t, domain.JobStatusError, final.Status)

	log, err := events.ListByJob(context.Background(), job.ID)
	require.NoError(t, err)
	terminal := completedEvents(log)
	require.Len(t, terminal, 1)
}

type panickingRewriter struct{}

func (panickingRewriter) Rewrite(context.Context, string, string) (string, error) {
	panic("provider client got into a bad state")
}
