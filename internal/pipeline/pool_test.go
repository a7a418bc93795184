package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type recordingRunner struct {
	mu   sync.Mutex
	runs []string
	done chan struct{}
}

func newRecordingRunner(expected int) *recordingRunner {
	return &recordingRunner{done: make(chan struct{}, expected)}
}

func (r *recordingRunner) Run(_ context.Context, jobID, _ string) {
	r.mu.Lock()
	r.runs = append(r.runs, jobID)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recordingRunner) waitFor(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for run %d of %d", i+1, n)
		}
	}
}

func TestPool_RunsEnqueuedJobs(t *testing.T) {
	runner := newRecordingRunner(3)
	pool := NewPool(runner, 2, 8, testLogger())
	pool.Start(context.Background())
	defer pool.Stop()

	pool.Enqueue("job-1", "session-1")
	pool.Enqueue("job-2", "session-2")
	pool.Enqueue("job-3", "session-3")

	runner.waitFor(t, 3)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.ElementsMatch(t, []string{"job-1", "job-2", "job-3"}, runner.runs)
}

func TestPool_EnqueueNeverBlocks(t *testing.T) {
	runner := newRecordingRunner(8)
	// Stopped pool with a tiny queue: sends past capacity must not block.
	pool := NewPool(runner, 1, 1, testLogger())

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 8; i++ {
			pool.Enqueue("job", "session")
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}

	pool.Start(context.Background())
	defer pool.Stop()
	runner.waitFor(t, 1)
}

func TestPool_StopLogsDroppedOverflowRun(t *testing.T) {
	output := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(output, nil))

	runner := newRecordingRunner(1)
	// Stopped pool, queue of one: the second enqueue parks on the overflow
	// goroutine and Stop abandons it.
	pool := NewPool(runner, 1, 1, logger)

	pool.Enqueue("job-1", "session-1")
	pool.Enqueue("job-2", "session-2")

	pool.Stop()

	require.Eventually(t, func() bool {
		return strings.Contains(output.String(), "dropping queued run")
	}, 2*time.Second, 10*time.Millisecond, "dropped run was not logged")
	assert.Contains(t, output.String(), "job-2")

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Empty(t, runner.runs)
}

func TestPool_StopWaitsForWorkers(t *testing.T) {
	runner := newRecordingRunner(1)
	pool := NewPool(runner, 2, 4, testLogger())
	pool.Start(context.Background())

	pool.Enqueue("job-1", "session-1")
	runner.waitFor(t, 1)

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	require.Equal(t, []string{"job-1"}, runner.runs)
}
