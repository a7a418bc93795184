package pipeline

import (
	"context"
	"log/slog"
	"sync"
)

// JobRunner executes one job to a terminal state.
type JobRunner interface {
	Run(ctx context.Context, jobID, sessionID string)
}

// runRequest identifies one detached pipeline run.
type runRequest struct {
	JobID     string
	SessionID string
}

// Pool runs pipelines on a fixed set of goroutines fed by a buffered queue.
// A run, once enqueued, executes detached from any observer connection; its
// outcome is observable only through the progress log and terminal event.
type Pool struct {
	logger      *slog.Logger
	runner      JobRunner
	concurrency int
	queue       chan runRequest
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// NewPool creates a stopped pool.
func NewPool(runner JobRunner, concurrency, queueSize int, logger *slog.Logger) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	if queueSize < 1 {
		queueSize = 128
	}
	return &Pool{
		logger:      logger,
		runner:      runner,
		concurrency: concurrency,
		queue:       make(chan runRequest, queueSize),
		stopChan:    make(chan struct{}),
	}
}

// Start spawns the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("Starting pipeline pool",
		slog.Int("concurrency", p.concurrency),
	)

	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.workerLoop(ctx, i)
	}
}

func (p *Pool) workerLoop(ctx context.Context, workerNum int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			p.logger.Info("Pipeline worker stopping",
				slog.Int("worker_num", workerNum),
			)
			return

		case <-ctx.Done():
			p.logger.Info("Pipeline worker stopping - context canceled",
				slog.Int("worker_num", workerNum),
			)
			return

		case req := <-p.queue:
			p.logger.Info("Pipeline worker picked up run",
				slog.Int("worker_num", workerNum),
				slog.String("job_id", req.JobID),
			)
			// Runs get a context detached from shutdown so an in-flight job
			// is not interrupted mid-chunk; Stop waits for it to finish.
			p.runner.Run(context.WithoutCancel(ctx), req.JobID, req.SessionID)
		}
	}
}

// Enqueue hands a run to the pool without ever blocking the caller: when the
// queue is full the send finishes on a detached goroutine.
func (p *Pool) Enqueue(jobID, sessionID string) {
	req := runRequest{JobID: jobID, SessionID: sessionID}

	select {
	case p.queue <- req:
	default:
		p.logger.Warn("Pipeline queue full, enqueueing asynchronously",
			slog.String("job_id", jobID),
		)
		go func() {
			select {
			case p.queue <- req:
			case <-p.stopChan:
				// The job stays PENDING; an operator has to re-create its
				// session or clear the job row to get it running again.
				p.logger.Warn("Pipeline pool stopped, dropping queued run",
					slog.String("job_id", req.JobID),
					slog.String("session_id", req.SessionID),
				)
			}
		}()
	}
}

// Stop signals the workers and waits for in-flight runs to finish.
func (p *Pool) Stop() {
	p.logger.Info("Stopping pipeline pool...")
	close(p.stopChan)
	p.wg.Wait()
	p.logger.Info("Pipeline pool stopped")
}
