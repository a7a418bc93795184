// Package hub is the in-memory fan-out registry: it maps job ids to the set
// of live observer channels and delivers every published event to all of
// them, best-effort. Observers are ephemeral and per-process; durable history
// lives in the events table, not here.
package hub

import (
	"log/slog"
	"sync"
	"time"
)

// Message is one progress frame delivered to observers.
type Message struct {
	Content   string    `json:"content"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// Observer is the receiving end of one live connection. The hub owns the
// channel: it is created by Register and closed by Unregister.
type Observer struct {
	ch    chan Message
	jobID string
}

// Events returns the channel live messages arrive on. It is closed when the
// observer is unregistered.
func (o *Observer) Events() <-chan Message {
	return o.ch
}

// Hub fans published messages out to every registered observer of a job.
type Hub struct {
	mu        sync.Mutex
	observers map[string]map[*Observer]struct{}
	buffer    int
	logger    *slog.Logger
}

// New creates an empty hub. buffer is the per-observer channel capacity; a
// full channel drops the frame for that observer rather than stalling the
// pipeline (the durable log still has it).
func New(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		observers: make(map[string]map[*Observer]struct{}),
		buffer:    buffer,
		logger:    logger,
	}
}

// Register attaches a new observer to a job's event stream.
func (h *Hub) Register(jobID string) *Observer {
	h.mu.Lock()
	defer h.mu.Unlock()

	o := &Observer{
		ch:    make(chan Message, h.buffer),
		jobID: jobID,
	}

	set, ok := h.observers[jobID]
	if !ok {
		set = make(map[*Observer]struct{})
		h.observers[jobID] = set
	}
	set[o] = struct{}{}

	h.logger.Debug("Observer registered",
		slog.String("job_id", jobID),
		slog.Int("observers", len(set)),
	)

	return o
}

// Unregister detaches an observer and closes its channel. Safe to call more
// than once. Publish and Unregister serialize on the hub mutex, so a close
// never races a send.
func (h *Hub) Unregister(o *Observer) {
	if o == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.observers[o.jobID]
	if !ok {
		return
	}
	if _, ok := set[o]; !ok {
		return
	}

	delete(set, o)
	close(o.ch)
	if len(set) == 0 {
		delete(h.observers, o.jobID)
	}

	h.logger.Debug("Observer unregistered",
		slog.String("job_id", o.jobID),
		slog.Int("observers", len(set)),
	)
}

// Publish delivers one frame to every current observer of the job. Delivery
// is best-effort: a slow observer whose buffer is full misses the frame, and
// no observer can block another or the publishing pipeline step.
func (h *Hub) Publish(jobID, content string, completed bool) {
	msg := Message{
		Content:   content,
		Completed: completed,
		CreatedAt: time.Now().UTC(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for o := range h.observers[jobID] {
		select {
		case o.ch <- msg:
		default:
			h.logger.Warn("Observer buffer full, dropping frame",
				slog.String("job_id", jobID),
			)
		}
	}
}

// ObserverCount reports how many observers are attached to a job.
func (h *Hub) ObserverCount(jobID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers[jobID])
}
