package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/scribehub/scribe-be/internal/domain"
	"github.com/scribehub/scribe-be/internal/hub"
)

// Stream handles GET /api/v1/events/:session_id
// Opens a server-sent-events stream for the session's job: finds or creates
// the job (launching the run exactly when the job is new), replays the full
// durable log, then forwards live events until the client disconnects. A
// terminal event does not close the stream; the client decides when to go.
func (h *EventHandler) Stream(c *gin.Context) {
	sessionID := c.Param("session_id")
	if _, err := uuid.Parse(sessionID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "session_id must be a valid UUID",
		})
		return
	}

	ctx := c.Request.Context()

	job, err := h.service.ObserveSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Session not found",
			})
			return
		}
		h.logger.Error("Failed to observe session",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to observe session",
		})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Streaming not supported",
		})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Attach before replaying so nothing published during the replay query
	// is lost. A frame landing in both is possible and harmless.
	observer := h.hub.Register(job.ID)
	defer h.hub.Unregister(observer)

	h.logger.Info("Observer attached",
		slog.String("session_id", sessionID),
		slog.String("job_id", job.ID),
	)

	events, err := h.service.Replay(ctx, job.ID)
	if err != nil {
		h.logger.Error("Failed to replay events",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	for _, e := range events {
		if !h.writeFrame(c, flusher, hub.Message{
			Content:   e.Content,
			Completed: e.Completed,
			CreatedAt: e.CreatedAt,
		}) {
			return
		}
	}

	for {
		select {
		case msg, ok := <-observer.Events():
			if !ok {
				return
			}
			if !h.writeFrame(c, flusher, msg) {
				return
			}
		case <-ctx.Done():
			h.logger.Info("Observer detached",
				slog.String("job_id", job.ID),
			)
			return
		}
	}
}

// FindAll handles GET /api/v1/events/:session_id/find-all
// Returns the session's full progress log as plain JSON, without attaching
// an observer or starting a run.
func (h *EventHandler) FindAll(c *gin.Context) {
	sessionID := c.Param("session_id")
	if _, err := uuid.Parse(sessionID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "session_id must be a valid UUID",
		})
		return
	}

	ctx := c.Request.Context()

	job, err := h.jobs.FindBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusOK, gin.H{"events": []domain.Event{}})
			return
		}
		h.logger.Error("Failed to find job",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to find job",
		})
		return
	}

	events, err := h.service.Replay(ctx, job.ID)
	if err != nil {
		h.logger.Error("Failed to list events",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list events",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// writeFrame sends one SSE data frame. Returns false when the connection is
// no longer writable.
func (h *EventHandler) writeFrame(c *gin.Context, flusher http.Flusher, msg hub.Message) bool {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode event frame", slog.String("error", err.Error()))
		return false
	}

	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
		return false
	}
	flusher.Flush()

	return true
}
