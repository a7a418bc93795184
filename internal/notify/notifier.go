// Package notify publishes terminal job notifications to RabbitMQ so
// external consumers (billing, analytics, cleanup) can react to finished
// jobs without polling the database. Publishing is fire-and-forget: a broker
// failure is logged and never surfaces into the job.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/scribehub/scribe-be/shared/rabbitmq"
)

// Notification is the message body published on terminal transitions.
type Notification struct {
	JobID      string    `json:"job_id"`
	SessionID  string    `json:"session_id"`
	Status     string    `json:"status"`
	FinishedAt time.Time `json:"finished_at"`
}

// Notifier publishes Notifications through a RabbitMQ client.
type Notifier struct {
	client *rabbitmq.Client
	logger *slog.Logger
}

// New creates a notifier over an established client.
func New(client *rabbitmq.Client, logger *slog.Logger) *Notifier {
	return &Notifier{
		client: client,
		logger: logger,
	}
}

// JobFinished publishes one terminal notification. Best-effort.
func (n *Notifier) JobFinished(ctx context.Context, jobID, sessionID, status string) {
	body, err := json.Marshal(Notification{
		JobID:      jobID,
		SessionID:  sessionID,
		Status:     status,
		FinishedAt: time.Now().UTC(),
	})
	if err != nil {
		n.logger.Error("Failed to serialize job notification",
			slog.String("job_id", jobID),
			slog.Any("error", err),
		)
		return
	}

	if err := n.client.Publish(ctx, body, "application/json"); err != nil {
		n.logger.Error("Failed to publish job notification",
			slog.String("job_id", jobID),
			slog.String("status", status),
			slog.Any("error", err),
		)
		return
	}

	n.logger.Info("Job notification published",
		slog.String("job_id", jobID),
		slog.String("status", status),
	)
}
