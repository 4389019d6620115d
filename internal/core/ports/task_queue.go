package ports

import (
	"context"
	"time"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"
)

// QueueMessage is one received job. Receipt identifies this particular
// delivery and is required to ack or extend it.
type QueueMessage struct {
	ID           string
	Receipt      string
	ReceiveCount int64
	Job          optimization.JobMessage
	SentAt       time.Time
}

// QueueStats are the queue depth metrics the autoscaler samples.
type QueueStats struct {
	Visible      int64
	NotVisible   int64
	DeadLettered int64
}

// TaskQueue is an at-least-once job queue with a visibility timeout.
// A message received more than the configured maximum number of times is
// moved to the dead-letter list instead of being delivered again.
type TaskQueue interface {
	Send(ctx context.Context, problemID kernel.UUID) (string, error)

	// Receive returns the next visible message, or nil when the queue is empty.
	Receive(ctx context.Context) (*QueueMessage, error)

	// Delete acks a delivery. Acking an expired or unknown receipt is a no-op.
	Delete(ctx context.Context, receipt string) error

	// ChangeVisibility extends the lease of a delivery.
	ChangeVisibility(ctx context.Context, receipt string, timeout time.Duration) error

	Stats(ctx context.Context) (QueueStats, error)
}

// QueueDeadLetters gives operators access to dead-lettered jobs.
type QueueDeadLetters interface {
	ListDeadLetters(ctx context.Context, limit int64) ([]QueueMessage, error)

	// ReplayDeadLetters moves up to count messages back to the ready list with
	// a reset receive count and returns how many were moved.
	ReplayDeadLetters(ctx context.Context, count int64) (int64, error)
}
