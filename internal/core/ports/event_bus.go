package ports

import (
	"context"
	"time"

	"routeopt/internal/core/domain/model/optimization"
)

// EventPublisher puts lifecycle events on the bus.
type EventPublisher interface {
	Publish(ctx context.Context, event optimization.LifecycleEvent) error
}

// DeadLetterEvent is a lifecycle event the router gave up on.
type DeadLetterEvent struct {
	Event    optimization.LifecycleEvent `json:"event"`
	Reason   string                      `json:"reason"`
	Attempts int                         `json:"attempts"`
	FailedAt time.Time                   `json:"failedAt"`
}

// EventDeadLetters stores events whose delivery was exhausted.
type EventDeadLetters interface {
	Add(ctx context.Context, entry DeadLetterEvent) error
	List(ctx context.Context, limit int64) ([]DeadLetterEvent, error)
}
