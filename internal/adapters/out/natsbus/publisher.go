// Package natsbus carries lifecycle events over a NATS JetStream stream.
//
// Every event is published as its JSON envelope on
// "optimization.<DETAIL_TYPE>" with the event id as the JetStream message id,
// so a republished event inside the duplicate window is stored once.
package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"routeopt/internal/core/domain/model/optimization"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// SubjectPrefix is the first token of every lifecycle event subject.
const SubjectPrefix = optimization.EventSource

// AllEvents matches every lifecycle event subject.
const AllEvents = SubjectPrefix + ".>"

const defaultPublishTimeout = 5 * time.Second

// Subject returns the subject an event type is published on.
func Subject(eventType optimization.EventType) string {
	return SubjectPrefix + "." + eventType.String()
}

type StreamOptions struct {
	Name string

	// MaxAge is how long the stream keeps events, acknowledged or not.
	MaxAge     time.Duration
	Duplicates time.Duration
	Replicas   int
}

func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		Name:       "OPTIMIZATION_EVENTS",
		MaxAge:     7 * 24 * time.Hour,
		Duplicates: 2 * time.Minute,
		Replicas:   1,
	}
}

// EnsureStream creates the lifecycle event stream or updates its limits.
// Publishers and the router both call it at start-up.
func EnsureStream(ctx context.Context, js jetstream.JetStream, opts StreamOptions) (jetstream.Stream, error) {
	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       opts.Name,
		Subjects:   []string{AllEvents},
		Storage:    jetstream.FileStorage,
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     opts.MaxAge,
		Duplicates: opts.Duplicates,
		Replicas:   opts.Replicas,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure stream %s: %w", opts.Name, err)
	}
	return stream, nil
}

type Publisher struct {
	js      jetstream.JetStream
	timeout time.Duration
}

func NewPublisher(js jetstream.JetStream) *Publisher {
	return &Publisher{js: js, timeout: defaultPublishTimeout}
}

// Publish returns once the stream has stored the event. A publish with no
// stream bound to the subject fails instead of being dropped.
func (p *Publisher) Publish(ctx context.Context, event optimization.LifecycleEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(Subject(event.Type))
	msg.Data = data

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if _, err = p.js.PublishMsg(ctx, msg, jetstream.WithMsgID(event.ID)); err != nil {
		return fmt.Errorf("publish %s event %s: %w", event.Type, event.ID, err)
	}
	return nil
}

// Decode reads a lifecycle event from a message payload.
func Decode(data []byte) (optimization.LifecycleEvent, error) {
	var event optimization.LifecycleEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return optimization.LifecycleEvent{}, err
	}
	return event, nil
}

// ErrorHandler logs asynchronous connection errors. Slow consumer errors
// mean the client dropped messages and are logged at error level.
func ErrorHandler(logger *slog.Logger) nats.ErrHandler {
	logger = logger.With("component", "nats")

	return func(_ *nats.Conn, sub *nats.Subscription, err error) {
		subject := ""
		if sub != nil {
			subject = sub.Subject
		}

		if errors.Is(err, nats.ErrSlowConsumer) {
			logger.Error("Slow consumer, messages dropped", "subject", subject, "error", err)
			return
		}
		logger.Warn("NATS async error", "subject", subject, "error", err)
	}
}
