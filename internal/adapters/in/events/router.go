// Package events routes lifecycle events from the bus to the status updater.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"routeopt/internal/adapters/out/natsbus"
	"routeopt/internal/core/application/usecases/commands"
	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/core/ports"
	"routeopt/internal/pkg/retry"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"
)

// EventApplier is the status updater as seen by the router.
type EventApplier interface {
	Handle(ctx context.Context, cmd commands.ApplyLifecycleEventCommand) error
}

// Delivery is one stored event handed out by the consumer. jetstream.Msg
// satisfies it.
type Delivery interface {
	Data() []byte
	Subject() string
	Metadata() (*jetstream.MsgMetadata, error)
	Ack() error
	NakWithDelay(delay time.Duration) error
	Term() error
}

type RouterOptions struct {
	Stream  string
	Durable string
	Subject string

	// BatchSize caps how many stored events one fetch returns. Events of one
	// fetch are coalesced per problemId.
	BatchSize   int
	FetchWait   time.Duration
	Concurrency int
	AckWait     time.Duration

	// MaxAge is measured from the event time. Older events are dead-lettered
	// without delivery.
	MaxAge          time.Duration
	Attempts        int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRouterOptions() RouterOptions {
	return RouterOptions{
		Stream:          natsbus.DefaultStreamOptions().Name,
		Durable:         "status-updater",
		Subject:         natsbus.AllEvents,
		BatchSize:       64,
		FetchWait:       time.Second,
		Concurrency:     8,
		AckWait:         30 * time.Second,
		MaxAge:          time.Hour,
		Attempts:        5,
		InitialInterval: time.Second,
		MaxInterval:     time.Minute,
	}
}

// Router pulls lifecycle events from a durable consumer. Several router
// processes bound to the same durable share the stream. A failed delivery is
// negatively acknowledged with a backoff delay, so it never holds up the
// events behind it.
type Router struct {
	js          jetstream.JetStream
	applier     EventApplier
	deadLetters ports.EventDeadLetters
	opts        RouterOptions
	logger      *slog.Logger
	now         func() time.Time
}

func NewRouter(
	js jetstream.JetStream,
	applier EventApplier,
	deadLetters ports.EventDeadLetters,
	opts RouterOptions,
	logger *slog.Logger,
) *Router {
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.FetchWait <= 0 {
		opts.FetchWait = time.Second
	}
	return &Router{
		js:          js,
		applier:     applier,
		deadLetters: deadLetters,
		opts:        opts,
		logger:      logger.With("component", "event_router"),
		now:         time.Now,
	}
}

// Consumer creates or updates the durable consumer the router pulls from.
func (r *Router) Consumer(ctx context.Context) (jetstream.Consumer, error) {
	return r.js.CreateOrUpdateConsumer(ctx, r.opts.Stream, jetstream.ConsumerConfig{
		Durable:       r.opts.Durable,
		FilterSubject: r.opts.Subject,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       r.opts.AckWait,
		// One delivery past Attempts is kept for dead-lettering an event
		// whose last attempt was never settled.
		MaxDeliver: r.opts.Attempts + 1,
	})
}

// Run consumes until ctx is done.
func (r *Router) Run(ctx context.Context) error {
	consumer, err := r.Consumer(ctx)
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "Event router consuming",
		"stream", r.opts.Stream, "durable", r.opts.Durable, "subject", r.opts.Subject)

	for {
		if ctx.Err() != nil {
			r.logger.InfoContext(ctx, "Event router stopped")
			return nil
		}

		batch, err := consumer.Fetch(r.opts.BatchSize, jetstream.FetchMaxWait(r.opts.FetchWait))
		if err != nil {
			r.logger.WarnContext(ctx, "Event fetch failed", "error", err)
			r.pause(ctx)
			continue
		}

		var msgs []Delivery
		for msg := range batch.Messages() {
			msgs = append(msgs, msg)
		}
		if err = batch.Error(); err != nil && !isFetchTimeout(err) {
			r.logger.WarnContext(ctx, "Event fetch ended with error", "error", err, "received", len(msgs))
		}

		if len(msgs) > 0 {
			r.HandleBatch(ctx, msgs)
		}
	}
}

// HandleBatch decodes, filters and coalesces one fetch, then applies each
// surviving event concurrently. Every delivery is settled before it returns.
func (r *Router) HandleBatch(ctx context.Context, msgs []Delivery) {
	events := make([]optimization.LifecycleEvent, 0, len(msgs))
	byEvent := make(map[string][]Delivery, len(msgs))

	for _, msg := range msgs {
		event, err := natsbus.Decode(msg.Data())
		if err == nil {
			err = event.Validate()
		}
		if err != nil {
			r.logger.WarnContext(ctx, "Event dropped", "subject", msg.Subject(), "error", err)
			r.settle(ctx, msg.Term)
			continue
		}
		if _, seen := byEvent[event.ID]; !seen {
			events = append(events, event)
		}
		byEvent[event.ID] = append(byEvent[event.ID], msg)
	}

	coalesced := optimization.Coalesce(events)
	kept := make(map[string]bool, len(coalesced))
	for _, event := range coalesced {
		kept[event.ID] = true
	}
	if dropped := len(events) - len(coalesced); dropped > 0 {
		r.logger.DebugContext(ctx, "Events coalesced", "received", len(events), "kept", len(coalesced))
		for id, deliveries := range byEvent {
			if !kept[id] {
				r.settleAll(ctx, deliveries, Delivery.Ack)
			}
		}
	}

	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)
	for _, event := range coalesced {
		g.Go(func() error {
			r.deliver(ctx, event, byEvent[event.ID])
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Router) deliver(ctx context.Context, event optimization.LifecycleEvent, msgs []Delivery) {
	log := r.logger.With(
		"eventId", event.ID,
		"problemId", event.Detail.ProblemID,
		"detailType", event.Type.String(),
	)

	delivered := deliveryCount(msgs[0])
	previous := delivered - 1

	age := event.Age(r.now())
	if age >= r.opts.MaxAge {
		r.deadLetter(ctx, log, event, msgs, "event exceeded max age before delivery", previous)
		return
	}
	if delivered > r.opts.Attempts {
		r.deadLetter(ctx, log, event, msgs, "event was not acknowledged within the retry attempts", previous)
		return
	}

	cmd, err := commands.NewApplyLifecycleEventCommand(event)
	if err != nil {
		log.WarnContext(ctx, "Event dropped", "error", err)
		r.settleAll(ctx, msgs, Delivery.Term)
		return
	}

	err = r.applier.Handle(ctx, cmd)
	if err == nil {
		r.settleAll(ctx, msgs, Delivery.Ack)
		return
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		log.WarnContext(ctx, "Event delivery interrupted by shutdown", "attempt", delivered)
		r.nak(ctx, msgs, 0)
		return
	}
	if delivered >= r.opts.Attempts || retry.IsPermanent(err) {
		r.deadLetter(ctx, log, event, msgs, err.Error(), delivered)
		return
	}

	delay := r.policy().Delay(delivered)
	if remaining := r.opts.MaxAge - age; delay > remaining {
		delay = remaining
	}
	log.WarnContext(ctx, "Event delivery failed, redelivering",
		"attempt", delivered, "delay", delay.String(), "error", err)
	r.nak(ctx, msgs, delay)
}

func (r *Router) deadLetter(
	ctx context.Context,
	log *slog.Logger,
	event optimization.LifecycleEvent,
	msgs []Delivery,
	reason string,
	attempts int,
) {
	entry := ports.DeadLetterEvent{
		Event:    event,
		Reason:   reason,
		Attempts: attempts,
		FailedAt: r.now().UTC(),
	}

	if err := r.deadLetters.Add(context.WithoutCancel(ctx), entry); err != nil {
		log.ErrorContext(ctx, "Dead-letter write failed, event left for redelivery", "reason", reason, "error", err)
		r.nak(ctx, msgs, r.opts.InitialInterval)
		return
	}

	log.ErrorContext(ctx, "Event dead-lettered", "reason", reason, "attempts", attempts)
	r.settleAll(ctx, msgs, Delivery.Term)
}

func (r *Router) policy() retry.Policy {
	return retry.Policy{
		Attempts:        r.opts.Attempts,
		InitialInterval: r.opts.InitialInterval,
		MaxInterval:     r.opts.MaxInterval,
	}
}

func (r *Router) nak(ctx context.Context, msgs []Delivery, delay time.Duration) {
	r.settleAll(ctx, msgs, func(d Delivery) error {
		return d.NakWithDelay(delay)
	})
}

func (r *Router) settleAll(ctx context.Context, msgs []Delivery, settle func(Delivery) error) {
	for _, msg := range msgs {
		r.settle(ctx, func() error { return settle(msg) })
	}
}

func (r *Router) settle(ctx context.Context, settle func() error) {
	if err := settle(); err != nil {
		r.logger.WarnContext(ctx, "Event settlement failed", "error", err)
	}
}

func (r *Router) pause(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(r.opts.FetchWait):
	}
}

func deliveryCount(msg Delivery) int {
	meta, err := msg.Metadata()
	if err != nil || meta.NumDelivered == 0 {
		return 1
	}
	return int(meta.NumDelivered)
}

func isFetchTimeout(err error) bool {
	return errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
