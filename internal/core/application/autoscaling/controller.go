// Package autoscaling sizes the worker pool from queue depth.
//
// A sampler records queue stats at a short interval. Two independent loops,
// scale-out on visible messages and scale-in on in-flight messages, each
// consume the maximum seen since their previous evaluation, map it through a
// step policy and resize the pool, then wait out their own cooldown.
package autoscaling

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"routeopt/internal/core/domain/services"
	"routeopt/internal/core/ports"
)

const noSample = -1

// Decision describes one loop evaluation.
type Decision struct {
	Metric int64
	Delta  int
	From   int
	To     int

	// Scaled is true when capacity changed and the cooldown started.
	Scaled bool
	Reason string
}

type Options struct {
	ScaleOut services.StepPolicy
	ScaleIn  services.StepPolicy
	Bounds   services.CapacityBounds

	ScaleOutCooldown time.Duration
	ScaleInCooldown  time.Duration
}

func DefaultOptions() Options {
	return Options{
		ScaleOut: services.DefaultScaleOutPolicy(),
		ScaleIn:  services.DefaultScaleInPolicy(),
		Bounds:   services.CapacityBounds{Min: 0, Max: 100},

		ScaleOutCooldown: 300 * time.Second,
		ScaleInCooldown:  300 * time.Second,
	}
}

type Controller struct {
	stats    StatsSource
	capacity ports.WorkerCapacity
	opts     Options
	logger   *slog.Logger
	now      func() time.Time

	maxVisible  atomic.Int64
	maxInFlight atomic.Int64

	scaleOut loopState
	scaleIn  loopState

	// resize serializes read-modify-write of the pool capacity.
	resize sync.Mutex
}

// StatsSource is the slice of ports.TaskQueue the sampler needs.
type StatsSource interface {
	Stats(ctx context.Context) (ports.QueueStats, error)
}

type loopState struct {
	mu         sync.Mutex
	lastScaled time.Time
}

func NewController(stats StatsSource, capacity ports.WorkerCapacity, opts Options, logger *slog.Logger) *Controller {
	c := &Controller{
		stats:    stats,
		capacity: capacity,
		opts:     opts,
		logger:   logger.With("component", "autoscaler"),
		now:      time.Now,
	}
	c.maxVisible.Store(noSample)
	c.maxInFlight.Store(noSample)
	return c
}

// Sample reads queue stats once and folds them into both loop maxima.
func (c *Controller) Sample(ctx context.Context) error {
	stats, err := c.stats.Stats(ctx)
	if err != nil {
		return err
	}

	storeMax(&c.maxVisible, stats.Visible)
	storeMax(&c.maxInFlight, stats.NotVisible)
	return nil
}

// EvaluateScaleOut runs the scale-out loop once.
func (c *Controller) EvaluateScaleOut(ctx context.Context) Decision {
	return c.evaluate(ctx, "scale_out", &c.maxVisible, c.opts.ScaleOut, c.opts.ScaleOutCooldown, &c.scaleOut)
}

// EvaluateScaleIn runs the scale-in loop once.
func (c *Controller) EvaluateScaleIn(ctx context.Context) Decision {
	return c.evaluate(ctx, "scale_in", &c.maxInFlight, c.opts.ScaleIn, c.opts.ScaleInCooldown, &c.scaleIn)
}

func (c *Controller) evaluate(
	ctx context.Context,
	loop string,
	metric *atomic.Int64,
	policy services.StepPolicy,
	cooldown time.Duration,
	state *loopState,
) Decision {
	observed := metric.Swap(noSample)
	if observed == noSample {
		return Decision{Metric: observed, Reason: "no samples"}
	}

	decision := Decision{Metric: observed}

	delta, ok := policy.Delta(observed)
	if !ok {
		decision.Reason = "no action"
		return decision
	}
	decision.Delta = delta

	state.mu.Lock()
	defer state.mu.Unlock()

	now := c.now()
	if !state.lastScaled.IsZero() && now.Sub(state.lastScaled) < cooldown {
		decision.Reason = "cooldown"
		return decision
	}

	c.resize.Lock()
	current := c.capacity.Capacity()
	target, changed := c.opts.Bounds.Apply(current, delta)
	if changed {
		c.capacity.SetCapacity(target)
	}
	c.resize.Unlock()

	decision.From, decision.To = current, target
	if !changed {
		decision.Reason = "clamped"
		return decision
	}

	state.lastScaled = now
	decision.Scaled = true
	decision.Reason = "scaled"

	c.logger.InfoContext(ctx, "Worker capacity changed",
		"loop", loop, "metric", observed, "delta", delta, "from", current, "to", target)
	return decision
}

func storeMax(a *atomic.Int64, v int64) {
	for {
		current := a.Load()
		if v <= current {
			return
		}
		if a.CompareAndSwap(current, v) {
			return
		}
	}
}
