// Package queue runs the worker pool that consumes optimization jobs.
package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"routeopt/internal/core/application/usecases/commands"
	"routeopt/internal/core/ports"
)

// JobHandler processes one delivery. It acks the delivery itself.
type JobHandler interface {
	Handle(ctx context.Context, cmd commands.ProcessOptimizationCommand) error
}

type PoolOptions struct {
	// IdleWait is how long a worker sleeps after finding the queue empty or
	// failing to receive.
	IdleWait time.Duration
}

// Pool is a resizable set of workers, each receiving and processing one job
// at a time. It implements ports.WorkerCapacity: shrinking stops workers
// after their current job, growing starts new ones immediately.
type Pool struct {
	queue   ports.TaskQueue
	handler JobHandler
	opts    PoolOptions
	logger  *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	target  int
	workers []chan struct{}
	nextID  int
	stopped bool
	wg      sync.WaitGroup
}

func NewPool(queue ports.TaskQueue, handler JobHandler, opts PoolOptions, logger *slog.Logger) *Pool {
	if opts.IdleWait <= 0 {
		opts.IdleWait = time.Second
	}
	return &Pool{
		queue:   queue,
		handler: handler,
		opts:    opts,
		logger:  logger.With("component", "worker_pool"),
	}
}

// Run starts the workers requested so far and blocks until ctx is done and
// every worker returned.
func (p *Pool) Run(ctx context.Context) error {
	p.mu.Lock()
	p.ctx = ctx
	p.resize(p.target)
	p.mu.Unlock()

	<-ctx.Done()

	p.mu.Lock()
	p.stopped = true
	p.workers = nil
	p.mu.Unlock()

	p.wg.Wait()

	p.logger.InfoContext(ctx, "Worker pool stopped")
	return nil
}

// Capacity is the number of workers the pool is asked to run.
func (p *Pool) Capacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

// SetCapacity may be called before Run; the value is applied once Run starts.
func (p *Pool) SetCapacity(n int) {
	if n < 0 {
		n = 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.target = n
	if p.ctx != nil && !p.stopped {
		p.resize(n)
	}
}

// resize must be called with mu held.
func (p *Pool) resize(n int) {
	for len(p.workers) < n {
		stop := make(chan struct{})
		p.workers = append(p.workers, stop)
		p.nextID++
		p.wg.Add(1)
		go p.work(p.ctx, p.nextID, stop)
	}
	for len(p.workers) > n {
		last := len(p.workers) - 1
		close(p.workers[last])
		p.workers = p.workers[:last]
	}
}

func (p *Pool) work(ctx context.Context, id int, stop <-chan struct{}) {
	defer p.wg.Done()

	log := p.logger.With("worker", id)
	log.DebugContext(ctx, "Worker started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			log.DebugContext(ctx, "Worker released")
			return
		default:
		}

		msg, err := p.queue.Receive(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.ErrorContext(ctx, "Receive failed", "error", err)
			}
			p.idle(ctx, stop)
			continue
		}
		if msg == nil {
			p.idle(ctx, stop)
			continue
		}

		p.process(ctx, log, msg)
	}
}

func (p *Pool) process(ctx context.Context, log *slog.Logger, msg *ports.QueueMessage) {
	cmd, err := commands.NewProcessOptimizationCommand(*msg)
	if err != nil {
		log.WarnContext(ctx, "Malformed job left for redelivery",
			"messageId", msg.ID, "receiveCount", msg.ReceiveCount, "error", err)
		return
	}

	if err = p.handler.Handle(ctx, cmd); err != nil && ctx.Err() == nil {
		log.ErrorContext(ctx, "Job failed and will be redelivered",
			"messageId", msg.ID,
			"problemId", cmd.ProblemID().String(),
			"receiveCount", msg.ReceiveCount,
			"error", err)
	}
}

func (p *Pool) idle(ctx context.Context, stop <-chan struct{}) {
	timer := time.NewTimer(p.opts.IdleWait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-stop:
	case <-timer.C:
	}
}
