package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/core/ports"
	"routeopt/internal/pkg/retry"
)

// DefaultPublishRetry bounds event publishing from a worker.
var DefaultPublishRetry = retry.Policy{
	Attempts:        3,
	InitialInterval: 200 * time.Millisecond,
	MaxInterval:     2 * time.Second,
}

// ProcessOptimizationOptions tune a worker.
type ProcessOptimizationOptions struct {
	// Metadata is reported in the METADATA_UPDATE event of every job.
	Metadata optimization.ExecutionDetails

	// LeaseExtension, when positive, is how often the delivery's visibility
	// is pushed out by VisibilityTimeout while the solver runs.
	LeaseExtension    time.Duration
	VisibilityTimeout time.Duration

	PublishRetry retry.Policy
}

// ProcessOptimizationCommandHandler runs one job on a worker.
//
// The delivery is acked once the job reached a terminal outcome: solved,
// rejected by validation or failed in the solver. Infrastructure failures
// return an error and leave the delivery unacked so it is received again
// after the visibility timeout.
type ProcessOptimizationCommandHandler struct {
	uowFactory TaskUoWFactory
	queue      ports.TaskQueue
	publisher  ports.EventPublisher
	solver     ports.Solver
	opts       ProcessOptimizationOptions
	logger     *slog.Logger
	now        func() time.Time
}

func NewProcessOptimizationCommandHandler(
	uowFactory TaskUoWFactory,
	queue ports.TaskQueue,
	publisher ports.EventPublisher,
	solver ports.Solver,
	opts ProcessOptimizationOptions,
	logger *slog.Logger,
) ProcessOptimizationCommandHandler {
	if opts.PublishRetry.Attempts == 0 {
		opts.PublishRetry = DefaultPublishRetry
	}

	return ProcessOptimizationCommandHandler{
		uowFactory: uowFactory,
		queue:      queue,
		publisher:  publisher,
		solver:     solver,
		opts:       opts,
		logger:     logger.With("component", "worker"),
		now:        time.Now,
	}
}

func (h ProcessOptimizationCommandHandler) Handle(ctx context.Context, cmd ProcessOptimizationCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	problemID := cmd.ProblemID()
	log := h.logger.With("problemId", problemID.String(), "receiveCount", cmd.ReceiveCount())

	task, err := h.uowFactory.Create().TaskRepository().Get(ctx, problemID)
	if err != nil {
		return fmt.Errorf("load task: %w", err)
	}

	if task.Status().IsTerminal() {
		log.InfoContext(ctx, "Job for finished task acknowledged", "status", task.Status().String())
		return h.queue.Delete(ctx, cmd.Receipt())
	}

	metadata := h.opts.Metadata
	if err = h.publish(ctx, optimization.EventMetadataUpdate, optimization.EventDetail{
		ProblemID: problemID.String(),
		Metadata:  &metadata,
	}); err != nil {
		return err
	}

	problem := task.Problem()
	if err = problem.Validate(); err != nil {
		log.WarnContext(ctx, "Problem rejected by validation", "error", err)
		return h.fail(ctx, cmd, optimization.ErrorDetail{
			ErrorMessage: "problem validation failed",
			ErrorDetails: err.Error(),
		})
	}

	if err = h.publish(ctx, optimization.EventInProgress, optimization.EventDetail{
		ProblemID: problemID.String(),
	}); err != nil {
		return err
	}

	solution, err := h.solve(ctx, cmd, problem)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.ErrorContext(ctx, "Solver failed", "error", err)
		return h.fail(ctx, cmd, optimization.ErrorDetail{
			ErrorMessage: "solver failed",
			ErrorDetails: err.Error(),
		})
	}

	if err = h.queue.Delete(ctx, cmd.Receipt()); err != nil {
		return fmt.Errorf("ack job: %w", err)
	}

	if err = h.publish(ctx, optimization.EventCompleted, solution.Detail(problemID)); err != nil {
		log.ErrorContext(ctx, "Job acknowledged but completion was not published", "error", err)
		return err
	}

	log.InfoContext(ctx, "Optimization solved",
		"hardScore", solution.Score.Hard,
		"softScore", solution.Score.Soft,
		"vehicles", len(solution.Assignments),
		"duration", solution.Duration.String())
	return nil
}

// solve runs the solver while keeping the delivery invisible.
func (h ProcessOptimizationCommandHandler) solve(
	ctx context.Context,
	cmd ProcessOptimizationCommand,
	problem optimization.Problem,
) (optimization.Solution, error) {
	if h.opts.LeaseExtension <= 0 || h.opts.VisibilityTimeout <= 0 {
		return h.solver.Solve(ctx, problem)
	}

	solveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(h.opts.LeaseExtension)
		defer ticker.Stop()

		for {
			select {
			case <-solveCtx.Done():
				return
			case <-ticker.C:
				if err := h.queue.ChangeVisibility(solveCtx, cmd.Receipt(), h.opts.VisibilityTimeout); err != nil &&
					!errors.Is(err, context.Canceled) {
					h.logger.WarnContext(solveCtx, "Lease extension failed",
						"problemId", cmd.ProblemID().String(), "error", err)
				}
			}
		}
	}()

	solution, err := h.solver.Solve(solveCtx, problem)
	cancel()
	<-done

	return solution, err
}

// fail reports an ERROR outcome and acks the delivery.
func (h ProcessOptimizationCommandHandler) fail(
	ctx context.Context,
	cmd ProcessOptimizationCommand,
	failure optimization.ErrorDetail,
) error {
	if err := h.publish(ctx, optimization.EventError, optimization.EventDetail{
		ProblemID: cmd.ProblemID().String(),
		Error:     &failure,
	}); err != nil {
		return err
	}

	if err := h.queue.Delete(ctx, cmd.Receipt()); err != nil {
		return fmt.Errorf("ack failed job: %w", err)
	}
	return nil
}

func (h ProcessOptimizationCommandHandler) publish(
	ctx context.Context,
	eventType optimization.EventType,
	detail optimization.EventDetail,
) error {
	event := optimization.NewLifecycleEvent(eventType, detail, h.now().UTC())

	if _, err := h.opts.PublishRetry.Do(ctx, func(ctx context.Context) error {
		return h.publisher.Publish(ctx, event)
	}); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}
