package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/core/ports"
	"routeopt/internal/pkg/retry"
)

// ErrEnqueueFailed means the task row exists in SUBMITTED state but no queue
// message was sent. The caller may retry later; nothing re-enqueues it
// automatically.
var ErrEnqueueFailed = errors.New("optimization stored but not enqueued")

// DefaultSubmitRetry bounds store and queue calls made during submission.
var DefaultSubmitRetry = retry.Policy{
	Attempts:        3,
	InitialInterval: 100 * time.Millisecond,
	MaxInterval:     time.Second,
}

// SubmitOptimizationCommandHandler persists a task and enqueues its job, in
// that order.
type SubmitOptimizationCommandHandler struct {
	uowFactory TaskUoWFactory
	queue      ports.TaskQueue
	retry      retry.Policy
	logger     *slog.Logger
	now        func() time.Time
}

func NewSubmitOptimizationCommandHandler(
	uowFactory TaskUoWFactory,
	queue ports.TaskQueue,
	policy retry.Policy,
	logger *slog.Logger,
) SubmitOptimizationCommandHandler {
	return SubmitOptimizationCommandHandler{
		uowFactory: uowFactory,
		queue:      queue,
		retry:      policy,
		logger:     logger.With("component", "submission"),
		now:        time.Now,
	}
}

// Handle stores the task as SUBMITTED and active, then sends the job.
//
// Errors:
//   - errs.ObjectAlreadyExistsError when the problemId is taken
//   - ErrEnqueueFailed when the task was stored but the queue stayed unavailable
func (h SubmitOptimizationCommandHandler) Handle(ctx context.Context, cmd SubmitOptimizationCommand) (kernel.UUID, error) {
	if err := cmd.Validate(); err != nil {
		return kernel.UUID{}, err
	}

	task, err := optimization.NewTask(cmd.ProblemID(), cmd.Problem(), h.now().UTC().Truncate(time.Microsecond))
	if err != nil {
		return kernel.UUID{}, err
	}

	if _, err = h.retry.Do(ctx, func(ctx context.Context) error {
		return h.uowFactory.Create().TaskRepository().Add(ctx, task)
	}); err != nil {
		return kernel.UUID{}, err
	}

	var messageID string
	attempts, err := h.retry.Do(ctx, func(ctx context.Context) error {
		var sendErr error
		messageID, sendErr = h.queue.Send(ctx, task.ProblemID())
		return sendErr
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "Optimization stored but enqueue failed",
			"problemId", task.ProblemID().String(), "attempts", attempts, "error", err)
		return task.ProblemID(), fmt.Errorf("%w: %w", ErrEnqueueFailed, err)
	}

	h.logger.InfoContext(ctx, "Optimization submitted",
		"problemId", task.ProblemID().String(),
		"messageId", messageID,
		"orders", len(task.Problem().Orders),
		"fleet", len(task.Problem().Fleet))

	return task.ProblemID(), nil
}
