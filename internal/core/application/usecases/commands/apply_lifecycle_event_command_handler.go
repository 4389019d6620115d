package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/pkg/errs"
)

// ApplyLifecycleEventCommandHandler is the status updater. It moves a task
// through its state machine and stores the result of a completed run.
//
// Duplicate, stale and post-terminal events, and events for unknown tasks,
// are logged and return nil. ports.ErrStatusConflict is returned when another
// writer changed the task between the read and the conditional write; the
// caller retries and the retry re-reads the task.
type ApplyLifecycleEventCommandHandler struct {
	uowFactory UoWFactory
	logger     *slog.Logger
	now        func() time.Time
}

func NewApplyLifecycleEventCommandHandler(uowFactory UoWFactory, logger *slog.Logger) ApplyLifecycleEventCommandHandler {
	return ApplyLifecycleEventCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "status_updater"),
		now:        time.Now,
	}
}

// Handle applies the event in one transaction. For COMPLETED the result row
// and the status are committed together.
func (h ApplyLifecycleEventCommandHandler) Handle(ctx context.Context, cmd ApplyLifecycleEventCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	event := cmd.Event()
	log := h.logger.With(
		"problemId", cmd.ProblemID().String(),
		"eventId", event.ID,
		"detailType", event.Type.String(),
	)

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	task, err := uow.TaskRepository().Get(ctx, cmd.ProblemID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		log.WarnContext(ctx, "Lifecycle event for unknown task ignored")
		return nil
	}
	if err != nil {
		return err
	}

	previous := task.Status()
	now := h.now().UTC()

	changed, err := task.Apply(event, now)
	if err != nil {
		return err
	}
	if !changed {
		log.InfoContext(ctx, "Lifecycle event ignored", "status", previous.String())
		return nil
	}

	if event.Type == optimization.EventCompleted {
		result, resultErr := optimization.NewResult(cmd.ProblemID(), event.Detail, now)
		if resultErr != nil {
			return resultErr
		}
		if _, err = uow.ResultRepository().Add(ctx, result); err != nil {
			return err
		}
	}

	if err = uow.TaskRepository().UpdateStatus(ctx, task); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	log.InfoContext(ctx, "Task status updated", "from", previous.String(), "to", task.Status().String())
	return nil
}
