package commands

import (
	"context"
	"time"
)

// DeactivateOptimizationCommandHandler clears the active flag. Deactivating
// an inactive task succeeds without a write.
type DeactivateOptimizationCommandHandler struct {
	uowFactory TaskUoWFactory
	now        func() time.Time
}

func NewDeactivateOptimizationCommandHandler(uowFactory TaskUoWFactory) DeactivateOptimizationCommandHandler {
	return DeactivateOptimizationCommandHandler{uowFactory: uowFactory, now: time.Now}
}

func (h DeactivateOptimizationCommandHandler) Handle(ctx context.Context, cmd DeactivateOptimizationCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.TaskRepository()
	task, err := repo.Get(ctx, cmd.ProblemID())
	if err != nil {
		return err
	}

	if !task.Deactivate(h.now().UTC()) {
		return nil
	}

	if err = repo.UpdateActivity(ctx, task); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
