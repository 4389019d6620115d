package commands

import (
	"errors"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/pkg/guard"
)

var ErrDeactivateOptimizationCommandIsNotConstructed = errors.New(
	"DeactivateOptimizationCommand must be created via NewDeactivateOptimizationCommand constructor",
)

// DeactivateOptimizationCommand hides a task from the active listing.
type DeactivateOptimizationCommand struct {
	problemID kernel.UUID

	guard guard.ConstructorGuard
}

func NewDeactivateOptimizationCommand(problemID kernel.UUID) (DeactivateOptimizationCommand, error) {
	if err := problemID.Validate(); err != nil {
		return DeactivateOptimizationCommand{}, err
	}

	return DeactivateOptimizationCommand{problemID: problemID, guard: guard.NewConstructorGuard()}, nil
}

func (c DeactivateOptimizationCommand) Validate() error {
	return c.guard.Validate(ErrDeactivateOptimizationCommandIsNotConstructed)
}

func (c DeactivateOptimizationCommand) ProblemID() kernel.UUID {
	return c.problemID
}
