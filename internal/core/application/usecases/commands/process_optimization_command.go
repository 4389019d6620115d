package commands

import (
	"errors"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/ports"
	"routeopt/internal/pkg/errs"
	"routeopt/internal/pkg/guard"
)

var ErrProcessOptimizationCommandIsNotConstructed = errors.New(
	"ProcessOptimizationCommand must be created via NewProcessOptimizationCommand constructor",
)

// ProcessOptimizationCommand is one received job delivery.
type ProcessOptimizationCommand struct {
	problemID    kernel.UUID
	receipt      string
	receiveCount int64

	guard guard.ConstructorGuard
}

// NewProcessOptimizationCommand parses the job body of a delivery. A delivery
// whose body names no valid problemId is rejected; the worker leaves it
// unacked so it ends up dead-lettered.
func NewProcessOptimizationCommand(msg ports.QueueMessage) (ProcessOptimizationCommand, error) {
	if msg.Receipt == "" {
		return ProcessOptimizationCommand{}, errs.NewValueIsRequiredError("receipt")
	}
	if msg.Job.ProblemID == "" {
		return ProcessOptimizationCommand{}, errs.NewValueIsRequiredError("problemId")
	}

	problemID, err := kernel.UUIDFromString(msg.Job.ProblemID)
	if err != nil {
		return ProcessOptimizationCommand{}, errs.NewValueIsInvalidErrorWithCause("problemId", err)
	}

	return ProcessOptimizationCommand{
		problemID:    problemID,
		receipt:      msg.Receipt,
		receiveCount: msg.ReceiveCount,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (c ProcessOptimizationCommand) Validate() error {
	return c.guard.Validate(ErrProcessOptimizationCommandIsNotConstructed)
}

func (c ProcessOptimizationCommand) ProblemID() kernel.UUID {
	return c.problemID
}

func (c ProcessOptimizationCommand) Receipt() string {
	return c.receipt
}

func (c ProcessOptimizationCommand) ReceiveCount() int64 {
	return c.receiveCount
}
