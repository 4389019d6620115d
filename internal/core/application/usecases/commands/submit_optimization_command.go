package commands

import (
	"errors"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/pkg/errs"
	"routeopt/internal/pkg/guard"
)

var ErrSubmitOptimizationCommandIsNotConstructed = errors.New(
	"SubmitOptimizationCommand must be created via NewSubmitOptimizationCommand constructor",
)

// SubmitOptimizationCommand carries a validated problem and the identifier it
// will be stored under.
//
// Example:
//
//	cmd, err := NewSubmitOptimizationCommand(problem)
//	if err != nil {
//	    return err // 400
//	}
//	problemID, err := handler.Handle(ctx, cmd)
type SubmitOptimizationCommand struct {
	problemID kernel.UUID
	problem   optimization.Problem

	guard guard.ConstructorGuard
}

// NewSubmitOptimizationCommand validates the problem. A blank
// problem.ProblemID gets a fresh identifier; a non-blank one must be a UUID.
func NewSubmitOptimizationCommand(problem optimization.Problem) (SubmitOptimizationCommand, error) {
	cmd := SubmitOptimizationCommand{guard: guard.NewConstructorGuard()}

	if problem.ProblemID == "" {
		cmd.problemID = kernel.NewUUID()
	} else {
		id, err := kernel.UUIDFromString(problem.ProblemID)
		if err != nil {
			return SubmitOptimizationCommand{}, errs.NewValueIsInvalidErrorWithCause("problemId", err)
		}
		cmd.problemID = id
	}

	if err := problem.Validate(); err != nil {
		return SubmitOptimizationCommand{}, err
	}

	problem.ProblemID = cmd.problemID.String()
	cmd.problem = problem

	return cmd, nil
}

func (c SubmitOptimizationCommand) Validate() error {
	return c.guard.Validate(ErrSubmitOptimizationCommandIsNotConstructed)
}

func (c SubmitOptimizationCommand) ProblemID() kernel.UUID {
	return c.problemID
}

func (c SubmitOptimizationCommand) Problem() optimization.Problem {
	return c.problem
}
