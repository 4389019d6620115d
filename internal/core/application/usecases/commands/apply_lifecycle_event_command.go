package commands

import (
	"errors"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/pkg/guard"
)

var ErrApplyLifecycleEventCommandIsNotConstructed = errors.New(
	"ApplyLifecycleEventCommand must be created via NewApplyLifecycleEventCommand constructor",
)

// ApplyLifecycleEventCommand asks the status updater to apply one event.
type ApplyLifecycleEventCommand struct {
	event     optimization.LifecycleEvent
	problemID kernel.UUID

	guard guard.ConstructorGuard
}

// NewApplyLifecycleEventCommand rejects events with a foreign source, an
// unknown detail type or a missing problemId.
func NewApplyLifecycleEventCommand(event optimization.LifecycleEvent) (ApplyLifecycleEventCommand, error) {
	if err := event.Validate(); err != nil {
		return ApplyLifecycleEventCommand{}, err
	}

	problemID, err := event.ProblemID()
	if err != nil {
		return ApplyLifecycleEventCommand{}, err
	}

	return ApplyLifecycleEventCommand{
		event:     event,
		problemID: problemID,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c ApplyLifecycleEventCommand) Validate() error {
	return c.guard.Validate(ErrApplyLifecycleEventCommandIsNotConstructed)
}

func (c ApplyLifecycleEventCommand) Event() optimization.LifecycleEvent {
	return c.event
}

func (c ApplyLifecycleEventCommand) ProblemID() kernel.UUID {
	return c.problemID
}
