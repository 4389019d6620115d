package commands

import (
	"context"
	"errors"
	"log/slog"

	"routeopt/internal/core/ports"
	"routeopt/internal/pkg/errs"
	"routeopt/internal/pkg/guard"
)

const (
	DefaultReplayCount = 10
	MaxReplayCount     = 1000
)

var ErrReplayDeadLettersCommandIsNotConstructed = errors.New(
	"ReplayDeadLettersCommand must be created via NewReplayDeadLettersCommand constructor",
)

// ReplayDeadLettersCommand moves dead-lettered jobs back to the queue.
type ReplayDeadLettersCommand struct {
	count int64

	guard guard.ConstructorGuard
}

// NewReplayDeadLettersCommand accepts 0 as "use the default".
func NewReplayDeadLettersCommand(count int64) (ReplayDeadLettersCommand, error) {
	if count == 0 {
		count = DefaultReplayCount
	}
	if count < 1 || count > MaxReplayCount {
		return ReplayDeadLettersCommand{}, errs.NewValueIsOutOfRangeError("count", count, 1, MaxReplayCount)
	}

	return ReplayDeadLettersCommand{count: count, guard: guard.NewConstructorGuard()}, nil
}

func (c ReplayDeadLettersCommand) Validate() error {
	return c.guard.Validate(ErrReplayDeadLettersCommandIsNotConstructed)
}

func (c ReplayDeadLettersCommand) Count() int64 {
	return c.count
}

type ReplayDeadLettersCommandHandler struct {
	deadLetters ports.QueueDeadLetters
	logger      *slog.Logger
}

func NewReplayDeadLettersCommandHandler(deadLetters ports.QueueDeadLetters, logger *slog.Logger) ReplayDeadLettersCommandHandler {
	return ReplayDeadLettersCommandHandler{
		deadLetters: deadLetters,
		logger:      logger.With("component", "dead_letter_replay"),
	}
}

// Handle returns how many jobs were moved back.
func (h ReplayDeadLettersCommandHandler) Handle(ctx context.Context, cmd ReplayDeadLettersCommand) (int64, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	replayed, err := h.deadLetters.ReplayDeadLetters(ctx, cmd.Count())
	if err != nil {
		return 0, err
	}

	h.logger.InfoContext(ctx, "Dead-lettered jobs replayed", "requested", cmd.Count(), "replayed", replayed)
	return replayed, nil
}
