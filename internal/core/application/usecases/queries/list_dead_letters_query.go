package queries

import (
	"context"
	"errors"

	"routeopt/internal/core/ports"
	"routeopt/internal/pkg/errs"
	"routeopt/internal/pkg/guard"
)

const MaxDeadLetters = 100

var ErrListDeadLettersQueryIsNotConstructed = errors.New(
	"ListDeadLettersQuery must be created via NewListDeadLettersQuery constructor",
)

// ListDeadLettersQuery reads the newest dead-lettered entries of either the
// job queue or the event router.
type ListDeadLettersQuery struct {
	limit int64

	guard guard.ConstructorGuard
}

func NewListDeadLettersQuery(limit int64) (ListDeadLettersQuery, error) {
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit < 1 || limit > MaxDeadLetters {
		return ListDeadLettersQuery{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxDeadLetters)
	}
	return ListDeadLettersQuery{limit: limit, guard: guard.NewConstructorGuard()}, nil
}

func (q ListDeadLettersQuery) Validate() error {
	return q.guard.Validate(ErrListDeadLettersQueryIsNotConstructed)
}

type ListDeadLettersQueryHandler struct {
	queue  ports.QueueDeadLetters
	events ports.EventDeadLetters
}

func NewListDeadLettersQueryHandler(queue ports.QueueDeadLetters, events ports.EventDeadLetters) ListDeadLettersQueryHandler {
	return ListDeadLettersQueryHandler{queue: queue, events: events}
}

func (h ListDeadLettersQueryHandler) HandleQueue(
	ctx context.Context,
	query ListDeadLettersQuery,
) ([]ports.QueueMessage, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return h.queue.ListDeadLetters(ctx, query.limit)
}

func (h ListDeadLettersQueryHandler) HandleEvents(
	ctx context.Context,
	query ListDeadLettersQuery,
) ([]ports.DeadLetterEvent, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return h.events.List(ctx, query.limit)
}
