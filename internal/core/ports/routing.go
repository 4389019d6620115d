package ports

import (
	"context"

	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/core/domain/model/routing"
)

// RouteCalculator computes road legs for one request. Implementations wrap
// transport failures in errs.UpstreamUnavailableError.
type RouteCalculator interface {
	Calculate(ctx context.Context, request routing.Request) (routing.Route, error)
}

// Solver turns a problem into vehicle assignments.
type Solver interface {
	Solve(ctx context.Context, problem optimization.Problem) (optimization.Solution, error)
}

// WorkerCapacity is the knob the autoscaler turns.
type WorkerCapacity interface {
	Capacity() int
	SetCapacity(n int)
}
