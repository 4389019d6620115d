// Package ports defines the contracts between the optimization core and its
// infrastructure: stores, the job queue, the event bus, the routing
// calculator and the worker pool.
package ports

import (
	"context"
	"errors"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"
)

// ErrStatusConflict is returned when a conditional status write found the
// task in a state it can no longer move from. Callers re-read and retry.
var ErrStatusConflict = errors.New("task status was changed concurrently")

// TaskRepository defines the persistence contract for optimization tasks.
// Every write is conditional on the stored row.
type TaskRepository interface {
	// Add inserts a new task. Returns errs.ObjectAlreadyExistsError when the
	// problemId is taken.
	Add(ctx context.Context, task *optimization.Task) error

	// Get returns the task or errs.ObjectNotFoundError.
	Get(ctx context.Context, id kernel.UUID) (*optimization.Task, error)

	// UpdateStatus writes the task's status, failure and execution details
	// only while the stored status is one of task.Status().Predecessors().
	// Execution details already stored are never overwritten.
	//
	// Example:
	//   changed, _ := task.Apply(event, now)
	//   if changed {
	//       err := repo.UpdateStatus(ctx, task)
	//       if errors.Is(err, ports.ErrStatusConflict) {
	//           // another writer got there first; re-read and re-apply
	//       }
	//   }
	UpdateStatus(ctx context.Context, task *optimization.Task) error

	// UpdateActivity writes the isActive flag.
	UpdateActivity(ctx context.Context, task *optimization.Task) error
}

// ResultRepository stores solver results. Results are immutable.
type ResultRepository interface {
	// Add inserts the result unless one already exists for the problemId.
	// It reports whether a row was written.
	Add(ctx context.Context, result *optimization.Result) (bool, error)

	Get(ctx context.Context, id kernel.UUID) (*optimization.Result, error)
}
