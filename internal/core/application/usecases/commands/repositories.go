// Package commands contains the operations that change optimization state:
// submission, lifecycle event application, deactivation, job processing and
// dead-letter replay. Each command is validated by its constructor and run by
// a handler with explicitly injected ports.
package commands

import (
	"context"

	"routeopt/internal/core/ports"
)

// Unit of Work interfaces give command handlers transaction control over the
// task and result stores.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	TaskRepoFactory interface {
		TaskRepository() ports.TaskRepository
	}

	ResultRepoFactory interface {
		ResultRepository() ports.ResultRepository
	}

	// TaskUoW manages transactions for task-only operations.
	TaskUoW interface {
		TxManager
		TaskRepoFactory
	}

	TaskUoWFactory interface {
		Create() TaskUoW
	}

	// UoW spans the task and result stores. The status updater needs it to
	// write a COMPLETED status together with its result.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   _, err = uow.ResultRepository().Add(ctx, result)
	//   err = uow.TaskRepository().UpdateStatus(ctx, task)
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		TaskRepoFactory
		ResultRepoFactory
	}

	UoWFactory interface {
		Create() UoW
	}
)
