package commands_test

import (
	"testing"
	"time"

	"routeopt/internal/core/application/usecases/commands"
	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/core/ports"
	"routeopt/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func eventFor(task *optimization.Task, eventType optimization.EventType, detail optimization.EventDetail) optimization.LifecycleEvent {
	detail.ProblemID = task.ProblemID().String()
	return optimization.NewLifecycleEvent(eventType, detail, time.Now().UTC())
}

func TestNewApplyLifecycleEventCommand_RejectsForeignSource(t *testing.T) {
	task := newTask(optimization.Submitted, validProblem())
	event := eventFor(task, optimization.EventInProgress, optimization.EventDetail{})
	event.Source = "billing"

	_, err := commands.NewApplyLifecycleEventCommand(event)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestApplyLifecycleEventCommandHandler_Handle_MovesStatus(t *testing.T) {
	ctx := t.Context()
	task := newTask(optimization.Submitted, validProblem())
	cmd, err := commands.NewApplyLifecycleEventCommand(eventFor(task, optimization.EventInProgress, optimization.EventDetail{}))
	require.NoError(t, err)

	repo := new(MockTaskRepository)
	uow := new(MockUoW)
	factory := new(MockUoWFactory)

	factory.On("Create").Return(uow).Once()
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("TaskRepository").Return(repo).Once(),
		repo.On("Get", ctx, task.ProblemID()).Return(task, nil).Once(),
		uow.On("TaskRepository").Return(repo).Once(),
		repo.On("UpdateStatus", ctx, task).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	h := commands.NewApplyLifecycleEventCommandHandler(factory, discardLogger())
	require.NoError(t, h.Handle(ctx, cmd))
	assert.Equal(t, optimization.Running, task.Status())

	repo.AssertExpectations(t)
	uow.AssertExpectations(t)
}

func TestApplyLifecycleEventCommandHandler_Handle_UnknownTaskIsNoop(t *testing.T) {
	ctx := t.Context()
	task := newTask(optimization.Submitted, validProblem())
	cmd, _ := commands.NewApplyLifecycleEventCommand(eventFor(task, optimization.EventCompleted, optimization.EventDetail{}))

	repo := new(MockTaskRepository)
	uow := new(MockUoW)
	factory := new(MockUoWFactory)

	factory.On("Create").Return(uow).Once()
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("TaskRepository").Return(repo).Once()
	repo.On("Get", ctx, task.ProblemID()).
		Return(nil, errs.NewObjectNotFoundError("problemId", task.ProblemID().String())).Once()
	uow.On("Rollback", ctx).Return(nil).Once()

	h := commands.NewApplyLifecycleEventCommandHandler(factory, discardLogger())
	require.NoError(t, h.Handle(ctx, cmd))

	uow.AssertNotCalled(t, "Commit", mock.Anything)
	uow.AssertNotCalled(t, "ResultRepository")
}

func TestApplyLifecycleEventCommandHandler_Handle_LateEventIsNoop(t *testing.T) {
	ctx := t.Context()
	task := newTask(optimization.Error, validProblem())
	cmd, _ := commands.NewApplyLifecycleEventCommand(eventFor(task, optimization.EventCompleted, optimization.EventDetail{}))

	repo := new(MockTaskRepository)
	uow := new(MockUoW)
	factory := new(MockUoWFactory)

	factory.On("Create").Return(uow).Once()
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("TaskRepository").Return(repo).Once()
	repo.On("Get", ctx, task.ProblemID()).Return(task, nil).Once()
	uow.On("Rollback", ctx).Return(nil).Once()

	h := commands.NewApplyLifecycleEventCommandHandler(factory, discardLogger())
	require.NoError(t, h.Handle(ctx, cmd))
	assert.Equal(t, optimization.Error, task.Status())

	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
	uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestApplyLifecycleEventCommandHandler_Handle_CompletedWritesResult(t *testing.T) {
	ctx := t.Context()
	task := newTask(optimization.Running, validProblem())
	detail := optimization.EventDetail{
		SolverDuration: 4,
		Score:          &optimization.Score{Hard: 0, Soft: -12},
		Assignments: []optimization.Assignment{
			{VehicleID: "v1", Orders: []optimization.AssignedOrder{{ID: "o1"}}, TotalTravelDistance: 12},
		},
	}
	cmd, _ := commands.NewApplyLifecycleEventCommand(eventFor(task, optimization.EventCompleted, detail))

	taskRepo := new(MockTaskRepository)
	resultRepo := new(MockResultRepository)
	uow := new(MockUoW)
	factory := new(MockUoWFactory)

	factory.On("Create").Return(uow).Once()
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("TaskRepository").Return(taskRepo)
	uow.On("ResultRepository").Return(resultRepo).Once()
	taskRepo.On("Get", ctx, task.ProblemID()).Return(task, nil).Once()
	mock.InOrder(
		resultRepo.On("Add", ctx, mock.MatchedBy(func(r *optimization.Result) bool {
			return r.ProblemID().IsEqual(task.ProblemID()) &&
				r.Score().Soft == -12 &&
				r.SolverDuration() == 4 &&
				len(r.Assignments()) == 1
		})).Return(true, nil).Once(),
		taskRepo.On("UpdateStatus", ctx, task).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
	)
	uow.On("Rollback", ctx).Return(nil).Once()

	h := commands.NewApplyLifecycleEventCommandHandler(factory, discardLogger())
	require.NoError(t, h.Handle(ctx, cmd))
	assert.Equal(t, optimization.Completed, task.Status())

	resultRepo.AssertExpectations(t)
	taskRepo.AssertExpectations(t)
	uow.AssertExpectations(t)
}

func TestApplyLifecycleEventCommandHandler_Handle_ConflictIsReturned(t *testing.T) {
	ctx := t.Context()
	task := newTask(optimization.Submitted, validProblem())
	cmd, _ := commands.NewApplyLifecycleEventCommand(eventFor(task, optimization.EventError, optimization.EventDetail{
		Error: &optimization.ErrorDetail{ErrorMessage: "solver crashed"},
	}))

	repo := new(MockTaskRepository)
	uow := new(MockUoW)
	factory := new(MockUoWFactory)

	factory.On("Create").Return(uow).Once()
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("TaskRepository").Return(repo)
	repo.On("Get", ctx, task.ProblemID()).Return(task, nil).Once()
	repo.On("UpdateStatus", ctx, task).Return(ports.ErrStatusConflict).Once()
	uow.On("Rollback", ctx).Return(nil).Once()

	h := commands.NewApplyLifecycleEventCommandHandler(factory, discardLogger())
	err := h.Handle(ctx, cmd)
	require.ErrorIs(t, err, ports.ErrStatusConflict)

	uow.AssertNotCalled(t, "Commit", mock.Anything)
	require.NotNil(t, task.Failure())
	assert.Equal(t, "solver crashed", task.Failure().ErrorMessage)
}
