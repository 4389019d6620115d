package commands_test

import (
	"context"
	"log/slog"
	"time"

	"routeopt/internal/core/application/usecases/commands"
	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/core/ports"
	"routeopt/internal/pkg/retry"

	"github.com/stretchr/testify/mock"
)

var fastRetry = retry.Policy{Attempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

type MockTaskRepository struct{ mock.Mock }

func (m *MockTaskRepository) Add(ctx context.Context, task *optimization.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) Get(ctx context.Context, id kernel.UUID) (*optimization.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*optimization.Task), args.Error(1)
}

func (m *MockTaskRepository) UpdateStatus(ctx context.Context, task *optimization.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) UpdateActivity(ctx context.Context, task *optimization.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

type MockResultRepository struct{ mock.Mock }

func (m *MockResultRepository) Add(ctx context.Context, result *optimization.Result) (bool, error) {
	args := m.Called(ctx, result)
	return args.Bool(0), args.Error(1)
}

func (m *MockResultRepository) Get(ctx context.Context, id kernel.UUID) (*optimization.Result, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*optimization.Result), args.Error(1)
}

// MockUoW serves both commands.TaskUoW and commands.UoW.
type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) TaskRepository() ports.TaskRepository {
	args := m.Called()
	return args.Get(0).(ports.TaskRepository)
}

func (m *MockUoW) ResultRepository() ports.ResultRepository {
	args := m.Called()
	return args.Get(0).(ports.ResultRepository)
}

type MockTaskUoWFactory struct{ mock.Mock }

func (m *MockTaskUoWFactory) Create() commands.TaskUoW {
	args := m.Called()
	return args.Get(0).(commands.TaskUoW)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockTaskQueue struct{ mock.Mock }

func (m *MockTaskQueue) Send(ctx context.Context, problemID kernel.UUID) (string, error) {
	args := m.Called(ctx, problemID)
	return args.String(0), args.Error(1)
}

func (m *MockTaskQueue) Receive(ctx context.Context) (*ports.QueueMessage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.QueueMessage), args.Error(1)
}

func (m *MockTaskQueue) Delete(ctx context.Context, receipt string) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

func (m *MockTaskQueue) ChangeVisibility(ctx context.Context, receipt string, timeout time.Duration) error {
	args := m.Called(ctx, receipt, timeout)
	return args.Error(0)
}

func (m *MockTaskQueue) Stats(ctx context.Context) (ports.QueueStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(ports.QueueStats), args.Error(1)
}

type MockQueueDeadLetters struct{ mock.Mock }

func (m *MockQueueDeadLetters) ListDeadLetters(ctx context.Context, limit int64) ([]ports.QueueMessage, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]ports.QueueMessage), args.Error(1)
}

func (m *MockQueueDeadLetters) ReplayDeadLetters(ctx context.Context, count int64) (int64, error) {
	args := m.Called(ctx, count)
	return args.Get(0).(int64), args.Error(1)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, event optimization.LifecycleEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockSolver struct{ mock.Mock }

func (m *MockSolver) Solve(ctx context.Context, problem optimization.Problem) (optimization.Solution, error) {
	args := m.Called(ctx, problem)
	return args.Get(0).(optimization.Solution), args.Error(1)
}

func ofType(eventType optimization.EventType) any {
	return mock.MatchedBy(func(e optimization.LifecycleEvent) bool {
		return e.Type == eventType
	})
}

func ptr[T any](v T) *T {
	return &v
}

func validProblem() optimization.Problem {
	return optimization.Problem{
		Orders: []optimization.Order{
			{
				ID:          "o1",
				Origin:      &optimization.Position{ID: "depot", Lat: 52.52, Lon: 13.405},
				Destination: &optimization.Position{ID: "d1", Lat: 52.51, Lon: 13.39},
				Attributes:  &optimization.OrderAttributes{Weight: ptr(10.0), Volume: ptr(1.0)},
			},
		},
		Fleet: []optimization.Vehicle{
			{
				ID:               "v1",
				StartingLocation: &optimization.Position{ID: "depot", Lat: 52.52, Lon: 13.405},
				Limits:           &optimization.VehicleLimits{MaxCapacity: ptr(100.0), MaxVolume: ptr(10.0)},
			},
		},
	}
}

func newTask(status optimization.Status, problem optimization.Problem) *optimization.Task {
	id := kernel.NewUUID()
	problem.ProblemID = id.String()
	now := time.Now().UTC()
	task, err := optimization.RestoreTask(id, now, now, true, status, problem, nil, nil)
	if err != nil {
		panic(err)
	}
	return task
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
