package http_test

import (
	"context"

	"routeopt/internal/core/application/usecases/commands"
	"routeopt/internal/core/application/usecases/queries"
	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockSubmit struct{ mock.Mock }

func (m *MockSubmit) Handle(ctx context.Context, cmd commands.SubmitOptimizationCommand) (kernel.UUID, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(kernel.UUID), args.Error(1)
}

type MockDeactivate struct{ mock.Mock }

func (m *MockDeactivate) Handle(ctx context.Context, cmd commands.DeactivateOptimizationCommand) error {
	return m.Called(ctx, cmd).Error(0)
}

type MockReplay struct{ mock.Mock }

func (m *MockReplay) Handle(ctx context.Context, cmd commands.ReplayDeadLettersCommand) (int64, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(int64), args.Error(1)
}

type MockGet struct{ mock.Mock }

func (m *MockGet) Handle(
	ctx context.Context,
	query queries.GetOptimizationQuery,
) (*queries.GetOptimizationResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queries.GetOptimizationResponse), args.Error(1)
}

type MockList struct{ mock.Mock }

func (m *MockList) Handle(
	ctx context.Context,
	query queries.ListOptimizationsQuery,
) (*queries.ListOptimizationsResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queries.ListOptimizationsResponse), args.Error(1)
}

type MockResult struct{ mock.Mock }

func (m *MockResult) Handle(
	ctx context.Context,
	query queries.GetOptimizationResultQuery,
) (*queries.GetOptimizationResultResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queries.GetOptimizationResultResponse), args.Error(1)
}

type MockAssignments struct{ mock.Mock }

func (m *MockAssignments) Handle(
	ctx context.Context,
	query queries.GetAssignmentResultQuery,
) (*queries.GetAssignmentResultResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queries.GetAssignmentResultResponse), args.Error(1)
}

type MockDeadLetters struct{ mock.Mock }

func (m *MockDeadLetters) HandleQueue(
	ctx context.Context,
	query queries.ListDeadLettersQuery,
) ([]ports.QueueMessage, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.QueueMessage), args.Error(1)
}

func (m *MockDeadLetters) HandleEvents(
	ctx context.Context,
	query queries.ListDeadLettersQuery,
) ([]ports.DeadLetterEvent, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.DeadLetterEvent), args.Error(1)
}
