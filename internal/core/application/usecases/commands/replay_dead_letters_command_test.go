package commands_test

import (
	"testing"

	"routeopt/internal/core/application/usecases/commands"
	"routeopt/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReplayDeadLettersCommand(t *testing.T) {
	cmd, err := commands.NewReplayDeadLettersCommand(0)
	require.NoError(t, err)
	assert.Equal(t, int64(commands.DefaultReplayCount), cmd.Count())

	_, err = commands.NewReplayDeadLettersCommand(-1)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)

	_, err = commands.NewReplayDeadLettersCommand(commands.MaxReplayCount + 1)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}

func TestReplayDeadLettersCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()
	cmd, _ := commands.NewReplayDeadLettersCommand(5)

	dlq := new(MockQueueDeadLetters)
	dlq.On("ReplayDeadLetters", ctx, int64(5)).Return(int64(2), nil).Once()

	h := commands.NewReplayDeadLettersCommandHandler(dlq, discardLogger())
	replayed, err := h.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, int64(2), replayed)
	dlq.AssertExpectations(t)
}
