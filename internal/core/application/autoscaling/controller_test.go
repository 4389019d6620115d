package autoscaling_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"routeopt/internal/core/application/autoscaling"
	"routeopt/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStatsSource struct{ mock.Mock }

func (m *MockStatsSource) Stats(ctx context.Context) (ports.QueueStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(ports.QueueStats), args.Error(1)
}

type fakeCapacity struct {
	mu sync.Mutex
	n  int
}

func (f *fakeCapacity) Capacity() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}

func (f *fakeCapacity) SetCapacity(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n = n
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newController(stats *MockStatsSource, capacity *fakeCapacity, c *clock) *autoscaling.Controller {
	ctrl := autoscaling.NewController(stats, capacity, autoscaling.DefaultOptions(), slog.New(slog.DiscardHandler))
	autoscaling.SetClock(ctrl, c.now)
	return ctrl
}

func sample(t *testing.T, ctrl *autoscaling.Controller, stats *MockStatsSource, visible, inFlight int64) {
	t.Helper()
	stats.On("Stats", mock.Anything).Return(ports.QueueStats{Visible: visible, NotVisible: inFlight}, nil).Once()
	require.NoError(t, ctrl.Sample(t.Context()))
}

func TestController_ScaleOutUsesMaxSinceLastEvaluation(t *testing.T) {
	stats := new(MockStatsSource)
	capacity := &fakeCapacity{}
	ctrl := newController(stats, capacity, &clock{t: time.Unix(1000, 0)})

	sample(t, ctrl, stats, 3, 0)
	sample(t, ctrl, stats, 12, 0)
	sample(t, ctrl, stats, 1, 0)

	decision := ctrl.EvaluateScaleOut(t.Context())
	assert.True(t, decision.Scaled)
	assert.Equal(t, int64(12), decision.Metric)
	assert.Equal(t, 10, decision.Delta)
	assert.Equal(t, 10, capacity.Capacity())

	decision = ctrl.EvaluateScaleOut(t.Context())
	assert.False(t, decision.Scaled)
	assert.Equal(t, "no samples", decision.Reason)
}

func TestController_ScaleOutSteps(t *testing.T) {
	tests := []struct {
		visible int64
		want    int
	}{
		{0, 0},
		{1, 1},
		{4, 3},
		{5, 7},
		{19, 10},
		{20, 20},
		{500, 20},
	}

	for _, tt := range tests {
		stats := new(MockStatsSource)
		capacity := &fakeCapacity{}
		ctrl := newController(stats, capacity, &clock{t: time.Unix(1000, 0)})

		sample(t, ctrl, stats, tt.visible, 0)
		ctrl.EvaluateScaleOut(t.Context())
		assert.Equal(t, tt.want, capacity.Capacity(), "visible=%d", tt.visible)
	}
}

func TestController_CooldownBlocksSecondScaleOut(t *testing.T) {
	stats := new(MockStatsSource)
	capacity := &fakeCapacity{}
	c := &clock{t: time.Unix(1000, 0)}
	ctrl := newController(stats, capacity, c)

	sample(t, ctrl, stats, 2, 0)
	require.True(t, ctrl.EvaluateScaleOut(t.Context()).Scaled)

	c.t = c.t.Add(time.Minute)
	sample(t, ctrl, stats, 2, 0)
	decision := ctrl.EvaluateScaleOut(t.Context())
	assert.False(t, decision.Scaled)
	assert.Equal(t, "cooldown", decision.Reason)
	assert.Equal(t, 3, capacity.Capacity())

	c.t = c.t.Add(5 * time.Minute)
	sample(t, ctrl, stats, 2, 0)
	assert.True(t, ctrl.EvaluateScaleOut(t.Context()).Scaled)
	assert.Equal(t, 6, capacity.Capacity())
}

func TestController_ClampedDeltaStartsNoCooldown(t *testing.T) {
	stats := new(MockStatsSource)
	capacity := &fakeCapacity{n: 100}
	c := &clock{t: time.Unix(1000, 0)}
	ctrl := newController(stats, capacity, c)

	sample(t, ctrl, stats, 50, 0)
	decision := ctrl.EvaluateScaleOut(t.Context())
	assert.False(t, decision.Scaled)
	assert.Equal(t, "clamped", decision.Reason)

	capacity.SetCapacity(90)
	c.t = c.t.Add(time.Second)
	sample(t, ctrl, stats, 50, 0)
	decision = ctrl.EvaluateScaleOut(t.Context())
	assert.True(t, decision.Scaled)
	assert.Equal(t, 100, capacity.Capacity())
}

func TestController_ScaleInOnlyWhenNothingInFlight(t *testing.T) {
	stats := new(MockStatsSource)
	capacity := &fakeCapacity{n: 3}
	c := &clock{t: time.Unix(1000, 0)}
	ctrl := newController(stats, capacity, c)

	sample(t, ctrl, stats, 0, 0)
	sample(t, ctrl, stats, 0, 2)
	decision := ctrl.EvaluateScaleIn(t.Context())
	assert.False(t, decision.Scaled)
	assert.Equal(t, 3, capacity.Capacity())

	sample(t, ctrl, stats, 0, 0)
	assert.True(t, ctrl.EvaluateScaleIn(t.Context()).Scaled)
	assert.Equal(t, 2, capacity.Capacity())
}

func TestController_LoopsKeepSeparateCooldowns(t *testing.T) {
	stats := new(MockStatsSource)
	capacity := &fakeCapacity{n: 5}
	c := &clock{t: time.Unix(1000, 0)}
	ctrl := newController(stats, capacity, c)

	sample(t, ctrl, stats, 0, 0)
	require.True(t, ctrl.EvaluateScaleIn(t.Context()).Scaled)

	sample(t, ctrl, stats, 1, 0)
	assert.True(t, ctrl.EvaluateScaleOut(t.Context()).Scaled)
	assert.Equal(t, 5, capacity.Capacity())
}

func TestController_ScaleInStopsAtMinimum(t *testing.T) {
	stats := new(MockStatsSource)
	capacity := &fakeCapacity{n: 0}
	ctrl := newController(stats, capacity, &clock{t: time.Unix(1000, 0)})

	sample(t, ctrl, stats, 0, 0)
	decision := ctrl.EvaluateScaleIn(t.Context())
	assert.False(t, decision.Scaled)
	assert.Equal(t, "clamped", decision.Reason)
}

func TestController_EachLoopUsesItsOwnCooldown(t *testing.T) {
	stats := new(MockStatsSource)
	capacity := &fakeCapacity{n: 5}
	c := &clock{t: time.Unix(1000, 0)}

	opts := autoscaling.DefaultOptions()
	opts.ScaleOutCooldown = time.Minute
	opts.ScaleInCooldown = 10 * time.Minute
	ctrl := autoscaling.NewController(stats, capacity, opts, slog.New(slog.DiscardHandler))
	autoscaling.SetClock(ctrl, c.now)

	sample(t, ctrl, stats, 0, 0)
	require.True(t, ctrl.EvaluateScaleIn(t.Context()).Scaled)
	sample(t, ctrl, stats, 1, 0)
	require.True(t, ctrl.EvaluateScaleOut(t.Context()).Scaled)
	require.Equal(t, 5, capacity.Capacity())

	c.t = c.t.Add(2 * time.Minute)

	sample(t, ctrl, stats, 1, 0)
	assert.True(t, ctrl.EvaluateScaleOut(t.Context()).Scaled)
	assert.Equal(t, 6, capacity.Capacity())

	sample(t, ctrl, stats, 0, 0)
	decision := ctrl.EvaluateScaleIn(t.Context())
	assert.False(t, decision.Scaled)
	assert.Equal(t, "cooldown", decision.Reason)
	assert.Equal(t, 6, capacity.Capacity())
}
