package services_test

import (
	"context"
	"testing"
	"time"

	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/core/domain/services"
	"routeopt/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGreedySolver_Solve(t *testing.T) {
	hamburg := &optimization.Position{ID: "hh", Lat: 53.55, Lon: 9.99}
	solver := services.NewGreedySolver(services.DefaultAverageSpeedKmh)

	t.Run("should assign orders to the closest vehicle", func(t *testing.T) {
		problem := optimization.Problem{
			Orders: []optimization.Order{order("s1", 52.51, 13.39, 10), order("s2", 52.53, 13.42, 5)},
			Fleet:  []optimization.Vehicle{vehicle("far", hamburg, 100), vehicle("near", depot, 100)},
		}

		out, err := solver.Solve(t.Context(), problem)

		require.NoError(t, err)
		require.Len(t, out.Assignments, 1)
		assert.Equal(t, "near", out.Assignments[0].VehicleID)
		assert.Equal(t, []string{"s1", "s2"}, orderIDs(out.Assignments[0]))
		assert.Equal(t, int64(0), out.Score.Hard)
		assert.Negative(t, out.Score.Soft)
		assert.InDelta(t, 15.0, out.Assignments[0].TotalWeight, 1e-9)
		assert.Positive(t, out.Assignments[0].TotalTimeDuration)
	})

	t.Run("should move to the next vehicle when capacity is exhausted", func(t *testing.T) {
		problem := optimization.Problem{
			Orders: []optimization.Order{order("s1", 52.51, 13.39, 10), order("s2", 52.53, 13.42, 5)},
			Fleet:  []optimization.Vehicle{vehicle("small", depot, 10), vehicle("big", hamburg, 100)},
		}

		out, err := solver.Solve(t.Context(), problem)

		require.NoError(t, err)
		require.Len(t, out.Assignments, 2)
		assert.Equal(t, "small", out.Assignments[0].VehicleID)
		assert.Equal(t, []string{"s1"}, orderIDs(out.Assignments[0]))
		assert.Equal(t, "big", out.Assignments[1].VehicleID)
		assert.Equal(t, []string{"s2"}, orderIDs(out.Assignments[1]))
	})

	t.Run("should lower the hard score for orders no vehicle can take", func(t *testing.T) {
		v := vehicle("v1", depot, 100)
		v.Limits.MaxOrders = ptr(1)
		problem := optimization.Problem{
			Orders: []optimization.Order{order("s1", 52.51, 13.39, 1), order("s2", 52.53, 13.42, 1)},
			Fleet:  []optimization.Vehicle{v},
		}

		out, err := solver.Solve(t.Context(), problem)

		require.NoError(t, err)
		assert.Equal(t, int64(-1), out.Score.Hard)
		require.Len(t, out.Assignments, 1)
		assert.Equal(t, []string{"s1"}, orderIDs(out.Assignments[0]))
	})

	t.Run("should estimate arrival times from the departure time", func(t *testing.T) {
		departure := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
		v := vehicle("v1", depot, 100)
		v.PreferredDepartureTime = &departure
		problem := optimization.Problem{
			Orders: []optimization.Order{order("s1", 52.51, 13.39, 1)},
			Fleet:  []optimization.Vehicle{v},
		}

		out, err := solver.Solve(t.Context(), problem)

		require.NoError(t, err)
		arrival := out.Assignments[0].Orders[0].ArrivalTime
		require.NotNil(t, arrival)
		assert.True(t, arrival.After(departure))
	})

	t.Run("should reject an invalid problem", func(t *testing.T) {
		_, err := solver.Solve(t.Context(), optimization.Problem{})

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should stop when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		problem := optimization.Problem{
			Orders: []optimization.Order{order("s1", 52.51, 13.39, 1)},
			Fleet:  []optimization.Vehicle{vehicle("v1", depot, 100)},
		}

		_, err := solver.Solve(ctx, problem)

		require.ErrorIs(t, err, context.Canceled)
	})
}

func orderIDs(a optimization.Assignment) []string {
	ids := make([]string, 0, len(a.Orders))
	for _, o := range a.Orders {
		ids = append(ids, o.ID)
	}
	return ids
}
