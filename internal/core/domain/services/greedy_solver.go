package services

import (
	"context"
	"errors"
	"math"
	"time"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"
)

// ErrVehicleNotFound is returned when no fleet member can take an order
// within its limits. The solver records it in the hard score instead of failing.
var ErrVehicleNotFound = errors.New("vehicle not found")

// DefaultAverageSpeedKmh converts straight-line distances into travel time.
const DefaultAverageSpeedKmh = 40.0

// GreedySolver assigns orders, in input order, to the vehicle that is
// currently closest to the order's origin and still has room for it.
//
// Business rules:
//   - Vehicles start at their starting location and travel via each order origin to its destination
//   - Capacity, volume and max-orders limits are never exceeded
//   - Each order that fits no vehicle lowers the hard score by one
//   - The soft score is the negated total travel distance in whole kilometres
//
// Example usage:
//
//	solver := services.NewGreedySolver(services.DefaultAverageSpeedKmh)
//	out, err := solver.Solve(ctx, problem)
//	if err != nil {
//	    return err
//	}
//	if out.Score.Hard < 0 {
//	    // some orders could not be placed
//	}
type GreedySolver struct {
	speedKmh float64
	now      func() time.Time
}

// NewGreedySolver creates a solver that estimates travel time with speedKmh.
func NewGreedySolver(speedKmh float64) GreedySolver {
	if speedKmh <= 0 {
		speedKmh = DefaultAverageSpeedKmh
	}
	return GreedySolver{speedKmh: speedKmh, now: time.Now}
}

type vehicleState struct {
	vehicle  optimization.Vehicle
	position kernel.Location
	weight   float64
	volume   float64
	clock    time.Duration
	result   optimization.Assignment
}

// Solve validates the problem and computes the assignments.
// It stops early with ctx.Err() when the context is cancelled.
func (s GreedySolver) Solve(ctx context.Context, problem optimization.Problem) (optimization.Solution, error) {
	started := s.now()

	if err := problem.Validate(); err != nil {
		return optimization.Solution{}, err
	}

	states, err := s.initialStates(problem.Fleet)
	if err != nil {
		return optimization.Solution{}, err
	}

	var score optimization.Score
	for _, order := range problem.Orders {
		if err = ctx.Err(); err != nil {
			return optimization.Solution{}, err
		}

		best, findErr := s.findBestVehicle(order, states)
		if errors.Is(findErr, ErrVehicleNotFound) {
			score.Hard--
			continue
		}
		if findErr != nil {
			return optimization.Solution{}, findErr
		}

		if err = s.assign(best, order); err != nil {
			return optimization.Solution{}, err
		}
	}

	assignments := make([]optimization.Assignment, 0, len(states))
	var totalKm float64
	for _, st := range states {
		if len(st.result.Orders) == 0 {
			continue
		}
		totalKm += st.result.TotalTravelDistance
		assignments = append(assignments, st.result)
	}
	score.Soft = -int64(math.Round(totalKm))

	return optimization.Solution{
		Assignments: assignments,
		Score:       score,
		Duration:    s.now().Sub(started),
	}, nil
}

func (s GreedySolver) initialStates(fleet []optimization.Vehicle) ([]*vehicleState, error) {
	states := make([]*vehicleState, 0, len(fleet))
	for _, v := range fleet {
		start, err := v.StartingLocation.Location()
		if err != nil {
			return nil, err
		}
		states = append(states, &vehicleState{
			vehicle:  v,
			position: start,
			result: optimization.Assignment{
				VehicleID:     v.ID,
				Orders:        []optimization.AssignedOrder{},
				DepartureTime: v.PreferredDepartureTime,
			},
		})
	}
	return states, nil
}

// findBestVehicle returns the closest vehicle that can take the order.
// Ties keep the first vehicle in fleet order.
func (s GreedySolver) findBestVehicle(order optimization.Order, states []*vehicleState) (*vehicleState, error) {
	origin, err := order.Origin.Location()
	if err != nil {
		return nil, err
	}

	var (
		best     *vehicleState
		bestDist = math.MaxFloat64
	)

	for _, st := range states {
		if !st.canTake(order) {
			continue
		}

		d, distErr := st.position.DistanceKm(origin)
		if distErr != nil {
			return nil, distErr
		}

		if d < bestDist {
			bestDist = d
			best = st
		}
	}

	if best == nil {
		return nil, ErrVehicleNotFound
	}

	return best, nil
}

func (s GreedySolver) assign(st *vehicleState, order optimization.Order) error {
	origin, err := order.Origin.Location()
	if err != nil {
		return err
	}
	destination, err := order.Destination.Location()
	if err != nil {
		return err
	}

	pickupKm, err := st.position.DistanceKm(origin)
	if err != nil {
		return err
	}
	deliveryKm, err := origin.DistanceKm(destination)
	if err != nil {
		return err
	}
	legKm := pickupKm + deliveryKm

	st.clock += time.Duration(legKm / s.speedKmh * float64(time.Hour))
	assigned := optimization.AssignedOrder{ID: order.ID}
	if st.vehicle.PreferredDepartureTime != nil {
		arrival := st.vehicle.PreferredDepartureTime.Add(st.clock)
		assigned.ArrivalTime = &arrival
	}
	if order.ServiceTime != nil {
		st.clock += time.Duration(*order.ServiceTime) * time.Second
	}

	st.position = destination
	st.weight += order.Weight()
	st.volume += order.Volume()
	st.result.Orders = append(st.result.Orders, assigned)
	st.result.TotalTravelDistance += legKm
	st.result.TotalTimeDuration = int64(st.clock / time.Second)
	st.result.TotalWeight = st.weight
	st.result.TotalVolume = st.volume

	return nil
}

func (st *vehicleState) canTake(order optimization.Order) bool {
	limits := st.vehicle.Limits
	if limits == nil {
		return order.Weight() == 0 && order.Volume() == 0
	}
	if limits.MaxOrders != nil && len(st.result.Orders) >= *limits.MaxOrders {
		return false
	}
	if st.weight+order.Weight() > st.vehicle.Capacity() {
		return false
	}
	return st.volume+order.Volume() <= st.vehicle.VolumeLimit()
}
