package services

import (
	"fmt"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/core/domain/model/routing"
	"routeopt/internal/pkg/errs"
)

// PlanVehicleRoute turns one vehicle's stop sequence into calculator requests.
//
// The path starts at the first order's origin, visits every order destination
// in assignment order and returns to the first origin unless the vehicle has
// backToOrigin=false. Paths longer than routing.MaxWaypoints intermediate
// stops are split into consecutive requests that share their endpoints.
// A vehicle without orders yields no requests.
func PlanVehicleRoute(problem optimization.Problem, assignment optimization.Assignment) ([]routing.Request, error) {
	if len(assignment.Orders) == 0 {
		return nil, nil
	}

	vehicle, ok := problem.VehicleByID(assignment.VehicleID)
	if !ok {
		return nil, errs.NewObjectNotFoundError("vehicleId", assignment.VehicleID)
	}

	path := make([]kernel.Location, 0, len(assignment.Orders)+2)
	for i, assigned := range assignment.Orders {
		order, found := problem.OrderByID(assigned.ID)
		if !found {
			return nil, errs.NewObjectNotFoundErrorWithCause("orderId", assigned.ID,
				fmt.Errorf("vehicle %s references an unknown order", assignment.VehicleID))
		}

		if i == 0 {
			origin, err := order.Origin.Location()
			if err != nil {
				return nil, err
			}
			path = append(path, origin)
		}

		destination, err := order.Destination.Location()
		if err != nil {
			return nil, err
		}
		path = append(path, destination)
	}

	if vehicle.RoutesBack() {
		path = append(path, path[0])
	}

	return SplitPath(path, problem.AvoidTolls()), nil
}

// SplitPath cuts a path of at least two points into requests of at most
// routing.MaxWaypoints intermediate points each.
func SplitPath(path []kernel.Location, avoidTolls bool) []routing.Request {
	if len(path) < 2 {
		return nil
	}

	const span = routing.MaxWaypoints + 1

	requests := make([]routing.Request, 0, (len(path)-1+span-1)/span)
	for start := 0; start < len(path)-1; start += span {
		end := min(start+span, len(path)-1)
		requests = append(requests, routing.Request{
			Origin:      path[start],
			Waypoints:   append([]kernel.Location(nil), path[start+1:end]...),
			Destination: path[end],
			AvoidTolls:  avoidTolls,
		})
	}

	return requests
}
