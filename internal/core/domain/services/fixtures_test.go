package services_test

import "routeopt/internal/core/domain/model/optimization"

func ptr[T any](v T) *T {
	return &v
}

var depot = &optimization.Position{ID: "depot", Lat: 52.52, Lon: 13.405}

func order(id string, lat, lon, weight float64) optimization.Order {
	return optimization.Order{
		ID:          id,
		Origin:      depot,
		Destination: &optimization.Position{ID: "d-" + id, Lat: lat, Lon: lon},
		Attributes:  &optimization.OrderAttributes{Weight: ptr(weight), Volume: ptr(1.0)},
	}
}

func vehicle(id string, start *optimization.Position, capacity float64) optimization.Vehicle {
	return optimization.Vehicle{
		ID:               id,
		StartingLocation: start,
		Limits:           &optimization.VehicleLimits{MaxCapacity: ptr(capacity), MaxVolume: ptr(50.0)},
	}
}
