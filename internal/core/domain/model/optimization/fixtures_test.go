package optimization_test

import "routeopt/internal/core/domain/model/optimization"

func ptr[T any](v T) *T {
	return &v
}

func validProblem() optimization.Problem {
	return optimization.Problem{
		Orders: []optimization.Order{
			{
				ID:          "s1",
				Origin:      &optimization.Position{ID: "depot", Lat: 52.52, Lon: 13.405},
				Destination: &optimization.Position{ID: "d1", Lat: 52.51, Lon: 13.39},
				Attributes:  &optimization.OrderAttributes{Weight: ptr(10.0), Volume: ptr(1.0)},
			},
			{
				ID:          "s2",
				Origin:      &optimization.Position{ID: "depot", Lat: 52.52, Lon: 13.405},
				Destination: &optimization.Position{ID: "d2", Lat: 52.53, Lon: 13.42},
				Attributes:  &optimization.OrderAttributes{Weight: ptr(5.0), Volume: ptr(2.0)},
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
