// Package straightline is a route calculator without a road network: each
// leg is the great-circle arc between two points, driven at a fixed speed.
package straightline

import (
	"context"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/routing"

	"github.com/golang/geo/s2"
)

const (
	DefaultSpeedKmh = 40.0

	// segments is the number of arc pieces in a leg's path.
	segments = 8
)

type Calculator struct {
	speedKmh float64
}

func NewCalculator(speedKmh float64) *Calculator {
	if speedKmh <= 0 {
		speedKmh = DefaultSpeedKmh
	}
	return &Calculator{speedKmh: speedKmh}
}

func (c *Calculator) Calculate(ctx context.Context, request routing.Request) (routing.Route, error) {
	if err := ctx.Err(); err != nil {
		return routing.Route{}, err
	}
	if err := request.Validate(); err != nil {
		return routing.Route{}, err
	}

	points := request.Points()
	route := routing.Route{
		Legs: make([]routing.Leg, 0, len(points)-1),
		BBox: kernel.NewBoundingBox(points...),
	}

	for i := 1; i < len(points); i++ {
		from, to := points[i-1], points[i]

		km, err := from.DistanceKm(to)
		if err != nil {
			return routing.Route{}, err
		}

		leg := routing.Leg{
			DistanceKm: km,
			Duration:   int64(km / c.speedKmh * 3600),
			Path:       arc(from, to),
		}
		route.Legs = append(route.Legs, leg)
		route.DistanceKm += leg.DistanceKm
		route.Duration += leg.Duration
	}

	return route, nil
}

func arc(from, to kernel.Location) []s2.LatLng {
	a := s2.PointFromLatLng(from.LatLng())
	b := s2.PointFromLatLng(to.LatLng())

	path := make([]s2.LatLng, 0, segments+1)
	for i := 0; i <= segments; i++ {
		path = append(path, s2.LatLngFromPoint(s2.Interpolate(float64(i)/segments, a, b)))
	}
	return path
}
