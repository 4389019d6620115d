package routing

import (
	"errors"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/pkg/errs"

	"github.com/golang/geo/s2"
)

// MaxWaypoints is the number of intermediate stops a single calculator call accepts.
const MaxWaypoints = 23

// Request asks for the road path Origin -> Waypoints... -> Destination.
type Request struct {
	Origin      kernel.Location
	Waypoints   []kernel.Location
	Destination kernel.Location
	AvoidTolls  bool
}

func (r Request) Validate() error {
	if err := errors.Join(r.Origin.Validate(), r.Destination.Validate()); err != nil {
		return err
	}
	if len(r.Waypoints) > MaxWaypoints {
		return errs.NewValueIsOutOfRangeError("waypoints", len(r.Waypoints), 0, MaxWaypoints)
	}
	return nil
}

// Points returns origin, waypoints and destination in travel order.
func (r Request) Points() []kernel.Location {
	points := make([]kernel.Location, 0, len(r.Waypoints)+2)
	points = append(points, r.Origin)
	points = append(points, r.Waypoints...)
	return append(points, r.Destination)
}

// Leg is the path between two consecutive points of a request.
type Leg struct {
	DistanceKm float64
	Duration   int64 // seconds
	Path       []s2.LatLng
}

// Route is the calculator answer for one request, or the concatenation of
// several answers.
type Route struct {
	Legs       []Leg
	DistanceKm float64
	Duration   int64
	BBox       kernel.BoundingBox
}

// Append concatenates another route to r.
func (r Route) Append(other Route) Route {
	legs := make([]Leg, 0, len(r.Legs)+len(other.Legs))
	legs = append(legs, r.Legs...)
	legs = append(legs, other.Legs...)

	return Route{
		Legs:       legs,
		DistanceKm: r.DistanceKm + other.DistanceKm,
		Duration:   r.Duration + other.Duration,
		BBox:       r.BBox.Union(other.BBox),
	}
}
