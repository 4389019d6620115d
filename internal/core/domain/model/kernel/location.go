package kernel

import (
	"errors"
	"fmt"

	"routeopt/internal/pkg/errs"
	"routeopt/internal/pkg/guard"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used to turn central angles into distances.
const EarthRadiusKm = 6371.0088

const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// ErrLocationIsNotConstructed is returned when a zero-value Location is used.
var ErrLocationIsNotConstructed = errs.NewValueIsRequiredError(
	"location must be created via NewLocation")

// Location is a named point given in degrees. Distances are great-circle
// distances computed with s2 on a spherical Earth.
//
// Example:
//
//	depot, _ := kernel.NewLocation("depot", 52.5200, 13.4050)
//	stop, _ := kernel.NewLocation("s1", 52.5163, 13.3777)
//	km, _ := depot.DistanceKm(stop) // ~1.9
type Location struct { //nolint:recvcheck //using for validation
	id     string
	latLng s2.LatLng
	guard  guard.ConstructorGuard
}

// NewLocation validates the coordinate ranges. The id is optional.
func NewLocation(id string, lat, lon float64) (Location, error) {
	loc := Location{
		id:    id,
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(loc.checkLatitude(lat), loc.checkLongitude(lon)); err != nil {
		return Location{}, err
	}

	loc.latLng = s2.LatLngFromDegrees(lat, lon)
	return loc, nil
}

func (l Location) Validate() error {
	return l.guard.Validate(ErrLocationIsNotConstructed)
}

func (l Location) ID() string {
	return l.id
}

func (l Location) Lat() float64 {
	return l.latLng.Lat.Degrees()
}

func (l Location) Lon() float64 {
	return l.latLng.Lng.Degrees()
}

// LatLng exposes the s2 representation for geometry helpers.
func (l Location) LatLng() s2.LatLng {
	return l.latLng
}

func (l Location) String() string {
	return fmt.Sprintf("Location(%s,%.6f,%.6f)", l.id, l.Lat(), l.Lon())
}

// IsSamePoint compares coordinates only; ids are ignored.
func (l Location) IsSamePoint(other Location) (bool, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return false, err
	}

	return l.latLng.ApproxEqual(other.latLng), nil
}

// DistanceKm returns the great-circle distance to other in kilometres.
func (l Location) DistanceKm(other Location) (float64, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	return AngleToKm(l.latLng.Distance(other.latLng)), nil
}

// AngleToKm converts a central angle into kilometres on the Earth's surface.
func AngleToKm(angle s1.Angle) float64 {
	return angle.Radians() * EarthRadiusKm
}

func (l *Location) checkLatitude(lat float64) error {
	if lat < MinLatitude || lat > MaxLatitude {
		return errs.NewValueIsOutOfRangeError("lat", lat, MinLatitude, MaxLatitude)
	}
	return nil
}

func (l *Location) checkLongitude(lon float64) error {
	if lon < MinLongitude || lon > MaxLongitude {
		return errs.NewValueIsOutOfRangeError("lon", lon, MinLongitude, MaxLongitude)
	}
	return nil
}
