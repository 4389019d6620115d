package optimization

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/pkg/errs"
)

// Problem is the payload a client submits. It is stored verbatim with the task
// and handed to the solver by problemId.
type Problem struct {
	ProblemID string         `json:"problemId,omitempty"`
	Orders    []Order        `json:"orders"`
	Fleet     []Vehicle      `json:"fleet"`
	Config    *ProblemConfig `json:"config,omitempty"`
}

type ProblemConfig struct {
	AvoidTolls bool `json:"avoidTolls,omitempty"`
}

// Position is a point of the payload. It is empty when the id is blank or
// either coordinate is exactly zero.
type Position struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Order struct {
	ID            string           `json:"id"`
	Origin        *Position        `json:"origin"`
	Destination   *Position        `json:"destination"`
	ServiceTime   *int             `json:"serviceTime,omitempty"`
	ServiceWindow *TimeWindow      `json:"serviceWindow,omitempty"`
	Attributes    *OrderAttributes `json:"attributes,omitempty"`
}

type TimeWindow struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

type OrderAttributes struct {
	Weight *float64 `json:"weight,omitempty"`
	Volume *float64 `json:"volume,omitempty"`
}

type Vehicle struct {
	ID                     string         `json:"id"`
	StartingLocation       *Position      `json:"startingLocation"`
	PreferredDepartureTime *time.Time     `json:"preferredDepartureTime,omitempty"`
	BackToOrigin           *bool          `json:"backToOrigin,omitempty"`
	Limits                 *VehicleLimits `json:"limits,omitempty"`
}

type VehicleLimits struct {
	MaxOrders   *int     `json:"maxOrders,omitempty"`
	MaxDistance *int     `json:"maxDistance,omitempty"`
	MaxTime     *int     `json:"maxTime,omitempty"`
	MaxCapacity *float64 `json:"maxCapacity,omitempty"`
	MaxVolume   *float64 `json:"maxVolume,omitempty"`
}

// IsEmpty reports a missing or incomplete position.
func (p *Position) IsEmpty() bool {
	return p == nil || strings.TrimSpace(p.ID) == "" || p.Lat == 0 || p.Lon == 0
}

// Location converts the position into a validated kernel.Location.
func (p *Position) Location() (kernel.Location, error) {
	if p == nil {
		return kernel.Location{}, errs.NewValueIsRequiredError("position")
	}
	return kernel.NewLocation(p.ID, p.Lat, p.Lon)
}

// IsEmpty reports a window with neither bound set.
func (w *TimeWindow) IsEmpty() bool {
	return w == nil || (w.From == nil && w.To == nil)
}

// Weight is zero when unset.
func (o Order) Weight() float64 {
	if o.Attributes == nil || o.Attributes.Weight == nil {
		return 0
	}
	return *o.Attributes.Weight
}

// Volume is zero when unset.
func (o Order) Volume() float64 {
	if o.Attributes == nil || o.Attributes.Volume == nil {
		return 0
	}
	return *o.Attributes.Volume
}

// RoutesBack is true unless backToOrigin is explicitly false.
func (v Vehicle) RoutesBack() bool {
	return v.BackToOrigin == nil || *v.BackToOrigin
}

// Capacity is zero when unset.
func (v Vehicle) Capacity() float64 {
	if v.Limits == nil || v.Limits.MaxCapacity == nil {
		return 0
	}
	return *v.Limits.MaxCapacity
}

// VolumeLimit is zero when unset.
func (v Vehicle) VolumeLimit() float64 {
	if v.Limits == nil || v.Limits.MaxVolume == nil {
		return 0
	}
	return *v.Limits.MaxVolume
}

// AvoidTolls is false when no config was given.
func (p Problem) AvoidTolls() bool {
	return p.Config != nil && p.Config.AvoidTolls
}

// OrderByID returns the order with the given id.
func (p Problem) OrderByID(id string) (Order, bool) {
	for _, o := range p.Orders {
		if o.ID == id {
			return o, true
		}
	}
	return Order{}, false
}

// VehicleByID returns the fleet member with the given id.
func (p Problem) VehicleByID(id string) (Vehicle, bool) {
	for _, v := range p.Fleet {
		if v.ID == id {
			return v, true
		}
	}
	return Vehicle{}, false
}

// Validate applies the submission rules. The first violated rule is reported,
// wrapped so callers can match errs.ErrValueIsInvalid or errs.ErrValueIsRequired.
//
// Rules:
//   - at least one order and one fleet member
//   - order ids, origins and destinations are present
//   - service windows are set on every order or on none
//   - fleet ids and starting locations are present
//   - coordinates are within range
//   - total fleet capacity and volume cover the total order weight and volume
func (p Problem) Validate() error {
	if len(p.Orders) == 0 {
		return errs.NewValueIsRequiredErrorWithCause("orders", errors.New("at least one order must be provided"))
	}
	if len(p.Fleet) == 0 {
		return errs.NewValueIsRequiredErrorWithCause("fleet", errors.New("at least one fleet member must be provided"))
	}

	if err := p.validateOrders(); err != nil {
		return err
	}
	if err := p.validateFleet(); err != nil {
		return err
	}

	return p.validateCapacity()
}

func (p Problem) validateOrders() error {
	windows := 0
	for i, o := range p.Orders {
		if strings.TrimSpace(o.ID) == "" {
			return errs.NewValueIsRequiredErrorWithCause("orders.id", fmt.Errorf("order %d has no id", i))
		}
		if o.Origin.IsEmpty() {
			return errs.NewValueIsRequiredErrorWithCause("orders.origin", fmt.Errorf("order %s has no origin", o.ID))
		}
		if o.Destination.IsEmpty() {
			return errs.NewValueIsRequiredErrorWithCause(
				"orders.destination", fmt.Errorf("order %s has no destination", o.ID))
		}
		if err := errors.Join(checkPosition(o.Origin), checkPosition(o.Destination)); err != nil {
			return err
		}
		if !o.ServiceWindow.IsEmpty() {
			windows++
		}
	}

	if windows > 0 && windows != len(p.Orders) {
		return errs.NewValueIsInvalidErrorWithCause(
			"orders.serviceWindow", errors.New("serviceWindow must be either defined or empty for every order"))
	}

	return nil
}

func (p Problem) validateFleet() error {
	for i, v := range p.Fleet {
		if strings.TrimSpace(v.ID) == "" {
			return errs.NewValueIsRequiredErrorWithCause("fleet.id", fmt.Errorf("fleet member %d has no id", i))
		}
		if v.StartingLocation.IsEmpty() {
			return errs.NewValueIsRequiredErrorWithCause(
				"fleet.startingLocation", fmt.Errorf("fleet member %s has no starting location", v.ID))
		}
		if err := checkPosition(v.StartingLocation); err != nil {
			return err
		}
	}
	return nil
}

func (p Problem) validateCapacity() error {
	var fleetCapacity, fleetVolume, orderWeight, orderVolume float64
	for _, v := range p.Fleet {
		fleetCapacity += v.Capacity()
		fleetVolume += v.VolumeLimit()
	}
	for _, o := range p.Orders {
		orderWeight += o.Weight()
		orderVolume += o.Volume()
	}

	if fleetCapacity < orderWeight {
		return errs.NewValueIsInvalidErrorWithCause("fleet.limits.maxCapacity", fmt.Errorf(
			"total fleet capacity (%g) is not enough to cover total order weight (%g)", fleetCapacity, orderWeight))
	}
	if fleetVolume < orderVolume {
		return errs.NewValueIsInvalidErrorWithCause("fleet.limits.maxVolume", fmt.Errorf(
			"total fleet volume (%g) is not enough to cover total order volume (%g)", fleetVolume, orderVolume))
	}

	return nil
}

func checkPosition(p *Position) error {
	_, err := p.Location()
	return err
}

// JobMessage is the queue payload of one optimization job.
type JobMessage struct {
	ProblemID string `json:"problemId"`
}
