package queries

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/core/domain/model/routing"
	"routeopt/internal/core/domain/services"
	"routeopt/internal/core/ports"
	"routeopt/internal/pkg/errs"
	"routeopt/internal/pkg/guard"

	"github.com/twpayne/go-polyline"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// PolylinePrecision is the number of decimal places kept by leg geometry.
const PolylinePrecision = 6

var polylineCodec = polyline.Codec{Dim: 2, Scale: math.Pow10(PolylinePrecision)}

// DefaultRouteConcurrency bounds calculator calls in flight per query.
const DefaultRouteConcurrency = 8

var ErrGetAssignmentResultQueryIsNotConstructed = errors.New(
	"GetAssignmentResultQuery must be created via NewGetAssignmentResultQuery constructor",
)

// GetAssignmentResultQuery asks for the stored assignments of a completed
// task with road routes attached. VehicleID optionally narrows the answer to
// one vehicle.
type GetAssignmentResultQuery struct {
	problemID kernel.UUID
	vehicleID string

	guard guard.ConstructorGuard
}

func NewGetAssignmentResultQuery(problemID kernel.UUID, vehicleID string) (GetAssignmentResultQuery, error) {
	if err := problemID.Validate(); err != nil {
		return GetAssignmentResultQuery{}, errs.NewValueIsInvalidErrorWithCause("problemId", err)
	}
	return GetAssignmentResultQuery{
		problemID: problemID,
		vehicleID: strings.TrimSpace(vehicleID),
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (q GetAssignmentResultQuery) Validate() error {
	return q.guard.Validate(ErrGetAssignmentResultQueryIsNotConstructed)
}

type RouteLeg struct {
	DistanceKm float64
	Duration   int64

	// Polyline is the encoded leg geometry at PolylinePrecision.
	Polyline string
}

type VehicleRoute struct {
	DistanceKm float64
	Duration   int64

	// BBox is [minLon, minLat, maxLon, maxLat].
	BBox [4]float64
	Legs []RouteLeg
}

type EnrichedAssignment struct {
	optimization.Assignment

	Route *VehicleRoute
}

type GetAssignmentResultResponse struct {
	ProblemID   kernel.UUID
	Outcome     optimization.Outcome
	Score       optimization.Score
	Assignments []EnrichedAssignment
}

// GetAssignmentResultQueryHandler enriches assignments with routes from a
// ports.RouteCalculator. Nothing is written: the enrichment is recomputed
// on every call.
type GetAssignmentResultQueryHandler struct {
	db          *gorm.DB
	calculator  ports.RouteCalculator
	concurrency int
}

func NewGetAssignmentResultQueryHandler(db *gorm.DB, calculator ports.RouteCalculator) GetAssignmentResultQueryHandler {
	return GetAssignmentResultQueryHandler{db: db, calculator: calculator, concurrency: DefaultRouteConcurrency}
}

// Handle returns errs.ObjectNotFoundError when the task has no completed
// result or the vehicle filter matches no assignment, and
// errs.UpstreamUnavailableError when any calculator call fails.
func (h GetAssignmentResultQueryHandler) Handle(
	ctx context.Context,
	query GetAssignmentResultQuery,
) (*GetAssignmentResultResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	row, err := loadCompletedResult(ctx, h.db, query.problemID)
	if err != nil {
		return nil, err
	}

	problem := row.Payload.Data()
	assignments := row.Assignments.Data()

	if query.vehicleID != "" {
		filtered := make([]optimization.Assignment, 0, 1)
		for _, a := range assignments {
			if a.VehicleID == query.vehicleID {
				filtered = append(filtered, a)
			}
		}
		if len(filtered) == 0 {
			return nil, errs.NewObjectNotFoundError("vehicleId", query.vehicleID)
		}
		assignments = filtered
	}

	enriched := make([]EnrichedAssignment, len(assignments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)

	for i, assignment := range assignments {
		enriched[i].Assignment = assignment

		g.Go(func() error {
			route, routeErr := h.routeFor(gctx, problem, assignment)
			if routeErr != nil {
				return routeErr
			}
			enriched[i].Route = route
			return nil
		})
	}

	if err = g.Wait(); err != nil {
		return nil, err
	}

	return &GetAssignmentResultResponse{
		ProblemID:   query.problemID,
		Outcome:     optimization.OutcomeOf(row.ScoreHard),
		Score:       optimization.Score{Hard: row.ScoreHard, Medium: row.ScoreMedium, Soft: row.ScoreSoft},
		Assignments: enriched,
	}, nil
}

// routeFor calculates the chunks of one vehicle in order and concatenates
// them. A vehicle without orders gets no route.
func (h GetAssignmentResultQueryHandler) routeFor(
	ctx context.Context,
	problem optimization.Problem,
	assignment optimization.Assignment,
) (*VehicleRoute, error) {
	requests, err := services.PlanVehicleRoute(problem, assignment)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, nil
	}

	var total routing.Route
	for _, request := range requests {
		part, calcErr := h.calculator.Calculate(ctx, request)
		if calcErr != nil {
			if errors.Is(calcErr, errs.ErrUpstreamUnavailable) {
				return nil, calcErr
			}
			return nil, errs.NewUpstreamUnavailableError("routing",
				fmt.Errorf("vehicle %s: %w", assignment.VehicleID, calcErr))
		}
		total = total.Append(part)
	}

	route := &VehicleRoute{
		DistanceKm: total.DistanceKm,
		Duration:   total.Duration,
		BBox:       total.BBox.Degrees(),
		Legs:       make([]RouteLeg, 0, len(total.Legs)),
	}
	for _, leg := range total.Legs {
		route.Legs = append(route.Legs, RouteLeg{
			DistanceKm: leg.DistanceKm,
			Duration:   leg.Duration,
			Polyline:   encodePath(leg),
		})
	}

	return route, nil
}

func encodePath(leg routing.Leg) string {
	coords := make([][]float64, 0, len(leg.Path))
	for _, ll := range leg.Path {
		coords = append(coords, []float64{ll.Lat.Degrees(), ll.Lng.Degrees()})
	}
	return string(polylineCodec.EncodeCoords(nil, coords))
}
