package optimization

import (
	"errors"
	"time"

	"routeopt/internal/core/domain/model/kernel"
)

var ErrResultIsNotConstructed = errors.New("Result must be created via NewResult constructor")

// Outcome summarises a completed run by its hard score.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeWarning Outcome = "WARNING"
)

// Score is the solver score. A non-zero hard score means at least one hard
// constraint is violated.
type Score struct {
	Hard   int64 `json:"hard"`
	Medium int64 `json:"medium"`
	Soft   int64 `json:"soft"`
}

type AssignedOrder struct {
	ID          string     `json:"id"`
	ArrivalTime *time.Time `json:"arrivalTime,omitempty"`
}

// Assignment is the ordered stop sequence of one vehicle.
type Assignment struct {
	VehicleID           string          `json:"vehicleId"`
	Orders              []AssignedOrder `json:"orders"`
	DepartureTime       *time.Time      `json:"departureTime,omitempty"`
	TotalTravelDistance float64         `json:"totalTravelDistance"`
	TotalTimeDuration   int64           `json:"totalTimeDuration"`
	TotalWeight         float64         `json:"totalWeight"`
	TotalVolume         float64         `json:"totalVolume"`
}

// Result is the immutable solver output of a completed task.
type Result struct {
	problemID      kernel.UUID
	score          Score
	solverDuration int64
	assignments    []Assignment
	createdAt      time.Time

	isConstructed bool
}

// NewResult builds the result carried by a COMPLETED event.
func NewResult(problemID kernel.UUID, detail EventDetail, createdAt time.Time) (*Result, error) {
	if err := problemID.Validate(); err != nil {
		return nil, err
	}

	var score Score
	if detail.Score != nil {
		score = *detail.Score
	}

	return RestoreResult(problemID, score, detail.SolverDuration, detail.Assignments, createdAt), nil
}

// RestoreResult rebuilds a stored result without validation.
func RestoreResult(
	problemID kernel.UUID,
	score Score,
	solverDuration int64,
	assignments []Assignment,
	createdAt time.Time,
) *Result {
	if assignments == nil {
		assignments = []Assignment{}
	}

	return &Result{
		problemID:      problemID,
		score:          score,
		solverDuration: solverDuration,
		assignments:    assignments,
		createdAt:      createdAt,
		isConstructed:  true,
	}
}

func (r *Result) Validate() error {
	if r == nil || !r.isConstructed {
		return ErrResultIsNotConstructed
	}
	return nil
}

func (r *Result) ProblemID() kernel.UUID {
	return r.problemID
}

func (r *Result) Score() Score {
	return r.score
}

// SolverDuration is in seconds.
func (r *Result) SolverDuration() int64 {
	return r.solverDuration
}

func (r *Result) Assignments() []Assignment {
	return r.assignments
}

func (r *Result) CreatedAt() time.Time {
	return r.createdAt
}

func (r *Result) Outcome() Outcome {
	return OutcomeOf(r.score.Hard)
}

// OutcomeOf is SUCCESS for a zero hard score and WARNING otherwise.
func OutcomeOf(hardScore int64) Outcome {
	if hardScore == 0 {
		return OutcomeSuccess
	}
	return OutcomeWarning
}

// AssignmentFor returns the stop sequence of one vehicle.
func (r *Result) AssignmentFor(vehicleID string) (Assignment, bool) {
	for _, a := range r.assignments {
		if a.VehicleID == vehicleID {
			return a, true
		}
	}
	return Assignment{}, false
}

// Solution is what a solver run hands back for the COMPLETED event.
type Solution struct {
	Assignments []Assignment
	Score       Score
	Duration    time.Duration
}

// Detail converts the solution into a COMPLETED event payload.
func (s Solution) Detail(problemID kernel.UUID) EventDetail {
	score := s.Score
	return EventDetail{
		ProblemID:      problemID.String(),
		SolverDuration: int64(s.Duration.Round(time.Second) / time.Second),
		Score:          &score,
		Assignments:    s.Assignments,
	}
}
