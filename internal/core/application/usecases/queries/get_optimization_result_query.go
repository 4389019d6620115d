package queries

import (
	"context"
	"errors"
	"time"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/pkg/errs"
	"routeopt/internal/pkg/guard"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrGetOptimizationResultQueryIsNotConstructed = errors.New(
	"GetOptimizationResultQuery must be created via NewGetOptimizationResultQuery constructor",
)

type GetOptimizationResultQuery struct {
	problemID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetOptimizationResultQuery(problemID kernel.UUID) (GetOptimizationResultQuery, error) {
	if err := problemID.Validate(); err != nil {
		return GetOptimizationResultQuery{}, errs.NewValueIsInvalidErrorWithCause("problemId", err)
	}
	return GetOptimizationResultQuery{problemID: problemID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOptimizationResultQuery) Validate() error {
	return q.guard.Validate(ErrGetOptimizationResultQueryIsNotConstructed)
}

type GetOptimizationResultResponse struct {
	ProblemID      kernel.UUID
	Outcome        optimization.Outcome
	Score          optimization.Score
	SolverDuration int64
	Assignments    []optimization.Assignment
	CompletedAt    time.Time
}

type resultRow struct {
	ProblemID      uuid.UUID
	ScoreHard      int64
	ScoreMedium    int64
	ScoreSoft      int64
	SolverDuration int64
	Assignments    datatypes.JSONType[[]optimization.Assignment]
	CreatedAt      time.Time
	Payload        datatypes.JSONType[optimization.Problem]
}

// loadCompletedResult reads the result of a COMPLETED task together with
// the task's problem. A task in any other status has no result.
func loadCompletedResult(ctx context.Context, db *gorm.DB, problemID kernel.UUID) (*resultRow, error) {
	var row resultRow
	result := db.WithContext(ctx).Raw(`
		SELECT
			r.problem_id,
			r.score_hard,
			r.score_medium,
			r.score_soft,
			r.solver_duration,
			r.assignments,
			r.created_at,
			t.payload
		FROM optimization_tasks t
		JOIN optimization_results r ON r.problem_id = t.problem_id
		WHERE t.problem_id = ? AND t.status = ?
	`, problemID.String(), int(optimization.Completed)).Scan(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, errs.NewObjectNotFoundErrorWithCause("problemId", problemID.String(),
			errors.New("no completed result"))
	}
	return &row, nil
}

type GetOptimizationResultQueryHandler struct {
	db *gorm.DB
}

func NewGetOptimizationResultQueryHandler(db *gorm.DB) GetOptimizationResultQueryHandler {
	return GetOptimizationResultQueryHandler{db: db}
}

// Handle returns errs.ObjectNotFoundError unless the task is COMPLETED.
func (h GetOptimizationResultQueryHandler) Handle(
	ctx context.Context,
	query GetOptimizationResultQuery,
) (*GetOptimizationResultResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	row, err := loadCompletedResult(ctx, h.db, query.problemID)
	if err != nil {
		return nil, err
	}

	assignments := row.Assignments.Data()
	if assignments == nil {
		assignments = []optimization.Assignment{}
	}

	return &GetOptimizationResultResponse{
		ProblemID:      query.problemID,
		Outcome:        optimization.OutcomeOf(row.ScoreHard),
		Score:          optimization.Score{Hard: row.ScoreHard, Medium: row.ScoreMedium, Soft: row.ScoreSoft},
		SolverDuration: row.SolverDuration,
		Assignments:    assignments,
		CompletedAt:    row.CreatedAt.UTC(),
	}, nil
}
