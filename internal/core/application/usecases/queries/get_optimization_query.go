package queries

import (
	"context"
	"encoding/json"
	"errors"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/pkg/errs"
	"routeopt/internal/pkg/guard"

	"gorm.io/gorm"
)

var ErrGetOptimizationQueryIsNotConstructed = errors.New(
	"GetOptimizationQuery must be created via NewGetOptimizationQuery constructor",
)

// GetOptimizationQuery reads one task with its submitted problem.
// Inactive tasks are returned too.
type GetOptimizationQuery struct {
	problemID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetOptimizationQuery(problemID kernel.UUID) (GetOptimizationQuery, error) {
	if err := problemID.Validate(); err != nil {
		return GetOptimizationQuery{}, errs.NewValueIsInvalidErrorWithCause("problemId", err)
	}
	return GetOptimizationQuery{problemID: problemID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOptimizationQuery) Validate() error {
	return q.guard.Validate(ErrGetOptimizationQueryIsNotConstructed)
}

type GetOptimizationResponse struct {
	OptimizationSummary

	Problem optimization.Problem
}

type GetOptimizationQueryHandler struct {
	db *gorm.DB
}

func NewGetOptimizationQueryHandler(db *gorm.DB) GetOptimizationQueryHandler {
	return GetOptimizationQueryHandler{db: db}
}

// Handle returns errs.ObjectNotFoundError when no task has the id.
func (h GetOptimizationQueryHandler) Handle(ctx context.Context, query GetOptimizationQuery) (*GetOptimizationResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var row taskRow
	result := h.db.WithContext(ctx).Raw(`
		SELECT `+taskColumns+`,
			t.payload
		FROM optimization_tasks t
		LEFT JOIN optimization_results r ON r.problem_id = t.problem_id
		WHERE t.problem_id = ?
	`, query.problemID.String()).Scan(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, errs.NewObjectNotFoundError("problemId", query.problemID.String())
	}

	summary, err := row.summary()
	if err != nil {
		return nil, err
	}

	response := &GetOptimizationResponse{OptimizationSummary: summary}
	if err = json.Unmarshal(row.Payload, &response.Problem); err != nil {
		return nil, err
	}

	return response, nil
}
