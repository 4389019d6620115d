// Package queries contains the read side: task lookup and listing, results,
// route-enriched assignments, stale submissions and dead letters. Handlers
// read the store with raw SQL and return read models rather than aggregates.
package queries

import (
	"encoding/json"
	"time"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const taskColumns = `
	t.problem_id,
	t.created_at,
	t.updated_at,
	t.is_active,
	t.status,
	t.execution_details,
	t.error_message,
	t.error_details,
	r.score_hard`

// OptimizationSummary is one task as shown in listings.
type OptimizationSummary struct {
	ProblemID        kernel.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
	IsActive         bool
	Status           optimization.Status
	Outcome          *optimization.Outcome
	ExecutionDetails *optimization.ExecutionDetails
	Error            *optimization.ErrorDetail
}

type taskRow struct {
	ProblemID        uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
	IsActive         bool
	Status           int
	Payload          datatypes.JSON
	ExecutionDetails datatypes.JSON
	ErrorMessage     *string
	ErrorDetails     *string
	ScoreHard        *int64
}

func (row taskRow) summary() (OptimizationSummary, error) {
	id, err := kernel.UUIDFromBytes(row.ProblemID[:])
	if err != nil {
		return OptimizationSummary{}, err
	}

	status := optimization.Status(row.Status)
	if err = status.Validate(); err != nil {
		return OptimizationSummary{}, err
	}

	summary := OptimizationSummary{
		ProblemID: id,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
		IsActive:  row.IsActive,
		Status:    status,
	}

	if status == optimization.Completed && row.ScoreHard != nil {
		outcome := optimization.OutcomeOf(*row.ScoreHard)
		summary.Outcome = &outcome
	}

	if len(row.ExecutionDetails) > 0 {
		summary.ExecutionDetails = &optimization.ExecutionDetails{}
		if err = json.Unmarshal(row.ExecutionDetails, summary.ExecutionDetails); err != nil {
			return OptimizationSummary{}, err
		}
	}

	if row.ErrorMessage != nil {
		summary.Error = &optimization.ErrorDetail{ErrorMessage: *row.ErrorMessage}
		if row.ErrorDetails != nil {
			summary.Error.ErrorDetails = *row.ErrorDetails
		}
	}

	return summary, nil
}
