// Package resultrepo maps solver results to the "optimization_results" table.
package resultrepo

import (
	"time"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ResultDTO is one row of optimization_results, keyed by the task it belongs to.
// The foreign key to optimization_tasks is created by postgres.Migrate.
type ResultDTO struct {
	ProblemID      uuid.UUID                                     `gorm:"type:uuid;primaryKey"`
	ScoreHard      int64                                         `gorm:"not null"`
	ScoreMedium    int64                                         `gorm:"not null"`
	ScoreSoft      int64                                         `gorm:"not null"`
	SolverDuration int64                                         `gorm:"not null"`
	Assignments    datatypes.JSONType[[]optimization.Assignment] `gorm:"type:jsonb;not null"`
	CreatedAt      time.Time                                     `gorm:"not null;autoCreateTime:false"`
}

func (ResultDTO) TableName() string {
	return "optimization_results"
}

func fromDomain(result *optimization.Result) ResultDTO {
	score := result.Score()
	return ResultDTO{
		ProblemID:      result.ProblemID().Bytes(),
		ScoreHard:      score.Hard,
		ScoreMedium:    score.Medium,
		ScoreSoft:      score.Soft,
		SolverDuration: result.SolverDuration(),
		Assignments:    datatypes.NewJSONType(result.Assignments()),
		CreatedAt:      result.CreatedAt(),
	}
}

func toDomain(dto ResultDTO) (*optimization.Result, error) {
	id, err := kernel.UUIDFromBytes(dto.ProblemID[:])
	if err != nil {
		return nil, err
	}

	return optimization.RestoreResult(
		id,
		optimization.Score{Hard: dto.ScoreHard, Medium: dto.ScoreMedium, Soft: dto.ScoreSoft},
		dto.SolverDuration,
		dto.Assignments.Data(),
		dto.CreatedAt,
	), nil
}
