// Package taskrepo maps optimization tasks to the "optimization_tasks" table.
package taskrepo

import (
	"encoding/json"
	"time"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TaskDTO is one row of optimization_tasks. The composite index serves the
// newest-first listing, optionally restricted to active tasks.
type TaskDTO struct {
	ProblemID        uuid.UUID                                `gorm:"type:uuid;primaryKey;index:idx_tasks_active_created,priority:3"`
	CreatedAt        time.Time                                `gorm:"not null;autoCreateTime:false;index:idx_tasks_active_created,priority:2,sort:desc"`
	UpdatedAt        time.Time                                `gorm:"not null;autoUpdateTime:false"`
	IsActive         bool                                     `gorm:"not null;index:idx_tasks_active_created,priority:1"`
	Status           int                                      `gorm:"type:smallint;not null;index"`
	Payload          datatypes.JSONType[optimization.Problem] `gorm:"type:jsonb;not null"`
	ExecutionDetails datatypes.JSON                           `gorm:"type:jsonb"`
	ErrorMessage     *string                                  `gorm:"type:text"`
	ErrorDetails     *string                                  `gorm:"type:text"`
}

func (TaskDTO) TableName() string {
	return "optimization_tasks"
}

func fromDomain(task *optimization.Task) (TaskDTO, error) {
	dto := TaskDTO{
		ProblemID: task.ProblemID().Bytes(),
		CreatedAt: task.CreatedAt(),
		UpdatedAt: task.UpdatedAt(),
		IsActive:  task.IsActive(),
		Status:    int(task.Status()),
		Payload:   datatypes.NewJSONType(task.Problem()),
	}

	details, err := encodeExecutionDetails(task.ExecutionDetails())
	if err != nil {
		return TaskDTO{}, err
	}
	dto.ExecutionDetails = details

	if failure := task.Failure(); failure != nil {
		dto.ErrorMessage = &failure.ErrorMessage
		dto.ErrorDetails = &failure.ErrorDetails
	}

	return dto, nil
}

func toDomain(dto TaskDTO) (*optimization.Task, error) {
	id, err := kernel.UUIDFromBytes(dto.ProblemID[:])
	if err != nil {
		return nil, err
	}

	var details *optimization.ExecutionDetails
	if len(dto.ExecutionDetails) > 0 {
		details = &optimization.ExecutionDetails{}
		if err = json.Unmarshal(dto.ExecutionDetails, details); err != nil {
			return nil, err
		}
	}

	var failure *optimization.ErrorDetail
	if dto.ErrorMessage != nil {
		failure = &optimization.ErrorDetail{ErrorMessage: *dto.ErrorMessage}
		if dto.ErrorDetails != nil {
			failure.ErrorDetails = *dto.ErrorDetails
		}
	}

	return optimization.RestoreTask(
		id,
		dto.CreatedAt,
		dto.UpdatedAt,
		dto.IsActive,
		optimization.Status(dto.Status),
		dto.Payload.Data(),
		details,
		failure,
	)
}

func encodeExecutionDetails(details *optimization.ExecutionDetails) (datatypes.JSON, error) {
	if details == nil {
		return nil, nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
