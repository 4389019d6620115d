package resultrepo

import (
	"context"
	"errors"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormResultRepository implements ports.ResultRepository using GORM.
type GormResultRepository struct {
	db *gorm.DB
}

func NewGormResultRepository(db *gorm.DB) *GormResultRepository {
	return &GormResultRepository{db: db}
}

// Add inserts the result. A second insert for the same problemId is ignored
// and reported as (false, nil).
func (r *GormResultRepository) Add(ctx context.Context, result *optimization.Result) (bool, error) {
	if err := result.Validate(); err != nil {
		return false, err
	}

	dto := fromDomain(result)
	tx := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "problem_id"}}, DoNothing: true}).
		Create(&dto)
	if tx.Error != nil {
		return false, tx.Error
	}

	return tx.RowsAffected > 0, nil
}

func (r *GormResultRepository) Get(ctx context.Context, id kernel.UUID) (*optimization.Result, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto ResultDTO
	if err := r.db.WithContext(ctx).First(&dto, "problem_id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("problemId", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}
