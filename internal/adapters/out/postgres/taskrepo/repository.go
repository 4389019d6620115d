package taskrepo

import (
	"context"
	"errors"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/optimization"
	"routeopt/internal/core/ports"
	"routeopt/internal/pkg/errs"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// GormTaskRepository implements ports.TaskRepository using GORM.
type GormTaskRepository struct {
	db *gorm.DB
}

func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// Add inserts a new task row.
func (r *GormTaskRepository) Add(ctx context.Context, task *optimization.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	dto, err := fromDomain(task)
	if err != nil {
		return err
	}

	if err = r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if isUniqueViolation(err) {
			return errs.NewObjectAlreadyExistsErrorWithCause("problemId", task.ProblemID().String(), err)
		}
		return err
	}

	return nil
}

// Get retrieves a task by problemId.
func (r *GormTaskRepository) Get(ctx context.Context, id kernel.UUID) (*optimization.Task, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto TaskDTO
	if err := r.db.WithContext(ctx).First(&dto, "problem_id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("problemId", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// UpdateStatus is a compare-and-set on the stored status.
func (r *GormTaskRepository) UpdateStatus(ctx context.Context, task *optimization.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	predecessors := task.Status().Predecessors()
	if len(predecessors) == 0 {
		return errs.NewValueIsInvalidError("status")
	}
	allowed := make([]int, 0, len(predecessors))
	for _, s := range predecessors {
		allowed = append(allowed, int(s))
	}

	updates := map[string]any{
		"status":     int(task.Status()),
		"updated_at": task.UpdatedAt(),
	}

	details, err := encodeExecutionDetails(task.ExecutionDetails())
	if err != nil {
		return err
	}
	if details != nil {
		updates["execution_details"] = gorm.Expr("COALESCE(execution_details, ?)", details)
	}

	if failure := task.Failure(); failure != nil {
		updates["error_message"] = failure.ErrorMessage
		updates["error_details"] = failure.ErrorDetails
	}

	result := r.db.WithContext(ctx).
		Model(&TaskDTO{}).
		Where("problem_id = ? AND status IN ?", task.ProblemID().Bytes(), allowed).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ports.ErrStatusConflict
	}

	return nil
}

// UpdateActivity writes the active flag.
func (r *GormTaskRepository) UpdateActivity(ctx context.Context, task *optimization.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&TaskDTO{}).
		Where("problem_id = ?", task.ProblemID().Bytes()).
		Updates(map[string]any{
			"is_active":  task.IsActive(),
			"updated_at": task.UpdatedAt(),
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("problemId", task.ProblemID().String())
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
