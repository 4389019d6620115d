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
	"gorm.io/gorm"
)

var ErrFindStaleSubmissionsQueryIsNotConstructed = errors.New(
	"FindStaleSubmissionsQuery must be created via NewFindStaleSubmissionsQuery constructor",
)

// FindStaleSubmissionsQuery finds tasks still SUBMITTED at a cutoff, oldest
// first. These are jobs no worker has picked up, typically because their
// enqueue failed.
type FindStaleSubmissionsQuery struct {
	cutoff time.Time
	limit  int

	guard guard.ConstructorGuard
}

func NewFindStaleSubmissionsQuery(cutoff time.Time, limit int) (FindStaleSubmissionsQuery, error) {
	if cutoff.IsZero() {
		return FindStaleSubmissionsQuery{}, errs.NewValueIsRequiredError("cutoff")
	}
	if limit < 1 || limit > MaxPageSize {
		return FindStaleSubmissionsQuery{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxPageSize)
	}
	return FindStaleSubmissionsQuery{cutoff: cutoff, limit: limit, guard: guard.NewConstructorGuard()}, nil
}

func (q FindStaleSubmissionsQuery) Validate() error {
	return q.guard.Validate(ErrFindStaleSubmissionsQueryIsNotConstructed)
}

type StaleSubmission struct {
	ProblemID kernel.UUID
	CreatedAt time.Time
}

type FindStaleSubmissionsQueryHandler struct {
	db *gorm.DB
}

func NewFindStaleSubmissionsQueryHandler(db *gorm.DB) FindStaleSubmissionsQueryHandler {
	return FindStaleSubmissionsQueryHandler{db: db}
}

func (h FindStaleSubmissionsQueryHandler) Handle(
	ctx context.Context,
	query FindStaleSubmissionsQuery,
) ([]StaleSubmission, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT problem_id, created_at
		FROM optimization_tasks
		WHERE status = ? AND created_at < ?
		ORDER BY created_at, problem_id
		LIMIT ?
	`, int(optimization.Submitted), query.cutoff, query.limit).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stale := make([]StaleSubmission, 0)
	for rows.Next() {
		var (
			id        uuid.UUID
			createdAt time.Time
		)
		if err = rows.Scan(&id, &createdAt); err != nil {
			return nil, err
		}

		problemID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		stale = append(stale, StaleSubmission{ProblemID: problemID, CreatedAt: createdAt.UTC()})
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return stale, nil
}
