package queries

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/pkg/errs"
	"routeopt/internal/pkg/guard"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 40
	MaxPageSize     = 100
)

var ErrListOptimizationsQueryIsNotConstructed = errors.New(
	"ListOptimizationsQuery must be created via NewListOptimizationsQuery constructor",
)

// pageKey is the keyset position after the last returned item.
type pageKey struct {
	CreatedAt time.Time `json:"createdAt"`
	ProblemID string    `json:"problemId"`
}

func encodePageToken(key pageKey) (string, error) {
	raw, err := json.Marshal(key)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodePageToken(token string) (pageKey, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return pageKey{}, errs.NewValueIsInvalidErrorWithCause("nextToken", err)
	}

	var key pageKey
	if err = json.Unmarshal(raw, &key); err != nil {
		return pageKey{}, errs.NewValueIsInvalidErrorWithCause("nextToken", err)
	}
	if key.CreatedAt.IsZero() {
		return pageKey{}, errs.NewValueIsInvalidErrorWithCause("nextToken", errors.New("missing createdAt"))
	}
	if _, err = kernel.UUIDFromString(key.ProblemID); err != nil {
		return pageKey{}, errs.NewValueIsInvalidErrorWithCause("nextToken", err)
	}

	return key, nil
}

// ListOptimizationsQuery pages through tasks newest first.
//
// Example:
//
//	query, err := NewListOptimizationsQuery(true, "", 0)
//	page, err := handler.Handle(ctx, query)
//	for page.NextToken != "" {
//	    query, _ = NewListOptimizationsQuery(true, page.NextToken, 0)
//	    page, err = handler.Handle(ctx, query)
//	}
type ListOptimizationsQuery struct {
	activeOnly bool
	after      *pageKey
	limit      int

	guard guard.ConstructorGuard
}

// NewListOptimizationsQuery accepts a limit of 0 as DefaultPageSize and an
// empty token as the first page.
func NewListOptimizationsQuery(activeOnly bool, pageToken string, limit int) (ListOptimizationsQuery, error) {
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit < 1 || limit > MaxPageSize {
		return ListOptimizationsQuery{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxPageSize)
	}

	query := ListOptimizationsQuery{activeOnly: activeOnly, limit: limit, guard: guard.NewConstructorGuard()}

	if pageToken = strings.TrimSpace(pageToken); pageToken != "" {
		key, err := decodePageToken(pageToken)
		if err != nil {
			return ListOptimizationsQuery{}, err
		}
		query.after = &key
	}

	return query, nil
}

func (q ListOptimizationsQuery) Validate() error {
	return q.guard.Validate(ErrListOptimizationsQueryIsNotConstructed)
}

type ListOptimizationsResponse struct {
	Items []OptimizationSummary

	// NextToken is empty on the last page.
	NextToken string
}

type ListOptimizationsQueryHandler struct {
	db *gorm.DB
}

func NewListOptimizationsQueryHandler(db *gorm.DB) ListOptimizationsQueryHandler {
	return ListOptimizationsQueryHandler{db: db}
}

func (h ListOptimizationsQueryHandler) Handle(
	ctx context.Context,
	query ListOptimizationsQuery,
) (*ListOptimizationsResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if query.activeOnly {
		where = append(where, "t.is_active = TRUE")
	}
	if query.after != nil {
		where = append(where, "(t.created_at, t.problem_id) < (?, ?)")
		args = append(args, query.after.CreatedAt, query.after.ProblemID)
	}

	sql := `SELECT ` + taskColumns + `
		FROM optimization_tasks t
		LEFT JOIN optimization_results r ON r.problem_id = t.problem_id`
	if len(where) > 0 {
		sql += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	sql += "\n\t\tORDER BY t.created_at DESC, t.problem_id DESC\n\t\tLIMIT ?"
	args = append(args, query.limit+1)

	var rows []taskRow
	if err := h.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	response := &ListOptimizationsResponse{Items: make([]OptimizationSummary, 0, min(len(rows), query.limit))}
	for i, row := range rows {
		if i == query.limit {
			break
		}
		summary, err := row.summary()
		if err != nil {
			return nil, err
		}
		response.Items = append(response.Items, summary)
	}

	if len(rows) > query.limit {
		last := response.Items[len(response.Items)-1]
		token, err := encodePageToken(pageKey{CreatedAt: last.CreatedAt, ProblemID: last.ProblemID.String()})
		if err != nil {
			return nil, err
		}
		response.NextToken = token
	}

	return response, nil
}
