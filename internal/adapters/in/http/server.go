package http

import (
	"context"
	"log/slog"
	"net/http"

	"routeopt/internal/core/application/usecases/commands"
	"routeopt/internal/core/application/usecases/queries"
	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/ports"
	"routeopt/internal/generated/servers"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

type SubmitOptimizationHandler interface {
	Handle(ctx context.Context, cmd commands.SubmitOptimizationCommand) (kernel.UUID, error)
}

type DeactivateOptimizationHandler interface {
	Handle(ctx context.Context, cmd commands.DeactivateOptimizationCommand) error
}

type ReplayDeadLettersHandler interface {
	Handle(ctx context.Context, cmd commands.ReplayDeadLettersCommand) (int64, error)
}

type GetOptimizationHandler interface {
	Handle(ctx context.Context, query queries.GetOptimizationQuery) (*queries.GetOptimizationResponse, error)
}

type ListOptimizationsHandler interface {
	Handle(ctx context.Context, query queries.ListOptimizationsQuery) (*queries.ListOptimizationsResponse, error)
}

type GetOptimizationResultHandler interface {
	Handle(ctx context.Context, query queries.GetOptimizationResultQuery) (*queries.GetOptimizationResultResponse, error)
}

type GetAssignmentResultHandler interface {
	Handle(ctx context.Context, query queries.GetAssignmentResultQuery) (*queries.GetAssignmentResultResponse, error)
}

type ListDeadLettersHandler interface {
	HandleQueue(ctx context.Context, query queries.ListDeadLettersQuery) ([]ports.QueueMessage, error)
	HandleEvents(ctx context.Context, query queries.ListDeadLettersQuery) ([]ports.DeadLetterEvent, error)
}

// Handlers are the use cases the API exposes.
type Handlers struct {
	// Command handlers
	Submit     SubmitOptimizationHandler
	Deactivate DeactivateOptimizationHandler
	Replay     ReplayDeadLettersHandler

	// Query handlers
	Get         GetOptimizationHandler
	List        ListOptimizationsHandler
	Result      GetOptimizationResultHandler
	Assignments GetAssignmentResultHandler
	DeadLetters ListDeadLettersHandler
}

// Server implements servers.ServerInterface on top of the application use cases.
type Server struct {
	handlers Handlers
	logger   *slog.Logger
}

var _ servers.ServerInterface = (*Server)(nil)

func NewServer(handlers Handlers, logger *slog.Logger) *Server {
	return &Server{handlers: handlers, logger: logger.With("component", "http")}
}

// SubmitOptimization handles POST /optimizations.
func (s *Server) SubmitOptimization(ctx echo.Context) error {
	var problem servers.SubmitOptimizationJSONRequestBody
	if err := ctx.Bind(&problem); err != nil {
		return ctx.JSON(http.StatusBadRequest, servers.Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	cmd, err := commands.NewSubmitOptimizationCommand(problem)
	if err != nil {
		return s.fail(ctx, err)
	}

	problemID, err := s.handlers.Submit.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, servers.SubmitOptimizationResponse{ProblemId: problemID.Bytes()})
}

// ListOptimizations handles GET /optimizations.
func (s *Server) ListOptimizations(ctx echo.Context, params servers.ListOptimizationsParams) error {
	query, err := queries.NewListOptimizationsQuery(
		deref(params.ActiveOnly), deref(params.NextToken), deref(params.Limit))
	if err != nil {
		return s.fail(ctx, err)
	}

	page, err := s.handlers.List.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	response := servers.OptimizationPage{Items: make([]servers.Optimization, len(page.Items))}
	for i, item := range page.Items {
		response.Items[i] = toOptimization(item)
	}
	if page.NextToken != "" {
		response.NextToken = &page.NextToken
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetOptimization handles GET /optimizations/{problemId}.
func (s *Server) GetOptimization(ctx echo.Context, problemID servers.ProblemId) error {
	id, err := toKernelUUID(problemID)
	if err != nil {
		return s.fail(ctx, err)
	}

	query, err := queries.NewGetOptimizationQuery(id)
	if err != nil {
		return s.fail(ctx, err)
	}

	task, err := s.handlers.Get.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	summary := toOptimization(task.OptimizationSummary)
	return ctx.JSON(http.StatusOK, servers.OptimizationDetail{
		ProblemId:        summary.ProblemId,
		CreatedAt:        summary.CreatedAt,
		UpdatedAt:        summary.UpdatedAt,
		IsActive:         summary.IsActive,
		Status:           summary.Status,
		Outcome:          summary.Outcome,
		ExecutionDetails: summary.ExecutionDetails,
		Error:            summary.Error,
		Problem:          task.Problem,
	})
}

// DeactivateOptimization handles DELETE /optimizations/{problemId}.
func (s *Server) DeactivateOptimization(ctx echo.Context, problemID servers.ProblemId) error {
	id, err := toKernelUUID(problemID)
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewDeactivateOptimizationCommand(id)
	if err != nil {
		return s.fail(ctx, err)
	}

	if err = s.handlers.Deactivate.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// GetOptimizationResult handles GET /optimizations/{problemId}/result.
func (s *Server) GetOptimizationResult(ctx echo.Context, problemID servers.ProblemId) error {
	id, err := toKernelUUID(problemID)
	if err != nil {
		return s.fail(ctx, err)
	}

	query, err := queries.NewGetOptimizationResultQuery(id)
	if err != nil {
		return s.fail(ctx, err)
	}

	result, err := s.handlers.Result.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, servers.OptimizationResult{
		ProblemId:      result.ProblemID.Bytes(),
		Outcome:        servers.Outcome(result.Outcome),
		Score:          result.Score,
		SolverDuration: result.SolverDuration,
		Assignments:    result.Assignments,
		CompletedAt:    result.CompletedAt,
	})
}

// GetOptimizationAssignments handles GET /optimizations/{problemId}/assignments.
func (s *Server) GetOptimizationAssignments(
	ctx echo.Context,
	problemID servers.ProblemId,
	params servers.GetOptimizationAssignmentsParams,
) error {
	id, err := toKernelUUID(problemID)
	if err != nil {
		return s.fail(ctx, err)
	}

	query, err := queries.NewGetAssignmentResultQuery(id, deref(params.VehicleId))
	if err != nil {
		return s.fail(ctx, err)
	}

	result, err := s.handlers.Assignments.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	response := servers.AssignmentResult{
		ProblemId:   result.ProblemID.Bytes(),
		Outcome:     servers.Outcome(result.Outcome),
		Score:       result.Score,
		Assignments: make([]servers.EnrichedAssignment, len(result.Assignments)),
	}
	for i, a := range result.Assignments {
		response.Assignments[i] = servers.EnrichedAssignment{Assignment: a.Assignment, Route: toVehicleRoute(a.Route)}
	}

	return ctx.JSON(http.StatusOK, response)
}

// ListQueueDeadLetters handles GET /dead-letters/queue.
func (s *Server) ListQueueDeadLetters(ctx echo.Context, params servers.ListQueueDeadLettersParams) error {
	query, err := queries.NewListDeadLettersQuery(deref(params.Limit))
	if err != nil {
		return s.fail(ctx, err)
	}

	messages, err := s.handlers.DeadLetters.HandleQueue(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	response := make([]servers.QueueDeadLetter, len(messages))
	for i, m := range messages {
		response[i] = servers.QueueDeadLetter{
			Id:           m.ID,
			ProblemId:    m.Job.ProblemID,
			ReceiveCount: m.ReceiveCount,
			SentAt:       m.SentAt,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// ListEventDeadLetters handles GET /dead-letters/events.
func (s *Server) ListEventDeadLetters(ctx echo.Context, params servers.ListEventDeadLettersParams) error {
	query, err := queries.NewListDeadLettersQuery(deref(params.Limit))
	if err != nil {
		return s.fail(ctx, err)
	}

	entries, err := s.handlers.DeadLetters.HandleEvents(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	response := make([]servers.EventDeadLetter, len(entries))
	for i, e := range entries {
		response[i] = servers.EventDeadLetter{
			Event:    e.Event,
			Reason:   e.Reason,
			Attempts: e.Attempts,
			FailedAt: e.FailedAt,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// ReplayQueueDeadLetters handles POST /dead-letters/queue/replay.
func (s *Server) ReplayQueueDeadLetters(ctx echo.Context, params servers.ReplayQueueDeadLettersParams) error {
	cmd, err := commands.NewReplayDeadLettersCommand(deref(params.Count))
	if err != nil {
		return s.fail(ctx, err)
	}

	replayed, err := s.handlers.Replay.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, servers.ReplayResponse{Replayed: replayed})
}

func toOptimization(summary queries.OptimizationSummary) servers.Optimization {
	out := servers.Optimization{
		ProblemId:        summary.ProblemID.Bytes(),
		CreatedAt:        summary.CreatedAt,
		UpdatedAt:        summary.UpdatedAt,
		IsActive:         summary.IsActive,
		Status:           servers.Status(summary.Status.String()),
		ExecutionDetails: summary.ExecutionDetails,
		Error:            summary.Error,
	}
	if summary.Outcome != nil {
		outcome := servers.Outcome(*summary.Outcome)
		out.Outcome = &outcome
	}
	return out
}

func toVehicleRoute(route *queries.VehicleRoute) *servers.VehicleRoute {
	if route == nil {
		return nil
	}

	out := &servers.VehicleRoute{
		DistanceKm: route.DistanceKm,
		Duration:   route.Duration,
		Bbox:       route.BBox[:],
		Legs:       make([]servers.RouteLeg, len(route.Legs)),
	}
	for i, leg := range route.Legs {
		out.Legs[i] = servers.RouteLeg{
			DistanceKm: leg.DistanceKm,
			Duration:   leg.Duration,
			Polyline:   leg.Polyline,
		}
	}
	return out
}

func toKernelUUID(id openapi_types.UUID) (kernel.UUID, error) {
	return kernel.UUIDFromBytes(id[:])
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
