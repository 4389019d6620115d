package optimization

import (
	"errors"
	"fmt"
	"time"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/pkg/errs"
)

var ErrTaskIsNotConstructed = errors.New("Task must be created via NewTask constructor")

// Task is the aggregate root of one submitted optimization problem.
//
// A task is created SUBMITTED and active by the submission service. Only
// lifecycle events move its status afterwards (see Status). Tasks are never
// deleted; Deactivate hides them from the active listing.
type Task struct {
	problemID        kernel.UUID
	createdAt        time.Time
	updatedAt        time.Time
	isActive         bool
	status           Status
	problem          Problem
	executionDetails *ExecutionDetails
	failure          *ErrorDetail

	isConstructed bool
}

// NewTask validates the problem and returns a SUBMITTED, active task.
// The problem's ProblemID field is overwritten with problemID.
func NewTask(problemID kernel.UUID, problem Problem, now time.Time) (*Task, error) {
	if err := problemID.Validate(); err != nil {
		return nil, err
	}
	if err := problem.Validate(); err != nil {
		return nil, err
	}

	problem.ProblemID = problemID.String()
	return &Task{
		problemID:     problemID,
		createdAt:     now,
		updatedAt:     now,
		isActive:      true,
		status:        Submitted,
		problem:       problem,
		isConstructed: true,
	}, nil
}

// RestoreTask rebuilds a task read from the store.
func RestoreTask(
	problemID kernel.UUID,
	createdAt, updatedAt time.Time,
	isActive bool,
	status Status,
	problem Problem,
	executionDetails *ExecutionDetails,
	failure *ErrorDetail,
) (*Task, error) {
	if err := errors.Join(problemID.Validate(), status.Validate()); err != nil {
		return nil, err
	}

	return &Task{
		problemID:        problemID,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
		isActive:         isActive,
		status:           status,
		problem:          problem,
		executionDetails: executionDetails,
		failure:          failure,
		isConstructed:    true,
	}, nil
}

func (t *Task) Validate() error {
	if t == nil || !t.isConstructed {
		return ErrTaskIsNotConstructed
	}
	return nil
}

func (t *Task) ProblemID() kernel.UUID {
	return t.problemID
}

func (t *Task) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Task) UpdatedAt() time.Time {
	return t.updatedAt
}

func (t *Task) IsActive() bool {
	return t.isActive
}

func (t *Task) Status() Status {
	return t.status
}

func (t *Task) Problem() Problem {
	return t.problem
}

func (t *Task) ExecutionDetails() *ExecutionDetails {
	return t.executionDetails
}

func (t *Task) Failure() *ErrorDetail {
	return t.failure
}

// Apply moves the task according to event and reports whether anything
// changed. Duplicate, stale and post-terminal events return (false, nil).
//
// Example:
//
//	changed, err := task.Apply(event, time.Now())
//	if err != nil {
//	    return err // event does not belong to this task
//	}
//	if !changed {
//	    logger.Info("event ignored", "status", task.Status())
//	}
func (t *Task) Apply(event LifecycleEvent, now time.Time) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}

	eventProblemID, err := event.ProblemID()
	if err != nil {
		return false, err
	}
	if !eventProblemID.IsEqual(t.problemID) {
		return false, errs.NewValueIsInvalidErrorWithCause("detail.problemId",
			fmt.Errorf("event for %s applied to task %s", eventProblemID, t.problemID))
	}

	next, ok := t.status.Next(event.Type)
	if !ok {
		return false, nil
	}

	switch event.Type {
	case EventMetadataUpdate:
		if t.executionDetails == nil && event.Detail.Metadata != nil {
			details := *event.Detail.Metadata
			t.executionDetails = &details
		}
	case EventError:
		failure := event.Failure()
		t.failure = &failure
	case EventInProgress, EventCompleted, EventUnknown:
	}

	t.status = next
	t.updatedAt = now
	return true, nil
}

// Deactivate hides the task from the active listing. It reports whether the
// flag changed.
func (t *Task) Deactivate(now time.Time) bool {
	if !t.isActive {
		return false
	}

	t.isActive = false
	t.updatedAt = now
	return true
}
