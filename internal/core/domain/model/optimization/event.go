package optimization

import (
	"fmt"
	"time"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/pkg/errs"
)

// ErrorDetail is what a worker reports when a run fails.
type ErrorDetail struct {
	ErrorMessage string `json:"errorMessage"`
	ErrorDetails string `json:"errorDetails,omitempty"`
}

// LogLocation points at the worker's log stream.
type LogLocation struct {
	Region string `json:"region,omitempty"`
	Group  string `json:"group,omitempty"`
	Stream string `json:"stream,omitempty"`
}

// ExecutionDetails describe where a task ran. Stored once, on the first
// METADATA_UPDATE.
type ExecutionDetails struct {
	Worker string       `json:"worker,omitempty"`
	Host   string       `json:"host,omitempty"`
	Log    *LogLocation `json:"log,omitempty"`
}

// EventDetail is the type-specific payload of a lifecycle event.
type EventDetail struct {
	ProblemID      string            `json:"problemId"`
	SolverDuration int64             `json:"solverDuration,omitempty"`
	Score          *Score            `json:"score,omitempty"`
	Error          *ErrorDetail      `json:"error,omitempty"`
	Metadata       *ExecutionDetails `json:"metadata,omitempty"`
	Assignments    []Assignment      `json:"assignments,omitempty"`
}

// LifecycleEvent is a transient progress notification from a worker.
// Delivery is at-least-once, so applying one must be idempotent.
//
// On the bus an event is the JSON envelope
// {"id", "source", "detailType", "time", "detail"}.
type LifecycleEvent struct {
	ID     string      `json:"id"`
	Source string      `json:"source"`
	Type   EventType   `json:"detailType"`
	Time   time.Time   `json:"time"`
	Detail EventDetail `json:"detail"`
}

// NewLifecycleEvent stamps an event from this system's source.
func NewLifecycleEvent(eventType EventType, detail EventDetail, at time.Time) LifecycleEvent {
	return LifecycleEvent{
		ID:     kernel.NewUUID().String(),
		Source: EventSource,
		Type:   eventType,
		Time:   at,
		Detail: detail,
	}
}

// ProblemID parses the identifier from the detail.
func (e LifecycleEvent) ProblemID() (kernel.UUID, error) {
	if e.Detail.ProblemID == "" {
		return kernel.UUID{}, errs.NewValueIsRequiredError("detail.problemId")
	}
	id, err := kernel.UUIDFromString(e.Detail.ProblemID)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("detail.problemId", err)
	}
	return id, nil
}

// Validate checks the source and type filter and the presence of a problemId.
func (e LifecycleEvent) Validate() error {
	if e.Source != EventSource {
		return errs.NewValueIsInvalidErrorWithCause("source", fmt.Errorf("unexpected event source %q", e.Source))
	}
	if err := e.Type.Validate(); err != nil {
		return err
	}
	_, err := e.ProblemID()
	return err
}

// Age is measured from the event's own timestamp.
func (e LifecycleEvent) Age(now time.Time) time.Duration {
	if e.Time.IsZero() {
		return 0
	}
	return now.Sub(e.Time)
}

// Coalesce keeps, per problemId, the single highest-priority event of a batch
// that arrived together. On equal priority the earliest one is kept. The
// result preserves the order in which problem ids first appear.
func Coalesce(events []LifecycleEvent) []LifecycleEvent {
	best := make(map[string]int, len(events))
	out := make([]LifecycleEvent, 0, len(events))

	for _, event := range events {
		key := event.Detail.ProblemID
		idx, seen := best[key]
		if !seen {
			best[key] = len(out)
			out = append(out, event)
			continue
		}
		if event.Type.Priority() > out[idx].Type.Priority() {
			out[idx] = event
		}
	}

	return out
}

// Failure returns the error detail of an ERROR event, defaulting the message.
func (e LifecycleEvent) Failure() ErrorDetail {
	if e.Detail.Error == nil || e.Detail.Error.ErrorMessage == "" {
		return ErrorDetail{ErrorMessage: "optimization failed without details"}
	}
	return *e.Detail.Error
}
