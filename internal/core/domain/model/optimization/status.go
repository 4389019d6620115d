package optimization

import (
	"fmt"

	"routeopt/internal/pkg/errs"
)

// Status is the lifecycle state of an optimization task.
//
// State transitions:
//
//	Submitted ──> MetadataUpdated ──> Running ──> Completed
//	    │               │                │
//	    └───────────────┴────────────────┴──────> Error
//
// A task moves forward only: an event applies when the task is not terminal
// and the event's target ranks above the current status. Completed and Error
// are terminal and absorb every later event.
type Status int

const (
	// Unknown catches uninitialized values.
	Unknown Status = iota

	// Submitted is set by the submission service once the task row is written.
	Submitted

	// MetadataUpdated means a worker received the job and reported where it runs.
	MetadataUpdated

	// Running means the solver started.
	Running

	// Completed is terminal. The result row exists.
	Completed

	// Error is terminal. It can preempt any non-terminal status.
	Error
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:         "UNKNOWN",
		Submitted:       "SUBMITTED",
		MetadataUpdated: "METADATA_UPDATED",
		Running:         "RUNNING",
		Completed:       "COMPLETED",
		Error:           "ERROR",
	}
}

func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[Status]string{
		Submitted:       "SUBMITTED",
		MetadataUpdated: "METADATA_UPDATED",
		Running:         "RUNNING",
		Completed:       "COMPLETED",
		Error:           "ERROR",
	}
}

// ParseStatus maps a stored or wire name back to a Status.
func ParseStatus(s string) (Status, error) {
	for status, name := range getValidStatusStrings() {
		if name == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}

// IsTerminal reports whether no event can change the status any more.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Error
}

// Next returns the status reached by applying event, and whether the event
// changes anything. Events that would regress or touch a terminal task are
// no-ops, which is how duplicates and late deliveries are absorbed.
//
// Example:
//
//	next, ok := optimization.Running.Next(optimization.EventMetadataUpdate)
//	// next == Running, ok == false: the stale metadata event is ignored
func (s Status) Next(event EventType) (Status, bool) {
	if s.Validate() != nil || s.IsTerminal() {
		return s, false
	}

	target := event.TargetStatus()
	if target == Unknown || target <= s {
		return s, false
	}

	return target, true
}

// Predecessors lists the statuses from which target can be reached.
// Stores use it for compare-and-set updates.
func (s Status) Predecessors() []Status {
	predecessors := make([]Status, 0, 3)
	for _, candidate := range []Status{Submitted, MetadataUpdated, Running} {
		if candidate < s {
			predecessors = append(predecessors, candidate)
		}
	}
	return predecessors
}
