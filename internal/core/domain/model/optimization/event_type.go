package optimization

import (
	"fmt"

	"routeopt/internal/pkg/errs"
)

// EventSource is the source every lifecycle event must carry.
const EventSource = "optimization"

// EventType is the kind of a lifecycle event emitted by workers.
// Its numeric value is its priority: when several events for one task arrive
// together, the highest one wins.
type EventType int

const (
	EventUnknown EventType = iota
	EventMetadataUpdate
	EventInProgress
	EventCompleted
	EventError
)

func getEventTypeStrings() map[EventType]string {
	//nolint:exhaustive // EventUnknown has no wire name
	return map[EventType]string{
		EventMetadataUpdate: "METADATA_UPDATE",
		EventInProgress:     "IN_PROGRESS",
		EventCompleted:      "COMPLETED",
		EventError:          "ERROR",
	}
}

// ParseEventType maps a detail type from the bus to an EventType.
func ParseEventType(s string) (EventType, error) {
	for eventType, name := range getEventTypeStrings() {
		if name == s {
			return eventType, nil
		}
	}
	return EventUnknown, errs.NewValueIsInvalidErrorWithCause(
		"detailType is invalid", fmt.Errorf("%q is not a lifecycle event type", s))
}

func (e EventType) String() string {
	if str, ok := getEventTypeStrings()[e]; ok {
		return str
	}
	return "UNKNOWN"
}

func (e EventType) Validate() error {
	if _, ok := getEventTypeStrings()[e]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("detailType is invalid", fmt.Errorf("%d is not a lifecycle event type", e))
	}
	return nil
}

func (e EventType) MarshalText() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return []byte(e.String()), nil
}

func (e *EventType) UnmarshalText(text []byte) error {
	parsed, err := ParseEventType(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Priority orders concurrent events: ERROR > COMPLETED > IN_PROGRESS > METADATA_UPDATE.
func (e EventType) Priority() int {
	return int(e)
}

// TargetStatus is the status a task reaches when the event applies.
func (e EventType) TargetStatus() Status {
	switch e {
	case EventMetadataUpdate:
		return MetadataUpdated
	case EventInProgress:
		return Running
	case EventCompleted:
		return Completed
	case EventError:
		return Error
	case EventUnknown:
		return Unknown
	}
	return Unknown
}
