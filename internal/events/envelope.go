package events

import (
	"time"

	"github.com/google/uuid"
)

// EventPriority orders events by importance. It is carried as metadata and
// has no effect on dispatch order.
type EventPriority int

const (
	PriorityLow EventPriority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p EventPriority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// EventMetadata is the delivery metadata attached to every envelope.
type EventMetadata struct {
	// TargetPlugins hints which plugins should handle this event, if
	// specific. Dispatch ignores it; plugins may consult it.
	TargetPlugins []string `json:"target_plugins,omitempty"`
	// Priority for ordering.
	Priority EventPriority `json:"priority"`
	// Persistent marks events that should be persisted. The bus itself
	// never persists events.
	Persistent bool `json:"persistent"`
}

// EventEnvelope wraps one Event with its delivery metadata. Envelopes are
// immutable after creation; every handler receives its own copy.
type EventEnvelope struct {
	ID        uuid.UUID     `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Event     Event         `json:"event"`
	Metadata  EventMetadata `json:"metadata"`
}

// NewEnvelope wraps an event with a fresh v7 ID, the current time, and
// normal-priority metadata.
func NewEnvelope(event Event) EventEnvelope {
	return NewEnvelopeWithMetadata(event, EventMetadata{Priority: PriorityNormal})
}

// NewEnvelopeWithMetadata wraps an event with caller-supplied metadata.
func NewEnvelopeWithMetadata(event Event, md EventMetadata) EventEnvelope {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the random source does, which is fatal
		// for the whole process anyway.
		panic("events: failed to generate envelope id: " + err.Error())
	}
	return EventEnvelope{
		ID:        id,
		Timestamp: time.Now().UTC(),
		Event:     event,
		Metadata:  md,
	}
}
