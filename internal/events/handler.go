package events

import "context"

// Handler is the capability plugins implement to consume events.
// Implementations must be safe for concurrent invocation; the bus may hold
// several in-flight calls against the same instance.
type Handler interface {
	// Handle processes one envelope. Errors are isolated per delivery:
	// they are recorded and logged but never propagated to the publisher
	// or to other handlers.
	Handle(ctx context.Context, envelope EventEnvelope) error

	// Filter returns the subscription criteria. It is queried once at
	// subscribe time and assumed stable for the subscription's lifetime;
	// changing the filter requires unsubscribe and resubscribe.
	Filter() EventFilter
}

// HealthChecker is optionally implemented by handlers that can report
// their own health. Handlers without it are considered healthy.
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// HandlerFunc adapts a function to the Handler interface with an empty
// filter (receive everything).
type HandlerFunc func(ctx context.Context, envelope EventEnvelope) error

func (f HandlerFunc) Handle(ctx context.Context, envelope EventEnvelope) error {
	return f(ctx, envelope)
}

func (f HandlerFunc) Filter() EventFilter { return EventFilter{} }
