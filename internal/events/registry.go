package events

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/samber/lo"
)

// subscription is one registered handler binding. The filter and the
// health-check capability are derived once at subscribe time.
type subscription struct {
	name    string
	handler Handler
	filter  EventFilter
	healthy func(ctx context.Context) bool
}

// nameSet is an independently locked set of handler names. Each EventType
// owns one, so dispatch reads never serialize behind registration churn on
// unrelated types.
type nameSet struct {
	mu    sync.RWMutex
	names map[string]struct{}
}

func (s *nameSet) add(name string) {
	s.mu.Lock()
	s.names[name] = struct{}{}
	s.mu.Unlock()
}

func (s *nameSet) remove(name string) {
	s.mu.Lock()
	delete(s.names, name)
	s.mu.Unlock()
}

func (s *nameSet) snapshot() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Keys(s.names)
}

// Registry is the concurrent-safe subscription store: handler name to
// binding, plus a reverse index from EventType to interested names.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]*subscription

	// index keys are fixed at construction; only the per-type sets mutate.
	index map[EventType]*nameSet

	logger *slog.Logger
}

// NewRegistry creates an empty registry with an index slot per EventType.
func NewRegistry(logger *slog.Logger) *Registry {
	index := make(map[EventType]*nameSet, len(AllEventTypes()))
	for _, et := range AllEventTypes() {
		index[et] = &nameSet{names: make(map[string]struct{})}
	}
	return &Registry{
		handlers: make(map[string]*subscription),
		index:    index,
		logger:   logger,
	}
}

// Subscribe registers a handler under a name. Re-registering an existing
// name overwrites the previous binding (last write wins). The handler's
// filter is queried once here; an empty type set indexes the name under
// every EventType.
func (r *Registry) Subscribe(name string, handler Handler) {
	sub := &subscription{
		name:    name,
		handler: handler,
		filter:  handler.Filter(),
		healthy: func(context.Context) bool { return true },
	}
	if hc, ok := handler.(HealthChecker); ok {
		sub.healthy = hc.HealthCheck
	}

	r.mu.Lock()
	r.handlers[name] = sub
	r.mu.Unlock()

	eventTypes := sub.filter.EventTypes
	if len(eventTypes) == 0 {
		eventTypes = AllEventTypes()
	}
	for _, et := range eventTypes {
		r.index[et].add(name)
	}

	r.logger.Info("registered event handler", "handler", name, "event_types", eventTypes)
}

// Unsubscribe removes a handler. The name is purged from every EventType's
// index entry, even types it was never indexed under - the sweep is cheap
// and unconditional. Unsubscribing an unknown name is a no-op.
func (r *Registry) Unsubscribe(name string) {
	r.mu.Lock()
	delete(r.handlers, name)
	r.mu.Unlock()

	for _, et := range AllEventTypes() {
		r.index[et].remove(name)
	}

	r.logger.Info("unregistered event handler", "handler", name)
}

// SubscriberCount returns the number of registered handlers. One handler
// indexed under several types still counts once.
func (r *Registry) SubscriberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Names returns the registered handler names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := lo.Keys(r.handlers)
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// HealthStatus runs every handler's health check and returns the results
// by handler name.
func (r *Registry) HealthStatus(ctx context.Context) map[string]bool {
	r.mu.RLock()
	subs := lo.Values(r.handlers)
	r.mu.RUnlock()

	status := make(map[string]bool, len(subs))
	for _, sub := range subs {
		status[sub.name] = sub.healthy(ctx)
	}
	return status
}

// candidates returns the current subscriptions indexed under an EventType.
// Names still in the index but already gone from the handler map (an
// unsubscribe in flight) are skipped.
func (r *Registry) candidates(eventType EventType) []*subscription {
	names := r.index[eventType].snapshot()
	subs := make([]*subscription, 0, len(names))

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range names {
		if sub, ok := r.handlers[name]; ok {
			subs = append(subs, sub)
		}
	}
	return subs
}
