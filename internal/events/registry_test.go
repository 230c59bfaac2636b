package events

import (
	"context"
	"log/slog"
	"slices"
	"testing"
)

// staticHandler is a registry test double with a fixed filter.
type staticHandler struct {
	filter  EventFilter
	healthy bool
}

func (h *staticHandler) Handle(context.Context, EventEnvelope) error { return nil }
func (h *staticHandler) Filter() EventFilter                         { return h.filter }
func (h *staticHandler) HealthCheck(context.Context) bool            { return h.healthy }

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func indexedNames(r *Registry, et EventType) []string {
	names := r.index[et].snapshot()
	slices.Sort(names)
	return names
}

func TestSubscribeIndexesFilteredTypes(t *testing.T) {
	r := NewRegistry(testLogger())
	r.Subscribe("ci", &staticHandler{filter: EventFilter{
		EventTypes: []EventType{EventTypePush, EventTypeTag},
	}, healthy: true})

	if got := indexedNames(r, EventTypePush); !slices.Equal(got, []string{"ci"}) {
		t.Fatalf("push index = %v", got)
	}
	if got := indexedNames(r, EventTypeTag); !slices.Equal(got, []string{"ci"}) {
		t.Fatalf("tag index = %v", got)
	}
	if got := indexedNames(r, EventTypeReview); len(got) != 0 {
		t.Fatalf("review index should be empty, got %v", got)
	}
}

func TestSubscribeEmptyFilterIndexesAllTypes(t *testing.T) {
	r := NewRegistry(testLogger())
	r.Subscribe("all", &staticHandler{healthy: true})

	for _, et := range AllEventTypes() {
		if got := indexedNames(r, et); !slices.Equal(got, []string{"all"}) {
			t.Fatalf("index for %s = %v, want [all]", et, got)
		}
	}
}

func TestResubscribeOverwrites(t *testing.T) {
	r := NewRegistry(testLogger())
	first := &staticHandler{filter: EventFilter{EventTypes: []EventType{EventTypePush}}}
	second := &staticHandler{filter: EventFilter{EventTypes: []EventType{EventTypePush}}}

	r.Subscribe("plugin", first)
	r.Subscribe("plugin", second)

	if count := r.SubscriberCount(); count != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", count)
	}

	subs := r.candidates(EventTypePush)
	if len(subs) != 1 {
		t.Fatalf("expected one candidate, got %d", len(subs))
	}
	if subs[0].handler != second {
		t.Fatal("re-subscribe did not overwrite the handler")
	}
}

func TestUnsubscribeSweepsAllIndexEntries(t *testing.T) {
	r := NewRegistry(testLogger())
	r.Subscribe("all", &staticHandler{})
	r.Subscribe("push-only", &staticHandler{filter: EventFilter{EventTypes: []EventType{EventTypePush}}})

	r.Unsubscribe("all")

	if count := r.SubscriberCount(); count != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", count)
	}
	for _, et := range AllEventTypes() {
		if slices.Contains(indexedNames(r, et), "all") {
			t.Fatalf("unsubscribed name still indexed under %s", et)
		}
	}
	if got := indexedNames(r, EventTypePush); !slices.Equal(got, []string{"push-only"}) {
		t.Fatalf("push index = %v, want [push-only]", got)
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	r := NewRegistry(testLogger())
	r.Subscribe("plugin", &staticHandler{})

	r.Unsubscribe("plugin")
	r.Unsubscribe("plugin") // second call is a no-op
	r.Unsubscribe("never-existed")

	if count := r.SubscriberCount(); count != 0 {
		t.Fatalf("SubscriberCount = %d, want 0", count)
	}
}

func TestHealthStatus(t *testing.T) {
	r := NewRegistry(testLogger())
	r.Subscribe("healthy", &staticHandler{healthy: true})
	r.Subscribe("unhealthy", &staticHandler{healthy: false})
	// HandlerFunc has no health check capability and defaults to healthy.
	r.Subscribe("plain", HandlerFunc(func(context.Context, EventEnvelope) error { return nil }))

	status := r.HealthStatus(context.Background())
	if len(status) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(status))
	}
	if !status["healthy"] || status["unhealthy"] || !status["plain"] {
		t.Fatalf("unexpected health status: %v", status)
	}
}

func TestNames(t *testing.T) {
	r := NewRegistry(testLogger())
	r.Subscribe("b", &staticHandler{})
	r.Subscribe("a", &staticHandler{})

	if got := r.Names(); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("Names = %v, want [a b]", got)
	}
}
