package review

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nimbusgit/nimbus/internal/events"
)

type reviewCapture struct {
	mu       sync.Mutex
	requests []events.ReviewRequested
}

func (c *reviewCapture) Handle(ctx context.Context, envelope events.EventEnvelope) error {
	if e, ok := envelope.Event.(events.ReviewRequested); ok {
		c.mu.Lock()
		c.requests = append(c.requests, e)
		c.mu.Unlock()
	}
	return nil
}

func (c *reviewCapture) Filter() events.EventFilter {
	return events.EventFilter{EventTypes: []events.EventType{events.EventTypeReview}}
}

func (c *reviewCapture) snapshot() []events.ReviewRequested {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.ReviewRequested(nil), c.requests...)
}

func newTestBus(t *testing.T) *events.InMemoryBus {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	bus := events.NewInMemoryBus(events.Config{}, logger, events.NewMetrics(prometheus.NewRegistry()))
	bus.Start(context.Background())
	t.Cleanup(bus.Close)
	return bus
}

func TestReviewerRotation(t *testing.T) {
	bus := newTestBus(t)
	plugin := New(bus, slog.New(slog.DiscardHandler), []string{"alice", "bob"})
	if err := plugin.Register(); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	capture := &reviewCapture{}
	if err := bus.Subscribe("capture", capture); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	ids := make([]uuid.UUID, 3)
	for i := range ids {
		ids[i] = uuid.New()
		err := bus.Publish(context.Background(), events.NewEnvelope(events.PullRequestOpened{
			ID:         ids[i],
			Repository: "nimbus",
			FromBranch: "feature/x",
			ToBranch:   "main",
		}))
		if err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(capture.snapshot()) < 3 {
		time.Sleep(5 * time.Millisecond)
	}

	requests := capture.snapshot()
	if len(requests) != 3 {
		t.Fatalf("review requests = %d, want 3", len(requests))
	}

	// Dispatch order across envelopes of one type is preserved, so the
	// rotation is observable.
	wantReviewers := []string{"alice", "bob", "alice"}
	for i, req := range requests {
		if req.Reviewer != wantReviewers[i] {
			t.Errorf("request %d reviewer = %q, want %q", i, req.Reviewer, wantReviewers[i])
		}
		if req.PullRequestID != ids[i] {
			t.Errorf("request %d pull_request_id = %s, want %s", i, req.PullRequestID, ids[i])
		}
	}
}

func TestNoReviewersSkipsAssignment(t *testing.T) {
	bus := newTestBus(t)
	plugin := New(bus, slog.New(slog.DiscardHandler), nil)

	err := plugin.Handle(context.Background(), events.NewEnvelope(events.PullRequestOpened{
		ID:         uuid.New(),
		Repository: "nimbus",
	}))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if plugin.HealthCheck(context.Background()) {
		t.Error("HealthCheck() = true with empty reviewer pool")
	}
}

func TestMergedAndClosedObservedOnly(t *testing.T) {
	bus := newTestBus(t)
	plugin := New(bus, slog.New(slog.DiscardHandler), []string{"alice"})
	if err := plugin.Register(); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	capture := &reviewCapture{}
	if err := bus.Subscribe("capture", capture); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	for _, event := range []events.Event{
		events.PullRequestMerged{ID: uuid.New(), Repository: "nimbus"},
		events.PullRequestClosed{ID: uuid.New(), Repository: "nimbus"},
	} {
		if err := bus.Publish(context.Background(), events.NewEnvelope(event)); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	time.Sleep(50 * time.Millisecond)
	if got := len(capture.snapshot()); got != 0 {
		t.Errorf("review requests = %d, want 0", got)
	}
}
