package cirunner

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nimbusgit/nimbus/internal/events"
)

type ciCapture struct {
	mu        sync.Mutex
	started   []events.CiRunStarted
	completed []events.CiRunCompleted
}

func (c *ciCapture) Handle(ctx context.Context, envelope events.EventEnvelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch e := envelope.Event.(type) {
	case events.CiRunStarted:
		c.started = append(c.started, e)
	case events.CiRunCompleted:
		c.completed = append(c.completed, e)
	}
	return nil
}

func (c *ciCapture) Filter() events.EventFilter {
	return events.EventFilter{EventTypes: []events.EventType{events.EventTypeCiRun}}
}

func (c *ciCapture) runs() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.started), len(c.completed)
}

func newTestBus(t *testing.T) *events.InMemoryBus {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	bus := events.NewInMemoryBus(events.Config{}, logger, events.NewMetrics(prometheus.NewRegistry()))
	bus.Start(context.Background())
	t.Cleanup(bus.Close)
	return bus
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 2s")
}

func TestPushTriggersCiRun(t *testing.T) {
	bus := newTestBus(t)
	logger := slog.New(slog.DiscardHandler)

	plugin := New(bus, logger, WithRunner(func(ctx context.Context, repository, branch string) events.CiStatus {
		return events.CiStatusFailure
	}))
	if err := plugin.Register(); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	capture := &ciCapture{}
	if err := bus.Subscribe("capture", capture); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	err := bus.Publish(context.Background(), events.NewEnvelope(events.Push{
		Repository: "nimbus",
		Branch:     "main",
		Pusher:     "alice",
	}))
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	waitFor(t, func() bool {
		started, completed := capture.runs()
		return started == 1 && completed == 1
	})

	capture.mu.Lock()
	defer capture.mu.Unlock()
	if capture.started[0].Repository != "nimbus" || capture.started[0].Branch != "main" {
		t.Errorf("started = %+v, want repository nimbus branch main", capture.started[0])
	}
	if capture.completed[0].Status != events.CiStatusFailure {
		t.Errorf("status = %q, want failure", capture.completed[0].Status)
	}
	if capture.completed[0].ID != capture.started[0].ID {
		t.Error("completed run ID does not match started run ID")
	}
	if plugin.Runs() != 1 {
		t.Errorf("Runs() = %d, want 1", plugin.Runs())
	}
}

func TestBranchFilterSkipsOtherBranches(t *testing.T) {
	bus := newTestBus(t)
	logger := slog.New(slog.DiscardHandler)

	plugin := New(bus, logger, WithBranches("main", "release/*"))
	if err := plugin.Register(); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	capture := &ciCapture{}
	if err := bus.Subscribe("capture", capture); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	for _, branch := range []string{"feature/x", "main", "release/1.2"} {
		err := bus.Publish(context.Background(), events.NewEnvelope(events.Push{
			Repository: "nimbus",
			Branch:     branch,
		}))
		if err != nil {
			t.Fatalf("Publish(%s) error = %v", branch, err)
		}
	}

	waitFor(t, func() bool {
		_, completed := capture.runs()
		return completed == 2
	})
	time.Sleep(50 * time.Millisecond)

	if _, completed := capture.runs(); completed != 2 {
		t.Errorf("completed runs = %d, want 2", completed)
	}
}

func TestNonPushEventIgnored(t *testing.T) {
	bus := newTestBus(t)
	plugin := New(bus, slog.New(slog.DiscardHandler))

	err := plugin.Handle(context.Background(), events.NewEnvelope(events.TagCreated{
		Repository: "nimbus",
		Tag:        "v1.0.0",
	}))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if plugin.Runs() != 0 {
		t.Errorf("Runs() = %d, want 0", plugin.Runs())
	}
}
