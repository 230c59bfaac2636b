package aireviewer

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

type aiCapture struct {
	mu        sync.Mutex
	requested []events.AiAnalysisRequested
	completed []events.AiAnalysisCompleted
}

func (c *aiCapture) Handle(ctx context.Context, envelope events.EventEnvelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch e := envelope.Event.(type) {
	case events.AiAnalysisRequested:
		c.requested = append(c.requested, e)
	case events.AiAnalysisCompleted:
		c.completed = append(c.completed, e)
	}
	return nil
}

// AI analysis events classify as push, so the capture listens there.
func (c *aiCapture) Filter() events.EventFilter {
	return events.EventFilter{EventTypes: []events.EventType{events.EventTypePush}}
}

func (c *aiCapture) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requested), len(c.completed)
}

func newTestBus(t *testing.T) *events.InMemoryBus {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	bus := events.NewInMemoryBus(events.Config{}, logger, events.NewMetrics(prometheus.NewRegistry()))
	bus.Start(context.Background())
	t.Cleanup(bus.Close)
	return bus
}

func TestOpenedPullRequestIsAnalyzed(t *testing.T) {
	bus := newTestBus(t)

	suggestions := []events.AiSuggestion{
		{File: "main.go", Line: 42, Suggestion: "unchecked error", Severity: events.SeverityWarning},
	}
	plugin := New(bus, slog.New(slog.DiscardHandler),
		func(ctx context.Context, repository string, analysisCtx events.AnalysisContext) []events.AiSuggestion {
			return suggestions
		})
	if err := plugin.Register(); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	capture := &aiCapture{}
	if err := bus.Subscribe("capture", capture); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	prID := uuid.New()
	err := bus.Publish(context.Background(), events.NewEnvelope(events.PullRequestOpened{
		ID:         prID,
		Repository: "nimbus",
		FromBranch: "feature/x",
		ToBranch:   "main",
	}))
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if requested, completed := capture.counts(); requested == 1 && completed == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	capture.mu.Lock()
	defer capture.mu.Unlock()
	if len(capture.requested) != 1 || len(capture.completed) != 1 {
		t.Fatalf("requested = %d, completed = %d, want 1 and 1",
			len(capture.requested), len(capture.completed))
	}
	if capture.requested[0].Context.Kind != events.AnalysisKindPullRequest {
		t.Errorf("context kind = %q, want pull_request", capture.requested[0].Context.Kind)
	}
	if capture.requested[0].Context.PullRequestID != prID {
		t.Errorf("context pull_request_id = %s, want %s", capture.requested[0].Context.PullRequestID, prID)
	}
	if capture.completed[0].ID != capture.requested[0].ID {
		t.Error("completed analysis ID does not match requested ID")
	}
	if len(capture.completed[0].Suggestions) != 1 || capture.completed[0].Suggestions[0].File != "main.go" {
		t.Errorf("suggestions = %+v, want the analyzer's output", capture.completed[0].Suggestions)
	}
}

func TestOtherPullRequestVariantsIgnored(t *testing.T) {
	bus := newTestBus(t)
	plugin := New(bus, slog.New(slog.DiscardHandler), nil)

	err := plugin.Handle(context.Background(), events.NewEnvelope(events.PullRequestMerged{
		ID:         uuid.New(),
		Repository: "nimbus",
	}))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
}

func TestDefaultAnalyzer(t *testing.T) {
	plugin := New(newTestBus(t), slog.New(slog.DiscardHandler), nil)
	if !plugin.HealthCheck(context.Background()) {
		t.Error("HealthCheck() = false with default analyzer")
	}

	got := defaultAnalyzer(context.Background(), "nimbus", events.AnalysisContext{})
	if len(got) != 1 || got[0].Severity != events.SeverityInfo {
		t.Errorf("defaultAnalyzer() = %+v, want one info suggestion", got)
	}
}
