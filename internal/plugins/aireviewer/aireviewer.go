// Package aireviewer runs automated analysis on opened pull requests.
package aireviewer

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nimbusgit/nimbus/internal/events"
)

// Name is the plugin's subscriber name on the bus.
const Name = "ai-reviewer"

// Analyzer produces suggestions for an analysis request.
type Analyzer func(ctx context.Context, repository string, analysisCtx events.AnalysisContext) []events.AiSuggestion

// Plugin subscribes to pull request events and publishes
// AiAnalysisRequested followed by AiAnalysisCompleted with the
// analyzer's suggestions.
type Plugin struct {
	bus      events.Bus
	logger   *slog.Logger
	analyzer Analyzer
}

// New creates the AI reviewer plugin. A nil analyzer falls back to a
// placeholder that flags missing PR descriptions.
func New(bus events.Bus, logger *slog.Logger, analyzer Analyzer) *Plugin {
	if analyzer == nil {
		analyzer = defaultAnalyzer
	}
	return &Plugin{
		bus:      bus,
		logger:   logger.With("plugin", Name),
		analyzer: analyzer,
	}
}

// Register subscribes the plugin under its well-known name.
func (p *Plugin) Register() error {
	return p.bus.Subscribe(Name, p)
}

// Filter limits delivery to pull request events.
func (p *Plugin) Filter() events.EventFilter {
	return events.EventFilter{
		EventTypes: []events.EventType{events.EventTypePullRequest},
	}
}

// Handle analyzes opened pull requests. Other pull request variants are
// ignored.
func (p *Plugin) Handle(ctx context.Context, envelope events.EventEnvelope) error {
	opened, ok := envelope.Event.(events.PullRequestOpened)
	if !ok {
		return nil
	}

	analysisID, err := uuid.NewV7()
	if err != nil {
		return err
	}
	analysisCtx := events.AnalysisContext{
		Kind:          events.AnalysisKindPullRequest,
		PullRequestID: opened.ID,
	}

	p.logger.Info("starting analysis",
		"analysis_id", analysisID,
		"pull_request_id", opened.ID,
		"repository", opened.Repository)

	if err := p.bus.Publish(ctx, events.NewEnvelope(events.AiAnalysisRequested{
		ID:         analysisID,
		Repository: opened.Repository,
		Context:    analysisCtx,
		Plugin:     Name,
	})); err != nil {
		return err
	}

	suggestions := p.analyzer(ctx, opened.Repository, analysisCtx)

	p.logger.Info("analysis completed",
		"analysis_id", analysisID,
		"suggestions", len(suggestions))

	return p.bus.Publish(ctx, events.NewEnvelope(events.AiAnalysisCompleted{
		ID:          analysisID,
		Repository:  opened.Repository,
		Suggestions: suggestions,
		Plugin:      Name,
	}))
}

// HealthCheck reports the plugin as healthy while an analyzer is wired.
func (p *Plugin) HealthCheck(ctx context.Context) bool {
	return p.analyzer != nil
}

func defaultAnalyzer(ctx context.Context, repository string, analysisCtx events.AnalysisContext) []events.AiSuggestion {
	return []events.AiSuggestion{
		{
			Suggestion: "Consider adding a description that explains the motivation for this change.",
			Severity:   events.SeverityInfo,
		},
	}
}
