// Package review assigns reviewers to newly opened pull requests.
package review

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nimbusgit/nimbus/internal/events"
)

// Name is the plugin's subscriber name on the bus.
const Name = "review-system"

// Plugin subscribes to pull request events and publishes a
// ReviewRequested event for each opened pull request, rotating through
// the configured reviewer pool.
type Plugin struct {
	bus    events.Bus
	logger *slog.Logger

	mu        sync.Mutex
	reviewers []string
	next      int
}

// New creates the review plugin with a reviewer pool. An empty pool
// means pull requests are observed but no reviewer is assigned.
func New(bus events.Bus, logger *slog.Logger, reviewers []string) *Plugin {
	return &Plugin{
		bus:       bus,
		logger:    logger.With("plugin", Name),
		reviewers: reviewers,
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

// Handle assigns the next reviewer in rotation to an opened pull
// request. Merge and close events are observed for logging only.
func (p *Plugin) Handle(ctx context.Context, envelope events.EventEnvelope) error {
	switch e := envelope.Event.(type) {
	case events.PullRequestOpened:
		reviewer := p.nextReviewer()
		if reviewer == "" {
			p.logger.Warn("no reviewers configured, skipping assignment",
				"pull_request_id", e.ID, "repository", e.Repository)
			return nil
		}

		p.logger.Info("requesting review",
			"pull_request_id", e.ID,
			"repository", e.Repository,
			"reviewer", reviewer)

		return p.bus.Publish(ctx, events.NewEnvelope(events.ReviewRequested{
			PullRequestID: e.ID,
			Repository:    e.Repository,
			Reviewer:      reviewer,
			Plugin:        Name,
		}))
	case events.PullRequestMerged:
		p.logger.Info("pull request merged", "pull_request_id", e.ID, "repository", e.Repository)
	case events.PullRequestClosed:
		p.logger.Info("pull request closed", "pull_request_id", e.ID, "repository", e.Repository)
	}
	return nil
}

// HealthCheck reports healthy when a reviewer pool is configured.
func (p *Plugin) HealthCheck(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.reviewers) > 0
}

func (p *Plugin) nextReviewer() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.reviewers) == 0 {
		return ""
	}
	reviewer := p.reviewers[p.next%len(p.reviewers)]
	p.next++
	return reviewer
}
