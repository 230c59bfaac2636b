// Package cirunner reacts to pushes by running CI pipelines and reporting
// results back onto the bus.
package cirunner

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/nimbusgit/nimbus/internal/events"
)

// Name is the plugin's subscriber name on the bus.
const Name = "ci-runner"

// Runner executes a CI pipeline for a repository and branch, returning
// the run's final status.
type Runner func(ctx context.Context, repository, branch string) events.CiStatus

// Plugin subscribes to push events and publishes CiRunStarted and
// CiRunCompleted for each matching push.
type Plugin struct {
	bus      events.Bus
	logger   *slog.Logger
	runner   Runner
	branches []string
	runs     atomic.Int64
}

// Option configures the plugin.
type Option func(*Plugin)

// WithBranches restricts CI to the given branch patterns. Defaults to
// all branches.
func WithBranches(patterns ...string) Option {
	return func(p *Plugin) { p.branches = patterns }
}

// WithRunner replaces the pipeline runner. The default runner reports
// success without doing any work.
func WithRunner(r Runner) Option {
	return func(p *Plugin) { p.runner = r }
}

// New creates the CI runner plugin. Call Register to attach it to a bus.
func New(bus events.Bus, logger *slog.Logger, opts ...Option) *Plugin {
	p := &Plugin{
		bus:    bus,
		logger: logger.With("plugin", Name),
		runner: func(ctx context.Context, repository, branch string) events.CiStatus {
			return events.CiStatusSuccess
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Register subscribes the plugin under its well-known name.
func (p *Plugin) Register() error {
	return p.bus.Subscribe(Name, p)
}

// Filter limits delivery to push events on the configured branches.
func (p *Plugin) Filter() events.EventFilter {
	return events.EventFilter{
		EventTypes: []events.EventType{events.EventTypePush},
		Branches:   p.branches,
	}
}

// Handle runs the pipeline for a push and publishes the start and
// completion events.
func (p *Plugin) Handle(ctx context.Context, envelope events.EventEnvelope) error {
	push, ok := envelope.Event.(events.Push)
	if !ok {
		return nil
	}

	runID, err := uuid.NewV7()
	if err != nil {
		return err
	}

	p.logger.Info("starting CI run",
		"run_id", runID,
		"repository", push.Repository,
		"branch", push.Branch,
		"commits", len(push.Commits))

	if err := p.bus.Publish(ctx, events.NewEnvelope(events.CiRunStarted{
		ID:         runID,
		Repository: push.Repository,
		Branch:     push.Branch,
		Plugin:     Name,
	})); err != nil {
		return err
	}

	status := p.runner(ctx, push.Repository, push.Branch)
	p.runs.Add(1)

	p.logger.Info("CI run completed", "run_id", runID, "status", status)

	return p.bus.Publish(ctx, events.NewEnvelope(events.CiRunCompleted{
		ID:         runID,
		Repository: push.Repository,
		Status:     status,
		Plugin:     Name,
	}))
}

// HealthCheck reports the plugin as healthy while its bus is accepting
// publishes.
func (p *Plugin) HealthCheck(ctx context.Context) bool {
	return p.bus != nil
}

// Runs returns the number of completed CI runs.
func (p *Plugin) Runs() int64 {
	return p.runs.Load()
}
