// Package testsuite wires up a complete Nimbus instance in memory so
// end-to-end event flows can be exercised through the real bus.
package testsuite

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"github.com/nimbusgit/nimbus/internal/auth"
	"github.com/nimbusgit/nimbus/internal/events"
	"github.com/nimbusgit/nimbus/internal/plugins/aireviewer"
	"github.com/nimbusgit/nimbus/internal/plugins/cirunner"
	"github.com/nimbusgit/nimbus/internal/plugins/review"
)

type Suite struct {
	suite.Suite
	Bus      *events.InMemoryBus
	Auth     *auth.Service
	Registry *prometheus.Registry
}

func NewSuite() Suite {
	return Suite{}
}

// SetupTest builds a fresh bus with all three built-in plugins
// registered and started.
func (s *Suite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)

	s.Registry = prometheus.NewRegistry()
	s.Bus = events.NewInMemoryBus(events.Config{}, logger, events.NewMetrics(s.Registry))

	authService, err := auth.NewService(auth.Config{
		JWTSecret:     "testsuite-secret",
		TokenTTL:      time.Hour,
		OwnerUsername: "owner",
		OwnerPassword: "testsuite-password",
	}, logger)
	s.Require().NoError(err)
	s.Auth = authService

	s.Require().NoError(cirunner.New(s.Bus, logger).Register())
	s.Require().NoError(review.New(s.Bus, logger, []string{"alice", "bob"}).Register())
	s.Require().NoError(aireviewer.New(s.Bus, logger, nil).Register())

	s.Bus.Start(context.Background())
}

func (s *Suite) TearDownTest() {
	s.Bus.Close()
}

// Collector records every event it receives, filtered by type.
type Collector struct {
	mu     sync.Mutex
	events []events.Event
	filter events.EventFilter
}

func (c *Collector) Handle(ctx context.Context, envelope events.EventEnvelope) error {
	c.mu.Lock()
	c.events = append(c.events, envelope.Event)
	c.mu.Unlock()
	return nil
}

func (c *Collector) Filter() events.EventFilter { return c.filter }

// Events returns a copy of everything collected so far.
func (c *Collector) Events() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.Event(nil), c.events...)
}

// Collect subscribes a Collector for the given event types.
func (s *Suite) Collect(name string, types ...events.EventType) *Collector {
	c := &Collector{filter: events.EventFilter{EventTypes: types}}
	s.Require().NoError(s.Bus.Subscribe(name, c))
	return c
}

// Publish puts an event onto the bus.
func (s *Suite) Publish(event events.Event) {
	s.Require().NoError(s.Bus.Publish(context.Background(), events.NewEnvelope(event)))
}

// WaitUntil polls f until it returns true or two seconds elapse.
func (s *Suite) WaitUntil(f func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.Require().True(f(), "WaitUntil timed out")
}
