package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrBusClosed is returned by Publish after the bus has been closed.
var ErrBusClosed = errors.New("events: bus is closed")

const (
	defaultBufferSize      = 1000
	defaultDispatchTimeout = 30 * time.Second
)

// Config controls bus sizing and dispatch policy.
type Config struct {
	// BufferSize is the ingestion queue capacity. Publish blocks while the
	// queue is full.
	BufferSize int
	// DispatchTimeout is the shared deadline for one envelope's fan-out.
	DispatchTimeout time.Duration
}

// Bus is the publish side plus subscription management of the event bus.
type Bus interface {
	// Publish enqueues an envelope for delivery. It blocks while the
	// ingestion queue is full and fails only once the bus is closed.
	Publish(ctx context.Context, envelope EventEnvelope) error

	// Subscribe registers a handler under a unique name, overwriting any
	// previous binding of the same name.
	Subscribe(name string, handler Handler) error

	// Unsubscribe removes a handler. Unknown names are a no-op.
	Unsubscribe(name string) error

	// SubscriberCount returns the number of registered handlers.
	SubscriberCount() int
}

// InMemoryBus is the single-instance bus implementation: a bounded
// ingestion queue consumed by one loop that fans each envelope out to all
// matching handlers concurrently, under a shared deadline.
//
// For multi-instance deployments a broker-backed implementation would
// replace this; that is explicitly out of scope here.
type InMemoryBus struct {
	registry *Registry
	metrics  *Metrics
	logger   *slog.Logger

	queue   chan EventEnvelope
	done    chan struct{}
	stopped chan struct{}

	dispatchTimeout time.Duration

	started   atomic.Bool
	closeOnce sync.Once
}

var _ Bus = (*InMemoryBus)(nil)

// NewInMemoryBus creates a bus. Zero config fields fall back to a buffer
// of 1000 envelopes and a 30 second dispatch timeout.
func NewInMemoryBus(cfg Config, logger *slog.Logger, metrics *Metrics) *InMemoryBus {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = defaultDispatchTimeout
	}

	return &InMemoryBus{
		registry:        NewRegistry(logger),
		metrics:         metrics,
		logger:          logger,
		queue:           make(chan EventEnvelope, cfg.BufferSize),
		done:            make(chan struct{}),
		stopped:         make(chan struct{}),
		dispatchTimeout: cfg.DispatchTimeout,
	}
}

// Registry exposes the subscription registry for health reporting and
// administration.
func (b *InMemoryBus) Registry() *Registry {
	return b.registry
}

// Start launches the consumer loop. The context is the base context for
// every handler invocation; cancelling it does not stop the loop - use
// Close for that.
func (b *InMemoryBus) Start(ctx context.Context) {
	if !b.started.CompareAndSwap(false, true) {
		return
	}
	go b.run(ctx)
}

// Close shuts the bus down: subsequent publishes fail with ErrBusClosed,
// and the consumer loop exits after draining envelopes accepted before the
// close. Close waits for the loop to finish.
func (b *InMemoryBus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
	if b.started.Load() {
		<-b.stopped
	}
}

// Publish enqueues an envelope onto the bounded queue. A full queue blocks
// the caller (backpressure); there is no drop or overflow policy. Publish
// never waits on handler execution.
func (b *InMemoryBus) Publish(ctx context.Context, envelope EventEnvelope) error {
	select {
	case <-b.done:
		return ErrBusClosed
	default:
	}

	select {
	case b.queue <- envelope:
		return nil
	case <-b.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe implements Bus. It always succeeds under the current design.
func (b *InMemoryBus) Subscribe(name string, handler Handler) error {
	b.registry.Subscribe(name, handler)
	return nil
}

// Unsubscribe implements Bus. It is idempotent.
func (b *InMemoryBus) Unsubscribe(name string) error {
	b.registry.Unsubscribe(name)
	return nil
}

// SubscriberCount implements Bus.
func (b *InMemoryBus) SubscriberCount() int {
	return b.registry.SubscriberCount()
}

// run is the single consumer loop. Envelopes are processed one at a time:
// handlers within one envelope run concurrently, but envelope N's fan-out
// completes (or times out) before envelope N+1 begins dispatch.
func (b *InMemoryBus) run(ctx context.Context) {
	defer close(b.stopped)
	b.logger.Info("event bus started")

	for {
		select {
		case envelope := <-b.queue:
			b.process(ctx, envelope)
		case <-b.done:
			// Drain envelopes accepted before shutdown.
			for {
				select {
				case envelope := <-b.queue:
					b.process(ctx, envelope)
				default:
					b.logger.Info("event bus stopped")
					return
				}
			}
		}
	}
}

// process fans one envelope out to every matching handler and waits for
// all deliveries under the shared dispatch deadline.
func (b *InMemoryBus) process(ctx context.Context, envelope EventEnvelope) {
	eventType := Classify(envelope.Event)
	b.logger.Debug("processing event", "event_id", envelope.ID, "event_type", eventType)

	b.metrics.EventReceived(eventType)
	start := time.Now()

	var wg sync.WaitGroup
	for _, sub := range b.registry.candidates(eventType) {
		if !sub.filter.Matches(envelope) {
			continue
		}

		wg.Add(1)
		go func(sub *subscription) {
			defer wg.Done()
			b.deliver(ctx, sub, envelope)
		}(sub)
	}

	// Join-all with timeout: if the deadline elapses the outstanding
	// deliveries keep running to completion, but their outcomes are no
	// longer awaited and the envelope is accounted as a timeout.
	fanoutDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(fanoutDone)
	}()

	timer := time.NewTimer(b.dispatchTimeout)
	defer timer.Stop()

	select {
	case <-fanoutDone:
		elapsed := time.Since(start)
		b.metrics.EventProcessed(eventType, elapsed)
		b.logger.Debug("event processing completed", "event_id", envelope.ID, "duration", elapsed)
	case <-timer.C:
		b.metrics.EventTimeout(eventType)
		b.logger.Error("event processing timed out",
			"event_id", envelope.ID,
			"event_type", eventType,
			"timeout", b.dispatchTimeout)
	}
}

// deliver invokes one handler for one envelope. Errors and panics are
// contained here: they become a failure metric and a log entry, never a
// problem for other handlers.
func (b *InMemoryBus) deliver(ctx context.Context, sub *subscription, envelope EventEnvelope) {
	defer func() {
		if r := recover(); r != nil {
			b.metrics.HandlerFailure(sub.name)
			b.logger.Error("handler panicked", "handler", sub.name, "panic", r)
		}
	}()

	handlerStart := time.Now()
	if err := sub.handler.Handle(ctx, envelope); err != nil {
		b.metrics.HandlerFailure(sub.name)
		b.logger.Error("handler failed", "handler", sub.name, "error", err)
		return
	}

	b.metrics.HandlerSuccess(sub.name)
	b.logger.Debug("handler completed", "handler", sub.name, "duration", time.Since(handlerStart))
}
