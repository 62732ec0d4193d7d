package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Subscriber handles events.
type Subscriber interface {
	// ID returns a unique identifier for this subscriber.
	ID() string

	// Handle processes an event.
	Handle(ctx context.Context, event Event) error
}

// SubscriberFunc is a function that implements Subscriber.
type SubscriberFunc struct {
	id      string
	handler func(ctx context.Context, event Event) error
}

// NewSubscriberFunc creates a new function-based subscriber.
func NewSubscriberFunc(id string, handler func(ctx context.Context, event Event) error) *SubscriberFunc {
	return &SubscriberFunc{
		id:      id,
		handler: handler,
	}
}

// ID returns the subscriber ID.
func (s *SubscriberFunc) ID() string { return s.id }

// Handle calls the handler function.
func (s *SubscriberFunc) Handle(ctx context.Context, event Event) error {
	return s.handler(ctx, event)
}

// BusConfig holds event bus configuration.
type BusConfig struct {
	Workers   int
	QueueSize int
}

// DefaultBusConfig returns the default configuration.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		Workers:   2,
		QueueSize: 256,
	}
}

// Bus is the event bus that handles pub/sub.
type Bus struct {
	subscribers map[string][]Subscriber
	queue       chan Event
	config      BusConfig
	logger      *slog.Logger
	mu          sync.RWMutex
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
}

// NewBus creates a new event bus.
func NewBus(config BusConfig, logger *slog.Logger) *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		subscribers: make(map[string][]Subscriber),
		queue:       make(chan Event, config.QueueSize),
		config:      config,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Subscribe adds a subscriber for an event type.
// Use "*" to subscribe to all events.
func (b *Bus) Subscribe(eventType string, subscriber Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[eventType] = append(b.subscribers[eventType], subscriber)
	b.logger.Debug("subscriber added",
		"event_type", eventType,
		"subscriber_id", subscriber.ID(),
	)
}

// Publish sends an event to the bus asynchronously.
func (b *Bus) Publish(eventType string, data any) {
	event := NewEvent(eventType, data)

	select {
	case b.queue <- event:
		b.logger.Debug("event published", "type", eventType)
	default:
		b.logger.Warn("event queue full, dropping event", "type", eventType)
	}
}

// Start starts the event bus workers.
func (b *Bus) Start() {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	for i := 0; i < b.config.Workers; i++ {
		b.wg.Add(1)
		go b.worker(i)
	}
}

// Stop stops the event bus gracefully, draining the queue before the
// workers exit.
func (b *Bus) Stop() {
	close(b.queue)
	b.wg.Wait()
	b.cancel()
}

// worker processes events from the queue.
func (b *Bus) worker(id int) {
	defer b.wg.Done()

	for event := range b.queue {
		if err := b.dispatch(b.ctx, event); err != nil {
			b.logger.Error("event dispatch failed",
				"worker", id,
				"event", event.Type(),
				"error", err,
			)
		}
	}
}

// dispatch sends an event to all matching subscribers.
func (b *Bus) dispatch(ctx context.Context, event Event) error {
	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.subscribers[event.Type()])+len(b.subscribers["*"]))
	subs = append(subs, b.subscribers[event.Type()]...)
	subs = append(subs, b.subscribers["*"]...)
	b.mu.RUnlock()

	if len(subs) == 0 {
		return nil
	}

	var errs []error
	for _, sub := range subs {
		subCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := sub.Handle(subCtx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sub.ID(), err))
		}
		cancel()
	}
	return errors.Join(errs...)
}
