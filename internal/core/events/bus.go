package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Event is anything published on the bus. Type selects the subscribers.
type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() any
}

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EventID() string       { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) Payload() any          { return e.Data }

type Handler func(ctx context.Context, event Event) error

type subscription struct {
	id      uint64
	handler Handler
}

// EventBus is an in-process pub/sub. List views subscribe to entity.mutated
// to refetch; the CLI and gateway subscribe an audit log.
type EventBus struct {
	mu       sync.RWMutex
	subs     map[string][]subscription
	lastID   uint64
	inflight sync.WaitGroup
	logger   *slog.Logger
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		subs:   make(map[string][]subscription),
		logger: logger,
	}
}

// Subscribe registers handler for eventType. The returned func removes it
// and may be called any number of times.
func (eb *EventBus) Subscribe(eventType string, handler Handler) func() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.lastID++
	id := eb.lastID
	eb.subs[eventType] = append(eb.subs[eventType], subscription{id: id, handler: handler})
	eb.logger.Debug("subscribed", "event_type", eventType, "subscribers", len(eb.subs[eventType]))

	var once sync.Once
	return func() { once.Do(func() { eb.remove(eventType, id) }) }
}

func (eb *EventBus) remove(eventType string, id uint64) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	kept := eb.subs[eventType][:0:0]
	for _, s := range eb.subs[eventType] {
		if s.id != id {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		delete(eb.subs, eventType)
		return
	}
	eb.subs[eventType] = kept
}

func (eb *EventBus) handlers(eventType string) []Handler {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	out := make([]Handler, 0, len(eb.subs[eventType]))
	for _, s := range eb.subs[eventType] {
		out = append(out, s.handler)
	}
	return out
}

// Publish hands the event to every subscriber on its own goroutine and
// returns at once. Handlers keep running after ctx is cancelled; use Wait to
// drain them.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	handlers := eb.handlers(event.EventType())
	if len(handlers) == 0 {
		return nil
	}
	eb.logger.Debug("publishing event", "event_type", event.EventType(), "event_id", event.EventID(), "subscribers", len(handlers))

	detached := context.WithoutCancel(ctx)
	for _, h := range handlers {
		eb.inflight.Add(1)
		go func(h Handler) {
			defer eb.inflight.Done()
			if err := h(detached, event); err != nil {
				eb.logger.Error("event handler failed", "event_type", event.EventType(), "event_id", event.EventID(), "error", err)
			}
		}(h)
	}
	return nil
}

// PublishSync runs the subscribers in subscription order on the caller's
// goroutine. Every subscriber runs even when an earlier one fails; the
// failures are joined.
func (eb *EventBus) PublishSync(ctx context.Context, event Event) error {
	var errs []error
	for _, h := range eb.handlers(event.EventType()) {
		if err := h(ctx, event); err != nil {
			eb.logger.Warn("event handler failed", "event_type", event.EventType(), "event_id", event.EventID(), "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s handlers: %w", event.EventType(), errors.Join(errs...))
}

// Wait blocks until handlers started by Publish have returned.
func (eb *EventBus) Wait() {
	eb.inflight.Wait()
}
