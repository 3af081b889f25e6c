package memory

import (
	"context"
	"sync"

	"github.com/aescanero/agile-ci-demo/pkg/domain"
	"github.com/aescanero/agile-ci-demo/pkg/ports"
	"go.uber.org/zap"
)

// DefaultBufferSize is the per-subscription queue length
const DefaultBufferSize = 1024

type delivery struct {
	ctx   context.Context
	event domain.Event
}

// subscription owns a queue drained by a single goroutine, so one
// subscriber sees events in publish order.
type subscription struct {
	id      uint64
	handler ports.EventHandler
	queue   chan delivery
	done    chan struct{}
}

// InMemoryEventBus implements EventBus using in-process handlers
type InMemoryEventBus struct {
	subscribers map[string][]*subscription
	nextID      uint64
	bufferSize  int
	logger      *zap.Logger
	mu          sync.RWMutex
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers: make(map[string][]*subscription),
		bufferSize:  DefaultBufferSize,
		logger:      logger,
	}
}

// Publish queues an event for every subscriber of a topic.
// It blocks only while a subscriber's queue is full.
func (e *InMemoryEventBus) Publish(ctx context.Context, topic string, event domain.Event) error {
	e.mu.RLock()
	subs := make([]*subscription, len(e.subscribers[topic]))
	copy(subs, e.subscribers[topic])
	e.mu.RUnlock()

	d := delivery{ctx: context.WithoutCancel(ctx), event: event}
	for _, sub := range subs {
		select {
		case sub.queue <- d:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// Subscribe registers handler on topic until ctx is cancelled
func (e *InMemoryEventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	e.mu.Lock()
	e.nextID++
	sub := &subscription{
		id:      e.nextID,
		handler: handler,
		queue:   make(chan delivery, e.bufferSize),
		done:    make(chan struct{}),
	}
	e.subscribers[topic] = append(e.subscribers[topic], sub)
	e.mu.Unlock()

	go e.drain(topic, sub)

	go func() {
		select {
		case <-ctx.Done():
			e.unsubscribe(topic, sub.id)
		case <-sub.done:
		}
	}()

	return nil
}

// Close drops all subscribers
func (e *InMemoryEventBus) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, subs := range e.subscribers {
		for _, sub := range subs {
			close(sub.done)
		}
	}
	e.subscribers = make(map[string][]*subscription)
	return nil
}

func (e *InMemoryEventBus) drain(topic string, sub *subscription) {
	for {
		select {
		case <-sub.done:
			return
		case d := <-sub.queue:
			if err := sub.handler(d.ctx, d.event); err != nil {
				e.logger.Warn("event handler failed",
					zap.String("topic", topic),
					zap.String("event_id", d.event.ID),
					zap.Error(err))
			}
		}
	}
}

// subscriberCount reports how many handlers are registered on topic
func (e *InMemoryEventBus) subscriberCount(topic string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.subscribers[topic])
}

// unsubscribe removes a single subscription from a topic
func (e *InMemoryEventBus) unsubscribe(topic string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs := e.subscribers[topic]
	for i, sub := range subs {
		if sub.id == id {
			close(sub.done)
			e.subscribers[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(e.subscribers[topic]) == 0 {
		delete(e.subscribers, topic)
	}
}
