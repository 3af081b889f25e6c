// Package ports declares the interfaces the application layer depends on.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/aescanero/agile-ci-demo/pkg/domain"
)

// ItemStore keeps items keyed by ID.
//
// Create fails with domain.ErrConflict when the ID is taken; Get and MarkDone
// fail with domain.ErrNotFound when it is absent. Failed calls leave the store
// unchanged.
type ItemStore interface {
	Create(ctx context.Context, item domain.Item) (domain.Item, error)
	Get(ctx context.Context, id int64) (domain.Item, error)
	MarkDone(ctx context.Context, id int64) (domain.Item, error)
	Stats(ctx context.Context) StoreStats
}

// StoreStats summarizes the items held by a store
type StoreStats struct {
	Total   int
	Done    int
	Pending int
}

// EventHandler processes a single event
type EventHandler func(ctx context.Context, event domain.Event) error

// ErrPartialPublish marks a publish that reached in-process subscribers but
// not every backend.
var ErrPartialPublish = errors.New("event delivered locally only")

// EventBus publishes and delivers item events
type EventBus interface {
	Publish(ctx context.Context, topic string, event domain.Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Close() error
}

// MetricsCollector records item operation metrics
type MetricsCollector interface {
	RecordOperation(operation, outcome string, duration time.Duration)
	RecordEventPublished(eventType string)
	RecordRegistryStats(stats StoreStats)
}
