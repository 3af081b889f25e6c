package items

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aescanero/agile-ci-demo/pkg/domain"
	"github.com/aescanero/agile-ci-demo/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Operation names used for metrics labels
const (
	OperationCreate   = "create"
	OperationGet      = "get"
	OperationMarkDone = "mark_done"
)

// Outcome labels
const (
	OutcomeOK       = "ok"
	OutcomeConflict = "conflict"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// HealthStatus is the payload returned by the health check
type HealthStatus struct {
	Status string `json:"status"`
}

// Manager coordinates item registry operations
type Manager struct {
	store    ports.ItemStore
	eventBus ports.EventBus
	metrics  ports.MetricsCollector
	logger   *zap.Logger

	now func() time.Time
}

// NewManager creates a new items manager
func NewManager(
	store ports.ItemStore,
	eventBus ports.EventBus,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		store:    store,
		eventBus: eventBus,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Health reports liveness. It has no failure mode.
func (m *Manager) Health(ctx context.Context) HealthStatus {
	return HealthStatus{Status: "ok"}
}

// Create registers a new item. It fails with domain.ErrConflict if the ID is taken.
func (m *Manager) Create(ctx context.Context, item domain.Item) (domain.Item, error) {
	start := m.now()

	created, err := m.store.Create(ctx, item)
	m.record(OperationCreate, err, start)
	if err != nil {
		m.logger.Debug("item not created",
			zap.Int64("item_id", item.ID),
			zap.Error(err))
		return domain.Item{}, fmt.Errorf("failed to create item: %w", err)
	}

	m.publish(ctx, domain.EventTypeItemCreated, created)

	m.logger.Info("item created",
		zap.Int64("item_id", created.ID),
		zap.Bool("done", created.Done))

	return created, nil
}

// Get returns the item with the given ID or domain.ErrNotFound
func (m *Manager) Get(ctx context.Context, id int64) (domain.Item, error) {
	start := m.now()

	item, err := m.store.Get(ctx, id)
	m.record(OperationGet, err, start)
	if err != nil {
		return domain.Item{}, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

// MarkDone sets the item's done flag. A done item stays unchanged.
func (m *Manager) MarkDone(ctx context.Context, id int64) (domain.Item, error) {
	start := m.now()

	item, err := m.store.MarkDone(ctx, id)
	m.record(OperationMarkDone, err, start)
	if err != nil {
		m.logger.Debug("item not marked done",
			zap.Int64("item_id", id),
			zap.Error(err))
		return domain.Item{}, fmt.Errorf("failed to mark item done: %w", err)
	}

	m.publish(ctx, domain.EventTypeItemDone, item)

	m.logger.Info("item marked done",
		zap.Int64("item_id", item.ID))

	return item, nil
}

// Stats returns the current registry counts
func (m *Manager) Stats(ctx context.Context) ports.StoreStats {
	return m.store.Stats(ctx)
}

// record counts the operation under the outcome derived from err
func (m *Manager) record(operation string, err error, start time.Time) {
	m.metrics.RecordOperation(operation, outcomeOf(err), m.now().Sub(start))
}

// publish emits an item event. Failures are logged, never returned.
func (m *Manager) publish(ctx context.Context, eventType domain.EventType, item domain.Item) {
	event := domain.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		ItemID:    item.ID,
		Timestamp: m.now(),
		Data: map[string]interface{}{
			"title": item.Title,
			"done":  item.Done,
		},
	}

	if err := m.eventBus.Publish(ctx, domain.TopicItemEvents, event); err != nil {
		m.logger.Error("failed to publish item event",
			zap.Int64("item_id", item.ID),
			zap.String("type", string(eventType)),
			zap.Error(err))
		// local subscribers still got it
		if !errors.Is(err, ports.ErrPartialPublish) {
			return
		}
	}

	m.metrics.RecordEventPublished(string(eventType))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrConflict):
		return OutcomeConflict
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}
