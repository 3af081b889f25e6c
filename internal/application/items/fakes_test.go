package items_test

import (
	"context"
	"sync"
	"time"

	"github.com/aescanero/agile-ci-demo/pkg/domain"
	"github.com/aescanero/agile-ci-demo/pkg/ports"
)

type recordingBus struct {
	mu         sync.Mutex
	published  []domain.Event
	publishErr error
}

func (b *recordingBus) Publish(ctx context.Context, topic string, event domain.Event) error {
	if b.publishErr != nil {
		return b.publishErr
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	return nil
}

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) events() []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]domain.Event, len(b.published))
	copy(out, b.published)
	return out
}

type operationKey struct {
	operation string
	outcome   string
}

type recordingMetrics struct {
	mu         sync.Mutex
	operations map[operationKey]int
	events     map[string]int
	stats      ports.StoreStats
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		operations: make(map[operationKey]int),
		events:     make(map[string]int),
	}
}

func (m *recordingMetrics) RecordOperation(operation, outcome string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[operationKey{operation, outcome}]++
}

func (m *recordingMetrics) RecordEventPublished(eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[eventType]++
}

func (m *recordingMetrics) RecordRegistryStats(stats ports.StoreStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = stats
}

func (m *recordingMetrics) count(operation, outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.operations[operationKey{operation, outcome}]
}

func (m *recordingMetrics) eventCount(eventType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[eventType]
}
