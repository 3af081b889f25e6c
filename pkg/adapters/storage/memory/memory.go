package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aescanero/agile-ci-demo/pkg/domain"
	"github.com/aescanero/agile-ci-demo/pkg/ports"
)

// Registry implements ItemStore using an in-memory map.
// Contents are lost when the process exits.
type Registry struct {
	items map[int64]*domain.Item
	mu    sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		items: make(map[int64]*domain.Item),
	}
}

// Create stores a new item. The ID must not be registered yet.
func (r *Registry) Create(ctx context.Context, item domain.Item) (domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return domain.Item{}, fmt.Errorf("create item %d: %w", item.ID, domain.ErrConflict)
	}

	stored := item
	r.items[item.ID] = &stored

	return stored, nil
}

// Get returns the item stored under id
func (r *Registry) Get(ctx context.Context, id int64) (domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return domain.Item{}, fmt.Errorf("get item %d: %w", id, domain.ErrNotFound)
	}

	return *item, nil
}

// MarkDone flags the item as done in place and returns it
func (r *Registry) MarkDone(ctx context.Context, id int64) (domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return domain.Item{}, fmt.Errorf("mark item %d done: %w", id, domain.ErrNotFound)
	}

	item.Done = true
	return *item, nil
}

// Stats counts the registered items by state
func (r *Registry) Stats(ctx context.Context) ports.StoreStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := ports.StoreStats{Total: len(r.items)}
	for _, item := range r.items {
		if item.Done {
			stats.Done++
		}
	}
	stats.Pending = stats.Total - stats.Done

	return stats
}
