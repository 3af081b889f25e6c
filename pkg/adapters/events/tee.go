package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/aescanero/agile-ci-demo/pkg/domain"
	"github.com/aescanero/agile-ci-demo/pkg/ports"
)

// TeeBus publishes every event to a local bus and a remote bus.
// Subscriptions are served by the local bus only, so every in-process
// subscriber sees every event regardless of remote consumer groups.
type TeeBus struct {
	local  ports.EventBus
	remote ports.EventBus
}

// NewTeeBus creates a bus that mirrors publishes to local and remote
func NewTeeBus(local, remote ports.EventBus) *TeeBus {
	return &TeeBus{local: local, remote: remote}
}

// Publish delivers to the local bus first, then to the remote bus.
// A remote failure after local delivery wraps ports.ErrPartialPublish.
func (t *TeeBus) Publish(ctx context.Context, topic string, event domain.Event) error {
	if err := t.local.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("local publish: %w", err)
	}
	if err := t.remote.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("%w: remote publish: %w", ports.ErrPartialPublish, err)
	}
	return nil
}

// Subscribe registers handler on the local bus
func (t *TeeBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	return t.local.Subscribe(ctx, topic, handler)
}

// Remote returns the remote bus, for consumers that need its delivery semantics
func (t *TeeBus) Remote() ports.EventBus {
	return t.remote
}

// Close closes both buses
func (t *TeeBus) Close() error {
	return errors.Join(t.local.Close(), t.remote.Close())
}
