package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/agile-ci-demo/pkg/domain"
	"github.com/aescanero/agile-ci-demo/pkg/ports"
)

type stubBus struct {
	published  []domain.Event
	subscribed []string
	publishErr error
	closeErr   error
	closed     bool
}

func (s *stubBus) Publish(ctx context.Context, topic string, event domain.Event) error {
	if s.publishErr != nil {
		return s.publishErr
	}
	s.published = append(s.published, event)
	return nil
}

func (s *stubBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	s.subscribed = append(s.subscribed, topic)
	return nil
}

func (s *stubBus) Close() error {
	s.closed = true
	return s.closeErr
}

func TestTeeBus_PublishReachesBoth(t *testing.T) {
	local, remote := &stubBus{}, &stubBus{}
	tee := NewTeeBus(local, remote)

	event := domain.Event{ID: "evt-1", ItemID: 1}
	require.NoError(t, tee.Publish(context.Background(), domain.TopicItemEvents, event))

	assert.Equal(t, []domain.Event{event}, local.published)
	assert.Equal(t, []domain.Event{event}, remote.published)
}

func TestTeeBus_RemoteFailureStillDeliversLocally(t *testing.T) {
	local, remote := &stubBus{}, &stubBus{publishErr: errors.New("broker down")}
	tee := NewTeeBus(local, remote)

	err := tee.Publish(context.Background(), domain.TopicItemEvents, domain.Event{ID: "evt-2"})

	assert.ErrorContains(t, err, "remote publish")
	assert.ErrorIs(t, err, ports.ErrPartialPublish)
	assert.Len(t, local.published, 1)
}

func TestTeeBus_LocalFailureIsNotPartial(t *testing.T) {
	local, remote := &stubBus{publishErr: errors.New("closed")}, &stubBus{}
	tee := NewTeeBus(local, remote)

	err := tee.Publish(context.Background(), domain.TopicItemEvents, domain.Event{ID: "evt-3"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrPartialPublish)
	assert.Empty(t, remote.published)
}

func TestTeeBus_SubscribesLocally(t *testing.T) {
	local, remote := &stubBus{}, &stubBus{}
	tee := NewTeeBus(local, remote)

	noop := func(ctx context.Context, event domain.Event) error { return nil }
	require.NoError(t, tee.Subscribe(context.Background(), domain.TopicItemEvents, noop))

	assert.Equal(t, []string{domain.TopicItemEvents}, local.subscribed)
	assert.Empty(t, remote.subscribed)
}

func TestTeeBus_CloseClosesBoth(t *testing.T) {
	local, remote := &stubBus{}, &stubBus{closeErr: errors.New("close failed")}
	tee := NewTeeBus(local, remote)

	assert.Error(t, tee.Close())
	assert.True(t, local.closed)
	assert.True(t, remote.closed)
}
