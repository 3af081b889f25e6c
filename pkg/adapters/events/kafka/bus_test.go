package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/agile-ci-demo/pkg/domain"
)

func TestNewEventBus_RequiresBrokers(t *testing.T) {
	_, err := NewEventBus(nil, "agile", zap.NewNop())
	assert.Error(t, err)
}

func TestNewMessage_KeysByItemID(t *testing.T) {
	event := domain.Event{
		ID:        "evt-1",
		Type:      domain.EventTypeItemDone,
		ItemID:    3,
		Timestamp: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
	}

	msg, err := newMessage(domain.TopicItemEvents, event)
	require.NoError(t, err)

	assert.Equal(t, domain.TopicItemEvents, msg.Topic)
	assert.Equal(t, []byte("3"), msg.Key)
	assert.Equal(t, event.Timestamp, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("item.done"), msg.Headers[0].Value)

	got, err := decodeMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, event, got)
}

func TestDecodeMessage_RejectsGarbage(t *testing.T) {
	_, err := decodeMessage(kafka.Message{Value: []byte("{not json")})
	assert.Error(t, err)
}

func TestEventBus_CloseWithoutReaders(t *testing.T) {
	bus, err := NewEventBus([]string{"localhost:9092"}, "agile", zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, bus.Close())
}

func TestNewEventBus_WriterFlushesPromptly(t *testing.T) {
	bus, err := NewEventBus([]string{"localhost:9092", "localhost:9093"}, "agile", zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = bus.Close() }()

	assert.Equal(t, BatchTimeout, bus.writer.BatchTimeout)
	assert.Less(t, bus.writer.BatchTimeout, 100*time.Millisecond)
	assert.IsType(t, &kafka.Hash{}, bus.writer.Balancer)
	assert.Equal(t, kafka.RequireOne, bus.writer.RequiredAcks)
	assert.True(t, bus.writer.AllowAutoTopicCreation)
}

type fakeReader struct {
	messages chan kafka.Message

	mu        sync.Mutex
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case msg := <-r.messages:
		return msg, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) offsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func eventMessage(t *testing.T, offset int64, itemID int64) kafka.Message {
	t.Helper()
	msg, err := newMessage(domain.TopicItemEvents, domain.Event{ID: "evt", Type: domain.EventTypeItemCreated, ItemID: itemID})
	require.NoError(t, err)
	msg.Offset = offset
	return msg
}

func TestEventBus_ConsumeCommitsHandledMessages(t *testing.T) {
	bus, err := NewEventBus([]string{"localhost:9092"}, "agile", zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = bus.Close() }()

	reader := &fakeReader{messages: make(chan kafka.Message, 4)}
	reader.messages <- eventMessage(t, 0, 1)
	reader.messages <- kafka.Message{Offset: 1, Value: []byte("{not json")}
	reader.messages <- eventMessage(t, 2, 2)
	reader.messages <- eventMessage(t, 3, 3)

	var (
		mu      sync.Mutex
		handled []int64
	)
	handler := func(ctx context.Context, event domain.Event) error {
		mu.Lock()
		handled = append(handled, event.ItemID)
		mu.Unlock()
		if event.ItemID == 2 {
			return errors.New("handler rejected event")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		bus.consume(ctx, domain.TopicItemEvents, reader, handler)
	}()

	assert.Eventually(t, func() bool {
		return len(reader.offsets()) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consume did not stop after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{1, 2, 3}, handled)
	assert.Equal(t, []int64{0, 3}, reader.offsets())
}
