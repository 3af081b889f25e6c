package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aescanero/agile-ci-demo/pkg/domain"
	"github.com/aescanero/agile-ci-demo/pkg/ports"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const fetchRetryDelay = time.Second

// EventBus implements EventBus on top of Kafka topics
type EventBus struct {
	brokers []string
	groupID string
	logger  *zap.Logger
	writer  *kafka.Writer

	mu      sync.Mutex
	readers []*kafka.Reader
}

// NewEventBus creates a Kafka event bus. The topic is chosen per message.
func NewEventBus(brokers []string, groupID string, logger *zap.Logger) (*EventBus, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}

	return &EventBus{
		brokers: brokers,
		groupID: groupID,
		logger:  logger,
		writer:  newWriter(brokers),
	}, nil
}

// BatchTimeout bounds how long Publish waits for a partial batch to fill.
// Publish runs on the request path, so this stays far below kafka-go's 1s default.
const BatchTimeout = 5 * time.Millisecond

func newWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// messageReader is the part of *kafka.Reader the consume loop needs
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publish writes an event to topic keyed by item ID so events for one item stay ordered
func (b *EventBus) Publish(ctx context.Context, topic string, event domain.Event) error {
	msg, err := newMessage(topic, event)
	if err != nil {
		return err
	}

	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	b.logger.Debug("event published",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("topic", topic))

	return nil
}

// Subscribe consumes topic as part of the bus's consumer group until ctx is cancelled
func (b *EventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  b.brokers,
		GroupID:  b.groupID,
		Topic:    topic,
		MaxWait:  time.Second,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})

	b.mu.Lock()
	b.readers = append(b.readers, reader)
	b.mu.Unlock()

	b.logger.Info("subscribed to kafka topic",
		zap.String("topic", topic),
		zap.String("group_id", b.groupID))

	go b.consume(ctx, topic, reader, handler)

	return nil
}

// consume hands each fetched message to handler and commits it once handled.
// A message the handler rejects is logged and left uncommitted.
func (b *EventBus) consume(ctx context.Context, topic string, reader messageReader, handler ports.EventHandler) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			b.logger.Error("failed to fetch kafka message",
				zap.String("topic", topic),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		event, err := decodeMessage(msg)
		if err != nil {
			b.logger.Error("failed to decode kafka message",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			continue
		}

		if err := handler(ctx, event); err != nil {
			b.logger.Error("handler error",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			b.logger.Error("failed to commit kafka message",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}
	}
}

// Close flushes the writer and closes every reader
func (b *EventBus) Close() error {
	var errs []error
	if err := b.writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close writer: %w", err))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.readers {
		if err := r.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close reader: %w", err))
		}
	}
	b.readers = nil

	return errors.Join(errs...)
}

func newMessage(topic string, event domain.Event) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	return kafka.Message{
		Topic: topic,
		Key:   []byte(strconv.FormatInt(event.ItemID, 10)),
		Value: data,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}, nil
}

func decodeMessage(msg kafka.Message) (domain.Event, error) {
	var event domain.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return domain.Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}
