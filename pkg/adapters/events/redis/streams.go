package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/agile-ci-demo/pkg/domain"
	"github.com/aescanero/agile-ci-demo/pkg/ports"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	readBatchSize  = 10
	readBlock      = time.Second
	readRetryDelay = time.Second
)

// StreamsEventBus implements EventBus using Redis Streams
type StreamsEventBus struct {
	client        *redis.Client
	logger        *zap.Logger
	consumerGroup string
	consumerName  string
}

// NewStreamsEventBus creates a new Redis Streams event bus
func NewStreamsEventBus(client *redis.Client, consumerGroup, consumerName string, logger *zap.Logger) (*StreamsEventBus, error) {
	if consumerGroup == "" || consumerName == "" {
		return nil, fmt.Errorf("consumer group and consumer name are required")
	}

	return &StreamsEventBus{
		client:        client,
		logger:        logger,
		consumerGroup: consumerGroup,
		consumerName:  consumerName,
	}, nil
}

// Publish appends an event to the topic's stream
func (e *StreamsEventBus) Publish(ctx context.Context, topic string, event domain.Event) error {
	streamKey := getStreamKey(topic)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}

	if _, err := e.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}

	e.logger.Debug("event published",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.Int64("item_id", event.ItemID),
		zap.String("stream", streamKey))

	return nil
}

// Subscribe joins the consumer group on the topic's stream and delivers new
// entries to handler until ctx is cancelled
func (e *StreamsEventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	streamKey := getStreamKey(topic)

	// "$" so a new group only sees entries added after it was created
	err := e.client.XGroupCreateMkStream(ctx, streamKey, e.consumerGroup, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	e.logger.Info("subscribed to event stream",
		zap.String("stream", streamKey),
		zap.String("consumer_group", e.consumerGroup),
		zap.String("consumer", e.consumerName))

	go e.readStream(ctx, streamKey, handler)

	return nil
}

// readStream delivers new group entries until ctx is cancelled
func (e *StreamsEventBus) readStream(ctx context.Context, streamKey string, handler ports.EventHandler) {
	args := &redis.XReadGroupArgs{
		Group:    e.consumerGroup,
		Consumer: e.consumerName,
		Streams:  []string{streamKey, ">"},
		Count:    readBatchSize,
		Block:    readBlock,
	}

	for ctx.Err() == nil {
		streams, err := e.client.XReadGroup(ctx, args).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			e.logger.Error("failed to read from stream",
				zap.String("stream", streamKey),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(readRetryDelay):
			}
			continue
		}

		for _, stream := range streams {
			for _, entry := range stream.Messages {
				e.handleEntry(ctx, streamKey, entry, handler)
			}
		}
	}
}

// handleEntry acks an entry once handler accepts it. Entries that fail to
// decode or that the handler rejects stay pending in the group.
func (e *StreamsEventBus) handleEntry(ctx context.Context, streamKey string, entry redis.XMessage, handler ports.EventHandler) {
	log := e.logger.With(
		zap.String("stream", streamKey),
		zap.String("entry_id", entry.ID))

	event, err := decodeEntry(entry)
	if err != nil {
		log.Error("failed to decode stream entry", zap.Error(err))
		return
	}

	if err := handler(ctx, event); err != nil {
		log.Error("handler error", zap.Error(err))
		return
	}

	if err := e.client.XAck(ctx, streamKey, e.consumerGroup, entry.ID).Err(); err != nil {
		log.Error("failed to acknowledge stream entry", zap.Error(err))
	}
}

// decodeEntry reads the JSON event stored under the entry's "data" field
func decodeEntry(entry redis.XMessage) (domain.Event, error) {
	data, ok := entry.Values["data"].(string)
	if !ok {
		return domain.Event{}, fmt.Errorf("entry %s has no data field", entry.ID)
	}

	var event domain.Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return domain.Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}

// Close is a no-op; the Redis client is owned and closed by the caller
func (e *StreamsEventBus) Close() error {
	return nil
}

// getStreamKey returns the Redis stream key for a topic
func getStreamKey(topic string) string {
	return fmt.Sprintf("agile:events:%s", topic)
}
