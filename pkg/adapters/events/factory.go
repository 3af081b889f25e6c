package events

import (
	"fmt"

	"github.com/aescanero/agile-ci-demo/pkg/adapters/events/kafka"
	"github.com/aescanero/agile-ci-demo/pkg/adapters/events/memory"
	"github.com/aescanero/agile-ci-demo/pkg/adapters/events/redis"
	"github.com/aescanero/agile-ci-demo/pkg/ports"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config holds event bus configuration
type Config struct {
	Backend string

	// Redis backend
	RedisClient   *goredis.Client
	ConsumerGroup string
	ConsumerName  string

	// Kafka backend
	KafkaBrokers []string
	KafkaGroupID string

	Logger *zap.Logger
}

// NewEventBus creates an event bus for the configured backend.
// Remote backends are wrapped in a TeeBus so in-process subscribers keep
// receiving every event.
func NewEventBus(cfg *Config) (ports.EventBus, error) {
	local := memory.NewInMemoryEventBus(cfg.Logger)
	if cfg.Backend == "memory" || cfg.Backend == "" {
		return local, nil
	}

	remote, err := newRemoteBus(cfg)
	if err != nil {
		return nil, err
	}

	return NewTeeBus(local, remote), nil
}

// ConsumerBus returns the bus that consumer-group subscribers should join:
// the remote half of a TeeBus, or bus itself when events stay in process.
func ConsumerBus(bus ports.EventBus) ports.EventBus {
	if tee, ok := bus.(*TeeBus); ok {
		return tee.Remote()
	}
	return bus
}

func newRemoteBus(cfg *Config) (ports.EventBus, error) {
	switch cfg.Backend {
	case "redis":
		if cfg.RedisClient == nil {
			return nil, fmt.Errorf("redis events backend requires a redis client")
		}
		bus, err := redis.NewStreamsEventBus(cfg.RedisClient, cfg.ConsumerGroup, cfg.ConsumerName, cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis event bus: %w", err)
		}
		return bus, nil
	case "kafka":
		bus, err := kafka.NewEventBus(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka event bus: %w", err)
		}
		return bus, nil
	default:
		return nil, fmt.Errorf("unsupported events backend: %s", cfg.Backend)
	}
}
