package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Event bus backends
const (
	EventsBackendMemory = "memory"
	EventsBackendRedis  = "redis"
	EventsBackendKafka  = "kafka"
)

// Config holds all configuration for the item registry service
type Config struct {
	// Server configuration
	HTTPPort int    `env:"AGILE_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"AGILE_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Event bus configuration
	Events EventsConfig

	// Redis configuration, used by the redis events backend
	Redis RedisConfig

	// Kafka configuration, used by the kafka events backend
	Kafka KafkaConfig

	// Registry monitor
	MonitorInterval time.Duration `env:"MONITOR_INTERVAL" envDefault:"30s"`

	// Timeouts
	Timeouts TimeoutConfig
}

// EventsConfig selects where item events are published
type EventsConfig struct {
	Backend string `env:"EVENTS_BACKEND" envDefault:"memory"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Stream consumer group used by event subscribers
	ConsumerGroup string `env:"REDIS_CONSUMER_GROUP" envDefault:"agile-items"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig holds Kafka connection configuration
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	GroupID string   `env:"KAFKA_GROUP_ID" envDefault:"agile-items"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}
	if c.HTTPPort == c.GRPCPort {
		return fmt.Errorf("HTTP and gRPC ports must differ: %d", c.HTTPPort)
	}

	// Validate events backend
	switch c.Events.Backend {
	case EventsBackendMemory:
	case EventsBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis events backend")
		}
		if c.Redis.ConsumerGroup == "" {
			return fmt.Errorf("redis consumer group is required for the redis events backend")
		}
	case EventsBackendKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required for the kafka events backend")
		}
	default:
		return fmt.Errorf("unsupported events backend: %s (must be memory, redis, or kafka)", c.Events.Backend)
	}

	if c.MonitorInterval <= 0 {
		return fmt.Errorf("monitor interval must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
