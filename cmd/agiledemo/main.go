package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/agile-ci-demo/internal/application/items"
	"github.com/aescanero/agile-ci-demo/internal/application/monitor"
	"github.com/aescanero/agile-ci-demo/internal/config"
	"github.com/aescanero/agile-ci-demo/pkg/adapters/events"
	"github.com/aescanero/agile-ci-demo/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/agile-ci-demo/pkg/adapters/storage/memory"
	"github.com/aescanero/agile-ci-demo/pkg/api/grpc"
	"github.com/aescanero/agile-ci-demo/pkg/api/http"
	"github.com/aescanero/agile-ci-demo/pkg/api/websocket"
	"github.com/aescanero/agile-ci-demo/pkg/domain"

	prom "github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting item registry",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("events_backend", cfg.Events.Backend))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Redis is only needed when events go to streams
	var redisClient *goredis.Client
	if cfg.Events.Backend == config.EventsBackendRedis {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// Initialize adapters
	eventBus, err := events.NewEventBus(&events.Config{
		Backend:       cfg.Events.Backend,
		RedisClient:   redisClient,
		ConsumerGroup: cfg.Redis.ConsumerGroup,
		ConsumerName:  fmt.Sprintf("agile-%d", os.Getpid()),
		KafkaBrokers:  cfg.Kafka.Brokers,
		KafkaGroupID:  cfg.Kafka.GroupID,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("failed to create event bus", zap.Error(err))
	}

	registry := memory.NewRegistry()
	metricsCollector := prometheus.NewCollector(prom.DefaultRegisterer)

	// Initialize application components
	itemsMgr := items.NewManager(registry, eventBus, metricsCollector, logger)

	// With a remote backend the audit log joins the shared consumer group,
	// so each event is logged once across all instances.
	if err := events.ConsumerBus(eventBus).Subscribe(ctx, domain.TopicItemEvents, auditLogger(logger)); err != nil {
		logger.Fatal("failed to subscribe audit logger", zap.Error(err))
	}

	registryMonitor := monitor.New(itemsMgr, metricsCollector, cfg.MonitorInterval, logger)
	registryMonitor.Start()

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Port:   cfg.HTTPPort,
		Items:  itemsMgr,
		Logger: logger,
	})

	// Add WebSocket handler to HTTP server
	wsHandler := websocket.NewHandler(eventBus, logger)
	httpServer.SetupWebSocket(wsHandler)

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Port:   cfg.GRPCPort,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("failed to create gRPC server", zap.Error(err))
	}

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	logger.Info("item registry started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Duration("monitor_interval", cfg.MonitorInterval))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	registryMonitor.Stop()
	stop()

	if err := eventBus.Close(); err != nil {
		logger.Error("event bus close error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("item registry shut down complete")
}

// auditLogger logs every item event it is handed at debug level
func auditLogger(logger *zap.Logger) func(context.Context, domain.Event) error {
	return func(ctx context.Context, event domain.Event) error {
		logger.Debug("item event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Int64("item_id", event.ItemID))
		return nil
	}
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
