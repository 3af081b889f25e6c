package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/aescanero/agile-ci-demo/pkg/ports"
	"go.uber.org/zap"
)

// StatsSource provides registry counts
type StatsSource interface {
	Stats(ctx context.Context) ports.StoreStats
}

// Monitor reports registry statistics on a fixed interval
type Monitor struct {
	source   StatsSource
	metrics  ports.MetricsCollector
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Report is a point-in-time view of the registry
type Report struct {
	Stats     ports.StoreStats
	Timestamp time.Time
}

// New creates a new monitor
func New(source StatsSource, metrics ports.MetricsCollector, interval time.Duration, logger *zap.Logger) *Monitor {
	return &Monitor{
		source:   source,
		metrics:  metrics,
		interval: interval,
		logger:   logger,
	}
}

// Start starts the reporting loop. Calling Start on a running monitor is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})

	go m.run(m.stopCh, m.doneCh)
}

// Stop stops the reporting loop and waits for it to exit
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	doneCh := m.doneCh
	m.mu.Unlock()

	<-doneCh
}

// run is the main reporting loop
func (m *Monitor) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// report once up front so gauges are populated before the first tick
	m.Check(context.Background())

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			m.Check(context.Background())
		}
	}
}

// Check reads the registry counts, logs them and records the gauges
func (m *Monitor) Check(ctx context.Context) Report {
	report := Report{
		Stats:     m.source.Stats(ctx),
		Timestamp: time.Now(),
	}

	m.logger.Info("item registry status",
		zap.Int("total", report.Stats.Total),
		zap.Int("done", report.Stats.Done),
		zap.Int("pending", report.Stats.Pending))

	m.metrics.RecordRegistryStats(report.Stats)

	return report
}
