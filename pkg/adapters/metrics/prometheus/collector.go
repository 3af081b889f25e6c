package prometheus

import (
	"time"

	"github.com/aescanero/agile-ci-demo/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements MetricsCollector using Prometheus
type Collector struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	registryItems     *prometheus.GaugeVec
	eventsPublished   *prometheus.CounterVec
}

// NewCollector creates a collector whose metrics are registered on reg.
// Pass prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "items_operations_total",
				Help: "Total number of item registry operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "items_operation_duration_seconds",
				Help:    "Item registry operation duration in seconds",
				Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
			},
			[]string{"operation"},
		),
		registryItems: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "items_registry_items",
				Help: "Current number of registered items by state",
			},
			[]string{"state"},
		),
		eventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "items_events_published_total",
				Help: "Total number of item events delivered to in-process subscribers",
			},
			[]string{"type"},
		),
	}
}

// RecordOperation counts one registry operation and observes its duration
func (c *Collector) RecordOperation(operation, outcome string, duration time.Duration) {
	c.operations.WithLabelValues(operation, outcome).Inc()
	c.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordEventPublished counts a published event
func (c *Collector) RecordEventPublished(eventType string) {
	c.eventsPublished.WithLabelValues(eventType).Inc()
}

// RecordRegistryStats sets the registry size gauges
func (c *Collector) RecordRegistryStats(stats ports.StoreStats) {
	c.registryItems.WithLabelValues("total").Set(float64(stats.Total))
	c.registryItems.WithLabelValues("done").Set(float64(stats.Done))
	c.registryItems.WithLabelValues("pending").Set(float64(stats.Pending))
}
