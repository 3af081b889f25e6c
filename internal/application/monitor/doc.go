// Package monitor periodically reports item registry statistics.
//
// On every tick the monitor reads the registry counts, logs them and updates
// the registry gauges of the metrics collector.
package monitor
