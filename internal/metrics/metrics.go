// Package metrics declares the Prometheus counters and gauges every
// component increments as records move through the pipeline (spec.md §2's
// "Metrics" ambient component).
package metrics

import (
	"github.com/mackerelio/go-osstat/cpu"
	"github.com/pingcap/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	// RecordsProduced counts records the factory handed to an engine,
	// labeled by record type name.
	RecordsProduced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dynamo_records_produced_total",
		Help: "Total number of records produced by a factory.",
	}, []string{"record_type"})

	// RecordsDelivered counts records a sink acknowledged, labeled by
	// sink name.
	RecordsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dynamo_records_delivered_total",
		Help: "Total number of records successfully delivered to a sink.",
	}, []string{"sink"})

	// RetryAttempts counts every delivery attempt beyond the first,
	// labeled by sink name and the error kind that triggered the retry.
	RetryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dynamo_retry_attempts_total",
		Help: "Total number of retry attempts made by the retry executor.",
	}, []string{"sink", "kind"})

	// RecordsFailed counts records the retry executor gave up on,
	// labeled by sink name and the error kind of the final failure.
	RecordsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dynamo_records_failed_total",
		Help: "Total number of records that exhausted retries or failed fast.",
	}, []string{"sink", "kind"})

	// CPUUsagePercent reports the host's most recently sampled CPU
	// utilization. It never drives worker-pool sizing (spec.md §4.5
	// fixes pool size at config-time via runtime.NumCPU()); it exists
	// purely for operator visibility into saturation.
	CPUUsagePercent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dynamo_cpu_usage_percent",
		Help: "Most recently sampled host CPU utilization, 0-100.",
	})
)

// SampleCPU takes one go-osstat CPU reading and updates CPUUsagePercent.
// cpu.Get blocks for about a second while it samples /proc/stat twice
// internally, so callers run this from its own goroutine on a ticker
// rather than on a hot path.
func SampleCPU() {
	stats, err := cpu.Get()
	if err != nil {
		log.Warn("cpu sample failed", zap.Error(err))
		return
	}

	total := float64(stats.Total)
	if total == 0 {
		return
	}
	busy := total - float64(stats.Idle)
	CPUUsagePercent.Set(100 * busy / total)
}
