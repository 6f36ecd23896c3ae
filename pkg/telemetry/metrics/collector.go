package metrics

import (
	"time"

	"plus-monitoring/general-healthcheck/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collector owns the exporter's Prometheus registry and every metric
// published on it.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	// Per-service health, latency and failures
	serviceMetrics *ServiceMetrics

	// Number of running check workers plus the refresh loop
	threadCount prometheus.Gauge

	// Config reloads by result
	reloads *prometheus.CounterVec
}

// NewCollector creates a collector with the specified configuration and
// Prometheus registry. If registry is nil a fresh registry is created; the
// global default registry is never used.
//
// Example:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	collector.RecordCheck(labels, true, "", 12*time.Millisecond)
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Prefix == "" {
		cfg.Prefix = config.DefaultMetricsPrefix
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = config.DefaultDurationBuckets
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
		threadCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: cfg.Prefix + "_thread_count",
			Help: "Number of active health check threads",
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: cfg.Prefix + "_config_reloads_total",
			Help: "Total number of configuration reloads by result",
		}, []string{"result"}),
	}

	c.serviceMetrics = NewServiceMetrics(cfg.Prefix, cfg.DurationBuckets, registry)
	registry.MustRegister(c.threadCount, c.reloads)

	if cfg.RuntimeCollectorsEnabled() {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return c
}

// RecordCheck records the result of a single service check.
//
// Parameters:
//   - svc: labels of the checked service
//   - healthy: true if every step of the check succeeded
//   - stage: name of the failing step, empty when healthy
//   - duration: wall time of the check
func (c *Collector) RecordCheck(svc ServiceLabels, healthy bool, stage string, duration time.Duration) {
	c.serviceMetrics.Observe(svc, healthy, stage, duration, time.Now())
}

// RecordCreateFailure marks svc unhealthy when its probe could not be built.
// The duration histogram is left untouched.
func (c *Collector) RecordCreateFailure(svc ServiceLabels) {
	c.serviceMetrics.MarkDown(svc, StageCreate, time.Now())
}

// DeleteService removes the series of a service that is no longer monitored.
func (c *Collector) DeleteService(svc ServiceLabels) {
	c.serviceMetrics.Delete(svc)
}

// SetThreadCount updates the active thread gauge.
func (c *Collector) SetThreadCount(n int) {
	c.threadCount.Set(float64(n))
}

// RecordConfigReload counts a configuration reload attempt.
func (c *Collector) RecordConfigReload(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.reloads.WithLabelValues(result).Inc()
}

// Prefix returns the base metric name.
func (c *Collector) Prefix() string {
	return c.config.Prefix
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
