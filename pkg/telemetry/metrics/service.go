package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StageCreate is the failure stage recorded when a service's probe could not
// be built from its configuration.
const StageCreate = "create"

// ServiceLabels identifies one monitored backend. The four values form the
// label set of the health gauge.
type ServiceLabels struct {
	Name string
	FQDN string
	Port int
	Type string
}

func (l ServiceLabels) values() []string {
	return []string{l.Name, l.FQDN, strconv.Itoa(l.Port), l.Type}
}

// ServiceMetrics tracks the health of monitored backends.
//
// Metrics (with the default prefix):
//   - plus_monitoring: Health status (1=healthy, 0=unhealthy)
//   - plus_monitoring_check_duration_seconds: Check latency
//   - plus_monitoring_check_failures_total: Failed checks by stage
//   - plus_monitoring_last_check_timestamp_seconds: Unix time of the last check
type ServiceMetrics struct {
	// Health status (gauge: 1=healthy, 0=unhealthy)
	health *prometheus.GaugeVec

	// Check latency histogram
	duration *prometheus.HistogramVec

	// Failed check counter
	failures *prometheus.CounterVec

	// Time of the most recent check
	lastCheck *prometheus.GaugeVec
}

// NewServiceMetrics creates and registers service metrics with the provided registry.
func NewServiceMetrics(prefix string, buckets []float64, registry prometheus.Registerer) *ServiceMetrics {
	sm := &ServiceMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix,
				Help: "Health of a monitored service (1=healthy, 0=unhealthy)",
			},
			[]string{"name", "fqdn", "port", "type"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_check_duration_seconds",
				Help:    "Duration of service health checks in seconds",
				Buckets: buckets,
			},
			[]string{"name", "type"},
		),

		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_check_failures_total",
				Help: "Total number of failed health checks by stage",
			},
			[]string{"name", "type", "stage"},
		),

		lastCheck: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + "_last_check_timestamp_seconds",
				Help: "Unix timestamp of the last completed health check",
			},
			[]string{"name"},
		),
	}

	registry.MustRegister(sm.health, sm.duration, sm.failures, sm.lastCheck)

	return sm
}

// Observe records the outcome of one check. stage is ignored when healthy.
func (sm *ServiceMetrics) Observe(svc ServiceLabels, healthy bool, stage string, duration time.Duration, at time.Time) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	sm.health.WithLabelValues(svc.values()...).Set(value)
	sm.duration.WithLabelValues(svc.Name, svc.Type).Observe(duration.Seconds())
	sm.lastCheck.WithLabelValues(svc.Name).Set(float64(at.UnixNano()) / 1e9)

	if !healthy {
		if stage == "" {
			stage = "unknown"
		}
		sm.failures.WithLabelValues(svc.Name, svc.Type, stage).Inc()
	}
}

// MarkDown sets svc unhealthy and counts a failure at stage without a
// latency sample, for services that could not be checked at all.
func (sm *ServiceMetrics) MarkDown(svc ServiceLabels, stage string, at time.Time) {
	sm.health.WithLabelValues(svc.values()...).Set(0)
	sm.lastCheck.WithLabelValues(svc.Name).Set(float64(at.UnixNano()) / 1e9)
	sm.failures.WithLabelValues(svc.Name, svc.Type, stage).Inc()
}

// Delete removes every series belonging to svc.
func (sm *ServiceMetrics) Delete(svc ServiceLabels) {
	sm.health.DeleteLabelValues(svc.values()...)
	sm.duration.DeleteLabelValues(svc.Name, svc.Type)
	sm.failures.DeletePartialMatch(prometheus.Labels{"name": svc.Name, "type": svc.Type})
	sm.lastCheck.DeleteLabelValues(svc.Name)
}
