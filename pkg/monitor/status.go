package monitor

import (
	"time"

	"plus-monitoring/general-healthcheck/pkg/config"
	"plus-monitoring/general-healthcheck/pkg/telemetry/metrics"
)

// ServiceStatus is the latest known state of one monitored service.
type ServiceStatus struct {
	Name string `json:"name"`
	Type string `json:"type"`
	FQDN string `json:"fqdn"`
	Port int    `json:"port"`

	// Healthy reflects the last completed check. It is false before the first.
	Healthy bool `json:"healthy"`

	// Checked is false until the first check completes.
	Checked bool `json:"checked"`

	Stage string `json:"stage,omitempty"`
	Error string `json:"error,omitempty"`

	// LastCheck is when the last check finished
	LastCheck time.Time `json:"last_check,omitempty"`

	// DurationMS is the wall time of the last check in milliseconds
	DurationMS float64 `json:"duration_ms"`

	// ConsecutiveFailures counts failed checks since the last success
	ConsecutiveFailures int `json:"consecutive_failures"`

	// Interval is the configured pause between checks
	Interval string `json:"interval"`
}

func newStatus(name string, svc config.ServiceConfig) ServiceStatus {
	return ServiceStatus{
		Name:     name,
		Type:     svc.Type,
		FQDN:     svc.FQDN,
		Port:     svc.Port,
		Interval: svc.CheckInterval.String(),
	}
}

func labelsFor(name string, svc config.ServiceConfig) metrics.ServiceLabels {
	return metrics.ServiceLabels{
		Name: name,
		FQDN: svc.FQDN,
		Port: svc.Port,
		Type: svc.Type,
	}
}
