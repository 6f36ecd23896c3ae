// Package metrics publishes the exporter's Prometheus metrics.
//
// # Metrics
//
// With the default prefix "plus_monitoring":
//
//	plus_monitoring{name,fqdn,port,type}              1 when the last check passed, else 0
//	plus_monitoring_thread_count                      active check workers plus the refresh loop
//	plus_monitoring_check_duration_seconds{name,type} check latency histogram
//	plus_monitoring_check_failures_total{name,type,stage}
//	plus_monitoring_last_check_timestamp_seconds{name}
//	plus_monitoring_config_reloads_total{result}
//
// The health gauge keeps the name and label set of earlier exporter releases
// so existing dashboards and alerts continue to work.
//
// # Usage
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	http.Handle("/metrics", collector.Handler())
//
// Metrics are registered on a dedicated registry, never on
// prometheus.DefaultRegisterer, so tests can create any number of collectors.
package metrics
