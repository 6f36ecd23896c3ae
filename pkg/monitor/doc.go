// Package monitor schedules health checks for the configured services.
//
// A Manager runs one worker goroutine per service. Each worker checks its
// service immediately and then waits check_interval between checks; a check
// is bounded by the service timeout. Every result updates the Prometheus
// series for the service, is appended to the check history when one is
// configured, and becomes visible through Status.
//
// Apply replaces the service set at runtime. Only services that were added,
// removed or changed are restarted.
package monitor
