// Package probefactory wires every probe implementation into a registry.
package probefactory

import (
	"log/slog"

	"plus-monitoring/general-healthcheck/pkg/config"
	"plus-monitoring/general-healthcheck/pkg/probe"
	"plus-monitoring/general-healthcheck/pkg/probe/mysql"
	"plus-monitoring/general-healthcheck/pkg/probe/postgresql"
	"plus-monitoring/general-healthcheck/pkg/probe/rabbitmq"
	"plus-monitoring/general-healthcheck/pkg/probe/redis"
)

// NewRegistry returns a registry with all supported service types:
//   - "rabbitmq": publish/consume round trip on SRE_TEST_QUEUE
//   - "redis": set/get/incr/delete round trip
//   - "mysql": SELECT 1
//   - "postgresql": SELECT 1
func NewRegistry() *probe.Registry {
	r := probe.NewRegistry()
	r.Register(config.TypeRabbitMQ, rabbitmq.New)
	r.Register(config.TypeRedis, redis.New)
	r.Register(config.TypeMySQL, mysql.New)
	r.Register(config.TypePostgreSQL, postgresql.New)
	return r
}

var defaultRegistry = NewRegistry()

// NewProbe creates a probe for a configured service using the default registry.
//
// Example:
//
//	p, err := probefactory.NewProbe("rabbitmq-main", cfg.Services["rabbitmq-main"])
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
func NewProbe(name string, svc config.ServiceConfig) (probe.Probe, error) {
	target := probe.TargetFromConfig(name, svc)

	slog.Debug("creating probe",
		"service", name,
		"type", target.Type,
		"address", target.Address(),
	)

	p, err := defaultRegistry.New(target)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Types returns the service types the default registry supports.
func Types() []string {
	return defaultRegistry.Types()
}
