// Package config provides configuration management for general-healthcheck.
//
// Configuration is read from a YAML file, by default /config/conf.yml where the
// DaemonSet mounts the general-healthcheck-conf ConfigMap.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("conf.yml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("conf.yml")
//
// # Environment Variables
//
// Overrides follow HEALTHCHECK_SECTION_FIELD, for example
// HEALTHCHECK_SERVER_LISTEN_ADDRESS or HEALTHCHECK_TELEMETRY_LOGGING_LEVEL.
// Per-service credentials use HEALTHCHECK_SERVICES_<NAME>_PASSWORD, where NAME
// is the upper-cased service name with separators turned into underscores.
//
// Credential fields may also reference the environment directly:
//
//	password: "${REDIS_PASSWORD}"
//
// # Example Configuration
//
//	defaults:
//	  check_interval: 30s
//	  timeout: 5s
//
//	services:
//	  orders-queue:
//	    type: rabbitmq
//	    fqdn: rabbitmq.messaging.svc
//	    port: 5672
//	    check_interval: 10
//	    authentication:
//	      username: monitor
//	      password: "${RABBITMQ_PASSWORD}"
//	  session-cache:
//	    type: redis
//	    fqdn: redis.cache.svc
//	    authentication:
//	      db: 2
//
// check_interval and timeout accept either a duration string or an integer
// number of seconds.
//
// # Reloading
//
// Watcher follows the file with fsnotify, including the atomic ..data symlink
// swap the kubelet performs on ConfigMap updates, and hands every successfully
// validated reload to a callback.
package config
