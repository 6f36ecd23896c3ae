package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = ":9101"
	DefaultReadTimeout     = Duration(10 * time.Second)
	DefaultWriteTimeout    = Duration(30 * time.Second)
	DefaultIdleTimeout     = Duration(120 * time.Second)
	DefaultShutdownTimeout = Duration(15 * time.Second)
	DefaultRateLimit       = 20.0
	DefaultRateLimitBurst  = 40

	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "json"
	DefaultMetricsPrefix       = "plus_monitoring"
	DefaultThreadCountInterval = Duration(5 * time.Second)
	DefaultTracingEndpoint     = "localhost:4317"
	DefaultTracingTimeout      = Duration(10 * time.Second)
	DefaultTracingSampler      = "always"
	DefaultTracingServiceName  = "general-healthcheck"

	// History defaults
	DefaultHistoryBackend      = "memory"
	DefaultSQLitePath          = "/tmp/general-healthcheck/history.db"
	DefaultSQLiteDriver        = "sqlite3"
	DefaultSQLiteMaxOpenConns  = 4
	DefaultSQLiteBusyTimeout   = Duration(5 * time.Second)
	DefaultRetentionMaxAge     = Duration(7 * 24 * time.Hour)
	DefaultRetentionSchedule   = "*/15 * * * *"
	DefaultHistoryQueryLimit   = 500
	DefaultWatchDebounce       = Duration(500 * time.Millisecond)
	DefaultCheckInterval       = Duration(30 * time.Second)
	DefaultCheckTimeout        = Duration(10 * time.Second)
	DefaultRabbitMQVirtualHost = "/"
)

// Service types understood by the probes.
const (
	TypeRabbitMQ   = "rabbitmq"
	TypeRedis      = "redis"
	TypeMySQL      = "mysql"
	TypePostgreSQL = "postgresql"
)

// DefaultPorts maps a service type to the port used when none is configured.
var DefaultPorts = map[string]int{
	TypeRabbitMQ:   5672,
	TypeRedis:      6379,
	TypeMySQL:      3306,
	TypePostgreSQL: 5432,
}

// DefaultDurationBuckets are histogram buckets for check latency, 5ms to 10s.
var DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = DefaultRateLimit
	}
	if cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = DefaultRateLimitBurst
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Prefix == "" {
		cfg.Telemetry.Metrics.Prefix = DefaultMetricsPrefix
	}
	if cfg.Telemetry.Metrics.ThreadCountInterval == 0 {
		cfg.Telemetry.Metrics.ThreadCountInterval = DefaultThreadCountInterval
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}

	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}

	// History defaults
	if cfg.History.Backend == "" {
		cfg.History.Backend = DefaultHistoryBackend
	}
	if cfg.History.SQLite.Path == "" {
		cfg.History.SQLite.Path = DefaultSQLitePath
	}
	if cfg.History.SQLite.Driver == "" {
		cfg.History.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.History.SQLite.MaxOpenConns == 0 {
		cfg.History.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.History.SQLite.BusyTimeout == 0 {
		cfg.History.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.History.Retention.MaxAge == 0 {
		cfg.History.Retention.MaxAge = DefaultRetentionMaxAge
	}
	if cfg.History.Retention.Schedule == "" {
		cfg.History.Retention.Schedule = DefaultRetentionSchedule
	}
	if cfg.History.QueryLimit == 0 {
		cfg.History.QueryLimit = DefaultHistoryQueryLimit
	}

	// Watch defaults
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}

	// Check defaults
	if cfg.Defaults.CheckInterval == 0 {
		cfg.Defaults.CheckInterval = DefaultCheckInterval
	}
	if cfg.Defaults.Timeout == 0 {
		cfg.Defaults.Timeout = DefaultCheckTimeout
	}

	// Service defaults - applied to each service
	for name, svc := range cfg.Services {
		if svc.Port == 0 {
			svc.Port = DefaultPorts[svc.Type]
		}
		if svc.CheckInterval == 0 {
			svc.CheckInterval = cfg.Defaults.CheckInterval
		}
		if svc.Timeout == 0 {
			svc.Timeout = cfg.Defaults.Timeout
		}
		if svc.Type == TypeRabbitMQ && svc.Authentication.VHost == "" {
			svc.Authentication.VHost = DefaultRabbitMQVirtualHost
		}
		cfg.Services[name] = svc
	}
}
