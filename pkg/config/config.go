package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for general-healthcheck.
// It is normally read from the ConfigMap mounted at /config/conf.yml.
type Config struct {
	// Server contains the HTTP listener configuration for the exporter.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains logging and metrics settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// History configures persistence of individual check results.
	History HistoryConfig `yaml:"history"`

	// Watch enables reloading the service list when the config file changes.
	Watch WatchConfig `yaml:"watch"`

	// Defaults holds check settings applied to services that leave them unset.
	Defaults CheckDefaults `yaml:"defaults"`

	// Services maps a service name to the backend that should be probed.
	// The name is exported as the "name" label of the health gauge.
	Services map[string]ServiceConfig `yaml:"services"`
}

// ServerConfig contains configuration for the HTTP server that exposes
// metrics, probes and the status API.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: ":9101"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 10s
	ReadTimeout Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 30s
	WriteTimeout Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown of the listener and workers.
	// Default: 15s
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`

	// RateLimit is the sustained request rate allowed on /api endpoints.
	// Default: 20 (requests per second)
	RateLimit float64 `yaml:"rate_limit"`

	// RateLimitBurst is the token bucket size for /api endpoints.
	// Default: 40
	RateLimitBurst int `yaml:"rate_limit_burst"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	// Level is the minimum level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "json", "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes the file:line of the log call.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus exporter settings.
type MetricsConfig struct {
	// Prefix is the base metric name. The per-service health gauge is
	// exported under exactly this name.
	// Default: "plus_monitoring"
	Prefix string `yaml:"prefix"`

	// ThreadCountInterval is how often the active worker gauge is refreshed.
	// Default: 5s
	ThreadCountInterval Duration `yaml:"thread_count_interval"`

	// DurationBuckets are the histogram buckets (seconds) for check latency.
	DurationBuckets []float64 `yaml:"duration_buckets"`

	// RuntimeCollectors registers the Go runtime and process collectors.
	// Default: true
	RuntimeCollectors *bool `yaml:"runtime_collectors"`
}

// TracingConfig configures OpenTelemetry spans for checks and API requests.
type TracingConfig struct {
	// Enabled turns on span export. When false a noop tracer is used.
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds a single export.
	// Default: 10s
	Timeout Duration `yaml:"timeout"`

	// Sampler is "always", "never" or "ratio".
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is used by the ratio sampler (0.0 to 1.0).
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is the service.name resource attribute.
	// Default: "general-healthcheck"
	ServiceName string `yaml:"service_name"`
}

// HistoryConfig configures check result storage.
type HistoryConfig struct {
	// Enabled turns result recording on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage: "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite configures the sqlite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Retention controls pruning of old results.
	Retention RetentionConfig `yaml:"retention"`

	// QueryLimit caps the number of records returned by one history query.
	// Default: 500
	QueryLimit int `yaml:"query_limit"`
}

// SQLiteConfig configures the SQLite history backend.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "/tmp/general-healthcheck/history.db"
	Path string `yaml:"path"`

	// Driver selects the database/sql driver: "sqlite3" (mattn, cgo) or
	// "sqlite" (modernc, pure Go).
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 4
	MaxOpenConns int `yaml:"max_open_conns"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout Duration `yaml:"busy_timeout"`
}

// RetentionConfig controls history pruning.
type RetentionConfig struct {
	// MaxAge deletes results older than this. Zero keeps results forever.
	// Default: 168h
	MaxAge Duration `yaml:"max_age"`

	// MaxRecords keeps at most this many results. Zero means unlimited.
	MaxRecords int64 `yaml:"max_records"`

	// Schedule is the cron expression for pruning runs.
	// Default: "*/15 * * * *"
	Schedule string `yaml:"schedule"`
}

// WatchConfig configures config file reloading.
type WatchConfig struct {
	// Enabled turns on the file watcher.
	Enabled bool `yaml:"enabled"`

	// Debounce is the quiet period before a burst of file events triggers a reload.
	// Default: 500ms
	Debounce Duration `yaml:"debounce"`
}

// CheckDefaults holds check settings inherited by services.
type CheckDefaults struct {
	// CheckInterval is the pause between checks of one service.
	// Default: 30s
	CheckInterval Duration `yaml:"check_interval"`

	// Timeout bounds a single check.
	// Default: 10s
	Timeout Duration `yaml:"timeout"`
}

// ServiceConfig describes one backend to probe.
type ServiceConfig struct {
	// Type is the backend kind: "rabbitmq", "redis", "mysql", "postgresql".
	Type string `yaml:"type"`

	// FQDN is the host name of the backend.
	FQDN string `yaml:"fqdn"`

	// Port is the backend port. Zero selects the default port for Type.
	Port int `yaml:"port"`

	// CheckInterval overrides defaults.check_interval.
	CheckInterval Duration `yaml:"check_interval"`

	// Timeout overrides defaults.timeout.
	Timeout Duration `yaml:"timeout"`

	// Authentication carries the credentials used by the probe.
	Authentication AuthConfig `yaml:"authentication"`
}

// AuthConfig carries backend credentials. Values of the form ${VAR} are
// replaced with the environment variable VAR at load time.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// DB is the database name (mysql, postgresql) or index (redis).
	DB string `yaml:"db"`

	// VHost is the RabbitMQ virtual host.
	// Default: "/"
	VHost string `yaml:"vhost"`
}

// Duration is a time.Duration that also accepts a bare integer number of
// seconds, the form used by existing conf.yml files.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String formats d like time.Duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML accepts "30s"-style strings and integer seconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}

	var seconds int64
	if err := node.Decode(&seconds); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}

	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", node.Line, node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes d in time.Duration notation.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// RuntimeCollectorsEnabled reports whether Go/process collectors should be registered.
func (m MetricsConfig) RuntimeCollectorsEnabled() bool {
	return m.RuntimeCollectors == nil || *m.RuntimeCollectors
}
