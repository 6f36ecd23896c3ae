package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "services.cache.port").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// SupportedTypes lists the service types in a stable order.
func SupportedTypes() []string {
	return []string{TypeMySQL, TypePostgreSQL, TypeRabbitMQ, TypeRedis}
}

func isSupportedType(t string) bool {
	_, ok := DefaultPorts[t]
	return ok
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateHistory(&cfg.History)...)
	errs = append(errs, validateServices(cfg.Services)...)

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, FieldError{Field: "watch.debounce", Message: "debounce must be non-negative"})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must be positive"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must be positive"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.idle_timeout", Message: "idle timeout must be positive"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "shutdown timeout must be positive"})
	}
	if cfg.RateLimit < 0 {
		errs = append(errs, FieldError{Field: "server.rate_limit", Message: "rate limit must be non-negative"})
	}
	if cfg.RateLimitBurst < 0 {
		errs = append(errs, FieldError{Field: "server.rate_limit_burst", Message: "burst must be non-negative"})
	}

	return errs
}

// validateTelemetry validates logging and metrics configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.ThreadCountInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.thread_count_interval",
			Message: "interval must be positive",
		})
	}

	for i, b := range cfg.Metrics.DurationBuckets {
		if i > 0 && b <= cfg.Metrics.DurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.duration_buckets",
				Message: "buckets must be strictly increasing",
			})
			break
		}
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Sampler {
		case "always", "never":
		case "ratio":
			if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
				errs = append(errs, FieldError{
					Field:   "telemetry.tracing.sample_ratio",
					Message: fmt.Sprintf("sample ratio must be between 0.0 and 1.0, got %g", cfg.Tracing.SampleRatio),
				})
			}
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q (must be always, never, or ratio)", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "endpoint is required when tracing is enabled",
			})
		}
	}

	return errs
}

// validateHistory validates history configuration.
func validateHistory(cfg *HistoryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "history.sqlite.path", Message: "path is required for sqlite backend"})
		}
		if cfg.SQLite.Driver != "sqlite3" && cfg.SQLite.Driver != "sqlite" {
			errs = append(errs, FieldError{
				Field:   "history.sqlite.driver",
				Message: fmt.Sprintf("unsupported driver %q (must be sqlite3 or sqlite)", cfg.SQLite.Driver),
			})
		}
		if cfg.SQLite.MaxOpenConns < 0 {
			errs = append(errs, FieldError{Field: "history.sqlite.max_open_conns", Message: "must be non-negative"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "history.backend",
			Message: fmt.Sprintf("unsupported backend %q (must be memory or sqlite)", cfg.Backend),
		})
	}

	if cfg.Retention.MaxAge < 0 {
		errs = append(errs, FieldError{Field: "history.retention.max_age", Message: "max age must be non-negative"})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{Field: "history.retention.max_records", Message: "max records must be non-negative"})
	}
	if cfg.Retention.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "history.retention.schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}
	if cfg.QueryLimit < 0 {
		errs = append(errs, FieldError{Field: "history.query_limit", Message: "query limit must be non-negative"})
	}

	return errs
}

// validateServices validates the monitored service list.
func validateServices(services map[string]ServiceConfig) []FieldError {
	var errs []FieldError

	if len(services) == 0 {
		return append(errs, FieldError{
			Field:   "services",
			Message: "at least one service must be configured",
		})
	}

	// Sorted so errors come out in a stable order.
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		svc := services[name]
		prefix := fmt.Sprintf("services.%s", name)

		if strings.TrimSpace(name) == "" {
			errs = append(errs, FieldError{Field: "services", Message: "service name must not be empty"})
		}

		if !isSupportedType(svc.Type) {
			errs = append(errs, FieldError{
				Field: prefix + ".type",
				Message: fmt.Sprintf("unsupported service type %q (supported: %s)",
					svc.Type, strings.Join(SupportedTypes(), ", ")),
			})
		}

		if svc.FQDN == "" {
			errs = append(errs, FieldError{Field: prefix + ".fqdn", Message: "fqdn is required"})
		}

		if svc.Port < 1 || svc.Port > 65535 {
			errs = append(errs, FieldError{
				Field:   prefix + ".port",
				Message: fmt.Sprintf("port must be between 1 and 65535, got %d", svc.Port),
			})
		}

		if svc.CheckInterval <= 0 {
			errs = append(errs, FieldError{Field: prefix + ".check_interval", Message: "check interval must be positive"})
		}
		if svc.Timeout <= 0 {
			errs = append(errs, FieldError{Field: prefix + ".timeout", Message: "timeout must be positive"})
		}

		switch svc.Type {
		case TypeMySQL, TypePostgreSQL:
			if svc.Authentication.Username == "" {
				errs = append(errs, FieldError{
					Field:   prefix + ".authentication.username",
					Message: "username is required",
				})
			}
		case TypeRedis:
			if svc.Authentication.DB != "" {
				if n, err := strconv.Atoi(svc.Authentication.DB); err != nil || n < 0 {
					errs = append(errs, FieldError{
						Field:   prefix + ".authentication.db",
						Message: fmt.Sprintf("redis db must be a non-negative integer, got %q", svc.Authentication.DB),
					})
				}
			}
		}
	}

	return errs
}
