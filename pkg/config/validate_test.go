package config

import (
	"errors"
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{
		Services: map[string]ServiceConfig{
			"cache": {Type: TypeRedis, FQDN: "redis.svc"},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:      "empty listen address",
			mutate:    func(c *Config) { c.Server.ListenAddress = "" },
			wantField: "server.listen_address",
		},
		{
			name:      "bad log level",
			mutate:    func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			wantField: "telemetry.logging.level",
		},
		{
			name:      "bad log format",
			mutate:    func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			wantField: "telemetry.logging.format",
		},
		{
			name:      "unsorted buckets",
			mutate:    func(c *Config) { c.Telemetry.Metrics.DurationBuckets = []float64{1, 0.5} },
			wantField: "telemetry.metrics.duration_buckets",
		},
		{
			name: "bad tracing sampler",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Sampler = "sometimes"
			},
			wantField: "telemetry.tracing.sampler",
		},
		{
			name: "tracing ratio out of range",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Sampler = "ratio"
				c.Telemetry.Tracing.SampleRatio = 1.5
			},
			wantField: "telemetry.tracing.sample_ratio",
		},
		{
			name:   "disabled tracing is not validated",
			mutate: func(c *Config) { c.Telemetry.Tracing.Sampler = "sometimes" },
		},
		{
			name:      "unknown history backend",
			mutate:    func(c *Config) { c.History.Backend = "postgres" },
			wantField: "history.backend",
		},
		{
			name: "unknown sqlite driver",
			mutate: func(c *Config) {
				c.History.Backend = "sqlite"
				c.History.SQLite.Driver = "duckdb"
			},
			wantField: "history.sqlite.driver",
		},
		{
			name:      "bad cron schedule",
			mutate:    func(c *Config) { c.History.Retention.Schedule = "every day" },
			wantField: "history.retention.schedule",
		},
		{
			name: "unsupported service type",
			mutate: func(c *Config) {
				c.Services["cache"] = ServiceConfig{Type: "memcached", FQDN: "mc", Port: 11211, CheckInterval: DefaultCheckInterval, Timeout: DefaultCheckTimeout}
			},
			wantField: "services.cache.type",
		},
		{
			name: "missing fqdn",
			mutate: func(c *Config) {
				svc := c.Services["cache"]
				svc.FQDN = ""
				c.Services["cache"] = svc
			},
			wantField: "services.cache.fqdn",
		},
		{
			name: "port out of range",
			mutate: func(c *Config) {
				svc := c.Services["cache"]
				svc.Port = 70000
				c.Services["cache"] = svc
			},
			wantField: "services.cache.port",
		},
		{
			name: "negative interval",
			mutate: func(c *Config) {
				svc := c.Services["cache"]
				svc.CheckInterval = -1
				c.Services["cache"] = svc
			},
			wantField: "services.cache.check_interval",
		},
		{
			name: "non numeric redis db",
			mutate: func(c *Config) {
				svc := c.Services["cache"]
				svc.Authentication.DB = "sessions"
				c.Services["cache"] = svc
			},
			wantField: "services.cache.authentication.db",
		},
		{
			name: "sql service without username",
			mutate: func(c *Config) {
				c.Services["db"] = ServiceConfig{Type: TypeMySQL, FQDN: "mysql", Port: 3306, CheckInterval: DefaultCheckInterval, Timeout: DefaultCheckTimeout}
			},
			wantField: "services.db.authentication.username",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}

			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error for field %q, got %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := single.Error(); got != "configuration validation failed: a: bad" {
		t.Errorf("unexpected single error message: %q", got)
	}

	multi := ValidationError{Errors: []FieldError{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}}
	msg := multi.Error()
	if !strings.Contains(msg, "2 errors") || !strings.Contains(msg, "  - b: worse") {
		t.Errorf("unexpected multi error message: %q", msg)
	}
}
