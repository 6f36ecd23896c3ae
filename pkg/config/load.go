package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the DaemonSet mounts the general-healthcheck-conf ConfigMap.
const DefaultPath = "/config/conf.yml"

// EnvPrefix is the prefix of all environment variable overrides.
const EnvPrefix = "HEALTHCHECK_"

// envRef matches a value that is entirely an environment reference, e.g. "${REDIS_PASSWORD}".
var envRef = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, expands ${VAR} references, validates the
// configuration, and returns any errors. Environment variable overrides are
// not applied; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML, expands ${VAR} references and applies defaults.
// It does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	expandEnvRefs(&cfg)
	ApplyDefaults(&cfg)

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention HEALTHCHECK_SECTION_FIELD (e.g., HEALTHCHECK_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Expand ${VAR} references and apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// expandEnvRefs replaces ${VAR} values in host and credential fields.
// Only whole-value references are expanded so passwords containing '$' survive.
func expandEnvRefs(cfg *Config) {
	for name, svc := range cfg.Services {
		svc.FQDN = expandRef(svc.FQDN)
		svc.Authentication.Username = expandRef(svc.Authentication.Username)
		svc.Authentication.Password = expandRef(svc.Authentication.Password)
		svc.Authentication.DB = expandRef(svc.Authentication.DB)
		svc.Authentication.VHost = expandRef(svc.Authentication.VHost)
		cfg.Services[name] = svc
	}
	cfg.History.SQLite.Path = expandRef(cfg.History.SQLite.Path)
}

func expandRef(value string) string {
	m := envRef.FindStringSubmatch(value)
	if m == nil {
		return value
	}
	return os.Getenv(m[1])
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv(EnvPrefix + "SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv(EnvPrefix + "SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = Duration(d)
		}
	}

	// Telemetry overrides
	if val := os.Getenv(EnvPrefix + "TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}

	// History overrides
	if val := os.Getenv(EnvPrefix + "HISTORY_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.History.Enabled = b
		}
	}
	if val := os.Getenv(EnvPrefix + "HISTORY_BACKEND"); val != "" {
		cfg.History.Backend = val
	}
	if val := os.Getenv(EnvPrefix + "HISTORY_SQLITE_PATH"); val != "" {
		cfg.History.SQLite.Path = val
	}
	if val := os.Getenv(EnvPrefix + "HISTORY_SQLITE_DRIVER"); val != "" {
		cfg.History.SQLite.Driver = val
	}

	// Watch overrides
	if val := os.Getenv(EnvPrefix + "WATCH_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Watch.Enabled = b
		}
	}

	for name := range cfg.Services {
		applyServiceEnvOverrides(cfg, name)
	}
}

// applyServiceEnvOverrides applies credential overrides for one service.
// Service variables follow HEALTHCHECK_SERVICES_<NAME>_<FIELD> where NAME is
// the upper-cased service name with every non-alphanumeric rune replaced by '_'.
func applyServiceEnvOverrides(cfg *Config, name string) {
	svc := cfg.Services[name]
	prefix := EnvPrefix + "SERVICES_" + EnvName(name) + "_"

	if val := os.Getenv(prefix + "FQDN"); val != "" {
		svc.FQDN = val
	}
	if val := os.Getenv(prefix + "PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			svc.Port = i
		}
	}
	if val := os.Getenv(prefix + "USERNAME"); val != "" {
		svc.Authentication.Username = val
	}
	if val := os.Getenv(prefix + "PASSWORD"); val != "" {
		svc.Authentication.Password = val
	}

	cfg.Services[name] = svc
}

// EnvName converts a service name into its environment variable segment.
func EnvName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}
