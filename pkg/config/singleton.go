package config

import (
	"fmt"
	"sync/atomic"
)

// current is the configuration the running exporter was last given, either
// at startup or by a successful reload.
var current atomic.Pointer[Config]

// GetConfig returns the active configuration, or nil before SetConfig or a
// successful ReloadConfig.
func GetConfig() *Config {
	return current.Load()
}

// SetConfig replaces the active configuration.
func SetConfig(cfg *Config) {
	current.Store(cfg)
}

// ReloadConfig loads path with environment overrides and makes it the active
// configuration. A config that fails to load or validate leaves the active
// one in place.
func ReloadConfig(path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}
	current.Store(cfg)
	return cfg, nil
}
