// Package config handles subsystem configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"firestige.xyz/netkit/internal/core"
	"firestige.xyz/netkit/internal/log"
)

// Config is the top-level static configuration. Maps to the `netkit:` root
// key in YAML; env vars use the NETKIT_ prefix (e.g. NETKIT_LOG_LEVEL).
type Config struct {
	Buffers BuffersConfig `mapstructure:"buffers"`
	UDP     UDPConfig     `mapstructure:"udp"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     log.Config    `mapstructure:"log"`
}

// BuffersConfig sizes the three packet buffer pool tiers. Buffer sizes are
// fixed by the tier design (512/1500/9000); only the counts are tunable.
type BuffersConfig struct {
	SmallCount  int `mapstructure:"small_count"`
	MediumCount int `mapstructure:"medium_count"`
	LargeCount  int `mapstructure:"large_count"`
}

// UDPConfig contains transport layer settings.
type UDPConfig struct {
	// Bindings registered at bring-up, e.g. well-known service ports.
	Bindings []BindingConfig `mapstructure:"bindings"`
}

// BindingConfig describes one static binding. An empty address means the
// wildcard 0.0.0.0.
type BindingConfig struct {
	Address string `mapstructure:"address"`
	Port    uint16 `mapstructure:"port"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// configRoot is the wrapper matching the YAML structure `netkit: ...`.
type configRoot struct {
	Netkit Config `mapstructure:"netkit"`
}

// Load loads configuration from a YAML file, applying env overrides and
// defaults, then validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// The `netkit.` key prefix maps to NETKIT_ env vars via the replacer
	// (key "netkit.log.level" -> env "NETKIT_LOG_LEVEL").
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Netkit

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		// Defaults always unmarshal into the struct they were written for.
		panic(err)
	}
	return &root.Netkit
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("netkit.buffers.small_count", 512)
	v.SetDefault("netkit.buffers.medium_count", 1024)
	v.SetDefault("netkit.buffers.large_count", 256)

	v.SetDefault("netkit.metrics.enabled", true)
	v.SetDefault("netkit.metrics.listen", ":9092")
	v.SetDefault("netkit.metrics.path", "/metrics")

	v.SetDefault("netkit.log.level", "info")
	v.SetDefault("netkit.log.format", "text")
	v.SetDefault("netkit.log.file.enabled", false)
	v.SetDefault("netkit.log.file.path", "/var/log/netkit/netkit.log")
	v.SetDefault("netkit.log.file.max_size_mb", 100)
	v.SetDefault("netkit.log.file.max_age_days", 30)
	v.SetDefault("netkit.log.file.max_backups", 5)
	v.SetDefault("netkit.log.file.compress", true)
}

// Validate checks field ranges. Pool count clamping happens later in the
// buffer layer; here we only reject values that cannot mean anything.
func (cfg *Config) Validate() error {
	if cfg.Buffers.SmallCount < 0 || cfg.Buffers.MediumCount < 0 || cfg.Buffers.LargeCount < 0 {
		return fmt.Errorf("buffer counts must be non-negative")
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be trace/debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be text/json)", cfg.Log.Format)
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		return fmt.Errorf("metrics.listen is required when metrics.enabled=true")
	}

	for _, b := range cfg.UDP.Bindings {
		if b.Port == 0 {
			return fmt.Errorf("udp binding port must be non-zero")
		}
		if b.Address != "" {
			if _, err := core.ParseIPv4(b.Address); err != nil {
				return fmt.Errorf("invalid udp binding address %q", b.Address)
			}
		}
	}
	return nil
}
