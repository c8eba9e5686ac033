// Package config provides configuration management for the navwatch dashboard.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "NAVWATCH"

// DefaultConfigPath is read when no explicit path is given; it may be absent.
const DefaultConfigPath = "config/config.yaml"

// Load builds the configuration from defaults, an optional YAML file and
// NAVWATCH_* environment variables, in increasing order of precedence.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
// An explicitly requested file must exist; the default path may be missing.
func Load(configPath string) (*Config, error) {
	v := newViper()

	required := configPath != ""
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err) && !required:
		// defaults and environment only
	case os.IsNotExist(err):
		return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	// Set environment variable prefix
	v.SetEnvPrefix(EnvPrefix)

	// Enable automatic binding of environment variables
	v.AutomaticEnv()

	// Replace dots with underscores in environment variable names
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	return v
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "navwatch")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.enable_logging", true)

	v.SetDefault("api.key", DefaultAPIKey)
	v.SetDefault("api.rate_limit", 5.0)
	v.SetDefault("api.rate_burst", 10)

	v.SetDefault("dashboard.title", "Hummingbot Strategy Monitor")
	v.SetDefault("dashboard.refresh_interval", 60)
	v.SetDefault("dashboard.timezone", "Europe/Vienna")
	v.SetDefault("dashboard.success_threshold", 5)
	v.SetDefault("dashboard.warning_threshold", 15)
	v.SetDefault("dashboard.nav_decimals", 4)
	v.SetDefault("dashboard.thousands_separator", ".")
	v.SetDefault("dashboard.decimal_separator", ",")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout_seconds", 5)
	v.SetDefault("server.write_timeout_seconds", 10)
	v.SetDefault("server.idle_timeout_seconds", 60)

	v.SetDefault("database.engine", EngineSQLite)
	v.SetDefault("database.path", "data/database.sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "navwatch")
	v.SetDefault("database.user", "navwatch")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.query_timeout_seconds", 5)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("secrets.aws_enabled", false)
	v.SetDefault("secrets.region", "")
	v.SetDefault("secrets.secret_name", "")
}
