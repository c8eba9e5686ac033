// Package config provides configuration management for the navwatch dashboard.
package config

import (
	"fmt"
	"time"
)

// Database engines supported by the repository layer.
const (
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
)

// DefaultAPIKey is the placeholder secret shipped in the defaults.
const DefaultAPIKey = "your_secret_api_key_change_this_in_production"

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	API       APIConfig       `mapstructure:"api" validate:"required"`
	Dashboard DashboardConfig `mapstructure:"dashboard" validate:"required"`
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Secrets   SecretsConfig   `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name          string `mapstructure:"name" validate:"required"`
	Environment   string `mapstructure:"environment" validate:"required,environment"`
	LogLevel      string `mapstructure:"log_level" validate:"required,loglevel"`
	EnableLogging bool   `mapstructure:"enable_logging"`
}

// APIConfig represents the ingest API configuration
type APIConfig struct {
	Key       string  `mapstructure:"key" validate:"required"`
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst int     `mapstructure:"rate_burst" validate:"gte=1"`
}

// DashboardConfig represents display settings for the status page
type DashboardConfig struct {
	Title              string `mapstructure:"title" validate:"required"`
	RefreshInterval    int    `mapstructure:"refresh_interval" validate:"required,gt=0"`
	Timezone           string `mapstructure:"timezone" validate:"required,timezone"`
	SuccessThreshold   int    `mapstructure:"success_threshold" validate:"required,gt=0"`
	WarningThreshold   int    `mapstructure:"warning_threshold" validate:"required,gt=0"`
	NavDecimals        int    `mapstructure:"nav_decimals" validate:"gte=0,lte=8"`
	ThousandsSeparator string `mapstructure:"thousands_separator"`
	DecimalSeparator   string `mapstructure:"decimal_separator" validate:"required"`
}

// ServerConfig represents HTTP listener configuration
type ServerConfig struct {
	Host                string `mapstructure:"host"`
	Port                int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds" validate:"required,gt=0"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds" validate:"required,gt=0"`
	IdleTimeoutSeconds  int    `mapstructure:"idle_timeout_seconds" validate:"required,gt=0"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Engine              string `mapstructure:"engine" validate:"required,engine"`
	Path                string `mapstructure:"path"`
	Host                string `mapstructure:"host"`
	Port                int    `mapstructure:"port" validate:"min=0,max=65535"`
	Name                string `mapstructure:"name"`
	User                string `mapstructure:"user"`
	Password            string `mapstructure:"password"`
	SSLMode             string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections      int    `mapstructure:"max_connections" validate:"required,gt=0"`
	QueryTimeoutSeconds int    `mapstructure:"query_timeout_seconds" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// SecretsConfig controls the AWS Secrets Manager overlay
type SecretsConfig struct {
	AWSEnabled bool   `mapstructure:"aws_enabled"`
	Region     string `mapstructure:"region" validate:"required_if=AWSEnabled true"`
	SecretName string `mapstructure:"secret_name" validate:"required_if=AWSEnabled true"`
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ListenAddress returns the host:port the HTTP server binds to
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// QueryTimeout returns the bound applied to every datastore call
func (d DatabaseConfig) QueryTimeout() time.Duration {
	return time.Duration(d.QueryTimeoutSeconds) * time.Second
}

// Location resolves the configured display timezone.
func (d DashboardConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", d.Timezone, err)
	}
	return loc, nil
}
