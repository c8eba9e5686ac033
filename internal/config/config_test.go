// Package config provides configuration management for the navwatch dashboard.
package config

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

const (
	validConfigPath       = "testdata/valid_config.yaml"
	partialConfigPath     = "testdata/partial_config.yaml"
	malformedConfigPath   = "testdata/malformed_config.yaml"
	nonexistentConfigPath = "testdata/nonexistent_config.yaml"
	expectedNoErrorMsg    = "expected no error, got %v"
	expectedNonNilConfig  = "expected non-nil config"
	testDBPassword        = "TEST_DB_PASSWORD"
	expandedSecretValue   = "expanded_secret_value"
)

func mustLoad(t *testing.T, path string) *Config {
	t.Helper()
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	if cfg == nil {
		t.Fatal(expectedNonNilConfig)
	}
	return cfg
}

// TestLoadConfigSuccess tests loading a valid configuration file
func TestLoadConfigSuccess(t *testing.T) {
	cfg := mustLoad(t, validConfigPath)

	if cfg.API.Key != "test-secret-key" {
		t.Errorf("expected api key 'test-secret-key', got '%s'", cfg.API.Key)
	}
	if cfg.Database.Engine != EnginePostgres {
		t.Errorf("expected engine '%s', got '%s'", EnginePostgres, cfg.Database.Engine)
	}
	if cfg.Dashboard.RefreshInterval != 30 {
		t.Errorf("expected refresh interval 30, got %d", cfg.Dashboard.RefreshInterval)
	}
	if cfg.Database.QueryTimeout().Seconds() != 3 {
		t.Errorf("expected query timeout 3s, got %v", cfg.Database.QueryTimeout())
	}
}

// TestLoadDefaultsWithoutFile tests that an absent default file falls back to defaults
func TestLoadDefaultsWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg := mustLoad(t, "")

	if cfg.API.Key != DefaultAPIKey {
		t.Errorf("expected default api key, got '%s'", cfg.API.Key)
	}
	if cfg.Dashboard.Title != "Hummingbot Strategy Monitor" {
		t.Errorf("unexpected default title '%s'", cfg.Dashboard.Title)
	}
	if cfg.Dashboard.Timezone != "Europe/Vienna" {
		t.Errorf("unexpected default timezone '%s'", cfg.Dashboard.Timezone)
	}
	if cfg.Dashboard.SuccessThreshold != 5 || cfg.Dashboard.WarningThreshold != 15 {
		t.Errorf("unexpected default thresholds %d/%d", cfg.Dashboard.SuccessThreshold, cfg.Dashboard.WarningThreshold)
	}
	if cfg.Dashboard.NavDecimals != 4 {
		t.Errorf("expected 4 nav decimals, got %d", cfg.Dashboard.NavDecimals)
	}
	if cfg.Database.Engine != EngineSQLite {
		t.Errorf("expected default engine sqlite, got '%s'", cfg.Database.Engine)
	}
	if !cfg.App.EnableLogging {
		t.Error("expected logging to be enabled by default")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

// TestLoadPartialConfigKeepsDefaults tests that unspecified keys keep their defaults
func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	cfg := mustLoad(t, partialConfigPath)

	if cfg.Dashboard.Title != "Partial Monitor" {
		t.Errorf("expected title from file, got '%s'", cfg.Dashboard.Title)
	}
	if cfg.Dashboard.NavDecimals != 2 {
		t.Errorf("expected 2 decimals from file, got %d", cfg.Dashboard.NavDecimals)
	}
	if cfg.Dashboard.RefreshInterval != 60 {
		t.Errorf("expected default refresh interval, got %d", cfg.Dashboard.RefreshInterval)
	}
}

// TestLoadConfigFileNotFound tests handling of missing configuration file
func TestLoadConfigFileNotFound(t *testing.T) {
	if _, err := Load(nonexistentConfigPath); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// TestLoadConfigMalformed tests handling of unparsable YAML
func TestLoadConfigMalformed(t *testing.T) {
	if _, err := Load(malformedConfigPath); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

// TestLoadConfigEnvironmentVariables tests environment variable override
func TestLoadConfigEnvironmentVariables(t *testing.T) {
	t.Setenv("NAVWATCH_API_KEY", "from-env")
	t.Setenv("NAVWATCH_DASHBOARD_TIMEZONE", "UTC")
	t.Setenv("NAVWATCH_APP_ENABLE_LOGGING", "false")

	cfg := mustLoad(t, validConfigPath)

	if cfg.API.Key != "from-env" {
		t.Errorf("expected api key from environment, got '%s'", cfg.API.Key)
	}
	if cfg.Dashboard.Timezone != "UTC" {
		t.Errorf("expected timezone from environment, got '%s'", cfg.Dashboard.Timezone)
	}
	if cfg.App.EnableLogging {
		t.Error("expected logging disabled from environment")
	}
}

// TestLoadConfigExpansion tests ${VAR} placeholders in the YAML file
func TestLoadConfigExpansion(t *testing.T) {
	t.Setenv(testDBPassword, expandedSecretValue)

	cfg := mustLoad(t, validConfigPath)

	if cfg.Database.Password != expandedSecretValue {
		t.Errorf("expected expanded password '%s', got '%s'", expandedSecretValue, cfg.Database.Password)
	}
	if !strings.Contains(cfg.GetDatabaseDSN(), expandedSecretValue) {
		t.Errorf("expected DSN to contain expanded password, got %s", cfg.GetDatabaseDSN())
	}
}

// TestValidateSuccess tests validation of a valid configuration
func TestValidateSuccess(t *testing.T) {
	cfg := mustLoad(t, validConfigPath)
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected no validation error, got %v", err)
	}
}

// TestValidateRejections tests individual validation failures
func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"invalid environment", func(c *Config) { c.App.Environment = "invalid" }, "development, staging, production"},
		{"invalid log level", func(c *Config) { c.App.LogLevel = "verbose" }, "debug, info, warn, error"},
		{"invalid timezone", func(c *Config) { c.Dashboard.Timezone = "Mars/Olympus" }, "IANA timezone"},
		{"invalid engine", func(c *Config) { c.Database.Engine = "mysql" }, "sqlite, postgres"},
		{"warning not above success", func(c *Config) { c.Dashboard.WarningThreshold = 5 }, "warning_threshold"},
		{"same separators", func(c *Config) { c.Dashboard.ThousandsSeparator = "," }, "must differ"},
		{"too many decimals", func(c *Config) { c.Dashboard.NavDecimals = 12 }, "NavDecimals"},
		{"missing api key", func(c *Config) { c.API.Key = "" }, "Key"},
		{"sqlite without path", func(c *Config) {
			c.Database.Engine = EngineSQLite
			c.Database.Path = " "
		}, "path is required"},
		{"production default key", func(c *Config) {
			c.App.Environment = "production"
			c.API.Key = DefaultAPIKey
			c.Database.SSLMode = "require"
		}, "api.key"},
		{"production without ssl", func(c *Config) { c.App.Environment = "production" }, "SSL mode"},
		{"aws without region", func(c *Config) {
			c.Secrets.AWSEnabled = true
			c.Secrets.SecretName = "navwatch"
		}, "Region"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mustLoad(t, validConfigPath)
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

type fakeSecrets struct {
	output *secretsmanager.GetSecretValueOutput
	err    error
	gotID  string
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.gotID = aws.ToString(in.SecretId)
	return f.output, f.err
}

// TestApplySecrets tests overlaying secrets onto the configuration
func TestApplySecrets(t *testing.T) {
	cfg := mustLoad(t, validConfigPath)
	cfg.Secrets.SecretName = "navwatch/prod"

	client := &fakeSecrets{output: &secretsmanager.GetSecretValueOutput{
		SecretString: aws.String(`{"api_key":"vault-key","database_password":"vault-pass"}`),
	}}

	if err := ApplySecrets(context.Background(), client, cfg); err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	if client.gotID != "navwatch/prod" {
		t.Errorf("expected secret id navwatch/prod, got %s", client.gotID)
	}
	if cfg.API.Key != "vault-key" || cfg.Database.Password != "vault-pass" {
		t.Errorf("secrets not applied: key=%s password=%s", cfg.API.Key, cfg.Database.Password)
	}
}

// TestApplySecretsPartialOverlay tests that empty secret fields leave config untouched
func TestApplySecretsPartialOverlay(t *testing.T) {
	cfg := mustLoad(t, validConfigPath)

	client := &fakeSecrets{output: &secretsmanager.GetSecretValueOutput{
		SecretBinary: []byte(`{"api_key":"binary-key"}`),
	}}

	if err := ApplySecrets(context.Background(), client, cfg); err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	if cfg.API.Key != "binary-key" {
		t.Errorf("expected binary-key, got %s", cfg.API.Key)
	}
	if cfg.Database.Password == "binary-key" {
		t.Error("database password must not be overwritten")
	}
}

// TestApplySecretsErrors tests failure propagation
func TestApplySecretsErrors(t *testing.T) {
	cfg := mustLoad(t, validConfigPath)

	if err := ApplySecrets(context.Background(), &fakeSecrets{err: errors.New("denied")}, cfg); err == nil {
		t.Error("expected error from failing client")
	}
	if err := ApplySecrets(context.Background(), &fakeSecrets{output: &secretsmanager.GetSecretValueOutput{}}, cfg); err == nil {
		t.Error("expected error for empty secret")
	}
	bad := &fakeSecrets{output: &secretsmanager.GetSecretValueOutput{SecretString: aws.String("not json")}}
	if err := ApplySecrets(context.Background(), bad, cfg); err == nil {
		t.Error("expected error for malformed secret")
	}
}
