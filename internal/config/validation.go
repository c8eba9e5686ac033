// Package config provides configuration management for the navwatch dashboard.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("timezone", validateTimezone)
	_ = v.RegisterValidation("engine", validateEngine)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateTimezone(fl validator.FieldLevel) bool {
	_, err := time.LoadLocation(fl.Field().String())
	return err == nil
}

func validateEngine(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case EngineSQLite, EnginePostgres:
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.Dashboard.WarningThreshold <= cfg.Dashboard.SuccessThreshold {
		return fmt.Errorf("dashboard warning_threshold (%d) must be greater than success_threshold (%d)",
			cfg.Dashboard.WarningThreshold, cfg.Dashboard.SuccessThreshold)
	}

	if cfg.Dashboard.ThousandsSeparator == cfg.Dashboard.DecimalSeparator {
		return fmt.Errorf("dashboard thousands_separator and decimal_separator must differ")
	}

	switch cfg.Database.Engine {
	case EngineSQLite:
		if strings.TrimSpace(cfg.Database.Path) == "" {
			return fmt.Errorf("database path is required for the sqlite engine")
		}
	case EnginePostgres:
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("database host, name and user are required for the postgres engine")
		}
		if cfg.Database.Port == 0 {
			return fmt.Errorf("database port is required for the postgres engine")
		}
	}

	if cfg.IsProduction() {
		if cfg.API.Key == DefaultAPIKey {
			return fmt.Errorf("production environment requires api.key to be changed from the default")
		}
		if cfg.Database.Engine == EnginePostgres && cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
		}
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.Namespace()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required", "required_if":
			fmt.Fprintf(&errMsg, "- Field '%s' is required\n", field)
		case "min", "max":
			fmt.Fprintf(&errMsg, "- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			fmt.Fprintf(&errMsg, "- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			fmt.Fprintf(&errMsg, "- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			fmt.Fprintf(&errMsg, "- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "timezone":
			fmt.Fprintf(&errMsg, "- Field '%s' must be an IANA timezone, got '%v'\n", field, value)
		case "engine":
			fmt.Fprintf(&errMsg, "- Field '%s' must be one of: sqlite, postgres\n", field)
		case "oneof":
			fmt.Fprintf(&errMsg, "- Field '%s' has invalid value '%v'\n", field, value)
		default:
			fmt.Fprintf(&errMsg, "- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg.String())
}
