// Package config provides reusable helpers for loading configuration from
// environment variables with validation and fail-open fallback to defaults.
// A value that fails to parse or validate never aborts startup: the default
// is applied and a warning is surfaced to the caller for logging.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ConfigLoadResult is the outcome of loading a single configuration value.
// Value holds the loaded value (or the default when a fallback was applied);
// Warnings carries one message per fallback for the caller to log.
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvString reads a string from the environment without validation,
// returning the default when the variable is unset or empty.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback reads a string from the environment and validates it.
// An unset variable silently yields the default; a set-but-invalid value
// yields the default with a warning and FallbackApplied set.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	if validator != nil {
		if err := validator(value); err != nil {
			return fallbackResult(envKey, value, err, defaultValue)
		}
	}

	return ConfigLoadResult{Value: value}
}

// LoadEnvDuration reads a Go duration string ("30s", "1h30m") from the
// environment, with the same fallback behavior as LoadEnvWithFallback.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	valueStr := os.Getenv(envKey)
	if valueStr == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	parsed, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallbackResult(envKey, valueStr, err, defaultValue)
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(envKey, valueStr, err, defaultValue)
		}
	}

	return ConfigLoadResult{Value: parsed}
}

// LoadEnvInt reads an integer from the environment, with the same fallback
// behavior as LoadEnvWithFallback.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	valueStr := os.Getenv(envKey)
	if valueStr == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	parsed, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallbackResult(envKey, valueStr, err, defaultValue)
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(envKey, valueStr, err, defaultValue)
		}
	}

	return ConfigLoadResult{Value: parsed}
}

// LoadEnvBool reads a boolean ("true"/"false") from the environment,
// returning the default for unset or unrecognized values.
func LoadEnvBool(envKey string, defaultValue bool) bool {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func fallbackResult(envKey, value string, err error, defaultValue interface{}) ConfigLoadResult {
	warning := fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'",
		envKey, value, err, defaultValue)
	return ConfigLoadResult{
		Value:           defaultValue,
		Warnings:        []string{warning},
		FallbackApplied: true,
	}
}
