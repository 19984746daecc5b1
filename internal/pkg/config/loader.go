package config

import (
	"fmt"
	"os"
	"time"
)

// ConfigLoadResult is what every LoadEnv* function returns: the effective
// value, any warnings produced while loading, and whether the default was
// substituted for a bad environment value. Loaders never fail; a value that
// does not parse or validate becomes the default plus a warning, so a typo
// in deployment config degrades the setting instead of stopping the server.
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

func useValue(v interface{}) ConfigLoadResult {
	return ConfigLoadResult{Value: v}
}

func useDefault(def interface{}, warning string) ConfigLoadResult {
	return ConfigLoadResult{
		Value:           def,
		Warnings:        []string{warning},
		FallbackApplied: true,
	}
}

// LoadEnvString reads envKey, returning defaultValue when unset. No
// validation; use LoadEnvWithFallback when the value needs checking.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback reads a string from envKey and runs it through
// validator (nil skips validation). An unset variable returns the default
// silently; a value that fails validation returns the default with a
// warning.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return useValue(defaultValue)
	}

	if validator != nil {
		if err := validator(value); err != nil {
			return useDefault(defaultValue, fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%s'",
				envKey, value, err, defaultValue,
			))
		}
	}

	return useValue(value)
}

// LoadEnvDuration reads a Go duration string ("30s", "1h30m") from envKey,
// then validates it. Parse and validation failures both fall back to the
// default with a warning.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	valueStr := os.Getenv(envKey)
	if valueStr == "" {
		return useValue(defaultValue)
	}

	parsed, err := time.ParseDuration(valueStr)
	if err != nil {
		return useDefault(defaultValue, fmt.Sprintf(
			"Invalid %s='%s': %v, falling back to default '%v'",
			envKey, valueStr, err, defaultValue,
		))
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return useDefault(defaultValue, fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%v'",
				envKey, valueStr, err, defaultValue,
			))
		}
	}

	return useValue(parsed)
}

// LoadEnvInt reads an integer from envKey, then validates it. Parse and
// validation failures both fall back to the default with a warning.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	valueStr := os.Getenv(envKey)
	if valueStr == "" {
		return useValue(defaultValue)
	}

	var parsed int
	if _, err := fmt.Sscanf(valueStr, "%d", &parsed); err != nil {
		return useDefault(defaultValue, fmt.Sprintf(
			"Invalid %s='%s': invalid integer format, falling back to default '%d'",
			envKey, valueStr, defaultValue,
		))
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return useDefault(defaultValue, fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%d'",
				envKey, valueStr, err, defaultValue,
			))
		}
	}

	return useValue(parsed)
}

// LoadEnvBool reads a boolean from envKey, accepting the strconv.ParseBool
// spellings ("1", "t", "true" and their variants). Anything else falls back
// to the default with a warning.
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	valueStr := os.Getenv(envKey)
	if valueStr == "" {
		return useValue(defaultValue)
	}

	switch valueStr {
	case "1", "t", "T", "true", "TRUE", "True":
		return useValue(true)
	case "0", "f", "F", "false", "FALSE", "False":
		return useValue(false)
	default:
		return useDefault(defaultValue, fmt.Sprintf(
			"Invalid %s='%s': invalid boolean format, expected 'true' or 'false', falling back to default '%t'",
			envKey, valueStr, defaultValue,
		))
	}
}
