package core

import (
	"os"
	"strconv"
	"strings"
)

// GetEnvOrDefault returns the value of an environment variable or a default value.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// LookupIntEnv reads an integer environment variable.
// ok is false when the variable is unset or empty; err is a *ConfigError
// when it is set but not an integer.
func LookupIntEnv(key string) (value int, ok bool, err error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false, nil
	}
	value, convErr := strconv.Atoi(raw)
	if convErr != nil {
		return 0, true, ErrInvalidValue(key, strconv.Quote(raw), "not an integer")
	}
	return value, true, nil
}

// LookupBoolEnv reads a boolean environment variable.
// Accepts case-insensitive: "true", "1", "yes", "on" and "false", "0", "no", "off".
func LookupBoolEnv(key string) (value bool, ok bool, err error) {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch raw {
	case "":
		return false, false, nil
	case "true", "1", "yes", "on":
		return true, true, nil
	case "false", "0", "no", "off":
		return false, true, nil
	default:
		return false, true, ErrInvalidValue(key, strconv.Quote(raw), "not a boolean")
	}
}
