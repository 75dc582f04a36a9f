package core

import (
	"errors"
	"fmt"
)

// ConfigError represents a configuration-related error with actionable instructions.
type ConfigError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
	Action  string // Actionable instruction for resolution
}

func (e *ConfigError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// Error codes for configuration errors
const (
	ErrCodeMissingConfig = "MISSING_CONFIG"
	ErrCodeInvalidValue  = "INVALID_VALUE"
	ErrCodeConfigFile    = "CONFIG_FILE"
	ErrCodeModelNotFound = "MODEL_NOT_FOUND"
	ErrCodeInvalidModel  = "INVALID_MODEL"
	ErrCodeNoInputs      = "NO_INPUTS"
)

// ErrMissingConfig returns an error for missing required configuration
func ErrMissingConfig(varName, flag string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeMissingConfig,
		Message: fmt.Sprintf("Missing required configuration: %s", varName),
		Action:  fmt.Sprintf("Set %s in your .env file or pass --%s", varName, flag),
	}
}

// ErrInvalidValue returns an error for a setting that failed to parse or is out of range.
func ErrInvalidValue(varName string, value interface{}, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidValue,
		Message: fmt.Sprintf("Invalid %s %v: %s", varName, value, reason),
		Action:  fmt.Sprintf("Fix %s in your .env file, config file or flags", varName),
	}
}

// ErrConfigFile returns an error for an unreadable or malformed YAML config file.
func ErrConfigFile(path string, err error) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeConfigFile,
		Message: fmt.Sprintf("Cannot read config file %s: %v", path, err),
		Action:  "Check the path passed to --config and that the file is valid YAML",
	}
}

// ErrModelNotFound returns an error when the model file does not exist.
func ErrModelNotFound(path string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeModelNotFound,
		Message: fmt.Sprintf("Model file not found: %s", path),
		Action:  "Set LLAMA_MODEL_PATH to a local .gguf file",
	}
}

// ErrInvalidModel returns an error when the model file exists but is not usable GGUF.
func ErrInvalidModel(path string, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidModel,
		Message: fmt.Sprintf("Model file %s is not a usable GGUF model: %s", path, reason),
		Action:  "Convert the model to GGUF with llama.cpp's convert script, or pick another file",
	}
}

// ErrNoInputs returns an error when no input files were given.
func ErrNoInputs() *ConfigError {
	return &ConfigError{
		Code:    ErrCodeNoInputs,
		Message: "No input files given",
		Action:  "Pass one or more text or PDF files after the flags",
	}
}

// IsConfigError reports whether err wraps a ConfigError and returns it if so.
func IsConfigError(err error) (*ConfigError, bool) {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error if it's a ConfigError
func GetErrorCode(err error) string {
	if configErr, ok := IsConfigError(err); ok {
		return configErr.Code
	}
	return ""
}
