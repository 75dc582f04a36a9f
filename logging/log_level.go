package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// ParseLogLevelString parses a level name (debug, info, warn, warning,
// error, fatal; case-insensitive), falling back to defaultLevel for
// anything else.
func ParseLogLevelString(levelStr string, defaultLevel zapcore.Level) zapcore.Level {
	level, err := parseLevelStrict(levelStr)
	if err != nil {
		return defaultLevel
	}
	return level
}

// parseLevelStrict is ParseLogLevelString without the fallback.
func parseLevelStrict(levelStr string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q (want debug, info, warn, error or fatal)", levelStr)
	}
}

// ValidLevel reports whether levelStr names a supported level.
func ValidLevel(levelStr string) bool {
	_, err := parseLevelStrict(levelStr)
	return err == nil
}
