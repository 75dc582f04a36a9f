package logging

import (
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation settings. Embedding runs log one line per repetition, so
// files stay small; these mostly bound long batch jobs.
const (
	DefaultMaxSizeMB  = 50
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 14
)

// FileWriterConfig holds rotation settings for the log file.
// Zero values use the defaults above.
type FileWriterConfig struct {
	// MaxSizeMB is the size in megabytes that triggers rotation.
	MaxSizeMB int

	// MaxBackups is the number of rotated files to keep.
	MaxBackups int

	// MaxAgeDays deletes rotated files older than this.
	MaxAgeDays int

	// NoCompress disables gzip of rotated files (compression is on by default).
	NoCompress bool
}

// NewFileWriter creates a rotating zapcore.WriteSyncer with default settings.
//
// Example:
//
//	writer := NewFileWriter("logs/llamaembed.log")
//	core := zapcore.NewCore(encoder, writer, level)
func NewFileWriter(path string) zapcore.WriteSyncer {
	return NewFileWriterWithConfig(path, FileWriterConfig{})
}

// NewFileWriterWithConfig creates a rotating zapcore.WriteSyncer backed by
// lumberjack. Zero fields in config are replaced by defaults.
func NewFileWriterWithConfig(path string, config FileWriterConfig) zapcore.WriteSyncer {
	cfg := withFileDefaults(config)

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   !cfg.NoCompress,
	})
}

// withFileDefaults fills in zero values with defaults.
func withFileDefaults(config FileWriterConfig) FileWriterConfig {
	if config.MaxSizeMB <= 0 {
		config.MaxSizeMB = DefaultMaxSizeMB
	}
	if config.MaxBackups <= 0 {
		config.MaxBackups = DefaultMaxBackups
	}
	if config.MaxAgeDays <= 0 {
		config.MaxAgeDays = DefaultMaxAgeDays
	}
	return config
}
