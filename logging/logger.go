package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with the project's output layout and keeps raw
// input text out of the logs.
//
// This composes:
//   - FileWriter (log file rotation via lumberjack)
//   - MultiCore (tee output to console + file)
//   - ContentFilter (input text replaced by a size summary)
//
// Example:
//
//	logger, err := NewLogger(Options{Development: true, FilePath: "llamaembed.log"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("model loaded", zap.String("path", path))
type Logger struct {
	zap *zap.Logger

	isDevelopment bool
	logFilePath   string
}

// Options configures NewLogger. The zero value logs info and above as JSON
// to stderr only.
type Options struct {
	// Level is parsed with ParseLogLevelString. Empty means debug in
	// development mode and info otherwise.
	Level string

	// Development selects colored console output.
	Development bool

	// FilePath enables a rotated JSON log file when non-empty.
	FilePath string

	// File tunes rotation of FilePath. Zero fields use defaults.
	File FileWriterConfig
}

// NewLogger creates a Logger from opts.
//
// Console output goes to stderr so stdout stays free for embedding reports.
// If FilePath is set, the directory must be writable; the file itself is
// created on the first write.
func NewLogger(opts Options) (*Logger, error) {
	level := defaultLevel(opts.Development)
	if opts.Level != "" {
		parsed, err := parseLevelStrict(opts.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	var fileWriter zapcore.WriteSyncer
	if opts.FilePath != "" {
		if err := checkLogDir(opts.FilePath); err != nil {
			return nil, err
		}
		fileWriter = NewFileWriterWithConfig(opts.FilePath, withFileDefaults(opts.File))
	}

	core := NewMultiCore(level, zapcore.Lock(os.Stderr), fileWriter, opts.Development)
	return newLogger(core, opts.Development, opts.FilePath), nil
}

// NewLoggerWithWriters builds a Logger on explicit writers. fileWriter may
// be nil. Tests use it to capture output.
func NewLoggerWithWriters(level zapcore.Level, consoleWriter, fileWriter zapcore.WriteSyncer, isDevelopment bool) *Logger {
	return newLogger(NewMultiCore(level, consoleWriter, fileWriter, isDevelopment), isDevelopment, "")
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	z := zap.NewNop()
	return &Logger{zap: z}
}

func newLogger(core zapcore.Core, isDevelopment bool, path string) *Logger {
	zapLogger := zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1), // Skip this wrapper layer
	)
	return &Logger{
		zap:           zapLogger,
		isDevelopment: isDevelopment,
		logFilePath:   path,
	}
}

func defaultLevel(isDevelopment bool) zapcore.Level {
	if isDevelopment {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

func checkLogDir(path string) error {
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("log directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("log directory %s is not a directory", dir)
	}
	return nil
}

// Sync flushes any buffered log entries.
// Applications should call Sync before exiting to ensure all logs are written.
func (l *Logger) Sync() error {
	if l == nil || l.zap == nil {
		return nil
	}
	return l.zap.Sync()
}

// Debug logs a message at DebugLevel with optional structured fields.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, l.filterFields(fields)...)
}

// Info logs a message at InfoLevel with optional structured fields.
//
// Example:
//
//	logger.Info("context created",
//	    zap.Int("n_ctx", 2048),
//	    zap.Int("n_batch", 1024))
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, l.filterFields(fields)...)
}

// Warn logs a message at WarnLevel with optional structured fields.
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, l.filterFields(fields)...)
}

// Error logs a message at ErrorLevel with optional structured fields.
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.Error(msg, l.filterFields(fields)...)
}

// Fatal logs a message at FatalLevel then calls os.Exit(1).
func (l *Logger) Fatal(msg string, fields ...zap.Field) {
	l.zap.Fatal(msg, l.filterFields(fields)...)
}

// With creates a child logger with additional fields that will be included
// in all log entries from the child.
//
// Example:
//
//	runLogger := logger.With(zap.String("run_id", runID))
func (l *Logger) With(fields ...zap.Field) *Logger {
	newZap := l.zap.With(l.filterFields(fields)...)
	return &Logger{
		zap:           newZap,
		isDevelopment: l.isDevelopment,
		logFilePath:   l.logFilePath,
	}
}

// Named adds a sub-logger name, e.g. "runtime" or "store".
func (l *Logger) Named(name string) *Logger {
	newZap := l.zap.Named(name)
	return &Logger{
		zap:           newZap,
		isDevelopment: l.isDevelopment,
		logFilePath:   l.logFilePath,
	}
}

// Zap returns the underlying zap.Logger.
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

// IsDevelopment returns true if the logger is configured for development mode.
func (l *Logger) IsDevelopment() bool {
	return l.isDevelopment
}

// LogFilePath returns the path to the log file, or "" for console only.
func (l *Logger) LogFilePath() string {
	return l.logFilePath
}

func (l *Logger) filterFields(fields []zap.Field) []zap.Field {
	if len(fields) == 0 {
		return fields
	}

	result := make([]zap.Field, len(fields))
	for i, field := range fields {
		result[i] = l.filterField(field)
	}
	return result
}

func (l *Logger) filterField(field zap.Field) zap.Field {
	if IsContentField(field.Key) && field.Type == zapcore.StringType {
		return zap.String(field.Key, SummarizeContent(field.String, l.isDevelopment))
	}
	return field
}
