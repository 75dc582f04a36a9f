package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EmbeddingMetrics describes one pipeline run over one input.
// Implements zapcore.ObjectMarshaler for structured logging.
//
// Example:
//
//	logger.Info("embedding complete", logging.EmbeddingFields(logging.EmbeddingMetrics{
//		Source:     "notes.txt",
//		Repetition: 3,
//		Tokens:     412,
//		Dimensions: 4096,
//		Duration:   180 * time.Millisecond,
//	}))
type EmbeddingMetrics struct {
	// Source names the input, usually a file path.
	Source string `json:"source"`

	// Repetition is the 1-based repeat index within a timing run.
	Repetition int `json:"repetition"`

	// Tokens is the number of tokens evaluated.
	Tokens int `json:"tokens"`

	// Dimensions is the embedding vector length.
	Dimensions int `json:"dimensions"`

	// Duration covers tokenize, eval and the embeddings read.
	Duration time.Duration `json:"duration"`

	// Cached is set when the vector came from the store instead of the model.
	Cached bool `json:"cached"`
}

// TokensPerSecond returns evaluation throughput, or 0 for a zero duration.
func (m EmbeddingMetrics) TokensPerSecond() float64 {
	if m.Duration <= 0 {
		return 0
	}
	return float64(m.Tokens) / m.Duration.Seconds()
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (m EmbeddingMetrics) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("source", m.Source)
	if m.Repetition > 0 {
		enc.AddInt("repetition", m.Repetition)
	}
	enc.AddInt("tokens", m.Tokens)
	enc.AddInt("dimensions", m.Dimensions)
	enc.AddInt64("duration_ms", m.Duration.Milliseconds())
	enc.AddFloat64("tokens_per_second", m.TokensPerSecond())
	if m.Cached {
		enc.AddBool("cached", true)
	}
	return nil
}

// EmbeddingFields wraps metrics as a single "embedding" field.
func EmbeddingFields(metrics EmbeddingMetrics) zap.Field {
	return zap.Object("embedding", metrics)
}

// ModelInfo is what gets logged about a loaded model.
type ModelInfo struct {
	Path        string
	Type        string
	SizeBytes   int64
	GPULayers   int
	ContextSize int
	BatchSize   int
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (m ModelInfo) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("path", m.Path)
	enc.AddString("type", m.Type)
	enc.AddInt64("size_bytes", m.SizeBytes)
	enc.AddInt("gpu_layers", m.GPULayers)
	enc.AddInt("n_ctx", m.ContextSize)
	enc.AddInt("n_batch", m.BatchSize)
	return nil
}

// ModelFields wraps info as a single "model" field.
func ModelFields(info ModelInfo) zap.Field {
	return zap.Object("model", info)
}

// TimingFields returns start, end and duration fields for an operation.
func TimingFields(startTime, endTime time.Time) []zap.Field {
	return []zap.Field{
		zap.Time("start_time", startTime),
		zap.Time("end_time", endTime),
		zap.Duration("duration", endTime.Sub(startTime)),
	}
}
