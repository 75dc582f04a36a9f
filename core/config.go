package core

import (
	"strconv"
	"strings"
)

// Defaults match the native library's tuned values for the embedding run.
const (
	DefaultGPULayers   = 16
	DefaultBatchSize   = 1024
	DefaultContextSize = 2048
	DefaultThreads     = 1
	DefaultTokenBuffer = 2048
	DefaultRepeat      = 10
	DefaultWorkers     = 1
	DefaultPreview     = 5
	DefaultLogLevel    = "info"
)

// Config holds all configuration values for an embedding run.
type Config struct {
	// Model
	ModelPath   string `yaml:"model_path"`
	GPULayers   int    `yaml:"gpu_layers"`
	BatchSize   int    `yaml:"batch_size"`
	ContextSize int    `yaml:"context_size"`

	// Inference
	Threads     int `yaml:"threads"`
	TokenBuffer int `yaml:"token_buffer"` // capacity of each context's token buffer
	Repeat      int `yaml:"repeat"`       // evaluations per input file
	Workers     int `yaml:"workers"`      // contexts in the pool, and files embedded concurrently
	Preview     int `yaml:"preview"`      // vector components printed per run

	// Store (optional; empty disables persistence)
	StorePath  string `yaml:"store_path"`
	SkipCached bool   `yaml:"skip_cached"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
	DevMode  bool   `yaml:"dev_mode"`
}

// DefaultConfig returns a Config populated with defaults only.
func DefaultConfig() *Config {
	return &Config{
		GPULayers:   DefaultGPULayers,
		BatchSize:   DefaultBatchSize,
		ContextSize: DefaultContextSize,
		Threads:     DefaultThreads,
		TokenBuffer: DefaultTokenBuffer,
		Repeat:      DefaultRepeat,
		Workers:     DefaultWorkers,
		Preview:     DefaultPreview,
		LogLevel:    DefaultLogLevel,
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// at configPath and then environment variables. Command-line flags are
// applied by the caller on top of the result. The returned Config is not
// validated; call Validate once flags are merged.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if configPath != "" {
		if err := LoadConfigFile(configPath, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.ModelPath = GetEnvOrDefault("LLAMA_MODEL_PATH", c.ModelPath)
	c.StorePath = GetEnvOrDefault("EMBED_STORE_PATH", c.StorePath)
	c.LogLevel = GetEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.LogFile = GetEnvOrDefault("LOG_FILE", c.LogFile)

	ints := []struct {
		key string
		dst *int
	}{
		{"LLAMA_GPU_LAYERS", &c.GPULayers},
		{"LLAMA_BATCH_SIZE", &c.BatchSize},
		{"LLAMA_CONTEXT_SIZE", &c.ContextSize},
		{"LLAMA_THREADS", &c.Threads},
		{"EMBED_TOKEN_BUFFER", &c.TokenBuffer},
		{"EMBED_REPEAT", &c.Repeat},
		{"EMBED_WORKERS", &c.Workers},
		{"EMBED_PREVIEW", &c.Preview},
	}
	for _, f := range ints {
		v, ok, err := LookupIntEnv(f.key)
		if err != nil {
			return err
		}
		if ok {
			*f.dst = v
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"DEV_MODE", &c.DevMode},
		{"EMBED_SKIP_CACHED", &c.SkipCached},
	}
	for _, f := range bools {
		v, ok, err := LookupBoolEnv(f.key)
		if err != nil {
			return err
		}
		if ok {
			*f.dst = v
		}
	}
	return nil
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "warning": true,
	"error": true, "dpanic": true, "panic": true, "fatal": true,
}

// Validate checks the settings this program interprets itself. GPU layers,
// batch size and context size are handed to the native library unchanged
// and are rejected, if at all, when the model or context is created.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ModelPath) == "" {
		return ErrMissingConfig("LLAMA_MODEL_PATH", "model")
	}
	if c.Threads < 1 {
		return ErrInvalidValue("LLAMA_THREADS", c.Threads, "must be at least 1")
	}
	if c.TokenBuffer < 1 {
		return ErrInvalidValue("EMBED_TOKEN_BUFFER", c.TokenBuffer, "must be at least 1")
	}
	if c.Repeat < 1 {
		return ErrInvalidValue("EMBED_REPEAT", c.Repeat, "must be at least 1")
	}
	if c.Workers < 1 {
		return ErrInvalidValue("EMBED_WORKERS", c.Workers, "must be at least 1")
	}
	if c.Preview < 0 {
		return ErrInvalidValue("EMBED_PREVIEW", c.Preview, "must not be negative")
	}
	if c.SkipCached && c.StorePath == "" {
		return ErrInvalidValue("EMBED_SKIP_CACHED", c.SkipCached, "requires EMBED_STORE_PATH")
	}
	if !validLogLevels[strings.ToLower(strings.TrimSpace(c.LogLevel))] {
		return ErrInvalidValue("LOG_LEVEL", strconv.Quote(c.LogLevel), "expected debug, info, warn or error")
	}
	return nil
}

// StoreEnabled reports whether vectors are persisted.
func (c *Config) StoreEnabled() bool {
	return c.StorePath != ""
}
