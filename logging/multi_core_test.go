package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewMultiCore_Development(t *testing.T) {
	var consoleBuf, fileBuf bytes.Buffer

	core := NewMultiCore(zapcore.InfoLevel, zapcore.AddSync(&consoleBuf), zapcore.AddSync(&fileBuf), true)
	logger := zap.New(core)
	logger.Info("test message", zap.String("key", "value"))
	_ = logger.Sync()

	// console is human-readable, not JSON
	var probe map[string]interface{}
	if json.Unmarshal(consoleBuf.Bytes(), &probe) == nil {
		t.Errorf("development console output should not be JSON: %s", consoleBuf.String())
	}
	if !strings.Contains(consoleBuf.String(), "test message") {
		t.Errorf("console output missing message: %s", consoleBuf.String())
	}

	// file is always JSON
	if err := json.Unmarshal(fileBuf.Bytes(), &probe); err != nil {
		t.Errorf("file output is not JSON: %v\n%s", err, fileBuf.String())
	}
}

func TestNewMultiCore_Production(t *testing.T) {
	var consoleBuf, fileBuf bytes.Buffer

	core := NewMultiCore(zapcore.InfoLevel, zapcore.AddSync(&consoleBuf), zapcore.AddSync(&fileBuf), false)
	logger := zap.New(core)
	logger.Info("test message", zap.Duration("took", 1500*time.Millisecond))
	_ = logger.Sync()

	for name, buf := range map[string]*bytes.Buffer{"console": &consoleBuf, "file": &fileBuf} {
		var entry map[string]interface{}
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("%s output is not JSON: %v", name, err)
		}
		if entry["took"] != float64(1500) {
			t.Errorf("%s duration = %v, want 1500 (ms)", name, entry["took"])
		}
		for _, key := range []string{FieldTimestamp, FieldLevel, FieldMessage} {
			if _, ok := entry[key]; !ok {
				t.Errorf("%s entry missing %q", name, key)
			}
		}
	}
}

func TestNewMultiCore_ConsoleOnly(t *testing.T) {
	var consoleBuf bytes.Buffer

	core := NewMultiCore(zapcore.InfoLevel, zapcore.AddSync(&consoleBuf), nil, false)
	zap.New(core).Info("only console")

	if !strings.Contains(consoleBuf.String(), "only console") {
		t.Errorf("console output missing message: %s", consoleBuf.String())
	}
}

func TestNewConsoleEncoderConfig(t *testing.T) {
	cfg := NewConsoleEncoderConfig()
	if cfg.MessageKey != FieldMessage || cfg.LevelKey != FieldLevel {
		t.Errorf("console config keys differ from JSON config: %+v", cfg)
	}
	if cfg.EncodeTime == nil || cfg.EncodeLevel == nil {
		t.Error("console config missing encoders")
	}
}
