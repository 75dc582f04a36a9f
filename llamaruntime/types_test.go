package llamaruntime

import (
	"testing"
	"unsafe"
)

// =============================================================================
// Constants Tests
// =============================================================================

func TestDefaultConstants(t *testing.T) {
	tests := []struct {
		name string
		got  int
		want int
	}{
		{"DefaultContextSize", DefaultContextSize, 2048},
		{"DefaultBatchSize", DefaultBatchSize, 1024},
		{"DefaultNumGPULayers", DefaultNumGPULayers, 16},
		{"DefaultNumThreads", DefaultNumThreads, 1},
		{"DefaultTokenBufferSize", DefaultTokenBufferSize, 2048},
		{"ModelTypeBufferSize", ModelTypeBufferSize, 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
			}
		})
	}

	if DefaultBatchSize > DefaultContextSize {
		t.Errorf("DefaultBatchSize %d exceeds DefaultContextSize %d", DefaultBatchSize, DefaultContextSize)
	}
}

func TestTokenWidth(t *testing.T) {
	// token buffers are handed to C as llama_token (int32_t) arrays
	if size := unsafe.Sizeof(Token(0)); size != 4 {
		t.Errorf("Token is %d bytes, want 4", size)
	}
}
