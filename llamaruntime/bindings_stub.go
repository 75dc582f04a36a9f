//go:build !cgo || !llama

// Stub engine for builds without llama.cpp.
// Build with: go build -tags llama   (requires CGo and libllama)

package llamaruntime

import "unsafe"

// stubEngine reports llama.cpp defaults but refuses to load any model, so a
// Model or Context can never exist in a stub build.
type stubEngine struct{}

func newNativeEngine() engine {
	return stubEngine{}
}

func (stubEngine) defaultParams() Params {
	return Params{
		seed:        0xFFFFFFFF, // LLAMA_DEFAULT_SEED
		contextSize: 512,
		batchSize:   512,
		gpuLayers:   0,
		useMMap:     true,
	}
}

func (stubEngine) backendInit() {}

func (stubEngine) loadModel(string, Params) unsafe.Pointer { return nil }

func (stubEngine) freeModel(unsafe.Pointer) {}

func (stubEngine) modelType(unsafe.Pointer, []byte) int { return 0 }

func (stubEngine) newContext(unsafe.Pointer, Params) unsafe.Pointer { return nil }

func (stubEngine) freeContext(unsafe.Pointer) {}

func (stubEngine) tokenize(unsafe.Pointer, string, []Token, bool) int { return 0 }

func (stubEngine) eval(unsafe.Pointer, []Token, int, int) int { return -1 }

func (stubEngine) embeddingSize(unsafe.Pointer) int { return 0 }

func (stubEngine) embeddings(unsafe.Pointer) []float32 { return nil }

// NativeAvailable reports whether this binary links llama.cpp.
func NativeAvailable() bool { return false }
