//go:build cgo && llama

// Package llamaruntime provides Go bindings to llama.cpp for local embedding inference.
// This file contains CGo wrappers for the llama.cpp C API.
//
// Build Requirements:
//   - llama.cpp checked out (GGUF-era API: llama_eval, llama_model_type)
//   - Headers in deps/llama.cpp/ or system include path
//   - Library (libllama.a / libllama.so) in lib/ or system library path
//
// Build Tags:
//   - llama: links the real library (go build -tags llama)
//   - without it, bindings_stub.go is used and every Load fails

package llamaruntime

/*
#cgo CFLAGS: -I${SRCDIR}/../deps/llama.cpp -I${SRCDIR}/../deps/llama.cpp/include
#cgo LDFLAGS: -L${SRCDIR}/../lib -lllama -lm -lstdc++
#cgo linux LDFLAGS: -Wl,-rpath,${SRCDIR}/../lib -lpthread
#cgo darwin LDFLAGS: -framework Accelerate -framework Foundation -framework Metal -framework MetalKit

#include <stdlib.h>
#include <stdbool.h>
#include "llama.h"
*/
import "C"

import (
	"runtime"
	"unsafe"
)

type cgoEngine struct{}

func newNativeEngine() engine {
	return cgoEngine{}
}

// NativeAvailable reports whether this binary links llama.cpp.
func NativeAvailable() bool { return true }

// toC overlays the modelled fields on a fresh default struct, so any field
// Params does not expose keeps the engine default.
func toC(p Params) C.struct_llama_context_params {
	cp := C.llama_context_default_params()
	cp.seed = C.uint32_t(p.seed)
	cp.n_ctx = C.int32_t(p.contextSize)
	cp.n_batch = C.int32_t(p.batchSize)
	cp.n_gpu_layers = C.int32_t(p.gpuLayers)
	cp.embedding = C.bool(p.embedding)
	cp.use_mmap = C.bool(p.useMMap)
	cp.use_mlock = C.bool(p.useMlock)
	return cp
}

func (cgoEngine) defaultParams() Params {
	cp := C.llama_context_default_params()
	return Params{
		seed:        uint32(cp.seed),
		contextSize: int32(cp.n_ctx),
		batchSize:   int32(cp.n_batch),
		gpuLayers:   int32(cp.n_gpu_layers),
		embedding:   bool(cp.embedding),
		useMMap:     bool(cp.use_mmap),
		useMlock:    bool(cp.use_mlock),
	}
}

func (cgoEngine) backendInit() {
	C.llama_backend_init(C.bool(true)) // NUMA optimizations on
}

func (cgoEngine) loadModel(path string, params Params) unsafe.Pointer {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	return unsafe.Pointer(C.llama_load_model_from_file(cPath, toC(params)))
}

func (cgoEngine) freeModel(model unsafe.Pointer) {
	C.llama_free_model((*C.struct_llama_model)(model))
}

func (cgoEngine) modelType(model unsafe.Pointer, buf []byte) int {
	if len(buf) == 0 {
		return 0
	}
	n := C.llama_model_type(
		(*C.struct_llama_model)(model),
		(*C.char)(unsafe.Pointer(&buf[0])),
		C.size_t(len(buf)),
	)
	runtime.KeepAlive(buf)
	return int(n)
}

func (cgoEngine) newContext(model unsafe.Pointer, params Params) unsafe.Pointer {
	return unsafe.Pointer(C.llama_new_context_with_model((*C.struct_llama_model)(model), toC(params)))
}

func (cgoEngine) freeContext(ctx unsafe.Pointer) {
	C.llama_free((*C.struct_llama_context)(ctx))
}

func (cgoEngine) tokenize(ctx unsafe.Pointer, text string, out []Token, addBOS bool) int {
	cText := C.CString(text)
	defer C.free(unsafe.Pointer(cText))

	var outPtr *C.llama_token
	if len(out) > 0 {
		outPtr = (*C.llama_token)(unsafe.Pointer(&out[0]))
	}

	n := C.llama_tokenize(
		(*C.struct_llama_context)(ctx),
		cText,
		outPtr,
		C.int(len(out)),
		C.bool(addBOS),
	)
	runtime.KeepAlive(out) // backing array must stay put while C writes into it
	return int(n)
}

func (cgoEngine) eval(ctx unsafe.Pointer, tokens []Token, nPast, nThreads int) int {
	code := C.llama_eval(
		(*C.struct_llama_context)(ctx),
		(*C.llama_token)(unsafe.Pointer(&tokens[0])),
		C.int(len(tokens)),
		C.int(nPast),
		C.int(nThreads),
	)
	runtime.KeepAlive(tokens)
	return int(code)
}

func (cgoEngine) embeddingSize(ctx unsafe.Pointer) int {
	return int(C.llama_n_embd((*C.struct_llama_context)(ctx)))
}

func (e cgoEngine) embeddings(ctx unsafe.Pointer) []float32 {
	ptr := C.llama_get_embeddings((*C.struct_llama_context)(ctx))
	n := e.embeddingSize(ctx)
	if ptr == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(ptr)), n)
}
