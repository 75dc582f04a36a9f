package llamaruntime

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// engine is the raw llama.cpp surface this package wraps. Implementations do
// no checking of their own: handles are passed through untouched and return
// codes come back exactly as the C functions produce them. All ownership and
// validity rules live in Model and Context.
//
// bindings.go provides the cgo implementation (build tag "llama");
// bindings_stub.go provides one that fails every load.
type engine interface {
	// defaultParams mirrors llama_context_default_params.
	defaultParams() Params
	// backendInit mirrors llama_backend_init. Called once per process.
	backendInit()

	// loadModel returns nil when llama_load_model_from_file fails.
	loadModel(path string, params Params) unsafe.Pointer
	freeModel(model unsafe.Pointer)
	// modelType writes a description into buf and returns the length the
	// engine reports, which may exceed len(buf) or be negative.
	modelType(model unsafe.Pointer, buf []byte) int

	// newContext returns nil when llama_new_context_with_model fails.
	newContext(model unsafe.Pointer, params Params) unsafe.Pointer
	freeContext(ctx unsafe.Pointer)

	// tokenize writes at most len(out) tokens and returns the count, or a
	// non-positive value on failure.
	tokenize(ctx unsafe.Pointer, text string, out []Token, addBOS bool) int
	// eval returns 0 on success.
	eval(ctx unsafe.Pointer, tokens []Token, nPast, nThreads int) int
	embeddingSize(ctx unsafe.Pointer) int
	// embeddings returns the context's reused output buffer, embeddingSize
	// values long, or nil if the engine exposes none.
	embeddings(ctx unsafe.Pointer) []float32
}

// nativeEngine is the engine used by Load and NewContext.
var nativeEngine engine = newNativeEngine()

// backendGate runs llama_backend_init exactly once per process.
// sync.Once gives every caller a happens-before edge with the completed init,
// so goroutines racing on the first Load all see a fully initialized backend.
type backendGate struct {
	once        sync.Once
	initialized atomic.Bool
}

// ensure runs the engine's backend init on first use and blocks concurrent
// callers until it has returned.
func (g *backendGate) ensure(e engine) {
	g.once.Do(func() {
		e.backendInit()
		g.initialized.Store(true)
	})
}

// ready reports whether the backend has been initialized.
func (g *backendGate) ready() bool {
	return g.initialized.Load()
}

// backend is the process-wide gate used by Load.
var backend = &backendGate{}

// BackendReady reports whether llama_backend_init has run in this process.
func BackendReady() bool {
	return backend.ready()
}
