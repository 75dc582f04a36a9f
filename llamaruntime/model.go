package llamaruntime

import (
	"bytes"
	"runtime"
	"strings"
	"sync"
	"unicode/utf8"
	"unsafe"
)

// Model owns one loaded llama.cpp model (llama_model*).
//
// A Model only exists if the native load succeeded, and its handle is
// released exactly once: by Close, or by the finalizer if the Model becomes
// unreachable without being closed. Contexts created from a Model hold a
// reference to it and are counted as borrows; Close refuses to release the
// weights while any borrow is outstanding.
//
// After loading, a Model is read-only and may be shared by many goroutines,
// each driving its own Context.
type Model struct {
	mu      sync.RWMutex
	eng     engine
	ptr     unsafe.Pointer
	path    string
	params  Params
	borrows int
}

// Load initializes the llama.cpp backend on first use, then loads the model
// file at path with the given parameters.
//
// A path that cannot be passed to C (embedded NUL, invalid UTF-8) returns
// ErrEncoding. Any native failure returns ErrLoadFailed: llama.cpp does not
// say whether the file was missing, malformed or incompatible with params.
// Use ValidateModelPath beforehand for a friendlier diagnosis.
//
// Example:
//
//	params := llamaruntime.NewParams().EmbeddingOnly().GPULayers(16)
//	model, err := llamaruntime.Load("models/llama-2-7b.Q4_0.gguf", params)
//	if err != nil {
//	    return err
//	}
//	defer model.Close()
func Load(path string, params Params) (*Model, error) {
	return loadWith(nativeEngine, backend, path, params)
}

func loadWith(e engine, gate *backendGate, path string, params Params) (*Model, error) {
	gate.ensure(e)

	if err := checkCString("Load", path); err != nil {
		return nil, err
	}
	if !utf8.ValidString(path) {
		return nil, newError("Load", -1, ErrEncoding, "path %q is not valid UTF-8", path)
	}

	ptr := e.loadModel(path, params)
	if ptr == nil {
		if _, mock := e.(*MockEngine); !mock && !NativeAvailable() && e == nativeEngine {
			return nil, newError("Load", -1, ErrLoadFailed, "cannot load %s: %v", path, ErrEngineUnavailable)
		}
		return nil, newError("Load", -1, ErrLoadFailed, "llama_load_model_from_file returned NULL for %s", path)
	}

	m := &Model{
		eng:    e,
		ptr:    ptr,
		path:   path,
		params: params,
	}
	runtime.SetFinalizer(m, (*Model).finalize)
	return m, nil
}

// ModelType returns llama.cpp's short description of the model, such as
// "llama 7B mostly Q4_0". The result is best effort: it is truncated to
// ModelTypeBufferSize bytes and is empty if the engine reports nothing,
// the description is not valid UTF-8, or the model is closed.
func (m *Model) ModelType() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ptr == nil {
		return ""
	}

	buf := make([]byte, ModelTypeBufferSize)
	n := m.eng.modelType(m.ptr, buf)
	if n < 0 {
		n = 0
	}
	if n > len(buf) {
		n = len(buf)
	}
	out := buf[:n]
	// the engine NUL-terminates, so a reported length can include the terminator
	if i := bytes.IndexByte(out, 0); i >= 0 {
		out = out[:i]
	}
	if !utf8.Valid(out) {
		return ""
	}
	return string(out)
}

// Path returns the file the model was loaded from.
func (m *Model) Path() string { return m.path }

// Params returns the parameters the model was loaded with.
func (m *Model) Params() Params { return m.params }

// OpenContexts returns the number of contexts currently borrowing the model.
func (m *Model) OpenContexts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.borrows
}

// Closed reports whether the native model has been released.
func (m *Model) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ptr == nil
}

// Close releases the native model. It returns ErrModelInUse while contexts
// built from the model are still open, leaving the model usable. Calling
// Close on an already closed model is a no-op.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ptr == nil {
		return nil
	}
	if m.borrows > 0 {
		return newError("Close", m.borrows, ErrModelInUse, "%d context(s) still open", m.borrows)
	}

	m.eng.freeModel(m.ptr)
	m.ptr = nil
	runtime.SetFinalizer(m, nil)
	return nil
}

// borrow registers a new context against the model and returns the native
// handle for it. Every successful borrow must be paired with unborrow.
func (m *Model) borrow(op string) (unsafe.Pointer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ptr == nil {
		return nil, newError(op, -1, ErrClosed, "model %s already released", m.path)
	}
	m.borrows++
	return m.ptr, nil
}

func (m *Model) unborrow() {
	m.mu.Lock()
	m.borrows--
	m.mu.Unlock()
}

// alive reports whether the native handle is still held.
func (m *Model) alive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ptr != nil
}

// finalize frees a model that was dropped without Close. Open contexts keep
// the Model reachable, so there can be no borrows left at this point.
func (m *Model) finalize() {
	if m.ptr != nil {
		m.eng.freeModel(m.ptr)
		m.ptr = nil
	}
}

// checkCString rejects strings C would silently truncate.
func checkCString(op, s string) error {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return newError(op, -1, ErrEncoding, "embedded NUL byte at offset %d", i)
	}
	return nil
}
