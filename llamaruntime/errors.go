// Package llamaruntime provides Go bindings to llama.cpp for local embedding inference.
package llamaruntime

import (
	"errors"
	"fmt"
)

// LlamaError represents an error from llama.cpp operations.
// It provides structured error information including the operation that failed,
// the raw return code from the C layer, and a descriptive message.
type LlamaError struct {
	Op      string // Operation that failed (e.g., "Load", "Tokenize")
	Code    int    // Raw return code from the C layer (-1 when the call returned NULL)
	Message string // Human-readable error message
	Err     error  // Wrapped sentinel error identifying the failure kind
}

// Error implements the error interface.
func (e *LlamaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llama.cpp %s: %s (code: %d): %v", e.Op, e.Message, e.Code, e.Err)
	}
	return fmt.Sprintf("llama.cpp %s: %s (code: %d)", e.Op, e.Message, e.Code)
}

// Unwrap implements the error unwrapping interface.
// It returns the wrapped error, allowing use with errors.Is and errors.As.
func (e *LlamaError) Unwrap() error {
	return e.Err
}

// Sentinel errors for the failure kinds of the native layer.
// Every fallible native call is translated into exactly one of these.
var (
	// ErrEncoding indicates a Go string cannot be represented as a C string
	// (embedded NUL byte, or a path that is not valid UTF-8).
	ErrEncoding = errors.New("text not representable as a C string")

	// ErrLoadFailed indicates llama_load_model_from_file returned NULL.
	// The native layer does not distinguish a missing file, a bad format or
	// incompatible parameters, so neither does this error.
	ErrLoadFailed = errors.New("failed to load model")

	// ErrCreationFailed indicates llama_new_context_with_model returned NULL.
	ErrCreationFailed = errors.New("failed to create inference context")

	// ErrTokenizeFailed indicates the tokenizer returned a non-positive length.
	// A too-small output buffer and malformed input both map here.
	ErrTokenizeFailed = errors.New("failed to tokenize")

	// ErrEvalFailed indicates llama_eval returned a non-zero code.
	ErrEvalFailed = errors.New("failed to eval")

	// ErrClosed indicates an operation on a released model or context.
	ErrClosed = errors.New("handle already closed")

	// ErrModelInUse indicates a model release was refused because contexts
	// built from it are still open.
	ErrModelInUse = errors.New("model still borrowed by open contexts")

	// ErrStaleEmbeddings indicates an embeddings view was read after the
	// producing context evaluated again or was closed.
	ErrStaleEmbeddings = errors.New("embeddings view is stale")

	// ErrEngineUnavailable indicates the binary was built without the native
	// llama.cpp library (build with -tags llama).
	ErrEngineUnavailable = errors.New("llama.cpp engine not linked into this build")
)

// newError builds a LlamaError for the given operation and failure kind.
func newError(op string, code int, kind error, format string, args ...interface{}) *LlamaError {
	return &LlamaError{
		Op:      op,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     kind,
	}
}
