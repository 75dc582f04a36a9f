// Package llamaruntime provides Go bindings to llama.cpp for local embedding inference.
// This file contains pure Go types and constants - no CGo dependencies.
package llamaruntime

// Token is a vocabulary identifier produced by the tokenizer.
// It has the same width as llama_token so token buffers can be handed to
// the C layer without copying.
type Token int32

// =============================================================================
// Default Constants
// =============================================================================

const (
	// DefaultContextSize is the context window used by the embedding driver.
	DefaultContextSize = 2048

	// DefaultBatchSize is the batch size used by the embedding driver.
	DefaultBatchSize = 1024

	// DefaultNumGPULayers is the number of layers offloaded by the embedding driver.
	DefaultNumGPULayers = 16

	// DefaultNumThreads is the thread count passed to llama_eval.
	DefaultNumThreads = 1

	// DefaultTokenBufferSize is the capacity of the driver's token buffer.
	DefaultTokenBufferSize = 2048

	// ModelTypeBufferSize is the scratch size used to query llama_model_type.
	ModelTypeBufferSize = 256
)
