package llamaruntime

// Params is the parameter set handed to llama.cpp when loading a model and
// creating a context. It mirrors the subset of llama_context_params this
// package exposes; fields not modelled here keep the engine defaults.
//
// Params is a value type. Every setter works on a copy and returns it, so a
// Params passed to Load or NewContext can never be changed behind the
// constructor's back:
//
//	params := llamaruntime.NewParams().
//	    EmbeddingOnly().
//	    GPULayers(16).
//	    BatchSize(1024).
//	    ContextSize(2048)
//
// Setters do not validate. Out-of-range values are passed through and show
// up as ErrLoadFailed or ErrCreationFailed from the native layer.
type Params struct {
	seed        uint32
	contextSize int32
	batchSize   int32
	gpuLayers   int32
	embedding   bool
	useMMap     bool
	useMlock    bool
}

// NewParams returns the engine defaults (llama_context_default_params).
func NewParams() Params {
	return nativeEngine.defaultParams()
}

// GPULayers sets the number of layers offloaded to the accelerator.
func (p Params) GPULayers(count int) Params {
	p.gpuLayers = int32(count)
	return p
}

// BatchSize sets the maximum number of tokens evaluated per native batch.
func (p Params) BatchSize(size int) Params {
	p.batchSize = int32(size)
	return p
}

// ContextSize sets the context window in tokens.
func (p Params) ContextSize(size int) Params {
	p.contextSize = int32(size)
	return p
}

// EmbeddingOnly makes contexts produce embeddings instead of logits.
func (p Params) EmbeddingOnly() Params {
	p.embedding = true
	return p
}

// Seed sets the RNG seed stored in the native parameters.
func (p Params) Seed(seed uint32) Params {
	p.seed = seed
	return p
}

// MemoryMap toggles mmap-based weight loading.
func (p Params) MemoryMap(enabled bool) Params {
	p.useMMap = enabled
	return p
}

// MemoryLock toggles mlock of the loaded weights.
func (p Params) MemoryLock(enabled bool) Params {
	p.useMlock = enabled
	return p
}

// NumGPULayers returns the configured accelerator layer count.
func (p Params) NumGPULayers() int { return int(p.gpuLayers) }

// NumBatch returns the configured batch size.
func (p Params) NumBatch() int { return int(p.batchSize) }

// NumCtx returns the configured context size.
func (p Params) NumCtx() int { return int(p.contextSize) }

// IsEmbeddingOnly reports whether embedding mode is enabled.
func (p Params) IsEmbeddingOnly() bool { return p.embedding }

// RandomSeed returns the configured seed.
func (p Params) RandomSeed() uint32 { return p.seed }

// UsesMMap reports whether mmap loading is enabled.
func (p Params) UsesMMap() bool { return p.useMMap }

// UsesMlock reports whether mlock is enabled.
func (p Params) UsesMlock() bool { return p.useMlock }
