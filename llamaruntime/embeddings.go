package llamaruntime

// Embeddings is a borrowed view of a context's output buffer. It does not
// own the memory: the producing Context overwrites it on its next Eval and
// frees it on Close. The zero value is an empty, stale view.
type Embeddings struct {
	ctx  *Context
	gen  uint64
	data []float32
}

// Len returns the number of values in the view.
func (e Embeddings) Len() int { return len(e.data) }

// Valid reports whether the view still reflects its context's buffer.
func (e Embeddings) Valid() bool {
	if e.ctx == nil {
		return false
	}
	e.ctx.mu.Lock()
	defer e.ctx.mu.Unlock()
	return e.validLocked()
}

func (e Embeddings) validLocked() bool {
	return e.ctx.ptr != nil && e.ctx.generation == e.gen
}

// Copy returns an owned copy of the values. It returns ErrStaleEmbeddings
// once the context has evaluated again or been closed.
func (e Embeddings) Copy() ([]float32, error) {
	if e.ctx == nil {
		return nil, newError("Embeddings", -1, ErrStaleEmbeddings, "view has no context")
	}
	e.ctx.mu.Lock()
	defer e.ctx.mu.Unlock()

	if !e.validLocked() {
		return nil, newError("Embeddings", -1, ErrStaleEmbeddings,
			"view from generation %d read at generation %d", e.gen, e.ctx.generation)
	}
	out := make([]float32, len(e.data))
	copy(out, e.data)
	return out, nil
}

// Slice returns the borrowed values without copying. The slice aliases
// native memory and must not be used after the next Eval or Close on the
// producing context; use Copy to keep the values.
func (e Embeddings) Slice() ([]float32, error) {
	if !e.Valid() {
		return nil, newError("Embeddings", -1, ErrStaleEmbeddings, "view no longer valid")
	}
	return e.data, nil
}
