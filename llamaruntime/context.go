// Package llamaruntime provides Go bindings to llama.cpp for local embedding inference.
// This file contains the Context handle: one llama.cpp inference session.
//
// Architecture:
// - A Context borrows a Model; the Model cannot be closed until every
//   Context built from it is closed
// - Tokenize, Eval and Embeddings map one-to-one onto the native calls
// - Every Eval starts a new generation; Embeddings views from older
//   generations refuse to be read
//
// Thread Safety:
// - A Context serializes its own calls, but interleaving Tokenize/Eval from
//   several goroutines on one Context still corrupts its KV state
// - Give each goroutine its own Context (see ContextPool)
package llamaruntime

import (
	"runtime"
	"sync"
	"unsafe"
)

// Context owns one llama.cpp inference context (llama_context*).
type Context struct {
	mu         sync.Mutex
	eng        engine
	model      *Model
	ptr        unsafe.Pointer
	params     Params
	generation uint64
	evaluated  bool
}

// NewContext creates an inference context on model. The context borrows the
// model: model.Close returns ErrModelInUse until the context is closed.
//
// Returns ErrClosed if model has already been released, and
// ErrCreationFailed if llama_new_context_with_model returns NULL.
func NewContext(model *Model, params Params) (*Context, error) {
	if model == nil {
		return nil, newError("NewContext", -1, ErrClosed, "model is nil")
	}

	modelPtr, err := model.borrow("NewContext")
	if err != nil {
		return nil, err
	}

	ptr := model.eng.newContext(modelPtr, params)
	if ptr == nil {
		model.unborrow()
		return nil, newError("NewContext", -1, ErrCreationFailed,
			"llama_new_context_with_model returned NULL (n_ctx=%d, n_batch=%d)", params.NumCtx(), params.NumBatch())
	}

	c := &Context{
		eng:    model.eng,
		model:  model,
		ptr:    ptr,
		params: params,
	}
	runtime.SetFinalizer(c, (*Context).finalize)
	return c, nil
}

// Tokenize converts text into tokens, writing them into the first slots of
// buf and returning how many were written. Only buf[:n] is meaningful.
// addBOS prepends the beginning-of-sequence token.
//
// buf is never grown. If the text needs more than len(buf) tokens, or the
// tokenizer rejects it, Tokenize returns ErrTokenizeFailed; llama.cpp does
// not tell the two apart. Text with an embedded NUL returns ErrEncoding.
func (c *Context) Tokenize(text string, buf []Token, addBOS bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkLive("Tokenize"); err != nil {
		return 0, err
	}
	if err := checkCString("Tokenize", text); err != nil {
		return 0, err
	}

	n := c.eng.tokenize(c.ptr, text, buf, addBOS)
	if n <= 0 || n > len(buf) {
		return 0, newError("Tokenize", n, ErrTokenizeFailed,
			"tokenizer returned %d for %d bytes of text (buffer capacity %d)", n, len(text), len(buf))
	}
	return n, nil
}

// Eval runs tokens through the model. nPast is the number of tokens already
// held in the context's KV cache; pass 0 to start over. nThreads is the CPU
// thread count hint.
//
// Eval invalidates every Embeddings view taken earlier from this context,
// including when it fails. An empty batch returns ErrEvalFailed without
// reaching llama.cpp.
func (c *Context) Eval(tokens []Token, nPast, nThreads int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkLive("Eval"); err != nil {
		return err
	}
	if len(tokens) == 0 {
		return newError("Eval", -1, ErrEvalFailed, "empty token batch")
	}

	c.generation++
	c.evaluated = false

	if code := c.eng.eval(c.ptr, tokens, nPast, nThreads); code != 0 {
		return newError("Eval", code, ErrEvalFailed,
			"llama_eval failed for %d tokens at n_past=%d", len(tokens), nPast)
	}
	c.evaluated = true
	return nil
}

// Embeddings returns a view of the context's output embedding buffer,
// EmbeddingSize values long.
//
// llama.cpp reuses that buffer on every Eval, so the view belongs to the
// current generation only: after the next Eval or Close its Copy and Slice
// return ErrStaleEmbeddings. Before any successful Eval the view is readable
// but its contents are whatever the engine left there; check Evaluated.
// A context created without EmbeddingOnly yields an empty view.
func (c *Context) Embeddings() (Embeddings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkLive("Embeddings"); err != nil {
		return Embeddings{}, err
	}
	return Embeddings{
		ctx:  c,
		gen:  c.generation,
		data: c.eng.embeddings(c.ptr),
	}, nil
}

// EmbeddingSize returns the model's embedding dimensionality (llama_n_embd).
func (c *Context) EmbeddingSize() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkLive("EmbeddingSize"); err != nil {
		return 0, err
	}
	return c.eng.embeddingSize(c.ptr), nil
}

// Evaluated reports whether the most recent Eval succeeded.
func (c *Context) Evaluated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evaluated
}

// Model returns the model this context borrows.
func (c *Context) Model() *Model { return c.model }

// Params returns the parameters the context was created with.
func (c *Context) Params() Params { return c.params }

// Closed reports whether the context has been released.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ptr == nil
}

// Close releases the native context and returns the borrow on its model.
// Closing twice is a no-op.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ptr == nil {
		return nil
	}
	c.eng.freeContext(c.ptr)
	c.ptr = nil
	c.generation++
	c.evaluated = false
	c.model.unborrow()
	runtime.SetFinalizer(c, nil)
	return nil
}

// checkLive must be called with c.mu held.
func (c *Context) checkLive(op string) error {
	if c.ptr == nil {
		return newError(op, -1, ErrClosed, "context already released")
	}
	if !c.model.alive() {
		return newError(op, -1, ErrClosed, "model %s released under an open context", c.model.path)
	}
	return nil
}

func (c *Context) finalize() {
	if c.ptr != nil {
		c.eng.freeContext(c.ptr)
		c.ptr = nil
		c.model.unborrow()
	}
}
