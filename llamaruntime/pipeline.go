package llamaruntime

// Embedding is an owned embedding vector with the number of tokens it was
// computed from.
type Embedding struct {
	TokenCount int
	Vector     []float32
}

// Embed runs the embedding pipeline on c: tokenize text with a leading BOS
// into buf, evaluate exactly the tokens produced from position 0, and return
// the resulting view together with the token count.
//
// buf is the caller's reusable token buffer; its capacity bounds the input.
// The returned view is valid until the next Eval on c.
func (c *Context) Embed(text string, buf []Token, nThreads int) (Embeddings, int, error) {
	n, err := c.Tokenize(text, buf, true)
	if err != nil {
		return Embeddings{}, 0, err
	}

	if err := c.Eval(buf[:n], 0, nThreads); err != nil {
		return Embeddings{}, n, err
	}

	view, err := c.Embeddings()
	if err != nil {
		return Embeddings{}, n, err
	}
	return view, n, nil
}

// EmbedText runs Embed and copies the result out of the context.
func (c *Context) EmbedText(text string, buf []Token, nThreads int) (Embedding, error) {
	view, n, err := c.Embed(text, buf, nThreads)
	if err != nil {
		return Embedding{TokenCount: n}, err
	}
	vec, err := view.Copy()
	if err != nil {
		return Embedding{TokenCount: n}, err
	}
	return Embedding{TokenCount: n, Vector: vec}, nil
}
