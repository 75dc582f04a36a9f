package llamaruntime

import (
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unsafe"
)

// fakeEngine is an in-memory stand-in for llama.cpp. It tokenizes on
// whitespace, produces embeddings derived from the evaluated tokens, and
// counts every native call so tests can check handle lifecycles.
type fakeEngine struct {
	mu sync.Mutex

	embd        int
	initDelay   time.Duration
	failContext bool
	evalCode    int
	typeDesc    string
	typeLen     int // overrides the reported length when non-zero

	initCalls     atomic.Int32
	modelsLoaded  int
	modelsFreed   int
	contextsMade  int
	contextsFreed int
	evalCalls     int
	lastEval      []Token
	lastPast      int
	lastThreads   int
}

type fakeModel struct {
	path string
}

type fakeContext struct {
	embedding bool
	out       []float32
}

const fakeBOS Token = 1

func newFakeEngine() *fakeEngine {
	return &fakeEngine{embd: 8, typeDesc: "llama 7B mostly Q4_0"}
}

func (f *fakeEngine) defaultParams() Params {
	return Params{seed: 0xFFFFFFFF, contextSize: 512, batchSize: 512, useMMap: true}
}

func (f *fakeEngine) backendInit() {
	if f.initDelay > 0 {
		time.Sleep(f.initDelay)
	}
	f.initCalls.Add(1)
}

func (f *fakeEngine) loadModel(path string, _ Params) unsafe.Pointer {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	f.mu.Lock()
	f.modelsLoaded++
	f.mu.Unlock()
	return unsafe.Pointer(&fakeModel{path: path})
}

func (f *fakeEngine) freeModel(unsafe.Pointer) {
	f.mu.Lock()
	f.modelsFreed++
	f.mu.Unlock()
}

func (f *fakeEngine) modelType(_ unsafe.Pointer, buf []byte) int {
	n := copy(buf, f.typeDesc)
	if n < len(buf) {
		buf[n] = 0
	}
	if f.typeLen != 0 {
		return f.typeLen
	}
	return len(f.typeDesc)
}

func (f *fakeEngine) newContext(_ unsafe.Pointer, p Params) unsafe.Pointer {
	if f.failContext {
		return nil
	}
	f.mu.Lock()
	f.contextsMade++
	f.mu.Unlock()
	return unsafe.Pointer(&fakeContext{embedding: p.embedding, out: make([]float32, f.embd)})
}

func (f *fakeEngine) freeContext(unsafe.Pointer) {
	f.mu.Lock()
	f.contextsFreed++
	f.mu.Unlock()
}

func (f *fakeEngine) tokenize(_ unsafe.Pointer, text string, out []Token, addBOS bool) int {
	var toks []Token
	if addBOS {
		toks = append(toks, fakeBOS)
	}
	for _, word := range strings.Fields(text) {
		var id Token = 2
		for _, b := range []byte(word) {
			id = (id*31 + Token(b)) % 32000
		}
		toks = append(toks, id)
	}
	if len(toks) > len(out) {
		return -len(toks)
	}
	return copy(out, toks)
}

func (f *fakeEngine) eval(ctx unsafe.Pointer, tokens []Token, nPast, nThreads int) int {
	f.mu.Lock()
	f.evalCalls++
	f.lastEval = append([]Token(nil), tokens...)
	f.lastPast = nPast
	f.lastThreads = nThreads
	f.mu.Unlock()

	if f.evalCode != 0 {
		return f.evalCode
	}

	fc := (*fakeContext)(ctx)
	var sum int64
	for i, tok := range tokens {
		sum += int64(tok) * int64(i+1)
	}
	for i := range fc.out {
		fc.out[i] = float32((sum*int64(i+7))%1000) / 1000
	}
	return 0
}

func (f *fakeEngine) embeddingSize(unsafe.Pointer) int { return f.embd }

func (f *fakeEngine) embeddings(ctx unsafe.Pointer) []float32 {
	fc := (*fakeContext)(ctx)
	if !fc.embedding {
		return nil
	}
	return fc.out
}

func (f *fakeEngine) counts() (loaded, freedModels, made, freedContexts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.modelsLoaded, f.modelsFreed, f.contextsMade, f.contextsFreed
}

// writeModelFile creates a minimal GGUF file under t.TempDir.
func writeModelFile(t *testing.T) string {
	t.Helper()
	path := t.TempDir() + "/test-model.gguf"
	if err := writeGGUF(path); err != nil {
		t.Fatalf("failed to write test model: %v", err)
	}
	return path
}

// writeGGUF writes a GGUF v2 header followed by 64 zero bytes.
func writeGGUF(path string) error {
	header := []byte{'G', 'G', 'U', 'F', 2, 0, 0, 0}
	return os.WriteFile(path, append(header, make([]byte, 64)...), 0644)
}

// loadFakeModel loads a model through f with a private backend gate.
func loadFakeModel(t *testing.T, f *fakeEngine) *Model {
	t.Helper()
	m, err := loadWith(f, &backendGate{}, writeModelFile(t), f.defaultParams().EmbeddingOnly())
	if err != nil {
		t.Fatalf("loadWith() error = %v", err)
	}
	return m
}

// newFakeContext loads a model and opens one embedding context on it.
func newFakeContext(t *testing.T, f *fakeEngine) (*Model, *Context) {
	t.Helper()
	m := loadFakeModel(t, f)
	c, err := NewContext(m, m.Params())
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	t.Cleanup(func() {
		c.Close()
		m.Close()
	})
	return m, c
}
