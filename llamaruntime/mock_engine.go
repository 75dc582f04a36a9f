package llamaruntime

import (
	"os"
	"strings"
	"sync"
	"unsafe"
)

// MockEngine is an in-process stand-in for llama.cpp so code built on this
// package can run Load, NewContextPool and Embed without the native library.
// Words separated by whitespace become tokens and the embedding is derived
// from the evaluated tokens, so equal inputs give equal vectors.
//
// Install it with UseMockEngine.
type MockEngine struct {
	mu sync.Mutex

	dims      int
	modelDesc string
	failWord  Token
	failEval  bool

	evalCalls    int
	modelsOpen   int
	contextsOpen int
}

type mockModel struct {
	path string
}

type mockContext struct {
	embedding bool
	out       []float32
}

const mockBOS Token = 1

// NewMockEngine creates a mock producing vectors of the given length.
func NewMockEngine(dimensions int) *MockEngine {
	if dimensions <= 0 {
		dimensions = 8
	}
	return &MockEngine{dims: dimensions, modelDesc: "mock 1B F32"}
}

// SetModelType sets the description returned by Model.ModelType.
func (m *MockEngine) SetModelType(desc string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelDesc = desc
}

// FailEvalOn makes Eval fail for any input containing word.
func (m *MockEngine) FailEvalOn(word string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWord = mockTokenID(word)
	m.failEval = true
}

// EvalCalls returns the number of evaluations run so far.
func (m *MockEngine) EvalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evalCalls
}

// OpenHandles returns the models and contexts not yet freed.
func (m *MockEngine) OpenHandles() (models, contexts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modelsOpen, m.contextsOpen
}

// UseMockEngine makes Load and NewParams use m until restore is called.
// It must not be called while models from another engine are open, and
// not concurrently with Load.
func UseMockEngine(m *MockEngine) (restore func()) {
	prev := nativeEngine
	nativeEngine = m
	return func() { nativeEngine = prev }
}

func mockTokenID(word string) Token {
	var id Token = 2
	for _, b := range []byte(word) {
		id = (id*31 + Token(b)) % 32000
	}
	if id < 2 {
		id += 2
	}
	return id
}

func (m *MockEngine) defaultParams() Params {
	return Params{seed: 0xFFFFFFFF, contextSize: 512, batchSize: 512, useMMap: true}
}

func (m *MockEngine) backendInit() {}

func (m *MockEngine) loadModel(path string, _ Params) unsafe.Pointer {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	m.mu.Lock()
	m.modelsOpen++
	m.mu.Unlock()
	return unsafe.Pointer(&mockModel{path: path})
}

func (m *MockEngine) freeModel(unsafe.Pointer) {
	m.mu.Lock()
	m.modelsOpen--
	m.mu.Unlock()
}

func (m *MockEngine) modelType(_ unsafe.Pointer, buf []byte) int {
	m.mu.Lock()
	desc := m.modelDesc
	m.mu.Unlock()
	n := copy(buf, desc)
	if n < len(buf) {
		buf[n] = 0
	}
	return len(desc)
}

func (m *MockEngine) newContext(_ unsafe.Pointer, p Params) unsafe.Pointer {
	m.mu.Lock()
	m.contextsOpen++
	m.mu.Unlock()
	return unsafe.Pointer(&mockContext{embedding: p.embedding, out: make([]float32, m.dims)})
}

func (m *MockEngine) freeContext(unsafe.Pointer) {
	m.mu.Lock()
	m.contextsOpen--
	m.mu.Unlock()
}

func (m *MockEngine) tokenize(_ unsafe.Pointer, text string, out []Token, addBOS bool) int {
	var toks []Token
	if addBOS {
		toks = append(toks, mockBOS)
	}
	for _, word := range strings.Fields(text) {
		toks = append(toks, mockTokenID(word))
	}
	if len(toks) > len(out) {
		return -len(toks)
	}
	return copy(out, toks)
}

func (m *MockEngine) eval(ctx unsafe.Pointer, tokens []Token, _, _ int) int {
	m.mu.Lock()
	m.evalCalls++
	failEval, failWord := m.failEval, m.failWord
	m.mu.Unlock()

	if failEval {
		for _, tok := range tokens {
			if tok == failWord {
				return 1
			}
		}
	}

	mc := (*mockContext)(ctx)
	var sum int64
	for i, tok := range tokens {
		sum += int64(tok) * int64(i+1)
	}
	for i := range mc.out {
		mc.out[i] = float32((sum*int64(i+7))%1000) / 1000
	}
	return 0
}

func (m *MockEngine) embeddingSize(unsafe.Pointer) int { return m.dims }

func (m *MockEngine) embeddings(ctx unsafe.Pointer) []float32 {
	mc := (*mockContext)(ctx)
	if !mc.embedding {
		return nil
	}
	return mc.out
}

var _ engine = (*MockEngine)(nil)
