package llamaruntime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func newFakePool(t *testing.T, f *fakeEngine, size int) (*Model, *ContextPool) {
	t.Helper()
	m := loadFakeModel(t, f)
	pool, err := NewContextPool(m, m.Params(), ContextPoolConfig{Size: size, AcquireTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewContextPool() error = %v", err)
	}
	t.Cleanup(func() {
		pool.Close()
		m.Close()
	})
	return m, pool
}

func TestDefaultContextPoolConfig(t *testing.T) {
	cfg := DefaultContextPoolConfig()
	if cfg.Size != 1 {
		t.Errorf("Size = %d, want 1", cfg.Size)
	}
	if cfg.AcquireTimeout != 30*time.Second {
		t.Errorf("AcquireTimeout = %v, want 30s", cfg.AcquireTimeout)
	}
	if cfg.TokenBuffer != DefaultTokenBuffer {
		t.Errorf("TokenBuffer = %d, want %d", cfg.TokenBuffer, DefaultTokenBuffer)
	}
}

func TestNewContextPool_CreatesAllContexts(t *testing.T) {
	f := newFakeEngine()
	m, pool := newFakePool(t, f, 3)

	stats := pool.Stats()
	if stats.Size != 3 || stats.Available != 3 || stats.InUse != 0 {
		t.Errorf("Stats() = %+v", stats)
	}
	if m.OpenContexts() != 3 {
		t.Errorf("model borrows = %d, want 3", m.OpenContexts())
	}
	if pool.Model() != m {
		t.Error("Model() mismatch")
	}
}

func TestNewContextPool_CreationFailure(t *testing.T) {
	f := newFakeEngine()
	f.failContext = true
	m := loadFakeModel(t, f)
	defer m.Close()

	_, err := NewContextPool(m, m.Params(), ContextPoolConfig{Size: 2})
	if !errors.Is(err, ErrCreationFailed) {
		t.Fatalf("NewContextPool() error = %v, want ErrCreationFailed", err)
	}
	if m.OpenContexts() != 0 {
		t.Errorf("failed pool left %d borrows", m.OpenContexts())
	}
}

func TestNewContextPool_NilModel(t *testing.T) {
	if _, err := NewContextPool(nil, NewParams(), DefaultContextPoolConfig()); err == nil {
		t.Error("expected error for nil model")
	}
}

func TestContextPool_AcquireRelease(t *testing.T) {
	f := newFakeEngine()
	_, pool := newFakePool(t, f, 2)

	c, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got := pool.Stats().InUse; got != 1 {
		t.Errorf("InUse = %d, want 1", got)
	}
	pool.Release(c)
	pool.Release(nil)

	stats := pool.Stats()
	if stats.Available != 2 || stats.TotalAcquires != 1 || stats.TotalReleases != 1 {
		t.Errorf("Stats() after release = %+v", stats)
	}
}

func TestContextPool_AcquireTimeout(t *testing.T) {
	f := newFakeEngine()
	_, pool := newFakePool(t, f, 1)

	c, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer pool.Release(c)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := pool.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire() error = %v, want DeadlineExceeded", err)
	}
	if pool.Stats().AcquireTimeouts != 1 {
		t.Errorf("AcquireTimeouts = %d, want 1", pool.Stats().AcquireTimeouts)
	}
}

func TestContextPool_ConcurrentEmbeds(t *testing.T) {
	f := newFakeEngine()
	_, pool := newFakePool(t, f, 3)

	const jobs = 24
	var wg sync.WaitGroup
	errs := make(chan error, jobs)
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := pool.Acquire(context.Background())
			if err != nil {
				errs <- err
				return
			}
			defer pool.Release(c)
			if _, err := c.EmbedText("hello world", make([]Token, 16), 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent embed: %v", err)
	}
	if got := pool.Stats().Available; got != 3 {
		t.Errorf("Available after run = %d, want 3", got)
	}
}

func TestContextPool_Close(t *testing.T) {
	f := newFakeEngine()
	m := loadFakeModel(t, f)
	defer m.Close()

	pool, err := NewContextPool(m, m.Params(), ContextPoolConfig{Size: 2})
	if err != nil {
		t.Fatalf("NewContextPool() error = %v", err)
	}
	held, _ := pool.Acquire(context.Background())

	if err := pool.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if !pool.IsClosed() {
		t.Error("IsClosed() = false")
	}
	if m.OpenContexts() != 1 {
		t.Errorf("borrows after Close = %d, want 1 (held context)", m.OpenContexts())
	}

	pool.Release(held)
	if !held.Closed() {
		t.Error("context released after Close was not closed")
	}
	if m.OpenContexts() != 0 {
		t.Errorf("borrows after release = %d, want 0", m.OpenContexts())
	}
	if _, err := pool.Acquire(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Acquire() after Close error = %v, want ErrClosed", err)
	}
	if m.Closed() {
		t.Error("pool closed the model it borrows")
	}
}

func TestContextPool_TokenBufferPerContext(t *testing.T) {
	f := newFakeEngine()
	m := loadFakeModel(t, f)
	pool, err := NewContextPool(m, m.Params(), ContextPoolConfig{Size: 2, TokenBuffer: 16})
	if err != nil {
		t.Fatalf("NewContextPool() error = %v", err)
	}
	t.Cleanup(func() {
		pool.Close()
		m.Close()
	})

	ctx := context.Background()
	a, _ := pool.Acquire(ctx)
	b, _ := pool.Acquire(ctx)
	bufA, bufB := pool.TokenBuffer(a), pool.TokenBuffer(b)
	if len(bufA) != 16 || len(bufB) != 16 {
		t.Fatalf("buffer lengths = %d, %d, want 16", len(bufA), len(bufB))
	}
	if &bufA[0] == &bufB[0] {
		t.Error("contexts share a token buffer")
	}

	// The buffer travels with the context across leases.
	pool.Release(a)
	again, _ := pool.Acquire(ctx)
	if again == a && &pool.TokenBuffer(again)[0] != &bufA[0] {
		t.Error("token buffer changed across leases")
	}
	if _, err := again.EmbedText("one two three", pool.TokenBuffer(again), 1); err != nil {
		t.Errorf("EmbedText() with pooled buffer error = %v", err)
	}
	pool.Release(again)
	pool.Release(b)

	if got := pool.TokenBuffer(nil); got != nil {
		t.Errorf("TokenBuffer(nil) = %v, want nil", got)
	}
}

func TestContextPool_ReleaseForeignContext(t *testing.T) {
	f := newFakeEngine()
	m, pool := newFakePool(t, f, 2)

	ctx := context.Background()
	held, _ := pool.Acquire(ctx)

	foreign, err := NewContext(m, m.Params())
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	pool.Release(foreign)

	if !foreign.Closed() {
		t.Error("foreign context was pooled instead of closed")
	}
	stats := pool.Stats()
	if stats.Size != 2 || stats.Available != 1 || stats.InUse != 1 {
		t.Errorf("Stats() after foreign release = %+v", stats)
	}
	if pool.TokenBuffer(foreign) != nil {
		t.Error("foreign context has a pool token buffer")
	}
	pool.Release(held)
}

func TestContextPool_DoubleRelease(t *testing.T) {
	f := newFakeEngine()
	_, pool := newFakePool(t, f, 2)

	c, _ := pool.Acquire(context.Background())
	pool.Release(c)
	pool.Release(c)

	stats := pool.Stats()
	if stats.Available != 2 || stats.TotalReleases != 1 {
		t.Errorf("Stats() after double release = %+v", stats)
	}
	if c.Closed() {
		t.Error("double release closed a pooled context")
	}
}

func TestContextPool_ReleaseClosedContextIsReplaced(t *testing.T) {
	f := newFakeEngine()
	m, pool := newFakePool(t, f, 1)

	c, _ := pool.Acquire(context.Background())
	c.Close()
	pool.Release(c)

	stats := pool.Stats()
	if stats.Size != 1 || stats.Available != 1 {
		t.Errorf("Stats() after releasing closed context = %+v", stats)
	}
	fresh, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if fresh == c || fresh.Closed() {
		t.Error("pool handed out the closed context")
	}
	if m.OpenContexts() != 1 {
		t.Errorf("model borrows = %d, want 1", m.OpenContexts())
	}
	pool.Release(fresh)
}

func TestContextPool_ReleaseClosedContextShrinksOnFailure(t *testing.T) {
	f := newFakeEngine()
	_, pool := newFakePool(t, f, 2)

	c, _ := pool.Acquire(context.Background())
	c.Close()
	f.mu.Lock()
	f.failContext = true
	f.mu.Unlock()
	pool.Release(c)

	stats := pool.Stats()
	if stats.Size != 1 || stats.Available != 1 || stats.InUse != 0 {
		t.Errorf("Stats() after failed replacement = %+v", stats)
	}
}
