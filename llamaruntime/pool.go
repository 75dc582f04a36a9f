// Package llamaruntime provides Go bindings to llama.cpp for local embedding inference.
// This file contains the ContextPool for sharing one model across goroutines.
//
// The ContextPool holds a fixed set of Contexts built on one Model and hands
// them out one goroutine at a time. It uses a channel as the free list, so
// Acquire blocks until a context is returned or the caller gives up.
//
// Architecture:
// - The pool borrows the Model; it never closes it
// - All contexts are created up front by NewContextPool
// - Each context owns a token buffer that travels with it (TokenBuffer)
// - Close frees idle contexts immediately and acquired ones on Release
//
// Thread Safety:
// - Pool operations are safe for concurrent use
// - An acquired Context belongs to exactly one goroutine until Release
package llamaruntime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ContextPoolConfig contains configuration for the context pool.
type ContextPoolConfig struct {
	// Size is the number of contexts to create.
	// This is the maximum number of concurrent Embed calls.
	// Defaults to 1 if not specified.
	Size int

	// AcquireTimeout bounds Acquire when the caller's context has no deadline.
	// Defaults to 30 seconds.
	AcquireTimeout time.Duration

	// TokenBuffer is the capacity of each context's token buffer.
	// Defaults to DefaultTokenBuffer.
	TokenBuffer int
}

// DefaultTokenBuffer is the per-context token buffer capacity used when
// ContextPoolConfig.TokenBuffer is unset.
const DefaultTokenBuffer = 2048

// DefaultContextPoolConfig returns a ContextPoolConfig with sensible defaults.
func DefaultContextPoolConfig() ContextPoolConfig {
	return ContextPoolConfig{
		Size:           1,
		AcquireTimeout: 30 * time.Second,
		TokenBuffer:    DefaultTokenBuffer,
	}
}

// ContextPool manages a pool of reusable inference contexts on one model.
//
// Example usage:
//
//	pool, err := llamaruntime.NewContextPool(model, params, llamaruntime.ContextPoolConfig{Size: 4})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	c, err := pool.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(c)
//
//	emb, err := c.EmbedText(text, pool.TokenBuffer(c), 1)
type ContextPool struct {
	model    *Model
	params   Params
	config   ContextPoolConfig
	contexts chan *Context
	mu       sync.RWMutex
	closed   bool

	// members holds every context this pool created and not yet dropped,
	// guarded by mu.
	members map[*Context]*poolMember

	// Metrics
	totalAcquires   int64
	totalReleases   int64
	acquireTimeouts int64
	createdAt       time.Time
}

type poolMember struct {
	tokens []Token
	leased bool
}

// NewContextPool creates config.Size contexts on model with params.
// If any creation fails, the contexts created so far are closed and the
// error is returned wrapped, so errors.Is(err, ErrCreationFailed) still holds.
func NewContextPool(model *Model, params Params, config ContextPoolConfig) (*ContextPool, error) {
	if model == nil {
		return nil, newError("NewContextPool", -1, ErrClosed, "model is required")
	}

	if config.Size <= 0 {
		config.Size = 1
	}
	if config.AcquireTimeout <= 0 {
		config.AcquireTimeout = 30 * time.Second
	}
	if config.TokenBuffer <= 0 {
		config.TokenBuffer = DefaultTokenBuffer
	}

	pool := &ContextPool{
		model:     model,
		params:    params,
		config:    config,
		contexts:  make(chan *Context, config.Size),
		members:   make(map[*Context]*poolMember, config.Size),
		createdAt: time.Now(),
	}

	for i := 0; i < config.Size; i++ {
		c, err := NewContext(model, params)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("create context %d of %d: %w", i+1, config.Size, err)
		}
		pool.members[c] = &poolMember{tokens: make([]Token, config.TokenBuffer)}
		pool.contexts <- c
	}

	return pool, nil
}

// Acquire obtains a context from the pool, blocking until one is free or ctx
// is done. If ctx has no deadline, AcquireTimeout applies.
//
// The returned context must be handed back with Release.
func (p *ContextPool) Acquire(ctx context.Context) (*Context, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, newError("Acquire", -1, ErrClosed, "pool is closed")
	}
	p.mu.RUnlock()

	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		ctx, cancel = context.WithTimeout(ctx, p.config.AcquireTimeout)
		defer cancel()
	}

	select {
	case c, ok := <-p.contexts:
		if !ok {
			return nil, newError("Acquire", -1, ErrClosed, "pool is closed")
		}
		p.mu.Lock()
		if m := p.members[c]; m != nil {
			m.leased = true
		}
		p.mu.Unlock()
		atomic.AddInt64(&p.totalAcquires, 1)
		return c, nil
	case <-ctx.Done():
		atomic.AddInt64(&p.acquireTimeouts, 1)
		return nil, ctx.Err()
	}
}

// Release returns a context to the pool. Release(nil) is a no-op.
//
// A context this pool did not create is closed, not pooled. Releasing a
// context that is already idle does nothing. A pooled context the caller
// closed is replaced with a fresh one; if that fails the pool shrinks.
// After Close, released contexts are closed instead of pooled.
func (p *ContextPool) Release(c *Context) {
	if c == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.members[c]
	if !ok {
		_ = c.Close()
		return
	}
	if !m.leased {
		return
	}
	m.leased = false

	if p.closed {
		delete(p.members, c)
		_ = c.Close()
		return
	}

	if c.Closed() {
		delete(p.members, c)
		fresh, err := NewContext(p.model, p.params)
		if err != nil {
			return
		}
		p.members[fresh] = &poolMember{tokens: m.tokens}
		c = fresh
	}

	p.contexts <- c
	atomic.AddInt64(&p.totalReleases, 1)
}

// TokenBuffer returns the token buffer owned by c, or nil if c does not
// belong to this pool. The buffer may only be used while c is acquired.
func (p *ContextPool) TokenBuffer(c *Context) []Token {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if m, ok := p.members[c]; ok {
		return m.tokens
	}
	return nil
}

// Close closes every idle context. Contexts still acquired are closed when
// released. The model is left open. Close is idempotent.
func (p *ContextPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	close(p.contexts)
	for c := range p.contexts {
		delete(p.members, c)
		_ = c.Close()
	}
	return nil
}

// ContextPoolStats is a snapshot of pool usage.
type ContextPoolStats struct {
	Size      int // Contexts the pool currently owns
	Available int // Contexts currently in pool (not acquired)
	InUse     int // Contexts currently acquired

	TotalAcquires   int64
	TotalReleases   int64
	AcquireTimeouts int64
	Uptime          time.Duration

	Closed bool
}

// Stats returns current pool statistics.
func (p *ContextPool) Stats() ContextPoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	available := len(p.contexts)
	return ContextPoolStats{
		Size:            len(p.members),
		Available:       available,
		InUse:           len(p.members) - available,
		TotalAcquires:   atomic.LoadInt64(&p.totalAcquires),
		TotalReleases:   atomic.LoadInt64(&p.totalReleases),
		AcquireTimeouts: atomic.LoadInt64(&p.acquireTimeouts),
		Uptime:          time.Since(p.createdAt),
		Closed:          p.closed,
	}
}

// Model returns the model the pool's contexts borrow.
func (p *ContextPool) Model() *Model { return p.model }

// Config returns the pool configuration.
func (p *ContextPool) Config() ContextPoolConfig { return p.config }

// IsClosed returns whether the pool is closed.
func (p *ContextPool) IsClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}
