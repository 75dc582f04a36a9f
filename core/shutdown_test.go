package core

import (
	"context"
	"errors"
	"testing"
)

type countingCloser struct {
	calls int
	err   error
}

func (c *countingCloser) Close() error {
	c.calls++
	return c.err
}

func TestCloserShutdown(t *testing.T) {
	closeErr := errors.New("close failed")
	c := &countingCloser{err: closeErr}

	fn := CloserShutdown(c)
	if err := fn(context.Background()); !errors.Is(err, closeErr) {
		t.Errorf("fn() = %v, want %v", err, closeErr)
	}
	if c.calls != 1 {
		t.Errorf("Close called %d times, want 1", c.calls)
	}
}

func TestCloserShutdown_ExpiredContext(t *testing.T) {
	c := &countingCloser{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := CloserShutdown(c)(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("fn() = %v, want context.Canceled", err)
	}
	if c.calls != 0 {
		t.Errorf("Close called %d times on a cancelled context, want 0", c.calls)
	}
}
