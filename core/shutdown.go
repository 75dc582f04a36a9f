package core

import (
	"context"
	"io"
)

// ShutdownFunc is a cleanup step run during graceful shutdown. It should
// respect ctx's deadline and be safe to call more than once.
//
//	var storeShutdown ShutdownFunc = func(ctx context.Context) error {
//	    return store.Close()
//	}
type ShutdownFunc func(ctx context.Context) error

// CloserShutdown adapts an io.Closer (model, pool, store) to a ShutdownFunc.
// Close is not interruptible, so ctx only short-circuits a step that has
// not started yet.
func CloserShutdown(c io.Closer) ShutdownFunc {
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return c.Close()
	}
}
