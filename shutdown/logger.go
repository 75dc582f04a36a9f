package shutdown

import (
	"context"
	"errors"
	"syscall"

	"llamaembed/core"
	"llamaembed/logging"
)

// SyncLogger flushes l. Syncing a terminal returns EINVAL or ENOTTY on
// some platforms; those are not failures.
func SyncLogger(l *logging.Logger) core.ShutdownFunc {
	return func(ctx context.Context) error {
		err := l.Sync()
		if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
			return nil
		}
		return err
	}
}
