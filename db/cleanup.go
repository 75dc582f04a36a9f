package db

import (
	"context"
	"fmt"
	"time"
)

// PruneResult contains statistics about a prune operation.
type PruneResult struct {
	Deleted  int64
	Duration time.Duration
}

// Prune deletes embeddings created before now minus olderThan and then runs
// VACUUM to reclaim disk space. A zero olderThan deletes everything.
func (d *Database) Prune(ctx context.Context, olderThan time.Duration) (PruneResult, error) {
	start := time.Now()
	result := PruneResult{}

	if olderThan < 0 {
		return result, fmt.Errorf("olderThan must be non-negative, got %s", olderThan)
	}

	conn, err := d.conn()
	if err != nil {
		return result, err
	}

	cutoff := start.Add(-olderThan).UnixMilli()
	if olderThan == 0 {
		cutoff = start.UnixMilli() + 1
	}

	res, err := conn.ExecContext(ctx, "DELETE FROM embeddings WHERE created_at < ?", cutoff)
	if err != nil {
		return result, fmt.Errorf("failed to delete embeddings: %w", err)
	}
	result.Deleted, err = res.RowsAffected()
	if err != nil {
		return result, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if result.Deleted > 0 {
		// VACUUM cannot run inside a transaction
		if _, err := conn.ExecContext(ctx, "VACUUM"); err != nil {
			return result, fmt.Errorf("failed to vacuum database: %w", err)
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}
