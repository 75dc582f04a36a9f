package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"llamaembed/core"
	"llamaembed/db"

	"github.com/urfave/cli/v3"
)

// pruneCmd deletes stored embeddings older than --older-than.
func pruneCmd(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "Delete stored embeddings older than a given age",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "store", Usage: "SQLite file holding embeddings", Sources: cli.EnvVars("EMBED_STORE_PATH")},
			&cli.DurationFlag{Name: "older-than", Usage: "minimum age of deleted rows; 0 deletes everything"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("store")
			if path == "" {
				err := core.ErrMissingConfig("EMBED_STORE_PATH", "--store")
				return &exitError{code: core.ExitCodeUsage, err: err}
			}
			olderThan := cmd.Duration("older-than")
			if olderThan < 0 {
				err := core.ErrInvalidValue("--older-than", olderThan, "must not be negative")
				return &exitError{code: core.ExitCodeUsage, err: err}
			}

			database, err := db.Open(ctx, path)
			if err != nil {
				return &exitError{code: core.ExitCodeError, err: err}
			}
			defer database.Close()

			result, err := database.Prune(ctx, olderThan)
			if err != nil {
				return &exitError{code: core.ExitCodeError, err: err}
			}
			fmt.Fprintf(stdout, "pruned %d embeddings in %s\n", result.Deleted, result.Duration.Round(time.Millisecond))
			return nil
		},
	}
}
