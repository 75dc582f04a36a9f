package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"llamaembed/core"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

// exitError carries the process exit code chosen by a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	// A missing .env is normal; settings may come from the environment or flags.
	_ = godotenv.Load()

	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := newApp(stdout, stderr).Run(ctx, args)
	if err == nil {
		return core.ExitCodeSuccess
	}

	var exit *exitError
	if errors.As(err, &exit) {
		if exit.code != core.ExitCodeSuccess && !core.IsSignalExit(exit.code) {
			fmt.Fprintln(stderr, "Error:", exit.err)
		}
		return exit.code
	}
	// Flag parsing and other errors raised by the CLI library itself
	fmt.Fprintln(stderr, "Error:", err)
	return core.ExitCodeUsage
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "llamaembed",
		Usage:     "Compute llama.cpp embeddings for text and PDF files",
		ArgsUsage: "FILE...",
		Writer:    stdout,
		ErrWriter: stderr,
		// Exit codes are decided in run, never inside the CLI library.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Flags:          embedFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return embedAction(ctx, cmd, stdout)
		},
		Commands: []*cli.Command{
			pruneCmd(stdout),
		},
	}
}

func embedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", Sources: cli.EnvVars("EMBED_CONFIG")},
		&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "path to a GGUF model (LLAMA_MODEL_PATH)"},
		&cli.IntFlag{Name: "gpu-layers", Usage: "layers offloaded to the GPU", Value: core.DefaultGPULayers},
		&cli.IntFlag{Name: "batch-size", Usage: "native batch size", Value: core.DefaultBatchSize},
		&cli.IntFlag{Name: "context-size", Usage: "context window in tokens", Value: core.DefaultContextSize},
		&cli.IntFlag{Name: "threads", Aliases: []string{"t"}, Usage: "threads per evaluation", Value: core.DefaultThreads},
		&cli.IntFlag{Name: "token-buffer", Usage: "token buffer capacity per worker", Value: core.DefaultTokenBuffer},
		&cli.IntFlag{Name: "repeat", Aliases: []string{"n"}, Usage: "evaluations per file", Value: core.DefaultRepeat},
		&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Usage: "files embedded concurrently", Value: core.DefaultWorkers},
		&cli.IntFlag{Name: "preview", Usage: "vector components printed per run", Value: core.DefaultPreview},
		&cli.StringFlag{Name: "store", Usage: "SQLite file for embeddings (EMBED_STORE_PATH)"},
		&cli.BoolFlag{Name: "skip-cached", Usage: "reuse stored vectors for unchanged content"},
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		&cli.StringFlag{Name: "log-file", Usage: "also write JSON logs to this file"},
		&cli.BoolFlag{Name: "dev", Usage: "colored debug logging"},
		&cli.BoolFlag{Name: "no-color", Usage: "plain report output"},
		&cli.DurationFlag{Name: "shutdown-timeout", Usage: "time allowed for cleanup", Value: 30 * time.Second},
	}
}

// loadConfig layers defaults, the YAML file, the environment and finally
// any flags given explicitly on the command line.
func loadConfig(cmd *cli.Command) (*core.Config, error) {
	cfg, err := core.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("model") {
		cfg.ModelPath = cmd.String("model")
	}
	ints := map[string]*int{
		"gpu-layers":   &cfg.GPULayers,
		"batch-size":   &cfg.BatchSize,
		"context-size": &cfg.ContextSize,
		"threads":      &cfg.Threads,
		"token-buffer": &cfg.TokenBuffer,
		"repeat":       &cfg.Repeat,
		"workers":      &cfg.Workers,
		"preview":      &cfg.Preview,
	}
	for name, dst := range ints {
		if cmd.IsSet(name) {
			*dst = int(cmd.Int(name))
		}
	}
	if cmd.IsSet("store") {
		cfg.StorePath = cmd.String("store")
	}
	if cmd.IsSet("skip-cached") {
		cfg.SkipCached = cmd.Bool("skip-cached")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("log-file") {
		cfg.LogFile = cmd.String("log-file")
	}
	if cmd.IsSet("dev") {
		cfg.DevMode = cmd.Bool("dev")
	}
	return cfg, nil
}
