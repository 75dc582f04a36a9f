package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"llamaembed/core"
	"llamaembed/db"
	"llamaembed/llamaruntime"
	"llamaembed/logging"
	"llamaembed/metrics"
	"llamaembed/report"
	"llamaembed/shutdown"
	"llamaembed/textsource"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// embedAction is the root command: embed every FILE argument cfg.Repeat
// times and print the timing of each run.
func embedAction(ctx context.Context, cmd *cli.Command, stdout io.Writer) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return &exitError{code: core.ExitCodeForError(err), err: err}
	}
	inputs := cmd.Args().Slice()
	if len(inputs) == 0 {
		return &exitError{code: core.ExitCodeUsage, err: core.ErrNoInputs()}
	}
	if err := cfg.Validate(); err != nil {
		return &exitError{code: core.ExitCodeForError(err), err: err}
	}

	logger, err := logging.NewLogger(logging.Options{
		Level:       cfg.LogLevel,
		Development: cfg.DevMode,
		FilePath:    cfg.LogFile,
	})
	if err != nil {
		err = core.ErrInvalidValue("LOG_FILE", cfg.LogFile, err.Error())
		return &exitError{code: core.ExitCodeUsage, err: err}
	}

	runID := uuid.NewString()
	log := logger.With(zap.String("run_id", runID))

	manager := shutdown.NewManager(ctx, log.Zap(), shutdown.WithTimeout(cmd.Duration("shutdown-timeout")))
	manager.Register("logger", shutdown.PriorityLogger, shutdown.SyncLogger(logger))
	manager.Start()

	r := &runner{
		cfg:     cfg,
		runID:   runID,
		log:     log,
		manager: manager,
		reader:  textsource.NewDefaultReader(),
		timings: metrics.NewMetricsStore(metrics.DefaultStoreConfig()),
		printer: report.NewPrinter(stdout, report.Options{
			Preview: cfg.Preview,
			NoColor: cmd.Bool("no-color"),
		}),
	}

	runErr := r.run(manager.Context(), inputs)
	if runErr != nil {
		log.Error("Embedding run failed", zap.Error(runErr))
	}
	code := manager.ExitCode(runErr)

	if shutdownErr := manager.Shutdown(); shutdownErr != nil && runErr == nil {
		runErr = fmt.Errorf("cleanup: %w", shutdownErr)
		code = core.ExitCodeError
	}
	if runErr != nil || code != core.ExitCodeSuccess {
		if runErr == nil {
			runErr = context.Canceled
		}
		return &exitError{code: code, err: runErr}
	}
	return nil
}

// runner holds the state of one embed invocation.
type runner struct {
	cfg      *core.Config
	runID    string
	modelKey string
	log      *logging.Logger
	manager  *shutdown.Manager
	reader   *textsource.Reader
	printer  *report.Printer
	timings  *metrics.MetricsStore

	repo   *db.Repository
	writer *db.RecordWriter

	mu     sync.Mutex // guards printer and the counters below
	runs   int
	cached int
	failed int
}

func (r *runner) run(ctx context.Context, inputs []string) error {
	start := time.Now()
	defer func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.printer.Summary(report.Summary{
			Files:    len(inputs),
			Runs:     r.runs,
			Cached:   r.cached,
			Failed:   r.failed,
			Duration: time.Since(start),
		})
	}()

	info, err := llamaruntime.InspectModelFile(r.cfg.ModelPath)
	if err != nil {
		return modelPathError(r.cfg.ModelPath, err)
	}
	r.modelKey = info.Path
	if abs, err := filepath.Abs(info.Path); err == nil {
		r.modelKey = abs
	}
	r.log.Debug("Model file checked",
		zap.String("path", r.modelKey),
		zap.Int64("size_bytes", info.Size),
		zap.Uint32("gguf_version", info.Version),
	)

	docs, err := r.readInputs(inputs)
	if err != nil {
		return err
	}

	if r.cfg.StoreEnabled() {
		if err := r.openStore(ctx); err != nil {
			return err
		}
	}

	pending := docs
	if r.cfg.SkipCached {
		pending, err = r.serveCached(ctx, docs)
		if err != nil {
			return err
		}
	}
	if len(pending) == 0 {
		r.log.Info("All inputs served from the store", zap.Int("files", len(docs)))
		return nil
	}
	return r.embedAll(ctx, pending, info.Size)
}

// readInputs reads every input before any model work starts. The first
// unreadable file aborts the run.
func (r *runner) readInputs(inputs []string) ([]*textsource.Document, error) {
	docs := make([]*textsource.Document, 0, len(inputs))
	for _, path := range inputs {
		doc, err := r.reader.Read(path)
		if err != nil {
			r.mu.Lock()
			r.failed++
			r.printer.Error(path, err)
			r.mu.Unlock()
			return nil, err
		}
		// Report lines name files the way they were given
		doc.Name = path
		r.log.Debug("Input read",
			zap.String("source", path),
			zap.String("kind", string(doc.Kind)),
			zap.Int("bytes", doc.Size()),
			zap.Int("pages", doc.Pages),
		)
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *runner) openStore(ctx context.Context) error {
	database, err := db.Open(ctx, r.cfg.StorePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if version, _, err := db.MigrationVersion(ctx, database.Path()); err == nil {
		r.log.Debug("Store opened",
			zap.String("path", database.Path()),
			zap.Uint("schema_version", version),
		)
	}
	r.repo = db.NewRepository(database)
	r.writer = db.NewRecordWriter(r.repo.SaveEmbedding, db.DefaultChannelCapacity)

	r.manager.Register("store", shutdown.PriorityStore, func(ctx context.Context) error {
		writeErr := r.writer.Close(ctx)
		fields := []zap.Field{
			zap.String("path", database.Path()),
			zap.Int("written", r.writer.Written()),
		}
		if stored, err := r.repo.ListByRun(ctx, r.runID); err == nil {
			fields = append(fields, zap.Int("run_rows", len(stored)))
		} else {
			writeErr = errors.Join(writeErr, err)
		}
		r.log.Info("Embeddings stored", fields...)
		return errors.Join(writeErr, database.Close())
	})
	return nil
}

// serveCached prints stored vectors for documents whose content was already
// embedded with this model and returns the rest.
func (r *runner) serveCached(ctx context.Context, docs []*textsource.Document) ([]*textsource.Document, error) {
	var pending []*textsource.Document
	for _, doc := range docs {
		rec, err := r.repo.FindByHash(ctx, doc.ContentSHA256, r.modelKey)
		switch {
		case errors.Is(err, db.ErrNotFound):
			pending = append(pending, doc)
			continue
		case err != nil:
			return nil, err
		}

		r.mu.Lock()
		r.cached++
		r.printer.Run(report.Run{
			Source:     doc.Name,
			Repetition: 1,
			Elapsed:    time.Duration(rec.DurationMS) * time.Millisecond,
			Tokens:     rec.TokenCount,
			Values:     rec.Vector,
			Cached:     true,
		})
		r.mu.Unlock()

		r.log.Debug("Embedding served from store", logging.EmbeddingFields(logging.EmbeddingMetrics{
			Source:     doc.Name,
			Tokens:     rec.TokenCount,
			Dimensions: rec.Dimensions(),
			Cached:     true,
		}))
	}
	return pending, nil
}

func (r *runner) embedAll(ctx context.Context, docs []*textsource.Document, modelSize int64) error {
	params := llamaruntime.NewParams().
		EmbeddingOnly().
		GPULayers(r.cfg.GPULayers).
		BatchSize(r.cfg.BatchSize).
		ContextSize(r.cfg.ContextSize)

	loadStart := time.Now()
	model, err := llamaruntime.Load(r.cfg.ModelPath, params)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	loadEnd := time.Now()
	r.manager.Register("model", shutdown.PriorityModel, core.CloserShutdown(model))
	modelType := model.ModelType()
	fields := []zap.Field{
		logging.ModelFields(logging.ModelInfo{
			Path:        r.modelKey,
			Type:        modelType,
			SizeBytes:   modelSize,
			GPULayers:   params.NumGPULayers(),
			ContextSize: params.NumCtx(),
			BatchSize:   params.NumBatch(),
		}),
		zap.Bool("backend_ready", llamaruntime.BackendReady()),
	}
	r.log.Info("Model loaded", append(fields, logging.TimingFields(loadStart, loadEnd)...)...)

	workers := min(r.cfg.Workers, len(docs))
	poolConfig := llamaruntime.DefaultContextPoolConfig()
	poolConfig.Size = workers
	poolConfig.TokenBuffer = r.cfg.TokenBuffer
	pool, err := llamaruntime.NewContextPool(model, params, poolConfig)
	if err != nil {
		return fmt.Errorf("create contexts: %w", err)
	}
	r.manager.Register("context pool", shutdown.PriorityPool, core.CloserShutdown(pool))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, doc := range docs {
		g.Go(func() error {
			return r.manager.WrapOperation(gctx, doc.Name, func(ctx context.Context) error {
				return r.embedDocument(ctx, pool, modelType, doc)
			})
		})
	}
	err = g.Wait()

	stats := pool.Stats()
	r.log.Debug("Context pool drained",
		zap.Int("size", stats.Size),
		zap.Int64("acquires", stats.TotalAcquires),
		zap.Int64("acquire_timeouts", stats.AcquireTimeouts),
	)

	if r.cfg.Repeat > 1 {
		r.mu.Lock()
		r.printer.Timings(r.timings.SourceStats())
		r.mu.Unlock()
	}
	for _, s := range r.timings.SlowestSources(3) {
		r.log.Debug("Slow input",
			zap.String("source", s.Source),
			zap.Duration("mean", s.Mean),
			zap.Float64("tokens_per_second", s.TokensPerSecond()),
		)
	}
	return err
}

// embedDocument evaluates doc cfg.Repeat times on one leased context,
// printing each run, and queues the final vector for the store.
func (r *runner) embedDocument(ctx context.Context, pool *llamaruntime.ContextPool, modelType string, doc *textsource.Document) error {
	c, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", doc.Name, err)
	}
	defer pool.Release(c)

	buf := pool.TokenBuffer(c)
	var (
		vector  []float32
		tokens  int
		elapsed time.Duration
	)
	for rep := 1; rep <= r.cfg.Repeat; rep++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		view, n, err := c.Embed(doc.Text, buf, r.cfg.Threads)
		elapsed = time.Since(start)
		if err != nil {
			r.timings.RecordRun(metrics.RunRecord{
				Source:     doc.Name,
				Repetition: rep,
				Status:     metrics.RunStatusError,
				Duration:   elapsed,
				ErrorMsg:   err.Error(),
			})
			r.mu.Lock()
			r.failed++
			r.printer.Error(doc.Name, err)
			r.mu.Unlock()
			return fmt.Errorf("%s: %w", doc.Name, err)
		}
		values, err := view.Slice()
		if err != nil {
			return fmt.Errorf("%s: %w", doc.Name, err)
		}
		tokens = n
		r.timings.RecordRun(metrics.RunRecord{
			Source:     doc.Name,
			Repetition: rep,
			Status:     metrics.RunStatusSuccess,
			Tokens:     n,
			Duration:   elapsed,
		})

		r.mu.Lock()
		r.runs++
		r.printer.Run(report.Run{
			Source:     doc.Name,
			Repetition: rep,
			Elapsed:    elapsed,
			Tokens:     n,
			Values:     values,
		})
		r.mu.Unlock()

		r.log.Debug("Embedding computed", logging.EmbeddingFields(logging.EmbeddingMetrics{
			Source:     doc.Name,
			Repetition: rep,
			Tokens:     n,
			Dimensions: len(values),
			Duration:   elapsed,
		}))

		if rep == r.cfg.Repeat {
			if vector, err = view.Copy(); err != nil {
				return fmt.Errorf("%s: %w", doc.Name, err)
			}
		}
	}

	r.log.Info("Embedding complete", logging.EmbeddingFields(logging.EmbeddingMetrics{
		Source:     doc.Name,
		Repetition: r.cfg.Repeat,
		Tokens:     tokens,
		Dimensions: len(vector),
		Duration:   elapsed,
	}))

	if r.writer == nil {
		return nil
	}
	// The vector is already computed; keep it even if a signal arrived
	return r.writer.Enqueue(context.WithoutCancel(ctx), db.EmbeddingRecord{
		RunID:         r.runID,
		Source:        doc.Name,
		ContentSHA256: doc.ContentSHA256,
		ModelPath:     r.modelKey,
		ModelType:     modelType,
		TokenCount:    tokens,
		Vector:        vector,
		DurationMS:    elapsed.Milliseconds(),
	})
}

// modelPathError maps a failed model preflight onto a configuration error.
func modelPathError(path string, err error) error {
	if errors.Is(err, llamaruntime.ErrModelFileNotFound) {
		return core.ErrModelNotFound(path)
	}
	return core.ErrInvalidModel(path, err.Error())
}
