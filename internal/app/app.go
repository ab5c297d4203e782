package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"book_dataset/internal/chunker"
	"book_dataset/internal/config"
	"book_dataset/internal/source"
)

// App turns the configured books into a fine-tuning dataset.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *Pipeline
	executor *BatchExecutor
	sink     *DatasetSink
	index    *VectorIndex
	metrics  *Metrics
}

// New wires the pipeline for cfg. cfg must already be validated.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	chunkCfg := chunker.Config{ChunkSize: cfg.ChunkSize, Overlap: cfg.Overlap}
	chunkr, err := chunker.NewFactory(chunkCfg).GetChunker(cfg.Strategy)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunker: %w", err)
	}

	metrics := NewMetrics()
	a := &App{
		cfg:    cfg,
		logger: logger,
		pipeline: &Pipeline{
			Prompt:      cfg.PromptText(),
			Mode:        cfg.Mode,
			Chunker:     chunkr,
			ChunkConfig: chunkCfg,
			Sources: source.Options{
				WordsPerPage: cfg.WordsPerPage,
				Exclude:      cfg.Exclude,
				Logger:       logger,
			},
			Logger: logger,
		},
		executor: NewBatchExecutor(cfg.WorkerCount(), cfg.StableOrder, logger, metrics),
		sink:     NewDatasetSink(cfg.OutputFile, cfg.ReportPath(), logger),
		metrics:  metrics,
	}
	if cfg.Index.Enabled() {
		a.index = NewVectorIndex(cfg.Index, a.pipeline.Prompt, logger)
	}
	return a, nil
}

// Metrics returns the run counters.
func (a *App) Metrics() *Metrics {
	return a.metrics
}

// Run processes every book and writes the outputs. Nothing is written when
// any book fails.
func (a *App) Run(ctx context.Context) error {
	started := time.Now()
	a.logger.Info("Starting run",
		slog.Int("books", len(a.cfg.Books)),
		slog.String("mode", a.cfg.Mode),
		slog.String("strategy", a.pipeline.Chunker.Name()),
		slog.Int("workers", a.executor.workers))

	jobs := make([]*BookJob, 0, len(a.cfg.Books))
	for i, book := range a.cfg.Books {
		jobs = append(jobs, a.pipeline.Job(i, book))
	}

	result, err := a.executor.Run(ctx, jobs)
	if err != nil {
		return err
	}

	var report []ReportEntry
	if a.cfg.Mode == config.ModeChunks {
		report = result.Report
		if report == nil {
			report = []ReportEntry{}
		}
	}
	if err := a.sink.Write(result.Records, report); err != nil {
		return err
	}

	if a.index != nil {
		if err := a.index.Export(ctx, result.Books); err != nil {
			return err
		}
	}

	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteFile(a.cfg.MetricsFile); err != nil {
			return err
		}
	}

	a.logger.Info("Run complete",
		slog.Int("books", len(result.Books)),
		slog.Int("records", len(result.Records)),
		slog.Duration("elapsed", time.Since(started)))
	return nil
}
