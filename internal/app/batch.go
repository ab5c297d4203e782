package app

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"
)

// BatchExecutor runs book jobs on a bounded worker pool. A run is all or
// nothing: the first failing job stops scheduling and every collected result
// is discarded. Jobs already in flight are left to finish; their results are
// dropped.
type BatchExecutor struct {
	workers     int
	stableOrder bool
	logger      *slog.Logger
	metrics     *Metrics
}

// NewBatchExecutor returns an executor with at most workers jobs in flight.
// With stableOrder set results follow submission order, otherwise they follow
// completion order.
func NewBatchExecutor(workers int, stableOrder bool, logger *slog.Logger, metrics *Metrics) *BatchExecutor {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchExecutor{
		workers:     workers,
		stableOrder: stableOrder,
		logger:      logger,
		metrics:     metrics,
	}
}

// BatchResult is the merged output of a successful run.
type BatchResult struct {
	Books   []*BookResult
	Records []Record
	Report  []ReportEntry
}

// Run executes jobs and merges their output. On failure it returns the first
// job error and a nil result.
func (e *BatchExecutor) Run(ctx context.Context, jobs []*BookJob) (*BatchResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	results := make(chan *BookResult)
	done := make(chan error, 1)

	go func() {
		for _, job := range jobs {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				// A slot may open up after another job failed.
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := job.Run()
				if err != nil {
					e.logger.Error("Book failed",
						slog.String("book", job.Book.Path),
						slog.String("error", err.Error()))
					return err
				}
				select {
				case results <- res:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		done <- g.Wait()
		close(results)
	}()

	collected := make([]*BookResult, 0, len(jobs))
	for res := range results {
		collected = append(collected, res)
		e.metrics.ObserveBook(res)
		e.logger.Debug("Collected book",
			slog.String("book", res.Book.Path),
			slog.Int("done", len(collected)),
			slog.Int("total", len(jobs)))
	}

	if err := <-done; err != nil {
		return nil, err
	}
	// Scheduling stops silently when the caller cancels.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if e.stableOrder {
		sort.SliceStable(collected, func(i, j int) bool {
			return collected[i].Position < collected[j].Position
		})
	}
	return merge(collected), nil
}

func merge(books []*BookResult) *BatchResult {
	out := &BatchResult{Books: books}
	for _, b := range books {
		out.Records = append(out.Records, b.Records...)
		if b.Report != nil {
			out.Report = append(out.Report, *b.Report)
		}
	}
	return out
}
