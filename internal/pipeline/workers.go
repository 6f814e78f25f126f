package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/docs2md/internal/model"
)

// DefaultWorkers is the default pool width.
const DefaultWorkers = 10

// WorkFunc processes one task. It must always return a result.
type WorkFunc func(ctx context.Context, task model.PageTask) *model.PageResult

// WorkerPool runs page tasks with bounded parallelism and streams results
// in completion order.
type WorkerPool struct {
	width  int
	logger *slog.Logger
}

// WorkerPoolOption configures a WorkerPool.
type WorkerPoolOption func(*WorkerPool)

// WithPoolLogger sets the pool logger.
func WithPoolLogger(logger *slog.Logger) WorkerPoolOption {
	return func(p *WorkerPool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewWorkerPool creates a pool running at most width tasks at once.
// A non-positive width falls back to DefaultWorkers.
func NewWorkerPool(width int, opts ...WorkerPoolOption) *WorkerPool {
	if width <= 0 {
		width = DefaultWorkers
	}
	p := &WorkerPool{
		width:  width,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Width returns the maximum number of concurrent tasks.
func (p *WorkerPool) Width() int {
	return p.width
}

// Run dispatches every task and returns a channel that yields exactly one
// result per task, in completion order, and is closed after the last one.
// The channel is unbuffered: a worker holds its slot until the caller
// consumes its result, so the consumer's pace bounds the request rate.
//
// A panic in work is recovered and reported as a failed result; it never
// affects other tasks.
func (p *WorkerPool) Run(ctx context.Context, tasks []model.PageTask, work WorkFunc) <-chan *model.PageResult {
	results := make(chan *model.PageResult)

	go func() {
		defer close(results)

		var g errgroup.Group
		g.SetLimit(p.width)
		for _, task := range tasks {
			g.Go(func() error {
				results <- p.safeWork(ctx, task, work)
				return nil
			})
		}
		_ = g.Wait() //nolint:errcheck // workers never return errors
	}()

	return results
}

// safeWork runs work and converts a panic into a failed result.
func (p *WorkerPool) safeWork(ctx context.Context, task model.PageTask, work WorkFunc) (result *model.PageResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker panic", "url", task.URL, "panic", r)
			result = &model.PageResult{
				SourceURL: task.URL,
				Outcome:   model.OutcomeFetchFailed,
				Err:       fmt.Errorf("%w: %v", ErrWorkerPanic, r),
			}
		}
	}()

	result = work(ctx, task)
	if result == nil {
		result = &model.PageResult{
			SourceURL: task.URL,
			Outcome:   model.OutcomeFetchFailed,
			Err:       ErrNoResult,
		}
	}
	return result
}
