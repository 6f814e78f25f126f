package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/docs2md/internal/model"
)

func tasksFor(n int) []model.PageTask {
	tasks := make([]model.PageTask, n)
	for i := range tasks {
		tasks[i] = model.PageTask{URL: fmt.Sprintf("https://example.com/docs/p%d", i)}
	}
	return tasks
}

func TestNewWorkerPool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		width int
		want  int
	}{
		{"explicit width", 3, 3},
		{"zero falls back", 0, DefaultWorkers},
		{"negative falls back", -1, DefaultWorkers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NewWorkerPool(tt.width).Width(); got != tt.want {
				t.Errorf("Width() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWorkerPoolRun(t *testing.T) {
	t.Parallel()

	t.Run("yields one result per task", func(t *testing.T) {
		t.Parallel()

		tasks := tasksFor(25)
		pool := NewWorkerPool(4, WithPoolLogger(discardLogger()))
		results := pool.Run(context.Background(), tasks, func(_ context.Context, task model.PageTask) *model.PageResult {
			return &model.PageResult{SourceURL: task.URL, Outcome: model.OutcomeFetched, Filename: "x.md"}
		})

		seen := make(map[string]int)
		for r := range results {
			seen[r.SourceURL]++
		}
		if len(seen) != len(tasks) {
			t.Fatalf("got %d distinct results, want %d", len(seen), len(tasks))
		}
		for u, n := range seen {
			if n != 1 {
				t.Errorf("%s reported %d times", u, n)
			}
		}
	})

	t.Run("respects width", func(t *testing.T) {
		t.Parallel()

		var active, peak atomic.Int32
		pool := NewWorkerPool(3, WithPoolLogger(discardLogger()))
		results := pool.Run(context.Background(), tasksFor(12), func(_ context.Context, task model.PageTask) *model.PageResult {
			n := active.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			active.Add(-1)
			return &model.PageResult{SourceURL: task.URL}
		})
		for range results {
		}

		if got := peak.Load(); got > 3 {
			t.Errorf("peak concurrency = %d, want <= 3", got)
		}
	})

	t.Run("isolates panics", func(t *testing.T) {
		t.Parallel()

		tasks := tasksFor(5)
		pool := NewWorkerPool(2, WithPoolLogger(discardLogger()))
		results := pool.Run(context.Background(), tasks, func(_ context.Context, task model.PageTask) *model.PageResult {
			if task.URL == tasks[2].URL {
				panic("kaboom")
			}
			return &model.PageResult{SourceURL: task.URL, Outcome: model.OutcomeFetched, Filename: "x.md"}
		})

		var panicked, ok int
		for r := range results {
			if errors.Is(r.Err, ErrWorkerPanic) {
				panicked++
				if r.SourceURL != tasks[2].URL {
					t.Errorf("panic attributed to %s", r.SourceURL)
				}
				if r.Outcome != model.OutcomeFetchFailed {
					t.Errorf("outcome = %s, want fetch_failed", r.Outcome)
				}
				continue
			}
			ok++
		}
		if panicked != 1 || ok != 4 {
			t.Errorf("panicked=%d ok=%d, want 1 and 4", panicked, ok)
		}
	})

	t.Run("nil result becomes failure", func(t *testing.T) {
		t.Parallel()

		pool := NewWorkerPool(1, WithPoolLogger(discardLogger()))
		results := pool.Run(context.Background(), tasksFor(1), func(_ context.Context, _ model.PageTask) *model.PageResult {
			return nil
		})

		r := <-results
		if r == nil || !errors.Is(r.Err, ErrNoResult) {
			t.Fatalf("expected ErrNoResult, got %+v", r)
		}
		if _, open := <-results; open {
			t.Error("expected channel to be closed")
		}
	})

	t.Run("no tasks closes immediately", func(t *testing.T) {
		t.Parallel()

		results := NewWorkerPool(2).Run(context.Background(), nil, func(_ context.Context, _ model.PageTask) *model.PageResult {
			t.Error("work must not be called")
			return nil
		})
		if _, open := <-results; open {
			t.Error("expected closed channel")
		}
	})
}
