package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/nao1215/docs2md/internal/config"
	"github.com/nao1215/docs2md/internal/model"
	"github.com/nao1215/docs2md/internal/store"
)

// progressEvery controls how often collection progress is logged.
const progressEvery = 5

// LinkDiscoverer derives the documentation URLs from the entry page.
type LinkDiscoverer interface {
	Extract(r io.Reader, docURL string) ([]string, error)
}

// IndexWriter writes the manifest.
type IndexWriter interface {
	Build(entries []model.IndexEntry) (string, error)
}

// Orchestrator drives a crawl through its phases:
// seeding, discovering, dispatching, collecting, indexing and reporting.
//
// Only a failed entry fetch, an empty discovery result or an unusable
// output directory abort a run. Per-page failures are recorded in the
// run summary and never affect other pages.
type Orchestrator struct {
	entryURL   string
	fetcher    PageFetcher
	discoverer LinkDiscoverer
	processor  *PageProcessor
	saver      PageSaver
	index      IndexWriter
	workers    int
	delay      time.Duration
	collisions string
	logger     *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithWorkers sets the worker pool width.
func WithWorkers(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithRequestDelay sets the pause before consuming each completed result.
func WithRequestDelay(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.delay = d
		}
	}
}

// WithCollisionPolicy sets how URLs sharing an output file name are handled
// (config.CollisionReport or config.CollisionOverwrite).
func WithCollisionPolicy(policy string) OrchestratorOption {
	return func(o *Orchestrator) {
		if policy != "" {
			o.collisions = policy
		}
	}
}

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator creates an Orchestrator for entryURL.
func NewOrchestrator(
	entryURL string,
	fetcher PageFetcher,
	discoverer LinkDiscoverer,
	extractor ContentExtractor,
	saver PageSaver,
	index IndexWriter,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		entryURL:   entryURL,
		fetcher:    fetcher,
		discoverer: discoverer,
		saver:      saver,
		index:      index,
		workers:    DefaultWorkers,
		delay:      config.DefaultRequestDelay,
		collisions: config.CollisionReport,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.processor = NewPageProcessor(fetcher, extractor, saver, o.logger)
	return o
}

// runState is shared by the phases of one run.
type runState struct {
	results   <-chan *model.PageResult
	collected bool
}

// drain discards outstanding results so no worker stays blocked when the
// run stopped before collecting.
func (s *runState) drain() {
	if s.results == nil || s.collected {
		return
	}
	for range s.results {
	}
}

// Run executes a complete crawl. The returned run is never nil; on a fatal
// error it holds whatever the completed phases produced.
func (o *Orchestrator) Run(ctx context.Context) (*model.CrawlRun, error) {
	run := model.NewCrawlRun(o.entryURL, o.saver.Dir())
	state := &runState{}

	p := New(WithLogger(o.logger))
	p.AddPhases(
		NewPhase(PhaseSeeding, o.seed),
		NewPhase(PhaseDiscovering, o.discover),
		NewPhase(PhaseDispatching, func(ctx context.Context, run *model.CrawlRun) error {
			return o.dispatch(ctx, run, state)
		}),
		NewPhase(PhaseCollecting, func(ctx context.Context, run *model.CrawlRun) error {
			return o.collect(ctx, run, state)
		}),
		NewPhase(PhaseIndexing, o.buildIndex),
		NewPhase(PhaseReporting, o.report),
	)

	o.logger.Info("starting documentation crawl", "entry", o.entryURL, "output", run.OutputDir)
	o.logger.Debug("crawl phases", "phases", p.PhaseNames())
	err := p.Execute(ctx, run)
	if err != nil {
		state.drain()
	}
	run.FinishedAt = time.Now()
	return run, err
}

func (o *Orchestrator) seed(ctx context.Context, run *model.CrawlRun) error {
	o.logger.Info("fetching entry page to find links", "url", run.EntryURL)
	body, err := o.fetcher.Fetch(ctx, run.EntryURL)
	if err != nil {
		return &EntryFetchError{URL: run.EntryURL, Err: err}
	}
	run.EntryHTML = body
	return nil
}

func (o *Orchestrator) discover(_ context.Context, run *model.CrawlRun) error {
	links, err := o.discoverer.Extract(strings.NewReader(run.EntryHTML), run.EntryURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoLinksFound, err)
	}
	if len(links) == 0 {
		return ErrNoLinksFound
	}
	run.Discovered = links
	o.logger.Info("found documentation pages to scrape", "count", len(links))
	return nil
}

// dispatch creates the output directory, resolves file name collisions and
// starts the worker pool.
func (o *Orchestrator) dispatch(ctx context.Context, run *model.CrawlRun, state *runState) error {
	if err := os.MkdirAll(run.OutputDir, 0o750); err != nil {
		return fmt.Errorf("%w %s: %w", ErrOutputDir, run.OutputDir, err)
	}

	run.Summary = model.NewCrawlSummary(len(run.Discovered))
	run.Tasks = o.plan(run)

	pool := NewWorkerPool(o.workers, WithPoolLogger(o.logger))
	o.logger.Info("starting scraping process",
		"tasks", len(run.Tasks),
		"workers", pool.Width(),
	)
	state.results = pool.Run(ctx, run.Tasks, o.processor.Process)
	return nil
}

// plan turns the discovered URLs into tasks. Under the report policy the
// first URL (in sorted order) claiming a file name keeps it and the others
// are failed without being fetched.
func (o *Orchestrator) plan(run *model.CrawlRun) []model.PageTask {
	tasks := make([]model.PageTask, 0, len(run.Discovered))
	owners := make(map[string]string, len(run.Discovered))

	for _, u := range run.Discovered {
		if o.collisions == config.CollisionReport {
			name := o.saver.Filename(u)
			if owner, taken := owners[name]; taken {
				err := fmt.Errorf("%w: %s (kept by %s)", store.ErrFilenameCollision, name, owner)
				o.logger.Warn("filename collision", "url", u, "filename", name, "kept", owner)
				run.Summary.AddResult(&model.PageResult{
					SourceURL: u,
					Outcome:   model.OutcomeSaveFailed,
					Err:       err,
				})
				run.Summary.AddFailed(u, err)
				continue
			}
			owners[name] = u
		}
		tasks = append(tasks, model.PageTask{URL: u})
	}
	return tasks
}

// collect consumes results in completion order until every task reported.
func (o *Orchestrator) collect(ctx context.Context, run *model.CrawlRun, state *runState) error {
	total := len(run.Tasks)
	seen := make(map[string]bool, total)
	processed := 0

	for {
		o.pace(ctx)
		result, ok := <-state.results
		if !ok {
			break
		}
		processed++
		if processed%progressEvery == 0 || processed == total {
			o.logger.Info("processing results", "processed", processed, "total", total)
		}
		seen[result.SourceURL] = true
		o.record(run.Summary, result)
	}

	for _, task := range run.Tasks {
		if !seen[task.URL] {
			o.logger.Error("task produced no result", "url", task.URL)
			o.record(run.Summary, &model.PageResult{
				SourceURL: task.URL,
				Outcome:   model.OutcomeFetchFailed,
				Err:       ErrNoResult,
			})
		}
	}

	state.collected = true
	o.logger.Info("scraping process finished")
	return nil
}

// record classifies one result as indexed or failed.
func (o *Orchestrator) record(summary *model.CrawlSummary, result *model.PageResult) {
	summary.AddResult(result)
	if result.Succeeded() {
		summary.AddIndexed(model.IndexEntry{Filename: result.Filename, Title: result.Title})
		return
	}

	cause := result.Err
	if cause == nil {
		cause = fmt.Errorf("page ended with outcome %s", result.Outcome)
	}
	o.logger.Warn("page failed, adding to failed list",
		"url", result.SourceURL,
		"outcome", result.Outcome.String(),
		"error", cause,
	)
	summary.AddFailed(result.SourceURL, cause)
}

func (o *Orchestrator) pace(ctx context.Context) {
	if o.delay <= 0 {
		return
	}
	timer := time.NewTimer(o.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (o *Orchestrator) buildIndex(_ context.Context, run *model.CrawlRun) error {
	path, err := o.index.Build(run.Summary.Indexed())
	switch {
	case err == nil:
		run.ManifestPath = path
	case errors.Is(err, store.ErrNoEntries):
		o.logger.Warn("manifest not written: no indexed pages")
	default:
		o.logger.Error("manifest not written", "error", err)
	}
	return nil
}

func (o *Orchestrator) report(_ context.Context, run *model.CrawlRun) error {
	s := run.Summary
	o.logger.Info("crawl summary",
		"attempted", s.TotalDiscovered,
		"indexed", s.IndexedCount(),
		"failed", s.FailedCount(),
		"output", run.OutputDir,
		"elapsed", run.Elapsed().Round(time.Millisecond),
	)

	failed := s.FailedURLs()
	if len(failed) == 0 {
		o.logger.Info("all discovered documentation pages processed without errors")
		return nil
	}
	o.logger.Warn("failed URLs (fetch, extraction or save)", "count", len(failed))
	for _, u := range failed {
		cause, _ := s.FailureCause(u)
		o.logger.Warn("failed", "url", u, "error", cause)
	}
	return nil
}
