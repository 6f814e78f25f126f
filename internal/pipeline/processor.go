package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/docs2md/internal/extract"
	"github.com/nao1215/docs2md/internal/model"
)

// PageFetcher downloads a page body.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// ContentExtractor converts a page body to Markdown and a title.
type ContentExtractor interface {
	Extract(doc string, pageURL string) (*extract.Result, error)
}

// PageSaver persists a page and names its output file.
type PageSaver interface {
	Save(pageURL, markdown string) (string, error)
	Filename(pageURL string) string
	Dir() string
}

// PageProcessor runs the per-page workflow: fetch, extract, save.
// It is stateless and safe for concurrent use.
type PageProcessor struct {
	fetcher   PageFetcher
	extractor ContentExtractor
	saver     PageSaver
	logger    *slog.Logger
}

// NewPageProcessor creates a PageProcessor.
func NewPageProcessor(fetcher PageFetcher, extractor ContentExtractor, saver PageSaver, logger *slog.Logger) *PageProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageProcessor{
		fetcher:   fetcher,
		extractor: extractor,
		saver:     saver,
		logger:    logger,
	}
}

// Process handles one task and always returns a result with exactly one
// outcome. A panic in any step is recovered and reported with the outcome
// of the step that was running.
func (p *PageProcessor) Process(ctx context.Context, task model.PageTask) (result *model.PageResult) {
	start := time.Now()
	result = &model.PageResult{SourceURL: task.URL}
	stage, step := model.OutcomeFetchFailed, "fetch"

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("page processing panicked",
				"url", task.URL,
				"step", step,
				"panic", r,
			)
			result.Outcome = stage
			result.Filename = ""
			result.Err = fmt.Errorf("%w during %s: %v", ErrWorkerPanic, step, r)
		}
		result.Duration = time.Since(start)
	}()

	p.logger.Info("scraping", "url", task.URL)

	body, err := p.fetcher.Fetch(ctx, task.URL)
	if err != nil {
		p.logger.Error("fetch failed", "url", task.URL, "error", err)
		result.Outcome = model.OutcomeFetchFailed
		result.Err = err
		return result
	}

	stage, step = model.OutcomeExtractionFailed, "extract"
	extracted, err := p.extractor.Extract(body, task.URL)
	if err != nil {
		p.logger.Error("extraction failed", "url", task.URL, "error", err)
		result.Outcome = model.OutcomeExtractionFailed
		result.Err = err
		return result
	}
	result.Markdown = extracted.Markdown
	result.Title = strings.TrimSpace(extracted.Title)
	result.LowContent = extracted.LowContent
	result.Degraded = extracted.Degraded

	if strings.TrimSpace(extracted.Markdown) == "" {
		result.Outcome = model.OutcomeExtractionFailed
		result.Err = extract.ErrEmptyContent
		return result
	}

	stage, step = model.OutcomeSaveFailed, "save"
	filename, err := p.saver.Save(task.URL, extracted.Markdown)
	if err != nil {
		result.Outcome = model.OutcomeSaveFailed
		result.Err = err
		return result
	}
	result.Filename = filename
	result.Outcome = model.OutcomeFetched

	if result.Title == "" {
		p.logger.Warn("content saved but title missing, skipping index entry", "url", task.URL)
		result.Err = ErrUntitled
	}
	return result
}
