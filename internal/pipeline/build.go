package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/nao1215/docs2md/internal/config"
	"github.com/nao1215/docs2md/internal/crawler"
	"github.com/nao1215/docs2md/internal/extract"
	"github.com/nao1215/docs2md/internal/store"
)

// FromConfig wires a fully configured Orchestrator from cfg.
// cfg must have passed Validate.
func FromConfig(cfg *config.Config, logger *slog.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ContentClassRegexp() == nil {
		return nil, ErrConfigNotValidated
	}

	client, err := crawler.NewHTTPClient(cfg.Timeout, cfg.ProxyURL, cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	fetcher := crawler.NewFetcher(client,
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithHeaders(cfg.Headers),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithRateLimit(cfg.RateLimit),
		crawler.WithFetcherLogger(logger),
	)

	links, err := crawler.NewLinkExtractor(cfg.BaseURL, cfg.DocsPrefix, crawler.WithLinkLogger(logger))
	if err != nil {
		return nil, err
	}

	extractor := extract.NewExtractor(
		extract.WithContentClass(cfg.ContentClassRegexp()),
		extract.WithTitleSuffix(cfg.ResolvedTitleSuffix()),
		extract.WithLogger(logger),
	)

	pages := store.NewPageStore(cfg.OutputDir, cfg.DocsPrefix, store.WithPageLogger(logger))
	index := store.NewIndexBuilder(cfg.OutputDir, cfg.IndexFilename,
		store.WithSiteName(cfg.ResolvedSiteName()),
		store.WithIndexLogger(logger),
	)

	return NewOrchestrator(cfg.EntryURL, fetcher, links, extractor, pages, index,
		WithWorkers(cfg.Workers),
		WithRequestDelay(cfg.RequestDelay),
		WithCollisionPolicy(cfg.CollisionPolicy),
		WithOrchestratorLogger(logger),
	), nil
}
