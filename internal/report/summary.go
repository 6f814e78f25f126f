package report

import (
	"time"

	"github.com/nao1215/docs2md/internal/model"
)

// FailedPage is a URL that was not indexed and the reason why.
type FailedPage struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// OutcomeCount is the number of pages that ended with one outcome.
type OutcomeCount struct {
	Outcome string `json:"outcome"`
	Count   int    `json:"count"`
}

// RunSummary is the report view of a finished crawl run.
// It is built once from the run and does not change afterwards.
type RunSummary struct {
	EntryURL     string    `json:"entry_url"`
	OutputDir    string    `json:"output_dir"`
	ManifestPath string    `json:"manifest_path,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	ElapsedMS    int64     `json:"elapsed_ms"`

	// Error is the fatal error that aborted the run, if any.
	Error string `json:"error,omitempty"`

	Discovered int `json:"discovered"`
	Indexed    int `json:"indexed"`
	Failed     int `json:"failed"`

	// Outcomes holds one count per outcome, in declaration order.
	Outcomes []OutcomeCount `json:"outcomes"`

	IndexedPages []model.IndexEntry `json:"indexed_pages"`
	FailedPages  []FailedPage       `json:"failed_pages"`

	// LowContentURLs are indexed pages with suspiciously little content.
	LowContentURLs []string `json:"low_content_urls,omitempty"`

	// DegradedURLs are indexed pages saved as plain text because Markdown
	// conversion failed.
	DegradedURLs []string `json:"degraded_urls,omitempty"`

	// ChangedURLs are pages whose content differs from the previous run.
	// Nil when no history comparison was made.
	ChangedURLs []string `json:"changed_urls,omitempty"`

	// RunID is the history database ID of the run, zero when not recorded.
	RunID int64 `json:"run_id,omitempty"`
}

// NewRunSummary builds the summary of run. runErr is the fatal error
// returned by the run, if any.
func NewRunSummary(run *model.CrawlRun, runErr error) *RunSummary {
	s := &RunSummary{
		EntryURL:     run.EntryURL,
		OutputDir:    run.OutputDir,
		ManifestPath: run.ManifestPath,
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
		ElapsedMS:    run.Elapsed().Milliseconds(),
		IndexedPages: []model.IndexEntry{},
		FailedPages:  []FailedPage{},
	}
	if runErr != nil {
		s.Error = runErr.Error()
	}

	counts := map[model.Outcome]int{}
	if sum := run.Summary; sum != nil {
		s.Discovered = sum.TotalDiscovered
		s.Indexed = sum.IndexedCount()
		s.Failed = sum.FailedCount()
		s.IndexedPages = sum.Indexed()
		for _, u := range sum.FailedURLs() {
			fp := FailedPage{URL: u}
			if cause, ok := sum.FailureCause(u); ok && cause != nil {
				fp.Error = cause.Error()
			}
			s.FailedPages = append(s.FailedPages, fp)
		}
		for _, r := range sum.Results() {
			if !r.Succeeded() {
				continue
			}
			if r.LowContent {
				s.LowContentURLs = append(s.LowContentURLs, r.SourceURL)
			}
			if r.Degraded {
				s.DegradedURLs = append(s.DegradedURLs, r.SourceURL)
			}
		}
		counts = sum.OutcomeCounts()
	}

	for _, o := range model.Outcomes {
		s.Outcomes = append(s.Outcomes, OutcomeCount{Outcome: o.String(), Count: counts[o]})
	}
	return s
}

// Complete reports whether the run finished without a fatal error.
func (s *RunSummary) Complete() bool {
	return s.Error == ""
}

// Elapsed returns the run duration.
func (s *RunSummary) Elapsed() time.Duration {
	return time.Duration(s.ElapsedMS) * time.Millisecond
}
