package model

import (
	"encoding/hex"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/sha3"
)

// Outcome is the terminal classification of one page task.
// Every task ends with exactly one outcome.
type Outcome int

const (
	// OutcomeFetched means the page was fetched, converted and saved.
	OutcomeFetched Outcome = iota

	// OutcomeFetchFailed means the HTTP fetch failed (timeout, status, network).
	OutcomeFetchFailed

	// OutcomeExtractionFailed means no content region or no usable Markdown was found.
	OutcomeExtractionFailed

	// OutcomeSaveFailed means the Markdown file could not be written or indexed.
	OutcomeSaveFailed
)

// Outcomes lists every outcome in declaration order.
var Outcomes = []Outcome{OutcomeFetched, OutcomeFetchFailed, OutcomeExtractionFailed, OutcomeSaveFailed}

// String returns the outcome name used in logs, reports and the history database.
func (o Outcome) String() string {
	switch o {
	case OutcomeFetched:
		return "fetched"
	case OutcomeFetchFailed:
		return "fetch_failed"
	case OutcomeExtractionFailed:
		return "extraction_failed"
	case OutcomeSaveFailed:
		return "save_failed"
	default:
		return "unknown"
	}
}

// ParseOutcome converts a stored outcome name back into an Outcome.
// Unknown names map to OutcomeFetchFailed with ok=false.
func ParseOutcome(s string) (Outcome, bool) {
	for _, o := range Outcomes {
		if o.String() == s {
			return o, true
		}
	}
	return OutcomeFetchFailed, false
}

// PageTask is the unit of work handed to a worker.
type PageTask struct {
	// URL is the normalized absolute URL of the documentation page.
	URL string
}

// PageResult is what a worker reports back for one PageTask.
type PageResult struct {
	// SourceURL is the URL of the task that produced this result.
	SourceURL string

	// Markdown is the converted page body. Empty when extraction failed.
	Markdown string

	// Title is the extracted page title. Empty when extraction failed.
	Title string

	// Filename is the name of the written file, relative to the output directory.
	// Empty when nothing was saved.
	Filename string

	// Outcome classifies the result.
	Outcome Outcome

	// Err holds the cause for every outcome other than OutcomeFetched.
	Err error

	// LowContent is set when the Markdown body is suspiciously short.
	LowContent bool

	// Degraded is set when Markdown rendering failed and the body holds
	// the plain text of the page instead.
	Degraded bool

	// Duration is the wall time the worker spent on the task.
	Duration time.Duration
}

// Succeeded reports whether the page was saved and can be indexed.
func (r *PageResult) Succeeded() bool {
	return r.Outcome == OutcomeFetched && r.Filename != "" && r.Err == nil
}

// ContentHash returns the hex SHA3-256 digest of the Markdown body,
// or an empty string when there is no body.
func (r *PageResult) ContentHash() string {
	if r.Markdown == "" {
		return ""
	}
	sum := sha3.Sum256([]byte(r.Markdown))
	return hex.EncodeToString(sum[:])
}

// IndexEntry is one line of the manifest. It is created only after a successful save.
type IndexEntry struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
}

// CleanTitle returns the title with embedded line breaks collapsed to spaces
// and surrounding whitespace trimmed, as written to the manifest.
func (e IndexEntry) CleanTitle() string {
	title := strings.ReplaceAll(e.Title, "\r\n", " ")
	title = strings.ReplaceAll(title, "\n", " ")
	title = strings.ReplaceAll(title, "\r", " ")
	return strings.TrimSpace(title)
}

// SortIndexEntries sorts entries by filename, ascending, byte order.
// The sort is stable so entries sharing a filename keep their relative order.
func SortIndexEntries(entries []IndexEntry) {
	slices.SortStableFunc(entries, func(a, b IndexEntry) int {
		return strings.Compare(a.Filename, b.Filename)
	})
}

// CrawlSummary accumulates the outcome of a run.
// Results arrive from concurrently completing tasks, so all mutation goes
// through the mutex-guarded methods.
type CrawlSummary struct {
	// TotalDiscovered is the number of URLs produced by link discovery.
	TotalDiscovered int

	mu      sync.Mutex
	indexed []IndexEntry
	failed  map[string]error
	results []*PageResult
}

// NewCrawlSummary creates an empty summary for totalDiscovered URLs.
func NewCrawlSummary(totalDiscovered int) *CrawlSummary {
	return &CrawlSummary{
		TotalDiscovered: totalDiscovered,
		indexed:         make([]IndexEntry, 0, totalDiscovered),
		failed:          make(map[string]error),
		results:         make([]*PageResult, 0, totalDiscovered),
	}
}

// AddIndexed records a successfully saved and titled page.
func (s *CrawlSummary) AddIndexed(entry IndexEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexed = append(s.indexed, entry)
}

// AddFailed records a failed URL with its cause. A URL is only recorded once;
// later causes for the same URL are ignored.
func (s *CrawlSummary) AddFailed(url string, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.failed[url]; ok {
		return
	}
	s.failed[url] = cause
}

// AddResult keeps the raw worker result for reporting and history.
func (s *CrawlSummary) AddResult(result *PageResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
}

// Indexed returns a copy of the index entries sorted by filename.
func (s *CrawlSummary) Indexed() []IndexEntry {
	s.mu.Lock()
	entries := slices.Clone(s.indexed)
	s.mu.Unlock()

	SortIndexEntries(entries)
	return entries
}

// IndexedCount returns the number of indexed pages.
func (s *CrawlSummary) IndexedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.indexed)
}

// FailedURLs returns the failed URLs in ascending order.
func (s *CrawlSummary) FailedURLs() []string {
	s.mu.Lock()
	urls := make([]string, 0, len(s.failed))
	for u := range s.failed {
		urls = append(urls, u)
	}
	s.mu.Unlock()

	slices.Sort(urls)
	return urls
}

// FailedCount returns the number of failed URLs.
func (s *CrawlSummary) FailedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.failed)
}

// FailureCause returns the recorded cause for a failed URL.
func (s *CrawlSummary) FailureCause(url string) (error, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err, ok := s.failed[url]
	return err, ok
}

// Results returns the recorded worker results sorted by source URL.
func (s *CrawlSummary) Results() []*PageResult {
	s.mu.Lock()
	results := slices.Clone(s.results)
	s.mu.Unlock()

	slices.SortFunc(results, func(a, b *PageResult) int {
		return strings.Compare(a.SourceURL, b.SourceURL)
	})
	return results
}

// OutcomeCounts returns how many results ended with each outcome.
func (s *CrawlSummary) OutcomeCounts() map[Outcome]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[Outcome]int, 4)
	for _, r := range s.results {
		counts[r.Outcome]++
	}
	return counts
}

// CrawlRun describes one complete execution of the crawler.
// It is the state carried through the orchestrator's phases.
type CrawlRun struct {
	// EntryURL is the documentation page links are discovered from.
	EntryURL string

	// OutputDir is where page files and the manifest are written.
	OutputDir string

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time

	// EntryHTML is the body of the entry page, set by the seeding phase.
	EntryHTML string

	// Discovered holds the URLs found by link discovery, sorted.
	Discovered []string

	// Tasks are the page tasks actually dispatched to workers.
	Tasks []PageTask

	// Summary is the accumulated result, created by the dispatching phase.
	Summary *CrawlSummary

	// ManifestPath is the path of the written manifest, empty if none was written.
	ManifestPath string

	// PerformedPhases lists the names of completed phases, in order.
	PerformedPhases []string
}

// NewCrawlRun creates a run for entryURL writing into outputDir.
func NewCrawlRun(entryURL, outputDir string) *CrawlRun {
	return &CrawlRun{
		EntryURL:        entryURL,
		OutputDir:       outputDir,
		StartedAt:       time.Now(),
		PerformedPhases: make([]string, 0, 6),
	}
}

// Elapsed returns the run duration. For an unfinished run it is measured up to now.
func (r *CrawlRun) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
