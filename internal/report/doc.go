// Package report renders the summary of a crawl run.
//
// A RunSummary is built once from a finished model.CrawlRun and written by
// one of the writers:
//   - SimpleWriter: plain text for the terminal (counts and failed URLs)
//   - MarkdownWriter: a Markdown document with tables and an outcome pie chart
//   - JSONWriter: structured JSON for scripts and CI
package report
