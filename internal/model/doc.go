// Package model defines the data carried through a documentation crawl.
//
// A PageTask is handed to a worker, which answers with a PageResult holding
// exactly one Outcome. Successful results become IndexEntry values in the
// CrawlSummary; every other result lands in its failed set. A CrawlRun ties
// the summary to the entry URL, output directory and timing of one run.
//
// CrawlSummary is safe for concurrent use. The other types are plain values.
package model
